package graph

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument is returned for malformed engine input, such as a
	// negative subgraph depth or a non-string display text.
	ErrInvalidArgument = errors.New("graph: invalid argument")
)

func invalidArgumentf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
