package services

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// DefaultHttpClient is shared by every tool that reaches out over HTTP.
// HTTP_TIMEOUT_SECONDS overrides the 30 second timeout.
var DefaultHttpClient = sync.OnceValue(func() *http.Client {
	return &http.Client{Timeout: httpTimeout()}
})

func httpTimeout() time.Duration {
	raw := os.Getenv("HTTP_TIMEOUT_SECONDS")
	if raw == "" {
		return defaultHTTPTimeout
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return defaultHTTPTimeout
	}
	return time.Duration(seconds) * time.Second
}
