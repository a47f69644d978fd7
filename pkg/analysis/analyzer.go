package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/athapong/lexgraph-mcp/pkg/graph/processors"
	"github.com/sirupsen/logrus"
)

// Risk levels reported by AssessRisk.
const (
	RiskHigh   = "HIGH"
	RiskMedium = "MEDIUM"
	RiskLow    = "LOW"
)

// Compliance statuses.
const (
	StatusRelevant      = "relevant"
	StatusNotApplicable = "not_applicable"
	StatusNotAssessed   = "not_assessed"
	StatusNeedsReview   = "needs_review"
	StatusCompliant     = "compliant"
)

// GeneralDocument is the classification used when no indicator matches.
const GeneralDocument = "general_document"

const contextWindow = 20

// DocumentInfo identifies the analysed document in the report.
type DocumentInfo struct {
	DocumentID string `json:"document_id,omitempty"`
	Filename   string `json:"filename,omitempty"`
}

type Summary struct {
	Summary       string   `json:"summary"`
	WordCount     int      `json:"word_count"`
	SentenceCount int      `json:"sentence_count"`
	KeyTopics     []string `json:"key_topics"`
	SummaryLength int      `json:"summary_length"`
}

type RiskTerm struct {
	Term    string `json:"term"`
	Context string `json:"context"`
}

type ConfidentialityIssue struct {
	Type    string `json:"type"`
	Context string `json:"context"`
}

type RiskAssessment struct {
	HighRiskTerms         []RiskTerm             `json:"high_risk_terms"`
	ConfidentialityIssues []ConfidentialityIssue `json:"confidentiality_issues"`
	OverallRiskScore      int                    `json:"overall_risk_score"`
	RiskLevel             string                 `json:"risk_level"`
}

type Classification struct {
	DocumentType string   `json:"document_type"`
	Confidence   float64  `json:"confidence"`
	Indicators   []string `json:"indicators"`
}

type ComplianceStatus struct {
	Status string   `json:"status"`
	Issues []string `json:"issues"`
}

type ComplianceCheck struct {
	GDPR    ComplianceStatus `json:"gdpr_compliance"`
	HIPAA   ComplianceStatus `json:"hipaa_compliance"`
	SOX     ComplianceStatus `json:"sox_compliance"`
	Overall string           `json:"overall_compliance"`
}

// Report is the full output of Analyze.
type Report struct {
	DocumentID        string          `json:"document_id,omitempty"`
	Filename          string          `json:"filename,omitempty"`
	AnalysisTimestamp time.Time       `json:"analysis_timestamp"`
	Summary           Summary         `json:"summary"`
	RiskAssessment    RiskAssessment  `json:"risk_assessment"`
	Entities          graph.Entities  `json:"entities"`
	Classification    Classification  `json:"classification"`
	ComplianceCheck   ComplianceCheck `json:"compliance_check"`
	Recommendations   []string        `json:"recommendations"`
}

func ci(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + pattern + `)\b`)
}

var (
	topicPatterns = []*regexp.Regexp{
		ci(`machine learning|artificial intelligence|AI|ML|deep learning|neural networks`),
		ci(`quantum computing|blockchain|cryptocurrency|bitcoin|ethereum`),
		ci(`climate change|global warming|sustainability|renewable energy`),
		ci(`cybersecurity|privacy|data protection|encryption|authentication`),
		ci(`contract|agreement|legal|law|regulation|compliance`),
		ci(`research|study|analysis|investigation|experiment`),
		ci(`technology|innovation|startup|entrepreneurship|business`),
	}
	capitalizedPhrase = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	commonWords       = map[string]bool{
		"The": true, "And": true, "For": true, "With": true, "From": true, "This": true, "That": true,
		"They": true, "Have": true, "Will": true, "Been": true, "Were": true, "Would": true, "Could": true, "Should": true,
	}
	sentenceSplit = regexp.MustCompile(`[.!?]+`)

	highRiskPatterns = []*regexp.Regexp{
		ci(`confidential|secret|classified|restricted|private`),
		ci(`breach|violation|non-compliance|penalty|fine`),
		ci(`terminate|cancel|void|invalid|unenforceable`),
		ci(`liability|damages|compensation|settlement`),
	}
	confidentialPatterns = []*regexp.Regexp{
		ci(`ssn|social\s+security|credit\s+card|bank\s+account|password`),
		ci(`address|phone|email|birth\s+date|driver\s+license`),
	}

	classifications = []struct {
		docType  string
		patterns []*regexp.Regexp
	}{
		{"contract", []*regexp.Regexp{
			ci(`agreement|contract|terms|conditions|clause|party|parties`),
			ci(`effective\s+date|termination|renewal|amendment`),
		}},
		{"legal_notice", []*regexp.Regexp{
			ci(`notice|notification|warning|cease\s+and\s+desist|demand`),
			ci(`legal\s+action|lawsuit|litigation|court|judgment`),
		}},
		{"policy_document", []*regexp.Regexp{
			ci(`policy|procedure|guideline|standard|requirement|compliance`),
			ci(`employee|staff|personnel|workplace|conduct`),
		}},
		{"research_paper", []*regexp.Regexp{
			ci(`abstract|introduction|methodology|conclusion|references|bibliography`),
			ci(`research|study|analysis|investigation|findings`),
		}},
	}

	gdprPatterns = []*regexp.Regexp{
		ci(`personal\s+data|data\s+subject|consent|right\s+to\s+erasure`),
		ci(`data\s+protection|privacy|processing|storage|transfer`),
	}
	hipaaPatterns = []*regexp.Regexp{
		ci(`health\s+information|medical\s+record|patient|treatment|diagnosis`),
		ci(`phi|protected\s+health\s+information|healthcare|hospital|clinic`),
	}

	datePresence       = ci(`date|effective\s+date|issued|created`)
	signaturePresence  = ci(`signature|signed|authorized|approved`)
	obligationPresence = ci(`shall|must|will|should`)
)

// Analyzer produces heuristic legal-document reports.
type Analyzer struct {
	logger    *logrus.Logger
	extractor *processors.LegalProcessor
	now       func() time.Time
}

func NewAnalyzer() *Analyzer {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &Analyzer{
		logger:    logger,
		extractor: processors.NewLegalProcessor(),
		now:       time.Now,
	}
}

// WithLogger replaces the analyzer's logger.
func (a *Analyzer) WithLogger(logger *logrus.Logger) *Analyzer {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Analyze runs every check over text.
func (a *Analyzer) Analyze(text string, info DocumentInfo) *Report {
	report := &Report{
		DocumentID:        info.DocumentID,
		Filename:          info.Filename,
		AnalysisTimestamp: a.now(),
		Summary:           a.Summarize(text),
		RiskAssessment:    a.AssessRisk(text),
		Entities:          a.ExtractEntities(text),
		Classification:    a.Classify(text),
		ComplianceCheck:   a.CheckCompliance(text),
		Recommendations:   a.Recommend(text),
	}

	a.logger.WithFields(logrus.Fields{
		"document_id":   info.DocumentID,
		"filename":      info.Filename,
		"document_type": report.Classification.DocumentType,
		"risk_level":    report.RiskAssessment.RiskLevel,
	}).Info("Document analysis completed")
	return report
}

// ExtractEntities runs the regex legal extractor.
func (a *Analyzer) ExtractEntities(text string) graph.Entities {
	return a.extractor.Extract(text)
}

// Summarize reports word and sentence counts, key topics and the first three
// sentences.
func (a *Analyzer) Summarize(text string) Summary {
	if text == "" {
		return Summary{Summary: "No text content available", KeyTopics: []string{}}
	}

	sentences := sentenceSplit.Split(text, -1)
	sentenceCount := 0
	for _, s := range sentences {
		if strings.TrimSpace(s) != "" {
			sentenceCount++
		}
	}

	lead := make([]string, 0, 3)
	for _, s := range sentences[:min(3, len(sentences))] {
		if s = strings.TrimSpace(s); s != "" {
			lead = append(lead, s)
		}
	}
	summary := strings.Join(lead, " ")

	return Summary{
		Summary:       summary,
		WordCount:     len(strings.Fields(text)),
		SentenceCount: sentenceCount,
		KeyTopics:     keyTopics(text),
		SummaryLength: len(summary),
	}
}

// keyTopics falls back to capitalised phrases when no known topic appears.
func keyTopics(text string) []string {
	topics := make([]string, 0)
	seen := make(map[string]bool)
	for _, re := range topicPatterns {
		for _, m := range re.FindAllString(text, -1) {
			topic := strings.ToLower(m)
			if !seen[topic] {
				seen[topic] = true
				topics = append(topics, topic)
			}
		}
	}

	if len(topics) == 0 {
		for _, phrase := range capitalizedPhrase.FindAllString(text, -1) {
			if commonWords[phrase] {
				continue
			}
			topics = append(topics, phrase)
			if len(topics) == 5 {
				break
			}
		}
	}

	if len(topics) > 10 {
		topics = topics[:10]
	}
	return topics
}

// AssessRisk scores 10 points per high-risk term and 15 per confidentiality
// hit, capped at 100.
func (a *Analyzer) AssessRisk(text string) RiskAssessment {
	risk := RiskAssessment{
		HighRiskTerms:         make([]RiskTerm, 0),
		ConfidentialityIssues: make([]ConfidentialityIssue, 0),
	}

	for _, re := range highRiskPatterns {
		for _, m := range re.FindAllStringIndex(text, -1) {
			risk.HighRiskTerms = append(risk.HighRiskTerms, RiskTerm{
				Term:    text[m[0]:m[1]],
				Context: window(text, m[0], m[1]),
			})
		}
	}
	for _, re := range confidentialPatterns {
		for _, m := range re.FindAllStringIndex(text, -1) {
			risk.ConfidentialityIssues = append(risk.ConfidentialityIssues, ConfidentialityIssue{
				Type:    "personal_information",
				Context: window(text, m[0], m[1]),
			})
		}
	}

	score := len(risk.HighRiskTerms)*10 + len(risk.ConfidentialityIssues)*15
	risk.OverallRiskScore = min(score, 100)

	switch {
	case risk.OverallRiskScore >= 70:
		risk.RiskLevel = RiskHigh
	case risk.OverallRiskScore >= 40:
		risk.RiskLevel = RiskMedium
	default:
		risk.RiskLevel = RiskLow
	}
	return risk
}

// window widens the byte range [start, end) by contextWindow runes each side.
func window(text string, start, end int) string {
	for i := 0; i < contextWindow && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	for i := 0; i < contextWindow && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}

// Classify picks the document type with the most indicator matches. Ties go
// to the earlier type in contract, legal_notice, policy_document,
// research_paper order.
func (a *Analyzer) Classify(text string) Classification {
	best, bestScore := -1, 0
	indicators := make([][]string, len(classifications))

	for i, c := range classifications {
		score := 0
		for _, re := range c.patterns {
			count := len(re.FindAllStringIndex(text, -1))
			score += count
			if count > 0 {
				indicators[i] = append(indicators[i], fmt.Sprintf("Found %d %s indicators", count, c.docType))
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 {
		return Classification{
			DocumentType: GeneralDocument,
			Confidence:   0.1,
			Indicators:   []string{"No specific document type indicators found"},
		}
	}

	return Classification{
		DocumentType: classifications[best].docType,
		Confidence:   min(float64(bestScore)/10.0, 1.0),
		Indicators:   indicators[best],
	}
}

// CheckCompliance flags GDPR relevance above five indicators and HIPAA above
// three.
func (a *Analyzer) CheckCompliance(text string) ComplianceCheck {
	check := ComplianceCheck{
		GDPR:  ComplianceStatus{Status: StatusNotApplicable, Issues: []string{}},
		HIPAA: ComplianceStatus{Status: StatusNotApplicable, Issues: []string{}},
		SOX:   ComplianceStatus{Status: StatusNotAssessed, Issues: []string{}},
	}

	if countAll(gdprPatterns, text) > 5 {
		check.GDPR.Status = StatusRelevant
		check.GDPR.Issues = append(check.GDPR.Issues, "Document contains personal data processing information")
	}
	if countAll(hipaaPatterns, text) > 3 {
		check.HIPAA.Status = StatusRelevant
		check.HIPAA.Issues = append(check.HIPAA.Issues, "Document contains health information")
	}

	relevant, withIssues := 0, 0
	for _, s := range []ComplianceStatus{check.GDPR, check.HIPAA, check.SOX} {
		if s.Status == StatusRelevant {
			relevant++
			if len(s.Issues) > 0 {
				withIssues++
			}
		}
	}
	switch {
	case relevant == 0:
		check.Overall = StatusNotApplicable
	case withIssues > 0:
		check.Overall = StatusNeedsReview
	default:
		check.Overall = StatusCompliant
	}
	return check
}

func countAll(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range patterns {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

// Recommend lists drafting suggestions.
func (a *Analyzer) Recommend(text string) []string {
	recs := make([]string, 0)

	wordCount := len(strings.Fields(text))
	if wordCount < 100 {
		recs = append(recs, "Document is very short - consider adding more detail")
	} else if wordCount > 5000 {
		recs = append(recs, "Document is very long - consider breaking into sections")
	}

	if !datePresence.MatchString(text) {
		recs = append(recs, "Consider adding a date or effective date")
	}
	if !signaturePresence.MatchString(text) {
		recs = append(recs, "Consider adding signature or authorization information")
	}
	if obligationPresence.MatchString(text) {
		recs = append(recs, "Document contains obligations - ensure clarity and enforceability")
	}

	if len(recs) == 0 {
		recs = append(recs,
			"Document appears well-structured",
			"Consider having legal counsel review if this is a binding agreement",
		)
	}
	return recs
}
