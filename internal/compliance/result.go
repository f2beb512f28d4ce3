package compliance

import "time"

// Result is the outcome of checking one statement. A non-compliant statement
// is a normal result, not an error.
type Result struct {
	PayStubID         string    `json:"pay_stub_id,omitempty"`
	StateCode         string    `json:"state_code"`
	IsCompliant       bool      `json:"is_compliant"`
	FederalCompliance bool      `json:"federal_compliance"`
	StateCompliance   bool      `json:"state_compliance"`
	ADACompliance     bool      `json:"ada_compliance"`
	MissingFields     []string  `json:"missing_fields"`
	Issues            []string  `json:"issues"`
	Warnings          []string  `json:"warnings"`
	Recommendations   []string  `json:"recommendations"`
	CheckedAt         time.Time `json:"checked_at"`
}

type Summary struct {
	TotalIssues          int `json:"total_issues"`
	TotalWarnings        int `json:"total_warnings"`
	TotalRecommendations int `json:"total_recommendations"`
}

// Report is Result plus the counts and disclaimers a wage statement must print.
type Report struct {
	Result
	Summary             Summary  `json:"compliance_summary"`
	RequiredDisclaimers []string `json:"required_disclaimers"`
}

// section is the partial outcome of one rule set.
type section struct {
	compliant       bool
	missingFields   []string
	issues          []string
	warnings        []string
	recommendations []string
}

func (s *section) missing(field string) {
	s.compliant = false
	s.missingFields = append(s.missingFields, field)
}

func (s *section) issue(msg string) {
	s.compliant = false
	s.issues = append(s.issues, msg)
}

func (s *section) warn(msg string) {
	s.warnings = append(s.warnings, msg)
}

func (s *section) recommend(msg string) {
	s.recommendations = append(s.recommendations, msg)
}

func appendUnique(dst []string, seen map[string]struct{}, items ...string) []string {
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		dst = append(dst, item)
	}
	return dst
}
