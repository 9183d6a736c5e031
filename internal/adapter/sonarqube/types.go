package sonarqube

import "github.com/mdekker/sonarlens/internal/domain"

// searchResponse is the subset of the issue-search payload this client reads.
// An absent issues array decodes to nil and is treated as zero findings.
type searchResponse struct {
	Total  int     `json:"total"`
	Issues []issue `json:"issues"`
}

// issue is one element of the issues array.
type issue struct {
	Key       string `json:"key"`
	Rule      string `json:"rule"`
	Severity  string `json:"severity"`
	Component string `json:"component"`
	Line      int    `json:"line"`
	Message   string `json:"message"`
}

func (i issue) toDomain() domain.Finding {
	return domain.Finding{
		Rule:      i.Rule,
		Severity:  domain.Severity(i.Severity),
		Component: i.Component,
		Line:      i.Line,
		Message:   i.Message,
	}
}
