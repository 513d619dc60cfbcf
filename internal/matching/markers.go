package matching

import (
	"regexp"
)

// Markers replaces the span between two HTML comment markers such as
// <!-- REIMBURSEMENT_START --> and <!-- REIMBURSEMENT_END -->.
type Markers struct {
	Start string
	End   string

	pattern *regexp.Regexp
}

// NewMarkers builds a marker matcher for the given start and end names.
func NewMarkers(start, end string) *Markers {
	return &Markers{
		Start: start,
		End:   end,
		pattern: regexp.MustCompile(`(?i)<!--` + space + `*` + regexp.QuoteMeta(start) + space + `*-->` +
			`[\s\S]*?<!--` + space + `*` + regexp.QuoteMeta(end) + space + `*-->`),
	}
}

// Name implements Matcher.
func (m *Markers) Name() string { return "markers" }

// Attempt implements Matcher. The matched markers are re-emitted in their
// normalized form with the replacement on its own lines between them.
func (m *Markers) Attempt(document, replacement string) Result {
	loc := m.pattern.FindStringIndex(document)
	if loc == nil {
		return Result{Document: document}
	}
	block := "<!-- " + m.Start + " -->\n" + replacement + "\n<!-- " + m.End + " -->"
	return Result{Document: document[:loc[0]] + block + document[loc[1]:], Found: true}
}

// ReplaceBetweenMarkers replaces the content between the first start marker
// and the first end marker that follows it.
func ReplaceBetweenMarkers(document, start, end, replacement string) (string, bool) {
	res := NewMarkers(start, end).Attempt(document, replacement)
	return res.Document, res.Found
}
