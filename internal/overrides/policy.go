package overrides

import (
	"strings"

	"go.uber.org/zap"
)

// Entry is the per-site configuration a policy reads from.
type Entry interface {
	ID() string
	Value(key string) (string, bool)
}

// Status is the outcome of one field for one site.
type Status string

const (
	StatusInactive    Status = "inactive"
	StatusMissingText Status = "missing_text"
	StatusReplaced    Status = "replaced"
	StatusNotFound    Status = "not_found"
)

// FieldReport describes what happened to one field.
type FieldReport struct {
	Field   string `json:"field"`
	Status  Status `json:"status"`
	Matcher string `json:"matcher,omitempty"`
}

// Warning reports whether the outcome needs the user's attention.
func (r FieldReport) Warning() bool {
	return r.Status == StatusMissingText || r.Status == StatusNotFound
}

// TextFilter transforms replacement text before it is inserted.
type TextFilter func(string) string

// Policy applies a fixed list of fields to documents.
// It holds no mutable state and may be shared between goroutines.
type Policy struct {
	Fields []Field
	Filter TextFilter
}

// NewPolicy creates a policy over the given fields. filter may be nil.
func NewPolicy(fields []Field, filter TextFilter) *Policy {
	return &Policy{Fields: fields, Filter: filter}
}

// DefaultPolicy returns a policy over DefaultFields without a text filter.
func DefaultPolicy() *Policy {
	return NewPolicy(DefaultFields(), nil)
}

// Apply runs every field against the document in order. Each field sees the
// document as left by the previous one. Missing text and missing regions are
// logged as warnings and never stop processing.
func (p *Policy) Apply(log *zap.Logger, entry Entry, document string) (string, []FieldReport) {
	reports := make([]FieldReport, 0, len(p.Fields))
	for _, field := range p.Fields {
		var report FieldReport
		document, report = p.ApplyField(log, entry, field, document)
		reports = append(reports, report)
	}
	return document, reports
}

// ApplyField runs a single field against the document.
func (p *Policy) ApplyField(log *zap.Logger, entry Entry, field Field, document string) (string, FieldReport) {
	report := FieldReport{Field: field.Name}

	if !isActive(entry, field.FlagKey) {
		report.Status = StatusInactive
		return document, report
	}

	text, _ := entry.Value(field.TextKey)
	if text == "" {
		report.Status = StatusMissingText
		log.Warn("Override enabled but replacement text is missing",
			zap.String("site", entry.ID()),
			zap.String("field", field.Name),
			zap.String("flag_key", field.FlagKey),
			zap.String("text_key", field.TextKey),
			zap.String("outcome", string(report.Status)),
		)
		return document, report
	}

	if p.Filter != nil {
		text = p.Filter(text)
	}

	res, matcher := field.Chain.Attempt(document, text)
	if !res.Found {
		report.Status = StatusNotFound
		log.Warn("Could not locate field region",
			zap.String("site", entry.ID()),
			zap.String("field", field.Name),
			zap.Strings("tried", field.Chain.Names()),
			zap.String("outcome", string(report.Status)),
		)
		return document, report
	}

	report.Status = StatusReplaced
	report.Matcher = matcher
	log.Debug("Field replaced",
		zap.String("site", entry.ID()),
		zap.String("field", field.Name),
		zap.String("matcher", matcher),
		zap.String("outcome", string(report.Status)),
	)
	return res.Document, report
}

// isActive treats an absent flag as "no".
func isActive(entry Entry, flagKey string) bool {
	flag, ok := entry.Value(flagKey)
	if !ok {
		return false
	}
	return strings.ToLower(flag) == "yes"
}
