package overrides

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/consent-builder/internal/mapping"
	"github.com/jonathan/consent-builder/internal/matching"
)

const consentTemplate = `<h2>Teilnahme</h2>
<h3>Aufwandsentschädigung</h3>
<p>10 EUR</p>
<h2>Datenschutz</h2>
<h3>Verantwortliche</h3>
<p>Uni A</p>
<h3>Rechtsgrundlage</h3>
<p>DSGVO</p>
<h3>Beschwerderecht</h3>
<p>Aufsicht A</p>
<h2>Einwilligungserklärung</h2>
<p>Ich willige ein</p>
`

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func warnings(logs *observer.ObservedLogs) []observer.LoggedEntry {
	return logs.FilterLevelExact(zapcore.WarnLevel).All()
}

func site(values map[string]string) mapping.Site {
	return mapping.Site{Key: "site_a", Values: values}
}

// countingMatcher records how often it was asked to match.
type countingMatcher struct {
	calls int
}

func (m *countingMatcher) Name() string { return "counting" }

func (m *countingMatcher) Attempt(document, replacement string) matching.Result {
	m.calls++
	return matching.Result{Document: document}
}

func TestApply_AllFieldsSequential(t *testing.T) {
	log, logs := newObservedLogger()
	entry := site(map[string]string{
		"1a_individual_reimbursement":        "yes",
		"1a_individual_reimbursement_text":   "<p>20 EUR</p>",
		"1b_individual_data_protection":      "YES",
		"1b_individual_data_protection_text": "<p>Uni B</p>",
		"1c_individual_complain":             "Yes",
		"1c_individual_complain_text":        "<p>Aufsicht B</p>",
	})

	got, reports := DefaultPolicy().Apply(log, entry, consentTemplate)

	want := strings.NewReplacer(
		"<p>10 EUR</p>", "<p>20 EUR</p>",
		"<p>Uni A</p>", "<p>Uni B</p>",
		"<p>Aufsicht A</p>", "<p>Aufsicht B</p>",
	).Replace(consentTemplate)
	assert.Equal(t, want, got)

	require.Len(t, reports, 3)
	assert.Equal(t, FieldReport{Field: FieldReimbursement, Status: StatusReplaced, Matcher: "heading_section"}, reports[0])
	assert.Equal(t, FieldReport{Field: FieldDataProtection, Status: StatusReplaced, Matcher: "heading_pair"}, reports[1])
	assert.Equal(t, FieldReport{Field: FieldComplaint, Status: StatusReplaced, Matcher: "heading_to_section"}, reports[2])
	assert.Empty(t, warnings(logs))

	for _, text := range []string{"<p>20 EUR</p>", "<p>Uni B</p>", "<p>Aufsicht B</p>"} {
		assert.Equal(t, 1, strings.Count(got, text), "each region replaced exactly once: %s", text)
	}
}

func TestApply_NoAnchorsWarnsOncePerField(t *testing.T) {
	document := "<html><body><p>Kein passender Abschnitt</p></body></html>"

	tests := []struct {
		name   string
		values map[string]string
		field  string
	}{
		{
			name:   "reimbursement",
			values: map[string]string{"1a_individual_reimbursement": "yes", "1a_individual_reimbursement_text": "X"},
			field:  FieldReimbursement,
		},
		{
			name:   "data protection",
			values: map[string]string{"1b_individual_data_protection": "yes", "1b_individual_data_protection_text": "X"},
			field:  FieldDataProtection,
		},
		{
			name:   "complaint",
			values: map[string]string{"1c_individual_complain": "yes", "1c_individual_complain_text": "X"},
			field:  FieldComplaint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, logs := newObservedLogger()

			got, reports := DefaultPolicy().Apply(log, site(tt.values), document)
			assert.Equal(t, document, got)

			warns := warnings(logs)
			require.Len(t, warns, 1)
			fields := warns[0].ContextMap()
			assert.Equal(t, "site_a", fields["site"])
			assert.Equal(t, tt.field, fields["field"])
			assert.Equal(t, string(StatusNotFound), fields["outcome"])

			for _, r := range reports {
				if r.Field == tt.field {
					assert.Equal(t, StatusNotFound, r.Status)
					assert.True(t, r.Warning())
				} else {
					assert.Equal(t, StatusInactive, r.Status)
				}
			}
		})
	}
}

func TestApply_MarkersBeatHeadingFallback(t *testing.T) {
	log, _ := newObservedLogger()
	document := "<h3>Aufwandsentschädigung</h3>\n<!-- REIMBURSEMENT_START --><p>old</p><!-- REIMBURSEMENT_END -->\n<p>after</p>\n<h3>Next</h3>"
	entry := site(map[string]string{
		"1a_individual_reimbursement":      "yes",
		"1a_individual_reimbursement_text": "<p>new</p>",
	})

	got, reports := DefaultPolicy().Apply(log, entry, document)

	assert.Equal(t, "<h3>Aufwandsentschädigung</h3>\n<!-- REIMBURSEMENT_START -->\n<p>new</p>\n<!-- REIMBURSEMENT_END -->\n<p>after</p>\n<h3>Next</h3>", got)
	assert.Equal(t, "markers", reports[0].Matcher)
}

func TestApply_HeadingPairBeatsMarkers(t *testing.T) {
	log, _ := newObservedLogger()
	document := "<h3>Verantwortliche</h3><!-- DPO_START --><p>A</p><!-- DPO_END --><h3>Rechtsgrundlage</h3>"
	entry := site(map[string]string{
		"1b_individual_data_protection":      "yes",
		"1b_individual_data_protection_text": "<p>B</p>",
	})

	got, reports := DefaultPolicy().Apply(log, entry, document)

	assert.Equal(t, "<h3>Verantwortliche</h3><p>B</p>\n<h3>Rechtsgrundlage</h3>", got)
	assert.Equal(t, "heading_pair", reports[1].Matcher)
}

func TestApply_ComplaintFallsBackToMarkers(t *testing.T) {
	log, _ := newObservedLogger()
	document := "<h3>Beschwerderecht</h3><!-- COMPLAIN_START --><p>A</p><!-- COMPLAIN_END --><h2>Anhang</h2>"
	entry := site(map[string]string{
		"1c_individual_complain":      "yes",
		"1c_individual_complain_text": "<p>B</p>",
	})

	got, reports := DefaultPolicy().Apply(log, entry, document)

	assert.Equal(t, "<h3>Beschwerderecht</h3><!-- COMPLAIN_START -->\n<p>B</p>\n<!-- COMPLAIN_END --><h2>Anhang</h2>", got)
	assert.Equal(t, "markers", reports[2].Matcher)
}

func TestApplyField_MissingTextSkipsMatchers(t *testing.T) {
	counter := &countingMatcher{}
	field := Field{
		Name:    "custom",
		FlagKey: "flag",
		TextKey: "text",
		Chain:   matching.Chain{counter},
	}
	policy := NewPolicy([]Field{field}, nil)
	document := "<p>unchanged</p>"

	for name, values := range map[string]map[string]string{
		"absent": {"flag": "yes"},
		"empty":  {"flag": "yes", "text": ""},
	} {
		t.Run(name, func(t *testing.T) {
			log, logs := newObservedLogger()

			got, reports := policy.Apply(log, site(values), document)

			assert.Equal(t, document, got)
			assert.Equal(t, StatusMissingText, reports[0].Status)
			require.Len(t, warnings(logs), 1)
			assert.Equal(t, string(StatusMissingText), warnings(logs)[0].ContextMap()["outcome"])
		})
	}
	assert.Zero(t, counter.calls)
}

func TestApply_FalsyTextInMappingIsMissing(t *testing.T) {
	sites, err := mapping.Parse([]byte(`{
		"uni_false": {"1a_individual_reimbursement": "yes", "1a_individual_reimbursement_text": false},
		"uni_zero": {"1a_individual_reimbursement": "yes", "1a_individual_reimbursement_text": 0}
	}`), mapping.FormatJSON)
	require.NoError(t, err)

	for _, entry := range sites {
		t.Run(entry.Key, func(t *testing.T) {
			log, logs := newObservedLogger()

			got, reports := DefaultPolicy().Apply(log, entry, consentTemplate)

			assert.Equal(t, consentTemplate, got)
			assert.Equal(t, StatusMissingText, reports[0].Status)
			require.Len(t, warnings(logs), 1)
			assert.Equal(t, "reimbursement", warnings(logs)[0].ContextMap()["field"])
		})
	}
}

func TestApplyField_Inactive(t *testing.T) {
	counter := &countingMatcher{}
	field := Field{Name: "custom", FlagKey: "flag", TextKey: "text", Chain: matching.Chain{counter}}
	policy := NewPolicy([]Field{field}, nil)

	for _, flag := range []string{"no", "true", " yes", "y", ""} {
		t.Run("flag "+flag, func(t *testing.T) {
			log, logs := newObservedLogger()

			_, reports := policy.Apply(log, site(map[string]string{"flag": flag, "text": "X"}), "<p>doc</p>")

			assert.Equal(t, StatusInactive, reports[0].Status)
			assert.False(t, reports[0].Warning())
			assert.Zero(t, logs.Len())
		})
	}

	t.Run("flag absent", func(t *testing.T) {
		log, logs := newObservedLogger()
		_, reports := policy.Apply(log, site(map[string]string{"text": "X"}), "<p>doc</p>")
		assert.Equal(t, StatusInactive, reports[0].Status)
		assert.Zero(t, logs.Len())
	})

	assert.Zero(t, counter.calls)
}

func TestApply_FilterTransformsText(t *testing.T) {
	log, _ := newObservedLogger()
	policy := NewPolicy(DefaultFields(), strings.ToUpper)
	entry := site(map[string]string{
		"1a_individual_reimbursement":      "yes",
		"1a_individual_reimbursement_text": "neu",
	})

	got, _ := policy.Apply(log, entry, "<!-- REIMBURSEMENT_START --><!-- REIMBURSEMENT_END -->")

	assert.Equal(t, "<!-- REIMBURSEMENT_START -->\nNEU\n<!-- REIMBURSEMENT_END -->", got)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	log, _ := newObservedLogger()
	original := consentTemplate
	entry := site(map[string]string{
		"1a_individual_reimbursement":      "yes",
		"1a_individual_reimbursement_text": "<p>20 EUR</p>",
	})

	first, _ := DefaultPolicy().Apply(log, entry, original)
	second, _ := DefaultPolicy().Apply(log, entry, original)

	assert.Equal(t, consentTemplate, original)
	assert.Equal(t, first, second)
}
