// Package overrides applies site-specific replacement text to the regions of
// the consent form template that a site has chosen to individualize.
package overrides

import (
	"github.com/jonathan/consent-builder/internal/matching"
)

// Field is one individualizable region of the template.
type Field struct {
	// Name identifies the field in logs and reports.
	Name string
	// FlagKey holds "yes" when the site overrides this field.
	FlagKey string
	// TextKey holds the replacement markup.
	TextKey string
	// Chain lists the matchers in priority order.
	Chain matching.Chain
}

const (
	FieldReimbursement  = "reimbursement"
	FieldDataProtection = "data_protection"
	FieldComplaint      = "complaint"
)

// DefaultFields returns the three individualizable fields of the consent
// form in the order they are applied. Each field has its own chain because
// the template encoded them with different conventions over time.
func DefaultFields() []Field {
	return []Field{
		{
			Name:    FieldReimbursement,
			FlagKey: "1a_individual_reimbursement",
			TextKey: "1a_individual_reimbursement_text",
			Chain: matching.Chain{
				matching.NewMarkers("REIMBURSEMENT_START", "REIMBURSEMENT_END"),
				matching.NewHeadingSection("Aufwandsentschädigung"),
			},
		},
		{
			Name:    FieldDataProtection,
			FlagKey: "1b_individual_data_protection",
			TextKey: "1b_individual_data_protection_text",
			Chain: matching.Chain{
				matching.NewHeadingPair("Verantwortliche", "Rechtsgrundlage"),
				matching.NewMarkers("DPO_START", "DPO_END"),
				matching.NewHeadingSection("Verantwortliche"),
			},
		},
		{
			Name:    FieldComplaint,
			FlagKey: "1c_individual_complain",
			TextKey: "1c_individual_complain_text",
			Chain: matching.Chain{
				matching.NewHeadingToSection("Beschwerderecht", "Einwilligungserklärung"),
				matching.NewMarkers("COMPLAIN_START", "COMPLAIN_END"),
				matching.NewHeadingSection("Beschwerderecht"),
			},
		},
	}
}
