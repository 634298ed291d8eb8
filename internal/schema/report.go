package schema

// Source format tags.
const (
	SourceStan    = "stan"
	SourceStripe  = "stripe"
	SourceUnknown = "unknown"
)

// HeaderMapping pairs a raw header with the field it was mapped to.
type HeaderMapping struct {
	Header string `json:"header"`
	Field  string `json:"field"`
}

// MappingReport describes one normalization. It is built once by Process and
// not modified afterwards.
type MappingReport struct {
	SourceFormat    string          `json:"csv_type"`
	OriginalHeaders []string        `json:"original_headers"`
	Mapped          []HeaderMapping `json:"mapped_headers"`
	Unmapped        []string        `json:"unmapped_headers"`
	MissingRequired []string        `json:"missing_required_fields"`
	Synthesized     []string        `json:"synthesized_fields,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
	Legacy          bool            `json:"legacy_format"`
	Success         bool            `json:"mapping_success"`
	TotalColumns    int             `json:"total_columns"`
	MappedColumns   int             `json:"mapped_columns"`
	Rows            int             `json:"rows"`
}

// FieldFor returns the canonical field a header was mapped to.
func (r *MappingReport) FieldFor(header string) (string, bool) {
	for _, hm := range r.Mapped {
		if hm.Header == header {
			return hm.Field, true
		}
	}
	return "", false
}
