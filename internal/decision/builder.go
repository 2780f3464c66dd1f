package decision

import (
	"x402-lab/internal/domain"
	"x402-lab/internal/reporting"
)

// Build creates one DecisionInput per preset section, in report order.
func Build(report *reporting.Report) []DecisionInput {
	inputs := make([]DecisionInput, 0, len(report.Presets))
	for _, sec := range report.Presets {
		in := DecisionInput{Preset: sec.Preset}
		for i := range sec.Rows {
			row := &sec.Rows[i]
			switch row.Scheme {
			case domain.SchemeNoX402:
				in.NoX402 = row
			case domain.SchemeSync:
				in.Sync = row
			case domain.SchemeAsync:
				in.Async = row
			}
		}
		inputs = append(inputs, in)
	}
	return inputs
}
