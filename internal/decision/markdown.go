package decision

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders every preset's DecisionResult as one Markdown document.
func RenderMarkdown(results []*DecisionResult) string {
	var sb strings.Builder

	sb.WriteString("# Decision Gate Report\n\n")
	sb.WriteString("Deploy optimistic (async) x402 settlement?\n\n")
	sb.WriteString(fmt.Sprintf("## Overall: %s\n\n", Overall(results)))

	for _, r := range results {
		renderResult(&sb, r)
	}

	return sb.String()
}

func renderResult(sb *strings.Builder, result *DecisionResult) {
	sb.WriteString(fmt.Sprintf("## %s: %s\n\n", result.Preset, result.Decision))

	if result.Decision == DecisionInsufficientData {
		sb.WriteString(fmt.Sprintf("Missing schemes: %s\n\n", strings.Join(result.Missing, ", ")))
		return
	}

	// GO Criteria table
	sb.WriteString("### GO Criteria\n\n")
	sb.WriteString("| # | Criterion | Threshold | Actual | Pass |\n")
	sb.WriteString("|---|-----------|-----------|--------|------|\n")
	goPassed := 0
	for i, c := range result.GOCriteria {
		passStr := "FAIL"
		if c.Pass {
			passStr = "PASS"
			goPassed++
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, c.Name, c.Threshold, c.Actual, passStr))
	}
	sb.WriteString(fmt.Sprintf("\nGO Criteria: %d/%d passed\n\n", goPassed, len(result.GOCriteria)))

	// NO-GO Triggers table
	sb.WriteString("### NO-GO Triggers\n\n")
	sb.WriteString("| # | Trigger | Condition | Actual | Status |\n")
	sb.WriteString("|---|---------|-----------|--------|--------|\n")
	nogoTriggered := 0
	for i, c := range result.NOGOChecks {
		statusStr := "NOT TRIGGERED"
		if !c.Pass { // Pass=false means triggered
			statusStr = "TRIGGERED"
			nogoTriggered++
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, c.Name, c.Threshold, c.Actual, statusStr))
	}
	sb.WriteString(fmt.Sprintf("\nNO-GO Triggers: %d/%d triggered\n\n", nogoTriggered, len(result.NOGOChecks)))

	if result.Decision == DecisionNOGO {
		sb.WriteString("Decision is NO-GO due to:\n")
		for _, c := range result.GOCriteria {
			if !c.Pass {
				sb.WriteString(fmt.Sprintf("- GO criterion failed: %s (actual: %s)\n", c.Name, c.Actual))
			}
		}
		for _, c := range result.NOGOChecks {
			if !c.Pass {
				sb.WriteString(fmt.Sprintf("- NO-GO trigger fired: %s (actual: %s)\n", c.Name, c.Actual))
			}
		}
		sb.WriteString("\n")
	}
}
