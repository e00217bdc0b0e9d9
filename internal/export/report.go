// Package export renders evaluation records into the outward-facing
// artifacts: Markdown reports, spreadsheet rows, and CSV dumps. All
// rendering is pure; the same record always yields byte-identical
// output so republishing stays idempotent.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vcdesk/deckeval/internal/domain"
)

// RenderReport produces the Markdown evaluation report for a record.
func RenderReport(rec *domain.EvaluationRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Evaluation Report - %s\n\n", rec.DocumentName)
	fmt.Fprintf(&b, "Generated: %s\n\n", rec.CreatedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Company: %s\n", rec.Stage1.CompanyName)
	fmt.Fprintf(&b, "- One-line: %s\n", rec.Stage1.OneLineSummary)
	fmt.Fprintf(&b, "- Logic score: %g / pass gate: %t\n", rec.Stage1.LogicScore.Float(), rec.Stage1.PassGate)
	fmt.Fprintf(&b, "- Final verdict: %s\n\n", rec.FinalVerdict)

	b.WriteString("## Perspective Scores\n")
	b.WriteString("| Perspective | Score | Recommendation |\n")
	b.WriteString("|---|---|---|\n")
	fmt.Fprintf(&b, "| Critical | %d | %s |\n", rec.Scores.Critical, rec.Recommendations.Critical)
	fmt.Fprintf(&b, "| Neutral | %d | %s |\n", rec.Scores.Neutral, rec.Recommendations.Neutral)
	fmt.Fprintf(&b, "| Positive | %d | %s |\n\n", rec.Scores.Positive, rec.Recommendations.Positive)

	if rec.Stage1.OverallSummary != "" {
		b.WriteString("## Overall Summary\n")
		b.WriteString(rec.Stage1.OverallSummary)
		b.WriteString("\n\n")
	}

	b.WriteString("## Item Evaluations\n")
	b.WriteString("| Item | Score | Comment | Feedback |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, item := range domain.RubricItems {
		eval, ok := rec.Stage1.ItemEvaluations[item]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| %s | %g | %s | %s |\n",
			item, eval.Score.Float(), sanitizeCell(eval.Comment), sanitizeCell(eval.Feedback))
	}
	b.WriteString("\n")

	writeJSONSection(&b, "Strengths", rec.Stage1.Strengths)
	writeJSONSection(&b, "Weaknesses", rec.Stage1.Weaknesses)
	writeJSONSection(&b, "Red Flags", rec.Stage1.RedFlags)

	if result, ok := rec.Stage2.Result(); ok {
		b.WriteString("## Fit Scores\n")
		fmt.Fprintf(&b, "- Stage (%s): %g\n", result.StageLabel, result.StageScore.Float())
		fmt.Fprintf(&b, "- Industry (%s): %g\n", result.IndustryLabel, result.IndustryScore.Float())
		fmt.Fprintf(&b, "- Business model: %g\n\n", result.BMScore.Float())

		writeJSONSection(&b, "Axis Comments", result.AxisComments)
		writeJSONSection(&b, "Validation Questions", result.ValidationQuestions)
	} else {
		b.WriteString("## Fit Evaluation\n")
		b.WriteString("Skipped: logic score below gate threshold.\n")
	}

	return b.String()
}

// ReportFileName derives the published artifact name for a document.
func ReportFileName(documentName string) string {
	base := strings.TrimSuffix(documentName, ".pdf")
	base = strings.TrimSuffix(base, ".md")
	return base + "_evaluation.md"
}

func writeJSONSection(b *strings.Builder, title string, value any) {
	fmt.Fprintf(b, "## %s\n```json\n%s\n```\n\n", title, marshalStable(value))
}

// marshalStable renders maps with sorted keys so reports are
// reproducible byte for byte.
func marshalStable(value any) string {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func sanitizeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
