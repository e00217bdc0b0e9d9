package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/vcdesk/deckeval/internal/domain"
)

// SheetColumns is the fixed column order for spreadsheet and CSV
// exports. Changing it breaks existing sheets, so new columns go at
// the end.
var SheetColumns = []string{
	"timestamp",
	"file_name",
	"company_name",
	"company_description",
	"score_critical",
	"score_neutral",
	"score_positive",
	"recommendation_critical",
	"recommendation_neutral",
	"recommendation_positive",
	"overall_summary",
	"item_evaluations_json",
	"strengths_json",
	"weaknesses_json",
	"red_flags_json",
	"axis_scores_json",
	"axis_comments_json",
	"validation_questions_json",
	"final_verdict",
}

// BuildRow flattens a record into one export row following
// SheetColumns. Structured fields are serialized as compact JSON cells.
func BuildRow(rec *domain.EvaluationRecord) []string {
	axisScores := map[string]any{"stage": "", "industry": "", "bm": ""}
	axisComments := map[string]string{}
	validationQuestions := map[string][]string{}
	if result, ok := rec.Stage2.Result(); ok {
		axisScores["stage"] = result.StageScore.Float()
		axisScores["industry"] = result.IndustryScore.Float()
		axisScores["bm"] = result.BMScore.Float()
		axisComments = result.AxisComments
		validationQuestions = result.ValidationQuestions
	}

	return []string{
		rec.CreatedAt.UTC().Format(time.RFC3339),
		rec.DocumentName,
		rec.Stage1.CompanyName,
		rec.Stage1.OneLineSummary,
		strconv.Itoa(rec.Scores.Critical),
		strconv.Itoa(rec.Scores.Neutral),
		strconv.Itoa(rec.Scores.Positive),
		rec.Recommendations.Critical,
		rec.Recommendations.Neutral,
		rec.Recommendations.Positive,
		rec.Stage1.OverallSummary,
		jsonCell(rec.Stage1.ItemEvaluations),
		jsonCell(rec.Stage1.Strengths),
		jsonCell(rec.Stage1.Weaknesses),
		jsonCell(rec.Stage1.RedFlags),
		jsonCell(axisScores),
		jsonCell(axisComments),
		jsonCell(validationQuestions),
		rec.FinalVerdict,
	}
}

// WriteCSV writes the header and one row per record, ordered by
// document name for a stable dump.
func WriteCSV(w io.Writer, records []*domain.EvaluationRecord) error {
	ordered := make([]*domain.EvaluationRecord, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].DocumentName < ordered[j].DocumentName
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(SheetColumns); err != nil {
		return err
	}
	for _, rec := range ordered {
		if err := cw.Write(BuildRow(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func jsonCell(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(data)
}
