package storage

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/vcdesk/deckeval/internal/ports"
)

const defaultSheetName = "Sheet1"

// SheetSink appends evaluation rows to one worksheet of a spreadsheet.
type SheetSink struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.RowSink = (*SheetSink)(nil)

// NewSheetSink builds a sink for the given spreadsheet. sheetName
// empty uses the default first-sheet name.
func NewSheetSink(ctx context.Context, spreadsheetID, sheetName string, credentialsJSON []byte) (*SheetSink, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	var opts []option.ClientOption
	if len(credentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &SheetSink{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// EnsureHeader writes the header row only when the first row is empty.
func (s *SheetSink) EnsureHeader(ctx context.Context, header []string) error {
	resp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, fmt.Sprintf("%s!A1:Z1", s.sheetName)).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading header row: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}
	return s.AppendRows(ctx, [][]string{header})
}

// AppendRows appends rows after the last populated row, inserting new
// rows rather than overwriting.
func (s *SheetSink) AppendRows(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}

	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, fmt.Sprintf("%s!A1", s.sheetName), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending %d rows: %w", len(rows), err)
	}
	return nil
}
