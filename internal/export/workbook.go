package export

import (
	"fmt"
	"strings"

	"sjsage522/reviewworker/internal/review"

	"github.com/xuri/excelize/v2"
)

const (
	reviewSheet  = "Reviews"
	summarySheet = "Summary"
)

var reviewHeaders = []string{
	"Model ID", "Review ID", "Star", "Evaluation", "Ratings", "User",
	"Purchase Date", "Message", "Images", "Videos",
}

// WorkbookName returns the spreadsheet name for a summary
func WorkbookName(s review.Summary) string {
	return strings.TrimSuffix(s.FileName(), ".txt") + ".xlsx"
}

// BuildWorkbook renders the reviews and the summary as an XLSX workbook
func BuildWorkbook(summary review.Summary, reviews []review.Review) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reviewSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, reviewSheet, 1, toCells(reviewHeaders)); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(reviewHeaders))
	if err := f.SetCellStyle(reviewSheet, "A1", lastCol+"1", style); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(reviewSheet, "A", lastCol, 20); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	for i, r := range reviews {
		ratings := make([]string, len(r.Ratings))
		for j, rating := range r.Ratings {
			ratings[j] = rating.Name + ": " + rating.Value
		}
		row := []interface{}{
			r.ModelID, r.ReviewID, r.Star, r.Evaluation,
			strings.Join(ratings, "\n"), r.UserName, r.PurchaseDate, r.Message,
			strings.Join(r.ImageURLs, "\n"), strings.Join(r.VideoURLs, "\n"),
		}
		if err := writeRow(f, reviewSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summaryRows := [][]interface{}{
		{"제품명", summary.ProductName},
		{"모델명", summary.ModelName},
		{"리뷰개수", summary.ReviewCount},
		{"별점", summary.Score},
		{"장점 키워드", strings.Join(summary.Keywords, "\n")},
	}
	for i, row := range summaryRows {
		if err := writeRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summaryRows)), style); err != nil {
		return nil, fmt.Errorf("failed to style summary: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
