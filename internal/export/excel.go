package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

const (
	recommendationsSheet = "Recommendations"
	summarySheet         = "Summary"
)

// Meta describes where an exported list came from.
type Meta struct {
	ResumeID    string
	Filter      string
	GeneratedAt time.Time
}

func (m Meta) generatedAt() string {
	at := m.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	return at.UTC().Format(time.RFC3339)
}

// Bands counts jobs per fit-score band, using the same bands as the analytics endpoint.
type Bands struct {
	Strong int
	Good   int
	Weak   int
}

func bandsOf(jobs []smartrecruit.JobMatch) Bands {
	var b Bands
	for _, job := range jobs {
		switch {
		case job.FitScore >= 80:
			b.Strong++
		case job.FitScore >= 60:
			b.Good++
		default:
			b.Weak++
		}
	}
	return b
}

// ToExcel writes the recommendations to an xlsx workbook with a Recommendations sheet and a
// Summary sheet. The .xlsx extension is added when missing; the final path is returned.
func ToExcel(meta Meta, jobs []smartrecruit.JobMatch, path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recommendationsSheet); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return "", err
	}

	if err := writeRecommendations(f, jobs); err != nil {
		return "", fmt.Errorf("recommendations sheet: %w", err)
	}
	if err := writeSummary(f, meta, jobs); err != nil {
		return "", fmt.Errorf("summary sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

var recommendationHeaders = []string{"Job ID", "Title", "Company", "Location", "Job Type", "Status", "Fit Score"}

func writeRecommendations(f *excelize.File, jobs []smartrecruit.JobMatch) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	strongStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	closedStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "808080", Italic: true},
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(recommendationsSheet, "A1", &recommendationHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(recommendationsSheet, "A1", "G1", headerStyle); err != nil {
		return err
	}

	for i, job := range jobs {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{job.JobID, job.Title, job.CompanyName, job.Location, job.JobType, string(job.JobStatus), job.FitScore}
		if err := f.SetSheetRow(recommendationsSheet, cell, &values); err != nil {
			return err
		}

		last := fmt.Sprintf("G%d", row)
		switch {
		case job.Closed():
			err = f.SetCellStyle(recommendationsSheet, cell, last, closedStyle)
		case job.FitScore >= 80:
			err = f.SetCellStyle(recommendationsSheet, cell, last, strongStyle)
		}
		if err != nil {
			return err
		}
	}

	if err := f.SetColWidth(recommendationsSheet, "B", "C", 32); err != nil {
		return err
	}
	return f.SetPanes(recommendationsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummary(f *excelize.File, meta Meta, jobs []smartrecruit.JobMatch) error {
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	bands := bandsOf(jobs)
	closed, total := 0, 0
	for _, job := range jobs {
		total += job.FitScore
		if job.Closed() {
			closed++
		}
	}
	average := 0.0
	if len(jobs) > 0 {
		average = float64(total) / float64(len(jobs))
	}

	rows := [][2]any{
		{"Resume", meta.ResumeID},
		{"Filter", meta.Filter},
		{"Generated at", meta.generatedAt()},
		{"Jobs", len(jobs)},
		{"Closed jobs", closed},
		{"Average fit score", fmt.Sprintf("%.1f", average)},
		{"strong (>=80)", bands.Strong},
		{"good (60-79)", bands.Good},
		{"weak (<60)", bands.Weak},
	}

	for i, r := range rows {
		row := i + 1
		label := fmt.Sprintf("A%d", row)
		if err := f.SetCellValue(summarySheet, label, r[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), r[1]); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, label, label, labelStyle); err != nil {
			return err
		}
	}

	return f.SetColWidth(summarySheet, "A", "A", 24)
}
