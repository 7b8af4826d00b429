package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fmuoria/resume-parser/internal/models"
	"github.com/fmuoria/resume-parser/internal/reconcile"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the exported workbook
const (
	SummarySheet    = "Summary"
	CandidatesSheet = "Candidates"
	EducationSheet  = "Education"
	ExperienceSheet = "Experience"
)

// row fills for parsed, conflicting and failed resumes
const (
	fillOK       = "C6EFCE"
	fillConflict = "FFEB9C"
	fillFailed   = "FFC7CE"
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// ExportToExcel writes parsed resumes to an Excel workbook
func ExportToExcel(results []models.ParsedResume, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	// Ensure output path has .xlsx extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	// Clean the path for cross-platform compatibility (Windows paths)
	outputPath = filepath.Clean(outputPath)

	f.SetSheetName("Sheet1", SummarySheet)
	for _, name := range []string{CandidatesSheet, EducationSheet, ExperienceSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create %s sheet: %w", name, err)
		}
	}

	if err := createSummarySheet(f, SummarySheet, results); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := createCandidatesSheet(f, CandidatesSheet, results); err != nil {
		return fmt.Errorf("failed to create candidates sheet: %w", err)
	}
	if err := createEducationSheet(f, EducationSheet, results); err != nil {
		return fmt.Errorf("failed to create education sheet: %w", err)
	}
	if err := createExperienceSheet(f, ExperienceSheet, results); err != nil {
		return fmt.Errorf("failed to create experience sheet: %w", err)
	}

	// Try to save the file directly
	if err := f.SaveAs(outputPath); err != nil {
		// If direct save fails, try buffer write fallback
		var buf bytes.Buffer
		if writeErr := f.Write(&buf); writeErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}

		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}

	return nil
}

func headerStyle(f *excelize.File, size float64, horizontal string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: size, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: horizontal, Vertical: "center"},
		Border:    thinBorder,
	})
}

func fillStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    thinBorder,
	})
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) {
	for col, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func freezeTopRow(f *excelize.File, sheet string) {
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// createSummarySheet writes batch totals and the most frequent skills
func createSummarySheet(f *excelize.File, sheetName string, results []models.ParsedResume) error {
	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "B", "B", 40)

	titleStyle, err := headerStyle(f, 14, "left")
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	failed, conflicts, merged := 0, 0, 0
	skillCount := map[string]int{}
	for _, r := range results {
		if r.Error != "" {
			failed++
			continue
		}
		if r.Reconcile != nil {
			switch reconcile.Status(r.Reconcile.Status) {
			case reconcile.StatusConflict:
				conflicts++
			case reconcile.StatusMerge:
				merged++
			}
		}
		for _, s := range r.Record.Skills {
			skillCount[s]++
		}
	}

	row := 1
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Resume Parsing Report")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), titleStyle)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row += 2

	stats := []struct {
		label string
		value any
	}{
		{"Generated:", time.Now().Format("2006-01-02 15:04:05")},
		{"Documents:", len(results)},
		{"Parsed:", len(results) - failed},
		{"Failed:", failed},
		{"Merged into existing:", merged},
		{"Conflicts to review:", conflicts},
	}
	for _, s := range stats {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), s.label)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), s.value)
		row++
	}
	row++

	if len(skillCount) == 0 {
		return nil
	}

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Top Skills")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), titleStyle)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row++

	for _, s := range topSkills(skillCount, 15) {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), s)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), skillCount[s])
		row++
	}

	return nil
}

// topSkills orders skills by frequency, then name, keeping at most n
func topSkills(counts map[string]int, n int) []string {
	skills := make([]string, 0, len(counts))
	for s := range counts {
		skills = append(skills, s)
	}
	sort.Slice(skills, func(i, j int) bool {
		if counts[skills[i]] != counts[skills[j]] {
			return counts[skills[i]] > counts[skills[j]]
		}
		return skills[i] < skills[j]
	})
	if len(skills) > n {
		skills = skills[:n]
	}
	return skills
}

// createCandidatesSheet writes one color-coded row per document
func createCandidatesSheet(f *excelize.File, sheetName string, results []models.ParsedResume) error {
	widths := map[string]float64{"A": 6, "B": 25, "C": 25, "D": 30, "E": 20, "F": 40, "G": 30, "H": 14, "I": 40}
	for col, w := range widths {
		f.SetColWidth(sheetName, col, col, w)
	}

	hdr, err := headerStyle(f, 11, "center")
	if err != nil {
		return err
	}
	okStyle, err := fillStyle(f, fillOK)
	if err != nil {
		return err
	}
	conflictStyle, err := fillStyle(f, fillConflict)
	if err != nil {
		return err
	}
	failedStyle, err := fillStyle(f, fillFailed)
	if err != nil {
		return err
	}

	writeHeaders(f, sheetName, []string{"#", "File", "Candidate", "Emails", "Phones", "Skills", "Degrees", "Status", "Error"}, hdr)

	for i, r := range results {
		row := i + 2
		status := ""
		if r.Reconcile != nil {
			status = r.Reconcile.StatusText
		}

		values := []any{
			i + 1,
			r.Filename,
			candidateName(r),
			strings.Join(r.Record.Emails, ", "),
			strings.Join(r.Record.Phones, ", "),
			strings.Join(r.Record.Skills, ", "),
			strings.Join(r.Record.Education.Degrees, ", "),
			status,
			r.Error,
		}
		for col, v := range values {
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", string(rune('A'+col)), row), v)
		}

		style := okStyle
		switch {
		case r.Error != "":
			style = failedStyle
		case r.Reconcile != nil && reconcile.Status(r.Reconcile.Status) == reconcile.StatusConflict:
			style = conflictStyle
		}
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), style)
	}

	if len(results) > 0 {
		f.AutoFilter(sheetName, fmt.Sprintf("A1:I%d", len(results)+1), []excelize.AutoFilterOptions{})
	}
	freezeTopRow(f, sheetName)

	return nil
}

// candidateName is the display name without the filename fallback
func candidateName(r models.ParsedResume) string {
	if r.ResolvedName != "" {
		return r.ResolvedName
	}
	return strings.Join(r.Record.Name, " / ")
}

// createEducationSheet lists the three education lists side by side
func createEducationSheet(f *excelize.File, sheetName string, results []models.ParsedResume) error {
	f.SetColWidth(sheetName, "A", "A", 25)
	f.SetColWidth(sheetName, "B", "B", 25)
	f.SetColWidth(sheetName, "C", "C", 40)
	f.SetColWidth(sheetName, "D", "D", 40)

	hdr, err := headerStyle(f, 11, "center")
	if err != nil {
		return err
	}
	writeHeaders(f, sheetName, []string{"Candidate", "Dates", "Schools / Colleges", "Degrees"}, hdr)

	row := 2
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		edu := r.Record.Education
		n := max(len(edu.Dates), len(edu.Institutions), len(edu.Degrees))
		for i := 0; i < n; i++ {
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.DisplayName())
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), at(edu.Dates, i))
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), at(edu.Institutions, i))
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), at(edu.Degrees, i))
			row++
		}
	}

	freezeTopRow(f, sheetName)
	return nil
}

// createExperienceSheet writes one row per date range, ordered by range
func createExperienceSheet(f *excelize.File, sheetName string, results []models.ParsedResume) error {
	f.SetColWidth(sheetName, "A", "A", 25)
	f.SetColWidth(sheetName, "B", "B", 25)
	f.SetColWidth(sheetName, "C", "C", 60)

	hdr, err := headerStyle(f, 11, "center")
	if err != nil {
		return err
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}
	writeHeaders(f, sheetName, []string{"Candidate", "Period", "Description"}, hdr)

	row := 2
	for _, r := range results {
		periods := make([]string, 0, len(r.Record.Experience))
		for p := range r.Record.Experience {
			periods = append(periods, p)
		}
		sort.Strings(periods)

		for _, p := range periods {
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.DisplayName())
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), p)
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.Record.Experience[p])
			f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), wrapStyle)
			row++
		}
	}

	freezeTopRow(f, sheetName)
	return nil
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
