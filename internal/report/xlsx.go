package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pamadmin/internal/core"
)

const (
	summarySheet = "Summary"
	daysSheet    = "Days"
)

// WriteXLSX writes r as a workbook with a Summary and a Days sheet.
func WriteXLSX(w io.Writer, r core.MonthReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(daysSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	title := []any{"Attendance " + r.Status.Month.Label()}
	if err := writeTable(f, summarySheet, title, anyRow(SummaryHeader), SummaryRows(r), bold); err != nil {
		return err
	}
	if err := writeTable(f, daysSheet, title, anyRow(DayHeader(r.Status)), DayRows(r.Status), bold); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeTable puts title on row 1, header on row 3 and rows below it.
func writeTable(f *excelize.File, sheet string, title, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &title); err != nil {
		return fmt.Errorf("%s title: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 3)
	if err := f.SetCellStyle(sheet, "A3", last, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+4)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
