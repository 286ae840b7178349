package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXWriter writes one-sheet workbooks
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger}
}

// Write saves headers and rows to filePath on a sheet named sheet.
// Numeric cells stay numeric; times are written as text.
func (w *XLSXWriter) Write(filePath, sheet string, headers []string, rows [][]any) error {
	w.logger.Info("Writing XLSX file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(rows)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" && sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	} else {
		sheet = defaultSheet
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := w.writeRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			if _, ok := v.(float64); ok {
				cells[j] = v
			} else {
				cells[j] = formatValue(v)
			}
		}
		if err := w.writeRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (w *XLSXWriter) writeRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
