package quarantine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/brdata/dqflow/internal/domain"
	"github.com/brdata/dqflow/internal/validation"
)

const quarantineSheet = "Quarentena"

type excelSink struct {
	path string
}

func (s *excelSink) Write(run domain.Run, rejects []validation.Reject) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create quarantine directory: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, quarantineSheet); err != nil {
		return fmt.Errorf("failed to rename quarantine sheet: %w", err)
	}

	if err := writeExcelRow(f, 1, columns); err != nil {
		return err
	}
	for idx, reject := range rejects {
		if err := writeExcelRow(f, idx+2, rejectRow(reject)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save quarantine workbook: %w", err)
	}
	return nil
}

func writeExcelRow(f *excelize.File, rowNumber int, values []string) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNumber)
		if err != nil {
			return fmt.Errorf("failed to address quarantine cell: %w", err)
		}
		if err := f.SetCellValue(quarantineSheet, cell, value); err != nil {
			return fmt.Errorf("failed to write quarantine cell %s: %w", cell, err)
		}
	}
	return nil
}
