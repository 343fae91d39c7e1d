package store

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

var errHeaderMismatch = errors.New("xlsx header mismatch")

// openOrCreateBook parses the whole workbook so a damaged file is rejected
// before anything is mutated. A missing file yields an empty workbook; fresh
// reports whether it was synthesized.
func openOrCreateBook(path string) (f *excelize.File, fresh bool, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		if !os.IsNotExist(statErr) {
			return nil, false, statErr
		}
		return excelize.NewFile(), true, nil
	}

	f, err = excelize.OpenFile(path)
	if err != nil {
		return nil, false, err
	}
	for _, sh := range f.GetSheetList() {
		if _, err := f.GetRows(sh); err != nil {
			_ = f.Close()
			return nil, false, fmt.Errorf("sheet %s: %w", sh, err)
		}
	}
	return f, false, nil
}

func hasSheet(f *excelize.File, sheet string) bool {
	for _, s := range f.GetSheetList() {
		if s == sheet {
			return true
		}
	}
	return false
}

// ensureSheet creates sheet when missing. On a synthesized workbook the
// placeholder Sheet1 is renamed instead so the file only holds our tables.
func ensureSheet(f *excelize.File, sheet string, fresh bool) (created bool, err error) {
	if f == nil || strings.TrimSpace(sheet) == "" {
		return false, errors.New("empty sheet name")
	}
	if hasSheet(f, sheet) {
		return false, nil
	}
	if fresh && hasSheet(f, defaultSheet) {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return false, err
		}
		return true, nil
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return false, err
	}
	return true, nil
}

// ensureHeader writes header into an empty sheet and returns the sheet rows
// afterwards (header included).
func ensureHeader(f *excelize.File, sheet string, header []string) ([][]string, error) {
	existing, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		if err := writeRow(f, sheet, 1, header); err != nil {
			return nil, err
		}
		applyHeaderStyle(f, sheet, len(header))
		applyAutoWidth(f, sheet, header, header)
		return [][]string{append([]string(nil), header...)}, nil
	}
	if !sameHeader(existing[0], header) {
		return nil, fmt.Errorf("%w for sheet %s: %q", errHeaderMismatch, sheet, existing[0])
	}
	return existing, nil
}

func writeRow(f *excelize.File, sheet string, rowIndex int, values []string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowIndex)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func sameHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimSpace(a[i]) != b[i] {
			return false
		}
	}
	return true
}

func applyHeaderStyle(f *excelize.File, sheet string, cols int) {
	if f == nil || cols <= 0 {
		return
	}
	styleID, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "D9D9D9", Style: 1},
			{Type: "right", Color: "D9D9D9", Style: 1},
			{Type: "top", Color: "D9D9D9", Style: 1},
			{Type: "bottom", Color: "D9D9D9", Style: 1},
		},
	})
	if err != nil {
		return
	}
	start, _ := excelize.CoordinatesToCellName(1, 1)
	end, _ := excelize.CoordinatesToCellName(cols, 1)
	_ = f.SetCellStyle(sheet, start, end, styleID)
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// applyAutoWidth only ever widens a column, so a short row never shrinks
// what an earlier long cover letter needed.
func applyAutoWidth(f *excelize.File, sheet string, header []string, row []string) {
	if f == nil {
		return
	}
	n := len(header)
	if len(row) > n {
		n = len(row)
	}
	for i := 0; i < n; i++ {
		maxLen := 0
		if i < len(header) {
			maxLen = len([]rune(header[i]))
		}
		if i < len(row) {
			if l := len([]rune(row[i])); l > maxLen {
				maxLen = l
			}
		}
		w := float64(maxLen + 2)
		if w < 12 {
			w = 12
		}
		if w > 60 {
			w = 60
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			continue
		}
		if cur, err := f.GetColWidth(sheet, col); err == nil && cur >= w {
			continue
		}
		_ = f.SetColWidth(sheet, col, col, w)
	}
}
