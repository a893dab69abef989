package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"
)

// sheetWriter renders workbooks as "=== SHEET: name ===" headers followed by one
// line per non-empty row, cells joined with " | ".
type sheetWriter struct {
	b strings.Builder
}

func (w *sheetWriter) sheet(name string) {
	if w.b.Len() > 0 {
		w.b.WriteString("\n\n")
	}
	w.b.WriteString("=== SHEET: ")
	w.b.WriteString(name)
	w.b.WriteString(" ===")
}

func (w *sheetWriter) row(cells []string) {
	vals := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			vals = append(vals, c)
		}
	}
	if len(vals) == 0 {
		return
	}
	w.b.WriteByte('\n')
	w.b.WriteString(strings.Join(vals, " | "))
}

func (w *sheetWriter) String() string {
	return w.b.String()
}

// ParseXLSX renders every sheet of an Office Open XML workbook.
func ParseXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var w sheetWriter
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		w.sheet(name)
		for _, row := range rows {
			w.row(row)
		}
	}
	return w.String(), nil
}

// ParseXLS renders every sheet of a legacy BIFF workbook.
func ParseXLS(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open xls: %w", err)
	}

	var w sheetWriter
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %d: %w", i, err)
		}
		if sheet == nil {
			continue
		}
		w.sheet(sheet.GetName())
		for _, row := range sheet.GetRows() {
			w.row(xlsCells(row.GetCols()))
		}
	}
	return w.String(), nil
}

func xlsCells(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}
