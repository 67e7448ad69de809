package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const isoDate = "2006-01-02"

// XLSXDecoder reads the first sheet of an Office Open XML workbook.
type XLSXDecoder struct{}

// Kind returns KindXLSX.
func (d *XLSXDecoder) Kind() Kind { return KindXLSX }

// Decode returns the first sheet's rows as text. Date cells are rendered as
// YYYY-MM-DD using the workbook's epoch, never as raw serial numbers.
func (d *XLSXDecoder) Decode(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]

	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, fmt.Errorf("reading workbook properties: %w", err)
	}
	date1904 := props.Date1904 != nil && *props.Date1904

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	for r, row := range rows {
		for c, raw := range row {
			if raw == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, fmt.Errorf("cell %d,%d: %w", r+1, c+1, err)
			}
			if date, ok := xlsxDate(f, sheet, cell, raw, date1904); ok {
				row[c] = date
			}
		}
	}
	return rows, nil
}

// xlsxDate converts a date-typed or date-formatted cell to YYYY-MM-DD.
func xlsxDate(f *excelize.File, sheet, cell, raw string, date1904 bool) (string, bool) {
	if typ, err := f.GetCellType(sheet, cell); err == nil && typ == excelize.CellTypeDate {
		if len(raw) >= len(isoDate) {
			if t, err := time.Parse(isoDate, raw[:len(isoDate)]); err == nil {
				return t.Format(isoDate), true
			}
		}
	}

	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return "", false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || !isDateStyle(style) {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return "", false
	}
	return t.Format(isoDate), true
}

// isDateStyle reports whether a number format renders dates. Custom formats
// are scanned for day or year tokens.
func isDateStyle(style *excelize.Style) bool {
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return isDateFormatID(style.NumFmt)
}

// isDateFormatID reports whether a built-in number format (ECMA-376
// 18.8.30) shows a calendar date. Time-only formats 18-21 and 45-47 do not.
func isDateFormatID(id int) bool {
	return (id >= 14 && id <= 17) || id == 22 ||
		(id >= 27 && id <= 36) || (id >= 50 && id <= 58)
}

func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	plain := b.String()
	return strings.ContainsAny(plain, "dy")
}
