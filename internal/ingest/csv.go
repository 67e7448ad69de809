package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVDecoder reads delimited text exports. Quoted fields may contain the
// delimiter, and a doubled quote inside them is one literal quote.
type CSVDecoder struct{}

// Kind returns KindCSV.
func (d *CSVDecoder) Kind() Kind { return KindCSV }

// Decode returns every record in data.
func (d *CSVDecoder) Decode(data []byte) ([][]string, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, errors.New("binary content is not delimited text")
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decoding windows-1252: %w", err)
		}
		data = decoded
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	// With a tab delimiter this would swallow empty fields.
	cr.TrimLeadingSpace = cr.Comma != '\t'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return records, nil
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab outside
// quotes on the first line. Ties go to the comma.
func sniffDelimiter(data []byte) rune {
	counts := map[rune]int{}
	inQuotes := false
	for _, r := range string(data) {
		if r == '\n' && !inQuotes {
			break
		}
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',', ';', '\t':
			if !inQuotes {
				counts[r]++
			}
		}
	}
	best := ','
	for _, r := range []rune{';', '\t'} {
		if counts[r] > counts[best] {
			best = r
		}
	}
	return best
}
