package ingest

import (
	"path/filepath"
	"strings"
)

// Kind names a statement file format.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindXLSX Kind = "xlsx"
	KindXLS  Kind = "xls"
)

// minCells is the fewest populated cells a row needs to be kept.
const minCells = 3

// Decoder converts statement file bytes into raw rows of cell text.
type Decoder interface {
	Decode(data []byte) ([][]string, error)
	Kind() Kind
}

// Table is a decoded statement: the header row and the data rows below it.
type Table struct {
	Header  []string
	Rows    [][]string
	Dropped int // rows discarded for having too few populated cells
}

// HeaderFunc reports whether a row is a statement's column header.
type HeaderFunc func(row []string) bool

// Registry holds one decoder per kind.
type Registry struct {
	decoders map[Kind]Decoder
	isHeader HeaderFunc
}

// NewRegistry creates an empty decoder registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[Kind]Decoder)}
}

// Register adds a decoder. Panics on duplicate kind.
func (r *Registry) Register(d Decoder) {
	if _, ok := r.decoders[d.Kind()]; ok {
		panic("duplicate decoder kind: " + string(d.Kind()))
	}
	r.decoders[d.Kind()] = d
}

// SetHeaderFunc makes Read take the first row fn accepts as the header.
// Wide rows above it are dropped as title block. When no row is accepted
// the first wide row is used.
func (r *Registry) SetHeaderFunc(fn HeaderFunc) {
	r.isHeader = fn
}

// Get returns the decoder for kind, or nil.
func (r *Registry) Get(kind Kind) Decoder {
	return r.decoders[Kind(strings.ToLower(string(kind)))]
}

// DefaultRegistry returns a registry with all built-in decoders.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CSVDecoder{})
	r.Register(&XLSXDecoder{})
	r.Register(&XLSDecoder{})
	return r
}

// KindFromName derives the statement kind from a file name's extension.
func KindFromName(name string) (Kind, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch k := Kind(ext); k {
	case KindCSV, KindXLSX, KindXLS:
		return k, nil
	}
	return "", &UnsupportedFormatError{Name: name, Ext: ext}
}

// Read decodes data as kind and splits the header from the data rows.
func (r *Registry) Read(data []byte, kind Kind) (*Table, error) {
	d := r.Get(kind)
	if d == nil {
		return nil, &UnsupportedFormatError{Ext: string(kind)}
	}
	rows, err := d.Decode(data)
	if err != nil {
		return nil, &FormatError{Kind: d.Kind(), Err: err}
	}
	return newTable(rows, r.isHeader), nil
}

// Read decodes data with the default registry.
func Read(data []byte, kind Kind) (*Table, error) {
	return DefaultRegistry().Read(data, kind)
}

// newTable splits off the header row. Bank exports often carry a title
// block above it, so rows with too few populated cells never qualify.
func newTable(rows [][]string, isHeader HeaderFunc) *Table {
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}

	header := findHeader(rows, isHeader)
	if header < 0 && isHeader != nil {
		header = findHeader(rows, nil)
	}

	t := &Table{}
	for i, row := range rows {
		switch {
		case i == header:
			t.Header = row
		case i < header || populated(row) < minCells:
			t.Dropped++
		default:
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

func findHeader(rows [][]string, isHeader HeaderFunc) int {
	for i, row := range rows {
		if populated(row) >= minCells && (isHeader == nil || isHeader(row)) {
			return i
		}
	}
	return -1
}

func populated(row []string) int {
	n := 0
	for _, c := range row {
		if c != "" {
			n++
		}
	}
	return n
}
