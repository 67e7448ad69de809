package ingest

import "fmt"

// Error kinds reported to callers for the two fatal failures.
const (
	ErrorKindFormat            = "format"
	ErrorKindUnsupportedFormat = "unsupported_format"
)

// FormatError means the file could not be decoded as its declared kind.
type FormatError struct {
	Kind Kind
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot read %s statement: %v", e.Kind, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ErrorKind returns ErrorKindFormat.
func (e *FormatError) ErrorKind() string { return ErrorKindFormat }

// UnsupportedFormatError means the file type is not csv, xlsx or xls.
type UnsupportedFormatError struct {
	Name string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("unsupported statement format for %q (want csv, xlsx or xls)", e.Name)
	}
	return fmt.Sprintf("unsupported statement format %q (want csv, xlsx or xls)", e.Ext)
}

// ErrorKind returns ErrorKindUnsupportedFormat.
func (e *UnsupportedFormatError) ErrorKind() string { return ErrorKindUnsupportedFormat }
