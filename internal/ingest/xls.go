package ingest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf16"

	"github.com/extrame/ole2"
	"github.com/xuri/excelize/v2"
)

// BIFF8 record ids read by XLSDecoder.
const (
	recFormula    = 0x0006
	recEOF        = 0x000A
	recDateMode   = 0x0022
	recContinue   = 0x003C
	recBoundSheet = 0x0085
	recMulRK      = 0x00BD
	recXF         = 0x00E0
	recSST        = 0x00FC
	recLabelSST   = 0x00FD
	recNumber     = 0x0203
	recLabel      = 0x0204
	recBoolErr    = 0x0205
	recString     = 0x0207
	recRK         = 0x027E
	recFormat     = 0x041E
	recBOF        = 0x0809
)

const biff8 = 0x0600

// XLSDecoder reads the first sheet of a legacy BIFF8 workbook.
type XLSDecoder struct{}

// Kind returns KindXLS.
func (d *XLSDecoder) Kind() Kind { return KindXLS }

// Decode returns the first sheet's rows as text. Numbers keep their stored
// value; cells whose format renders a date become YYYY-MM-DD using the
// workbook's epoch.
func (d *XLSDecoder) Decode(data []byte) ([][]string, error) {
	stream, err := workbookStream(data)
	if err != nil {
		return nil, err
	}
	recs, err := splitRecords(stream)
	if err != nil {
		return nil, err
	}
	wb, err := readGlobals(recs)
	if err != nil {
		return nil, err
	}
	if wb.firstSheet < 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return wb.readSheet(recs, wb.firstSheet)
}

// workbookStream extracts the Workbook stream from the OLE2 container.
func workbookStream(data []byte) (b []byte, err error) {
	// The container reader indexes sector tables without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("reading container: %v", r)
		}
	}()

	if len(data) < 512 {
		return nil, errors.New("file too short for an OLE2 header")
	}
	doc, err := ole2.Open(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	// The stream reader exits the process on a broken sector chain, so
	// every chain it will follow is checked first.
	if err := checkChain(doc.SecID, binary.LittleEndian.Uint32(data[48:])); err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	dir, err := doc.ListDir()
	if err != nil {
		return nil, fmt.Errorf("listing streams: %w", err)
	}

	var book, root *ole2.File
	for _, f := range dir {
		switch f.Name() {
		case "Workbook":
			book = f
		case "Book":
			return nil, errors.New("BIFF5 workbooks are not supported")
		case "Root Entry":
			root = f
		}
	}
	if book == nil || root == nil {
		return nil, errors.New("no Workbook stream")
	}
	if book.Size < miniStreamCutoff {
		err = checkChain(doc.SecID, root.Sstart)
		if err == nil {
			err = checkChain(doc.SSecID, book.Sstart)
		}
	} else {
		err = checkChain(doc.SecID, book.Sstart)
	}
	if err != nil {
		return nil, fmt.Errorf("workbook stream: %w", err)
	}

	b, err = io.ReadAll(doc.OpenFile(book, root))
	if err != nil {
		return nil, fmt.Errorf("reading workbook stream: %w", err)
	}
	if len(b) < int(book.Size) {
		return nil, fmt.Errorf("workbook stream truncated: %d of %d bytes", len(b), book.Size)
	}
	return b[:book.Size], nil
}

// miniStreamCutoff is the size below which OLE2 streams live in the
// short-sector ministream.
const miniStreamCutoff = 4096

// checkChain follows a sector chain through sat, rejecting indexes outside
// the table and cycles.
func checkChain(sat []uint32, start uint32) error {
	steps := 0
	for sid := start; sid != ole2.ENDOFCHAIN; sid = sat[sid] {
		if int(sid) >= len(sat) {
			return fmt.Errorf("sector %d outside allocation table", sid)
		}
		if steps++; steps > len(sat) {
			return errors.New("sector chain loops")
		}
	}
	return nil
}

type record struct {
	id     uint16
	offset int // stream position of the record header
	data   []byte
}

func splitRecords(stream []byte) ([]record, error) {
	var recs []record
	for pos := 0; pos+4 <= len(stream); {
		id := binary.LittleEndian.Uint16(stream[pos:])
		size := int(binary.LittleEndian.Uint16(stream[pos+2:]))
		if id == 0 && size == 0 {
			break // padding after the last substream
		}
		end := pos + 4 + size
		if end > len(stream) {
			return nil, fmt.Errorf("record 0x%04X at %d overruns the stream", id, pos)
		}
		recs = append(recs, record{id: id, offset: pos, data: stream[pos+4 : end]})
		pos = end
	}
	if len(recs) == 0 || recs[0].id != recBOF {
		return nil, errors.New("workbook stream does not start with BOF")
	}
	return recs, nil
}

type xlsBook struct {
	date1904   bool
	xfFormats  []uint16          // number format id per XF index
	formats    map[uint16]string // custom format codes by id
	sst        []string
	firstSheet int // stream offset of the first worksheet's BOF, -1 if none
}

func readGlobals(recs []record) (*xlsBook, error) {
	wb := &xlsBook{formats: make(map[uint16]string), firstSheet: -1}
	if len(recs[0].data) < 2 || binary.LittleEndian.Uint16(recs[0].data) != biff8 {
		return nil, errors.New("only BIFF8 workbooks are supported")
	}

	for i := 1; i < len(recs); i++ {
		rec := recs[i]
		switch rec.id {
		case recEOF:
			return wb, nil
		case recDateMode:
			if len(rec.data) >= 2 {
				wb.date1904 = binary.LittleEndian.Uint16(rec.data) == 1
			}
		case recFormat:
			if len(rec.data) < 2 {
				return nil, errors.New("short FORMAT record")
			}
			code, _, err := readUnicode(rec.data[2:], 2)
			if err != nil {
				return nil, fmt.Errorf("FORMAT record: %w", err)
			}
			wb.formats[binary.LittleEndian.Uint16(rec.data)] = code
		case recXF:
			if len(rec.data) < 4 {
				return nil, errors.New("short XF record")
			}
			wb.xfFormats = append(wb.xfFormats, binary.LittleEndian.Uint16(rec.data[2:]))
		case recBoundSheet:
			// Sheet type lives in the high byte of the second word; 0 is a worksheet.
			if len(rec.data) >= 6 && rec.data[5] == 0 && wb.firstSheet < 0 {
				wb.firstSheet = int(binary.LittleEndian.Uint32(rec.data))
			}
		case recSST:
			segs := [][]byte{rec.data}
			for i+1 < len(recs) && recs[i+1].id == recContinue {
				i++
				segs = append(segs, recs[i].data)
			}
			sst, err := readSST(segs)
			if err != nil {
				return nil, fmt.Errorf("shared strings: %w", err)
			}
			wb.sst = sst
		}
	}
	return nil, errors.New("workbook globals have no EOF")
}

func (wb *xlsBook) readSheet(recs []record, offset int) ([][]string, error) {
	start := -1
	for i, rec := range recs {
		if rec.offset == offset {
			start = i
			break
		}
	}
	if start < 0 || recs[start].id != recBOF {
		return nil, fmt.Errorf("no worksheet at offset %d", offset)
	}

	var rows [][]string
	put := func(r, c uint16, v string) {
		for len(rows) <= int(r) {
			rows = append(rows, nil)
		}
		row := rows[r]
		for len(row) <= int(c) {
			row = append(row, "")
		}
		row[c] = v
		rows[r] = row
	}

	for i := start + 1; i < len(recs); i++ {
		rec := recs[i]
		if rec.id == recEOF {
			return rows, nil
		}
		if !isCellRecord(rec.id) {
			continue
		}
		if len(rec.data) < 6 {
			return nil, fmt.Errorf("short cell record 0x%04X", rec.id)
		}
		r := binary.LittleEndian.Uint16(rec.data)
		c := binary.LittleEndian.Uint16(rec.data[2:])
		xf := binary.LittleEndian.Uint16(rec.data[4:])
		body := rec.data[6:]

		switch rec.id {
		case recNumber:
			if len(body) < 8 {
				return nil, errors.New("short NUMBER record")
			}
			put(r, c, wb.number(xf, math.Float64frombits(binary.LittleEndian.Uint64(body))))
		case recRK:
			if len(body) < 4 {
				return nil, errors.New("short RK record")
			}
			put(r, c, wb.number(xf, rkValue(binary.LittleEndian.Uint32(body))))
		case recMulRK:
			// rw, colFirst, then (ixfe, rk) pairs, then colLast.
			pairs := rec.data[4 : len(rec.data)-2]
			for k := 0; k+6 <= len(pairs); k += 6 {
				put(r, c+uint16(k/6), wb.number(
					binary.LittleEndian.Uint16(pairs[k:]),
					rkValue(binary.LittleEndian.Uint32(pairs[k+2:]))))
			}
		case recLabelSST:
			if len(body) < 4 {
				return nil, errors.New("short LABELSST record")
			}
			idx := int(binary.LittleEndian.Uint32(body))
			if idx >= len(wb.sst) {
				return nil, fmt.Errorf("shared string %d out of range", idx)
			}
			put(r, c, wb.sst[idx])
		case recLabel:
			s, _, err := readUnicode(body, 2)
			if err != nil {
				return nil, fmt.Errorf("LABEL record: %w", err)
			}
			put(r, c, s)
		case recBoolErr:
			if len(body) >= 2 && body[1] == 0 {
				put(r, c, boolText(body[0] != 0))
			}
		case recFormula:
			v, err := wb.formulaResult(xf, body, recs, i)
			if err != nil {
				return nil, err
			}
			put(r, c, v)
		}
	}
	return nil, errors.New("worksheet has no EOF")
}

func isCellRecord(id uint16) bool {
	switch id {
	case recNumber, recRK, recMulRK, recLabelSST, recLabel, recBoolErr, recFormula:
		return true
	}
	return false
}

// formulaResult renders a formula's cached value. String results live in
// the STRING record that follows the formula.
func (wb *xlsBook) formulaResult(xf uint16, body []byte, recs []record, i int) (string, error) {
	if len(body) < 8 {
		return "", errors.New("short FORMULA record")
	}
	if body[6] != 0xFF || body[7] != 0xFF {
		return wb.number(xf, math.Float64frombits(binary.LittleEndian.Uint64(body))), nil
	}
	switch body[0] {
	case 0: // string
		for j := i + 1; j < len(recs); j++ {
			if recs[j].id == recString {
				s, _, err := readUnicode(recs[j].data, 2)
				if err != nil {
					return "", fmt.Errorf("STRING record: %w", err)
				}
				return s, nil
			}
			if isCellRecord(recs[j].id) || recs[j].id == recEOF {
				break
			}
		}
		return "", errors.New("formula string result has no STRING record")
	case 1:
		return boolText(body[2] != 0), nil
	}
	return "", nil
}

// number renders a numeric cell, converting date formats through the
// workbook epoch. Time-only formats stay numeric.
func (wb *xlsBook) number(xf uint16, v float64) string {
	if int(xf) < len(wb.xfFormats) {
		id := wb.xfFormats[xf]
		isDate := isDateFormatID(int(id))
		if code, ok := wb.formats[id]; ok {
			isDate = isDateFormatCode(code)
		}
		if isDate {
			if t, err := excelize.ExcelDateToTime(v, wb.date1904); err == nil {
				return t.Format(isoDate)
			}
		}
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rkValue decodes an RK number: a 30-bit integer or the high 30 bits of a
// double, optionally scaled by 1/100.
func rkValue(rk uint32) float64 {
	var v float64
	if rk&0x02 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		v /= 100
	}
	return v
}

func boolText(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// readUnicode reads an XLUnicodeString whose character count takes lenSize
// bytes. It returns the string and the bytes consumed.
func readUnicode(b []byte, lenSize int) (string, int, error) {
	if len(b) < lenSize+1 {
		return "", 0, io.ErrUnexpectedEOF
	}
	var n int
	if lenSize == 1 {
		n = int(b[0])
	} else {
		n = int(binary.LittleEndian.Uint16(b))
	}
	flags := b[lenSize]
	pos := lenSize + 1
	width := 1
	if flags&0x01 != 0 {
		width = 2
	}
	if len(b) < pos+n*width {
		return "", 0, io.ErrUnexpectedEOF
	}
	s := decodeChars(b[pos:pos+n*width], width)
	return s, pos + n*width, nil
}

func decodeChars(b []byte, width int) string {
	if width == 1 {
		runes := make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
		return string(runes)
	}
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(u))
}

// sstReader walks the SST record and its CONTINUE records as one stream.
// A string's characters may break across a record boundary; the next
// record then opens with a fresh option byte giving the character width.
type sstReader struct {
	segs [][]byte
	seg  int
	pos  int
}

func (r *sstReader) next() error {
	for r.seg < len(r.segs) && r.pos >= len(r.segs[r.seg]) {
		r.seg++
		r.pos = 0
	}
	if r.seg >= len(r.segs) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (r *sstReader) bytes(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		if err := r.next(); err != nil {
			return nil, err
		}
		seg := r.segs[r.seg][r.pos:]
		take := min(n-len(out), len(seg))
		out = append(out, seg[:take]...)
		r.pos += take
	}
	return out, nil
}

func (r *sstReader) uint16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *sstReader) uint32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *sstReader) chars(n int, width int) (string, error) {
	var s []byte
	var out string
	for n > 0 {
		if r.pos >= len(r.segs[r.seg]) {
			out += decodeChars(s, width)
			s = nil
			r.seg++
			r.pos = 0
			if r.seg >= len(r.segs) || len(r.segs[r.seg]) == 0 {
				return "", io.ErrUnexpectedEOF
			}
			width = 1
			if r.segs[r.seg][0]&0x01 != 0 {
				width = 2
			}
			r.pos = 1
			continue
		}
		seg := r.segs[r.seg][r.pos:]
		take := min(n, len(seg)/width)
		if take == 0 {
			return "", io.ErrUnexpectedEOF
		}
		s = append(s, seg[:take*width]...)
		r.pos += take * width
		n -= take
	}
	return out + decodeChars(s, width), nil
}

func readSST(segs [][]byte) ([]string, error) {
	r := &sstReader{segs: segs}
	if _, err := r.uint32(); err != nil { // total references
		return nil, err
	}
	unique, err := r.uint32()
	if err != nil {
		return nil, err
	}

	strs := make([]string, 0, unique)
	for i := uint32(0); i < unique; i++ {
		n, err := r.uint16()
		if err != nil {
			return nil, err
		}
		flags, err := r.bytes(1)
		if err != nil {
			return nil, err
		}
		var runs uint16
		var ext uint32
		if flags[0]&0x08 != 0 {
			if runs, err = r.uint16(); err != nil {
				return nil, err
			}
		}
		if flags[0]&0x04 != 0 {
			if ext, err = r.uint32(); err != nil {
				return nil, err
			}
		}
		width := 1
		if flags[0]&0x01 != 0 {
			width = 2
		}
		s, err := r.chars(int(n), width)
		if err != nil {
			return nil, err
		}
		if _, err := r.bytes(int(runs)*4 + int(ext)); err != nil {
			return nil, err
		}
		strs = append(strs, s)
	}
	return strs, nil
}
