package workspace

import (
	"bufio"
	"io"
	"strings"
	"unicode"
)

// The meta sidecars and data tables use an RFC-4180-derived CSV dialect:
// fields are separated by a single-byte delimiter, a field is quoted iff
// it contains the delimiter, a quote, or whitespace, embedded quotes are
// doubled, and a record ends with a newline.
const metaDelimiter = ';'

func fieldNeedsQuote(delim byte, s string) bool {
	for _, r := range s {
		if (delim != 0 && r == rune(delim)) || r == '"' || unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

// appendField writes one field, preceded by the delimiter unless delim
// is zero (first field of a record).
func appendField(w *bufio.Writer, delim byte, s string) {
	if delim != 0 {
		w.WriteByte(delim)
	}
	if !fieldNeedsQuote(metaDelimiter, s) {
		w.WriteString(s)
		return
	}
	w.WriteByte('"')
	for i := 0; i < len(s); i++ {
		w.WriteByte(s[i])
		if s[i] == '"' {
			w.WriteByte('"')
		}
	}
	w.WriteByte('"')
}

func endRecord(w *bufio.Writer) {
	w.WriteByte('\n')
}

// writeKV writes a two-field key/value record: the key terminated by the
// delimiter, the value terminated by the newline.
func writeKV(w *bufio.Writer, key, value string) {
	appendField(w, 0, key)
	appendField(w, metaDelimiter, value)
	endRecord(w)
}

// csvReader reads records of the meta/data dialect. Fields are owned
// copies with no size limit.
type csvReader struct {
	r *bufio.Reader
}

func newCSVReader(r io.Reader) *csvReader {
	return &csvReader{r: bufio.NewReader(r)}
}

// readField reads one field. It returns the field, whether the field
// ended the record, and an error (io.EOF once the input is exhausted).
// Leading whitespace outside quotes is skipped; an empty line yields an
// empty field that ends the record.
func (c *csvReader) readField(delim byte) (string, bool, error) {
	var b strings.Builder
	quoted := false
	started := false

	for {
		ch, err := c.r.ReadByte()
		if err != nil {
			if b.Len() > 0 {
				return b.String(), true, nil
			}
			return "", true, err
		}
		if !quoted && ch == delim {
			return b.String(), false, nil
		}
		if ch == '\n' && !quoted {
			return b.String(), true, nil
		}
		if !started && !quoted && (ch == ' ' || ch == '\t' || ch == '\r') {
			continue
		}
		if !started && ch == '"' {
			quoted = true
			started = true
			continue
		}
		started = true
		if quoted && ch == '"' {
			next, err := c.r.ReadByte()
			if err != nil {
				return b.String(), true, nil
			}
			if next == '"' {
				b.WriteByte('"')
				continue
			}
			// Closing quote: the next byte is a delimiter or newline.
			if next == delim {
				return b.String(), false, nil
			}
			if next == '\n' {
				return b.String(), true, nil
			}
			// Stray byte after a closing quote; keep it.
			quoted = false
			b.WriteByte(next)
			continue
		}
		b.WriteByte(ch)
	}
}

// readRecord reads one full record, skipping blank lines. It returns an
// error (io.EOF) once the input is exhausted.
func (c *csvReader) readRecord(delim byte) ([]string, error) {
	for {
		var fields []string
		for {
			field, last, err := c.readField(delim)
			if err != nil {
				if len(fields) > 0 {
					return fields, nil
				}
				return nil, err
			}
			fields = append(fields, field)
			if last {
				break
			}
		}
		if len(fields) == 1 && fields[0] == "" {
			continue
		}
		return fields, nil
	}
}
