package workspace

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecord(fields ...string) string {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	for i, f := range fields {
		if i == 0 {
			appendField(w, 0, f)
		} else {
			appendField(w, metaDelimiter, f)
		}
	}
	endRecord(w)
	w.Flush()
	return buf.String()
}

func TestAppendFieldQuoting(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"has space", `"has space"`},
		{"semi;colon", `"semi;colon"`},
		{`quo"te`, `"quo""te"`},
		{"", ""},
		{"tab\tsep", "\"tab\tsep\""},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		w := bufio.NewWriter(&buf)
		appendField(w, 0, tt.in)
		w.Flush()
		assert.Equal(t, tt.want, buf.String(), "input %q", tt.in)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	records := [][]string{
		{"magic", "lmapd.0.4.0"},
		{"plain", "with space"},
		{"key", `semi;and"quote`},
		{"a", "b", "c", "d"},
	}

	var doc strings.Builder
	for _, rec := range records {
		doc.WriteString(writeRecord(rec...))
	}

	r := newCSVReader(strings.NewReader(doc.String()))
	for i, want := range records {
		got, err := r.readRecord(metaDelimiter)
		require.NoError(t, err, "record %d", i)
		assert.Equal(t, want, got, "record %d", i)
	}
	_, err := r.readRecord(metaDelimiter)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCSVReaderSkipsBlankLines(t *testing.T) {
	r := newCSVReader(strings.NewReader("a;b\n\n\nc;d\n"))

	rec, err := r.readRecord(metaDelimiter)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rec)

	rec, err = r.readRecord(metaDelimiter)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, rec)
}

func TestCSVReaderMissingTrailingNewline(t *testing.T) {
	r := newCSVReader(strings.NewReader("k;v"))
	rec, err := r.readRecord(metaDelimiter)
	require.NoError(t, err)
	assert.Equal(t, []string{"k", "v"}, rec)
}
