package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"radiocorpus/internal/pairs"
)

// ReasonKey is the field added to removed records.
const ReasonKey = "removal_reason"

// ReadRecords decodes every non-blank line of r as a training pair.
func ReadRecords(r io.Reader) ([]pairs.TrainingPair, error) {
	var out []pairs.TrainingPair
	lines := newLineReader(r)
	for {
		line, n, err := lines.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if isBlank(line) {
			continue
		}
		var rec pairs.TrainingPair
		if err := json.Unmarshal(line, &rec); err != nil {
			return out, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, rec)
	}
}

// encodeJSON returns v as a single JSON line terminated by "\n", without
// HTML escaping.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// lineReader yields lines without their terminator. Lines have no length
// limit; a trailing "\r" is dropped.
type lineReader struct {
	r    *bufio.Reader
	line int
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

func (l *lineReader) next() ([]byte, int, error) {
	data, err := l.r.ReadBytes('\n')
	if len(data) == 0 && err != nil {
		return nil, l.line, err
	}
	if err != nil && err != io.EOF {
		return nil, l.line, err
	}
	l.line++
	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))
	return data, l.line, nil
}

func isBlank(line []byte) bool {
	return len(bytes.TrimSpace(line)) == 0
}
