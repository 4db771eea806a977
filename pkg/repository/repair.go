package repository

import (
	"bytes"
	"unicode/utf8"
)

// repairUTF8 replaces invalid byte sequences with U+FFFD and reports
// how many replacements were made. Valid input is returned unchanged
// without copying.
func repairUTF8(data []byte) ([]byte, int) {
	if utf8.Valid(data) {
		return data, 0
	}
	var buf bytes.Buffer
	buf.Grow(len(data))
	replaced := 0
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
			replaced++
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}
	return buf.Bytes(), replaced
}
