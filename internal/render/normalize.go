package render

import "bytes"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalize strips a byte order mark, converts CRLF and lone CR line endings
// to LF and ends non-empty input with exactly one newline. It is idempotent.
func Normalize(src []byte) []byte {
	src = bytes.TrimPrefix(src, utf8BOM)
	out := bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	out = bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
	out = bytes.TrimRight(out, "\n")
	if len(out) == 0 {
		return []byte{}
	}
	return append(out, '\n')
}
