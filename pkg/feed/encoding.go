package feed

import (
	"bufio"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewUTF8Reader normalizes a raw feed byte stream to UTF-8.
//
// The regulator feeds are usually published as UTF-16LE with a BOM; some
// chains publish plain UTF-8. The stream is sniffed for a UTF-16LE BOM and
// decoded accordingly. Malformed sequences decode to U+FFFD instead of
// failing the stream - the files are third-party and not fully trustworthy.
func NewUTF8Reader(r io.Reader) io.Reader {
	br := bufio.NewReaderSize(r, 32*1024)
	bom, err := br.Peek(2)
	if err == nil && bom[0] == 0xFF && bom[1] == 0xFE {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, dec)
	}
	return br
}
