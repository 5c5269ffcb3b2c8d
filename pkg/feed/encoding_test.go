package feed

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// utf16le encodes s as UTF-16LE with a BOM, the way the regulator feeds are
// published.
func utf16le(s string) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, u := range utf16.Encode([]rune(s)) {
		buf.WriteByte(byte(u))
		buf.WriteByte(byte(u >> 8))
	}
	return buf.Bytes()
}

func TestNewUTF8Reader(t *testing.T) {
	t.Run("decodes UTF-16LE with BOM", func(t *testing.T) {
		src := utf16le("<Root><ChainName>שופרסל</ChainName></Root>")
		got, err := io.ReadAll(NewUTF8Reader(bytes.NewReader(src)))
		require.NoError(t, err)
		assert.Equal(t, "<Root><ChainName>שופרסל</ChainName></Root>", string(got))
	})

	t.Run("passes UTF-8 through unchanged", func(t *testing.T) {
		src := "<Root>חלב 3%</Root>"
		got, err := io.ReadAll(NewUTF8Reader(strings.NewReader(src)))
		require.NoError(t, err)
		assert.Equal(t, src, string(got))
	})

	t.Run("replaces malformed UTF-16 instead of failing", func(t *testing.T) {
		// BOM followed by an odd number of bytes: the trailing byte cannot
		// form a code unit.
		src := append(utf16le("ok"), 0x41)
		got, err := io.ReadAll(NewUTF8Reader(bytes.NewReader(src)))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(got), "ok"))
		assert.Contains(t, string(got), "�")
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := io.ReadAll(NewUTF8Reader(bytes.NewReader(nil)))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
