package decode

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

// textDecoder accepts any printable UTF-8 value. It sits last in the
// printable-text family, so structured formats have already had
// their chance.
type textDecoder struct{}

func (textDecoder) Name() string { return "text" }
func (textDecoder) Kind() Kind   { return KindText }

func (textDecoder) Sniff(b []byte) bool {
	return isPrintableText(b)
}

func (textDecoder) Decode(b []byte) (string, error) {
	if !isPrintableText(b) {
		return "", errors.New("decode: not printable text")
	}
	return string(b), nil
}

// isPrintableText reports whether b is non-empty valid UTF-8 made of
// printable runes plus ordinary whitespace.
func isPrintableText(b []byte) bool {
	if len(b) == 0 || !utf8.Valid(b) {
		return false
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return false
		}
		if !unicode.IsPrint(r) && r != '\n' && r != '\r' && r != '\t' {
			return false
		}
		i += size
	}
	return true
}
