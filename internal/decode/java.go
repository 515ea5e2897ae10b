package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Java object serialization stream constants.
const (
	javaStreamMagic   = 0xACED
	javaStreamVersion = 0x0005

	javaTCObject    = 0x73
	javaTCClassDesc = 0x72
	javaTCString    = 0x74
	javaTCArray     = 0x75
	javaTCNull      = 0x70
)

// javaDecoder recognizes Java object serialization streams by the
// 0xAC 0xED magic. Decoding is a shallow walk that surfaces the
// top-level class name or string payload; the full object graph is
// left as a hex body since nothing here can instantiate it.
type javaDecoder struct{}

func (javaDecoder) Name() string { return "java" }
func (javaDecoder) Kind() Kind   { return KindJavaObject }

func (javaDecoder) Sniff(b []byte) bool {
	return len(b) >= 4 &&
		binary.BigEndian.Uint16(b[:2]) == javaStreamMagic &&
		binary.BigEndian.Uint16(b[2:4]) == javaStreamVersion
}

func (d javaDecoder) Decode(b []byte) (string, error) {
	if !d.Sniff(b) {
		return "", errors.New("decode: not a java stream")
	}
	var sb strings.Builder
	sb.WriteString("java serialized object\n")
	body := b[4:]
	if len(body) == 0 {
		return strings.TrimRight(sb.String(), "\n"), nil
	}
	switch body[0] {
	case javaTCString:
		if s, ok := readJavaUTF(body[1:]); ok {
			fmt.Fprintf(&sb, "string: %q\n", s)
		}
	case javaTCObject:
		if len(body) >= 2 && body[1] == javaTCClassDesc {
			if name, ok := readJavaUTF(body[2:]); ok {
				fmt.Fprintf(&sb, "class: %s\n", name)
			}
		}
	case javaTCArray:
		if len(body) >= 2 && body[1] == javaTCClassDesc {
			if name, ok := readJavaUTF(body[2:]); ok {
				fmt.Fprintf(&sb, "array: %s\n", name)
			}
		}
	case javaTCNull:
		sb.WriteString("value: null\n")
	}
	fmt.Fprintf(&sb, "%d bytes", len(b))
	return sb.String(), nil
}

// readJavaUTF reads a modified-UTF string: big-endian u16 length
// then bytes. Returns false when the length runs past the buffer or
// the content is not printable.
func readJavaUTF(b []byte) (string, bool) {
	if len(b) < 2 {
		return "", false
	}
	n := int(binary.BigEndian.Uint16(b[:2]))
	if n == 0 || len(b) < 2+n {
		return "", false
	}
	s := b[2 : 2+n]
	if !isPrintableText(s) {
		return "", false
	}
	return string(s), true
}
