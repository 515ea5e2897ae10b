package decode

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// protoDecoder guesses at length-delimited protobuf messages. The
// sniff is a plausibility check: the whole buffer must consume as a
// sequence of well-formed fields with sane field numbers. Without a
// schema the decode renders field numbers, wire types and scalar
// values only.
type protoDecoder struct{}

func (protoDecoder) Name() string { return "protobuf" }
func (protoDecoder) Kind() Kind   { return KindProtobuf }

func (protoDecoder) Sniff(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	rest := b
	fields := 0
	for len(rest) > 0 {
		num, typ, n := protowire.ConsumeField(rest)
		if n < 0 {
			return false
		}
		if num < 1 || num > 16384 {
			return false
		}
		switch typ {
		case protowire.VarintType, protowire.Fixed32Type,
			protowire.Fixed64Type, protowire.BytesType:
		default:
			return false
		}
		rest = rest[n:]
		fields++
	}
	return fields > 0
}

func (d protoDecoder) Decode(b []byte) (string, error) {
	if !d.Sniff(b) {
		return "", errors.New("decode: not plausible protobuf")
	}
	var sb strings.Builder
	rest := b
	for len(rest) > 0 {
		num, typ, n := protowire.ConsumeTag(rest)
		if n < 0 {
			return "", protowire.ParseError(n)
		}
		rest = rest[n:]
		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(rest)
			if m < 0 {
				return "", protowire.ParseError(m)
			}
			fmt.Fprintf(&sb, "%d: %d\n", num, v)
			rest = rest[m:]
		case protowire.Fixed32Type:
			v, m := protowire.ConsumeFixed32(rest)
			if m < 0 {
				return "", protowire.ParseError(m)
			}
			fmt.Fprintf(&sb, "%d: 0x%08x\n", num, v)
			rest = rest[m:]
		case protowire.Fixed64Type:
			v, m := protowire.ConsumeFixed64(rest)
			if m < 0 {
				return "", protowire.ParseError(m)
			}
			fmt.Fprintf(&sb, "%d: 0x%016x\n", num, v)
			rest = rest[m:]
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(rest)
			if m < 0 {
				return "", protowire.ParseError(m)
			}
			if isPrintableText(v) {
				fmt.Fprintf(&sb, "%d: %q\n", num, v)
			} else {
				fmt.Fprintf(&sb, "%d: <%d bytes>\n", num, len(v))
			}
			rest = rest[m:]
		default:
			return "", fmt.Errorf("decode: unsupported wire type %d", typ)
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
