package decode

import (
	"fmt"
)

// Chain is an ordered decoder list with a guaranteed-terminating hex
// fallback. The zero value is unusable; construct with NewChain.
type Chain struct {
	structured []Decoder // text and structured-text formats
	plugins    []Decoder // registered extensions
	binary     []Decoder // binary serialization heuristics
	fallback   Decoder
}

// NewChain builds the default chain: JSON, XML, RON, plain text,
// then Java object stream before protobuf, with a hex dump fallback.
// Java runs first within the binary group because its stream magic
// is a far stronger signal than the protobuf plausibility heuristic.
func NewChain() *Chain {
	return &Chain{
		// Within the printable-text family the most specific format
		// wins; plain text is the family's own catch-all.
		structured: []Decoder{
			jsonDecoder{},
			xmlDecoder{},
			ronDecoder{},
			textDecoder{},
		},
		binary: []Decoder{
			javaDecoder{},
			protoDecoder{},
		},
		fallback: hexDecoder{},
	}
}

// Register appends a plugin decoder after the binary group and
// before the hex fallback, so a plugin can claim a format the
// built-ins would otherwise dump as hex without ever shadowing
// them. Registration order among plugins is preserved.
func (c *Chain) Register(d Decoder) {
	c.plugins = append(c.plugins, d)
}

// Decode runs the chain. It never fails and never panics: a decoder
// panic counts as that decoder failing, and the hex fallback accepts
// anything including empty input.
func (c *Chain) Decode(b []byte) Result {
	for _, group := range [][]Decoder{c.structured, c.binary, c.plugins} {
		for _, d := range group {
			if !safeSniff(d, b) {
				continue
			}
			rendered, err := safeDecode(d, b)
			if err != nil {
				continue
			}
			return Result{Kind: d.Kind(), Rendered: rendered, Decoder: d.Name()}
		}
	}
	rendered, _ := c.fallback.Decode(b)
	return Result{
		Kind:     c.fallback.Kind(),
		Rendered: rendered,
		Decoder:  c.fallback.Name(),
		Fallback: true,
	}
}

// HexDump bypasses sniffing and renders bytes as the fallback would.
// Used when the operator forces a hex view of a value the chain
// decoded as something else.
func (c *Chain) HexDump(b []byte) Result {
	rendered, _ := c.fallback.Decode(b)
	return Result{Kind: KindHex, Rendered: rendered, Decoder: c.fallback.Name()}
}

func safeSniff(d Decoder, b []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return d.Sniff(b)
}

func safeDecode(d Decoder, b []byte) (rendered string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode: %s panicked: %v", d.Name(), r)
		}
	}()
	return d.Decode(b)
}
