package decode

import (
	"encoding/hex"
)

// hexDecoder is the terminal fallback. Sniff always matches and
// Decode never fails, for any input including empty bytes.
type hexDecoder struct{}

func (hexDecoder) Name() string { return "hex" }
func (hexDecoder) Kind() Kind   { return KindRawBinary }

func (hexDecoder) Sniff([]byte) bool { return true }

func (hexDecoder) Decode(b []byte) (string, error) {
	return hex.EncodeToString(b), nil
}
