package decode

// Kind labels the format a value decoded as.
type Kind int

const (
	KindText Kind = iota
	KindJSON
	KindXML
	KindRON
	KindJavaObject
	KindProtobuf
	KindHex
	KindRawBinary
	KindPlugin
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindJSON:
		return "json"
	case KindXML:
		return "xml"
	case KindRON:
		return "ron"
	case KindJavaObject:
		return "java"
	case KindProtobuf:
		return "protobuf"
	case KindHex:
		return "hex"
	case KindRawBinary:
		return "binary"
	case KindPlugin:
		return "plugin"
	default:
		return "unknown"
	}
}

// Result is one decoded value. Fallback reports whether the hex
// entry produced it, so the UI can flag the value as undecodable.
type Result struct {
	Kind     Kind
	Rendered string
	Decoder  string
	Fallback bool
}

// Decoder is one entry in the chain. Sniff must be cheap and never
// touch external state; Decode may fail, in which case the chain
// moves on.
type Decoder interface {
	Name() string
	Kind() Kind
	Sniff(b []byte) bool
	Decode(b []byte) (string, error)
}
