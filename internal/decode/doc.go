// Package decode turns raw byte values into renderable text.
//
// A Chain holds an ordered list of decoders, each pairing a cheap
// Sniff predicate with a full Decode. The chain walks the list in a
// fixed priority order and returns the first decoder that both
// sniffs positive and decodes cleanly; a decoder that sniffs
// positive but fails to decode is skipped, not fatal. The final
// entry is a hex dump whose sniff always matches and whose decode
// never fails, so Chain.Decode always produces a result.
//
// Priority is fixed: the printable-text family most specific first
// (JSON, XML, RON, plain text as the family catch-all), then binary
// serialization formats (Java object streams before protobuf, since
// the Java stream magic is the stronger signal), then registered
// plugin decoders, then the hex fallback. Plugins sit after the
// built-ins so they can claim formats that would otherwise dump as
// hex without changing any built-in's behavior.
package decode
