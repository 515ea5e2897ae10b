// Package luadec loads decoder plugins written in Lua.
//
// A plugin script defines two global functions:
//
//	function sniff(bytes) return boolean end
//	function decode(bytes) return string end
//
// bytes arrives as a Lua string (Lua strings are byte-clean). A
// loaded plugin satisfies the decoder contract of the parent decode
// package and registers after the structured-text built-ins, so a
// plugin can claim binary formats before the hex fallback sees them.
//
// Each plugin owns a single Lua state guarded by a mutex; scripts
// run sandboxed with the io, os and debug libraries withheld.
package luadec
