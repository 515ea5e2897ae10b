package console

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

// ErrUnterminatedQuote reports a line ending inside a quoted token.
var ErrUnterminatedQuote = errors.New("console: unterminated quote")

// SplitArgs tokenizes a command line. Single quotes, double quotes
// and backticks group words; backslash escapes work inside double
// quotes and bare words. An empty line yields no tokens.
func SplitArgs(line string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inToken := false
	var quote rune

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote == '\'' || quote == '`':
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case quote == '"':
			switch r {
			case '"':
				quote = 0
			case '\\':
				if i+1 >= len(runes) {
					return nil, ErrUnterminatedQuote
				}
				i++
				cur.WriteRune(unescape(runes[i]))
			default:
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
			inToken = true
		case r == '\\':
			if i+1 < len(runes) {
				i++
				cur.WriteRune(unescape(runes[i]))
				inToken = true
			}
		case unicode.IsSpace(r):
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, ErrUnterminatedQuote
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}

func unescape(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	default:
		return r
	}
}

// DecodeArg expands base64#…# and hex#…# argument wrappers into
// their raw bytes. Anything else passes through as-is; a wrapper
// whose payload fails to decode also passes through rather than
// failing the whole command.
func DecodeArg(arg string) any {
	if payload, ok := wrapped(arg, "base64#"); ok {
		if b, err := base64.StdEncoding.DecodeString(payload); err == nil {
			return b
		}
		return arg
	}
	if payload, ok := wrapped(arg, "hex#"); ok {
		if b, err := hex.DecodeString(payload); err == nil {
			return b
		}
		return arg
	}
	return arg
}

func wrapped(arg, prefix string) (string, bool) {
	if strings.HasPrefix(arg, prefix) && strings.HasSuffix(arg, "#") && len(arg) > len(prefix) {
		return arg[len(prefix) : len(arg)-1], true
	}
	return "", false
}
