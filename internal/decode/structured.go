package decode

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// jsonDecoder claims printable values whose first significant byte
// opens an object or array. Validation and rendering go through
// gjson and pretty.
type jsonDecoder struct{}

func (jsonDecoder) Name() string { return "json" }
func (jsonDecoder) Kind() Kind   { return KindJSON }

func (jsonDecoder) Sniff(b []byte) bool {
	if !isPrintableText(b) {
		return false
	}
	t := bytes.TrimSpace(b)
	return len(t) > 0 && (t[0] == '{' || t[0] == '[')
}

func (jsonDecoder) Decode(b []byte) (string, error) {
	if !gjson.ValidBytes(b) {
		return "", errors.New("decode: invalid json")
	}
	out := pretty.Pretty(b)
	return strings.TrimRight(string(out), "\n"), nil
}

// xmlDecoder claims printable values starting with '<' that tokenize
// cleanly end to end.
type xmlDecoder struct{}

func (xmlDecoder) Name() string { return "xml" }
func (xmlDecoder) Kind() Kind   { return KindXML }

func (xmlDecoder) Sniff(b []byte) bool {
	if !isPrintableText(b) {
		return false
	}
	t := bytes.TrimSpace(b)
	return len(t) > 1 && t[0] == '<'
}

func (xmlDecoder) Decode(b []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(b))
	sawElement := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawElement = true
		}
	}
	if !sawElement {
		return "", errors.New("decode: no xml elements")
	}
	return string(b), nil
}

// ronDecoder recognizes Rusty Object Notation by its parenthesized
// struct shape: an optional identifier followed by a balanced '('
// body containing ':' separated fields.
type ronDecoder struct{}

func (ronDecoder) Name() string { return "ron" }
func (ronDecoder) Kind() Kind   { return KindRON }

func (ronDecoder) Sniff(b []byte) bool {
	if !isPrintableText(b) {
		return false
	}
	t := strings.TrimSpace(string(b))
	open := strings.IndexByte(t, '(')
	if open < 0 || !strings.HasSuffix(t, ")") {
		return false
	}
	for _, r := range t[:open] {
		if !isIdentRune(r) {
			return false
		}
	}
	return true
}

func (ronDecoder) Decode(b []byte) (string, error) {
	t := strings.TrimSpace(string(b))
	if !balancedParens(t) {
		return "", errors.New("decode: unbalanced ron")
	}
	body := t[strings.IndexByte(t, '(')+1 : len(t)-1]
	if strings.TrimSpace(body) != "" && !strings.ContainsAny(body, ":,") {
		return "", errors.New("decode: ron body has no fields")
	}
	return t, nil
}

func isIdentRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func balancedParens(s string) bool {
	depth := 0
	inStr := false
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			if c == '\\' {
				i++
			} else if c == quote {
				inStr = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = true
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && !inStr
}
