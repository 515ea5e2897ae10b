package console

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"simple", "GET key", []string{"GET", "key"}},
		{"extra spaces", "  GET   key  ", []string{"GET", "key"}},
		{"empty", "", nil},
		{"only spaces", "   ", nil},
		{"double quotes", `SET greeting "hello world"`, []string{"SET", "greeting", "hello world"}},
		{"single quotes", `SET k 'a b'`, []string{"SET", "k", "a b"}},
		{"backticks", "SET k `a b`", []string{"SET", "k", "a b"}},
		{"empty quoted", `SET k ""`, []string{"SET", "k", ""}},
		{"escape in double quotes", `SET k "a\"b\n"`, []string{"SET", "k", "a\"b\n"}},
		{"escaped space bare", `SET k a\ b`, []string{"SET", "k", "a b"}},
		{"quote inside word", `SET k ab"c d"e`, []string{"SET", "k", "abc de"}},
		{"single quote keeps backslash", `SET k '\n'`, []string{"SET", "k", `\n`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if err != nil {
				t.Fatalf("SplitArgs(%q): %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitArgs(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestSplitArgsUnterminated(t *testing.T) {
	for _, line := range []string{`GET "unclosed`, `GET 'unclosed`, "GET `unclosed"} {
		if _, err := SplitArgs(line); !errors.Is(err, ErrUnterminatedQuote) {
			t.Errorf("SplitArgs(%q) err = %v, want ErrUnterminatedQuote", line, err)
		}
	}
}

func TestDecodeArg(t *testing.T) {
	if got := DecodeArg("plain"); got != "plain" {
		t.Errorf("plain arg changed: %v", got)
	}
	got := DecodeArg("base64#aGVsbG8=#")
	if b, ok := got.([]byte); !ok || !bytes.Equal(b, []byte("hello")) {
		t.Errorf("base64 arg = %v", got)
	}
	got = DecodeArg("hex#68690a#")
	if b, ok := got.([]byte); !ok || !bytes.Equal(b, []byte("hi\n")) {
		t.Errorf("hex arg = %v", got)
	}
}

func TestDecodeArgBadPayloadPassesThrough(t *testing.T) {
	if got := DecodeArg("base64#!!!#"); got != "base64#!!!#" {
		t.Errorf("bad base64 should pass through, got %v", got)
	}
	if got := DecodeArg("hex#zz#"); got != "hex#zz#" {
		t.Errorf("bad hex should pass through, got %v", got)
	}
	if got := DecodeArg("hex#nohash"); got != "hex#nohash" {
		t.Errorf("missing trailing hash should pass through, got %v", got)
	}
}
