package luadec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/honhimW/ratisui/internal/decode"
)

// ErrBadPlugin reports a script missing the sniff or decode global.
var ErrBadPlugin = errors.New("luadec: script must define sniff and decode functions")

// Plugin is one loaded Lua decoder. It satisfies decode.Decoder.
//
// gopher-lua states are not goroutine-safe; the mutex serializes
// Sniff and Decode so the chain can be called from any goroutine.
type Plugin struct {
	name string

	mu sync.Mutex
	l  *lua.LState
}

// Load compiles a plugin from source. name is used for diagnostics
// and as the decoder name in results.
func Load(name, source string) (*Plugin, error) {
	l := lua.NewState(lua.Options{SkipOpenLibs: true})
	// Base libraries only; io, os and debug stay out.
	for _, open := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		l.Push(l.NewFunction(open.fn))
		l.Push(lua.LString(open.name))
		l.Call(1, 0)
	}

	if err := l.DoString(source); err != nil {
		l.Close()
		return nil, fmt.Errorf("luadec: load %s: %w", name, err)
	}
	for _, fn := range []string{"sniff", "decode"} {
		if _, ok := l.GetGlobal(fn).(*lua.LFunction); !ok {
			l.Close()
			return nil, fmt.Errorf("%w: %s", ErrBadPlugin, name)
		}
	}
	return &Plugin{name: name, l: l}, nil
}

// LoadFile loads a plugin script from disk, naming it after the file
// without its extension.
func LoadFile(path string) (*Plugin, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("luadec: read %s: %w", path, err)
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return Load(name, string(src))
}

// LoadDir loads every *.lua file in dir, in lexical order. A missing
// directory is not an error; a broken script is skipped and reported
// in the returned error list.
func LoadDir(dir string) ([]*Plugin, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []error{fmt.Errorf("luadec: read dir %s: %w", dir, err)}
	}
	var plugins []*Plugin
	var errs []error
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lua" {
			continue
		}
		p, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins, errs
}

func (p *Plugin) Name() string      { return p.name }
func (p *Plugin) Kind() decode.Kind { return decode.KindPlugin }

// Sniff calls the script's sniff function. Any script error reads as
// a negative sniff.
func (p *Plugin) Sniff(b []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.l.CallByParam(lua.P{
		Fn:      p.l.GetGlobal("sniff"),
		NRet:    1,
		Protect: true,
	}, lua.LString(b))
	if err != nil {
		return false
	}
	ret := p.l.Get(-1)
	p.l.Pop(1)
	return lua.LVAsBool(ret)
}

// Decode calls the script's decode function and expects a string
// back.
func (p *Plugin) Decode(b []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.l.CallByParam(lua.P{
		Fn:      p.l.GetGlobal("decode"),
		NRet:    1,
		Protect: true,
	}, lua.LString(b))
	if err != nil {
		return "", fmt.Errorf("luadec: %s decode: %w", p.name, err)
	}
	ret := p.l.Get(-1)
	p.l.Pop(1)
	s, ok := ret.(lua.LString)
	if !ok {
		return "", fmt.Errorf("luadec: %s decode returned %s, want string", p.name, ret.Type())
	}
	return string(s), nil
}

// Close releases the Lua state. The plugin must not be used after.
func (p *Plugin) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.l.Close()
}
