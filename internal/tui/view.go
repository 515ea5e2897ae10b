package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/honhimW/ratisui/internal/bus"
	"github.com/honhimW/ratisui/internal/explorer"
)

// Focus names the panel receiving keystrokes.
type Focus int

const (
	FocusTree Focus = iota
	FocusFilter
	FocusConsole
)

// State is the widget state the app owns between ticks: what is
// focused, typed, and selected. The bus frame carries everything
// else.
type State struct {
	Focus     Focus
	Input     string
	Cursor    int
	Filter    string
	TreeIndex int
	Status    string
}

// VisibleKeys applies the client-side filter to the frame's key set.
func VisibleKeys(f bus.Frame, st State) []string {
	return explorer.Filter(f.Explorer.Keys, st.Filter)
}

// Render paints one frame. The caller shows the result with
// screen.Show.
func Render(s tcell.Screen, f bus.Frame, st State) {
	s.Clear()
	w, h := s.Size()
	if w < 10 || h < 6 {
		drawText(s, 0, 0, w, styleError, "window too small")
		return
	}

	treeW := w / 3
	consoleH := h / 2

	renderStatus(s, f, st, w)
	renderTree(s, f, st, 0, 1, treeW, h-1-consoleH)
	renderValue(s, f, treeW+1, 1, w-treeW-1, h-1-consoleH)
	renderConsole(s, f, st, 0, h-consoleH, w, consoleH)
	renderToasts(s, f, w)
}

func renderStatus(s tcell.Screen, f bus.Frame, st State, w int) {
	left := fmt.Sprintf(" %d keys", len(f.Explorer.Keys))
	if f.Explorer.Pattern != "" {
		left += "  pattern " + f.Explorer.Pattern
	}
	switch {
	case f.Explorer.Scanning:
		left += fmt.Sprintf("  scanning (batch %d)", f.Explorer.Batches)
	case f.Explorer.Exhausted:
		left += "  scan complete"
	}
	if st.Status != "" {
		left += "  " + st.Status
	}
	drawText(s, 0, 0, w, styleTitle, left)
}

func renderTree(s tcell.Screen, f bus.Frame, st State, x, y, w, h int) {
	title := "Keys"
	if st.Filter != "" {
		title = "Keys /" + st.Filter
	}
	style := styleTitle
	if st.Focus == FocusTree || st.Focus == FocusFilter {
		style = styleFocus
	}
	drawText(s, x, y, w, style, title)

	keys := VisibleKeys(f, st)
	kinds := leafKinds(f.Explorer.Root)
	sel := st.TreeIndex
	if sel >= len(keys) {
		sel = len(keys) - 1
	}
	top := 0
	if sel >= h-1 {
		top = sel - (h - 2)
	}
	row := y + 1
	for i := top; i < len(keys) && row < y+h; i++ {
		lineStyle := styleDefault
		if kind := kinds[keys[i]]; kind != "" {
			lineStyle = TypeStyle(kind)
		}
		if i == sel && st.Focus == FocusTree {
			lineStyle = styleSelect
		}
		drawText(s, x, row, w, lineStyle, keys[i])
		row++
	}
}

// leafKinds flattens the snapshot tree into key to backend type,
// for coloring loaded keys.
func leafKinds(root *explorer.Node) map[string]string {
	kinds := make(map[string]string)
	var walk func(n *explorer.Node)
	walk = func(n *explorer.Node) {
		if n == nil {
			return
		}
		if n.IsLeaf && n.ValueKind != "" {
			kinds[n.Key] = n.ValueKind
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(root)
	return kinds
}

func renderValue(s tcell.Screen, f bus.Frame, x, y, w, h int) {
	cur := f.Explorer.Current
	if cur == nil {
		drawText(s, x, y, w, styleDim, "select a key")
		return
	}
	header := fmt.Sprintf("%s  [%s]", cur.Key, cur.Meta.Type)
	if cur.Meta.TTL > 0 {
		header += "  ttl " + cur.Meta.TTL.String()
	}
	if cur.Meta.Bytes >= 0 {
		header += fmt.Sprintf("  %dB", cur.Meta.Bytes)
	}
	drawText(s, x, y, w, styleTitle.Underline(true), header)

	var lines []string
	if f.Decoded != nil {
		lines = strings.Split(f.Decoded.Rendered, "\n")
		kind := "as " + f.Decoded.Kind.String()
		if f.Decoded.Fallback {
			kind += " (fallback)"
		}
		drawText(s, x, y+1, w, styleDim, kind)
	} else {
		lines = cur.Lines
	}
	row := y + 2
	for _, line := range lines {
		if row >= y+h {
			break
		}
		drawText(s, x, row, w, styleDefault, line)
		row++
	}
}

func renderConsole(s tcell.Screen, f bus.Frame, st State, x, y, w, h int) {
	title := "Console"
	if f.Console.Streaming {
		title = "Console  ~ " + f.Console.StreamCmd
	}
	style := styleTitle
	if st.Focus == FocusConsole {
		style = styleFocus
	}
	drawText(s, x, y, w, style, title)

	// Tail of the scrollback above the input line.
	visible := h - 2
	lines := f.Console.Lines
	if len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	row := y + 1
	for _, line := range lines {
		drawText(s, x, row, w, styleDefault, line)
		row++
	}

	prompt := "> " + st.Input
	drawText(s, x, y+h-1, w, styleDefault, prompt)
	if st.Focus == FocusConsole {
		s.ShowCursor(x+2+st.Cursor, y+h-1)
	} else {
		s.HideCursor()
	}
}

func renderToasts(s tcell.Screen, f bus.Frame, w int) {
	for i, t := range f.Toasts {
		style := styleInfo
		switch t.Kind {
		case bus.ToastWarn:
			style = styleWarn
		case bus.ToastError:
			style = styleError
		}
		msg := " " + t.Title + ": " + t.Text + " "
		x := w - uniseg.StringWidth(msg)
		if x < 0 {
			x = 0
		}
		drawText(s, x, 1+i, w, style.Reverse(true), msg)
	}
}
