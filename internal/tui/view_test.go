package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/honhimW/ratisui/internal/bus"
	"github.com/honhimW/ratisui/internal/decode"
	"github.com/honhimW/ratisui/internal/explorer"
)

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

// screenText flattens the simulation screen into one string for
// substring assertions.
func screenText(s tcell.SimulationScreen) string {
	cells, w, h := s.GetContents()
	var sb strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) > 0 {
				sb.WriteRune(c.Runes[0])
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func sampleFrame() bus.Frame {
	tree := explorer.NewTree(":")
	tree.Insert("user:1")
	tree.Insert("order:1")
	return bus.Frame{
		Explorer: explorer.Snapshot{
			Root:      tree.Snapshot(),
			Keys:      []string{"order:1", "user:1"},
			Pattern:   "*",
			Exhausted: true,
		},
		Console: bus.ConsoleFrame{Lines: []string{"PONG"}},
	}
}

func TestRenderShowsKeysAndConsole(t *testing.T) {
	s := newSimScreen(t, 80, 24)
	Render(s, sampleFrame(), State{Focus: FocusTree})
	s.Show()

	text := screenText(s)
	for _, want := range []string{"user:1", "order:1", "PONG", "2 keys", "scan complete"} {
		if !strings.Contains(text, want) {
			t.Errorf("screen missing %q", want)
		}
	}
}

func TestRenderValuePanel(t *testing.T) {
	s := newSimScreen(t, 80, 24)
	f := sampleFrame()
	f.Explorer.Current = &explorer.KeyView{Key: "user:1"}
	f.Explorer.Current.Meta.Type = "string"
	f.Explorer.Current.Meta.Bytes = 5
	f.Decoded = &decode.Result{Kind: decode.KindText, Rendered: "Hello"}
	Render(s, f, State{})
	s.Show()

	text := screenText(s)
	for _, want := range []string{"user:1  [string]", "as text", "Hello"} {
		if !strings.Contains(text, want) {
			t.Errorf("screen missing %q", want)
		}
	}
}

func TestRenderToast(t *testing.T) {
	s := newSimScreen(t, 80, 24)
	f := sampleFrame()
	f.Toasts = []bus.Toast{{Kind: bus.ToastError, Title: "scan", Text: "boom", Expires: time.Now().Add(time.Minute)}}
	Render(s, f, State{})
	s.Show()

	if !strings.Contains(screenText(s), "scan: boom") {
		t.Error("toast not rendered")
	}
}

func TestRenderFilteredKeys(t *testing.T) {
	s := newSimScreen(t, 80, 24)
	Render(s, sampleFrame(), State{Filter: "user"})
	s.Show()

	text := screenText(s)
	if !strings.Contains(text, "user:1") {
		t.Error("filtered key missing")
	}
	// order:1 may only appear in the key panel; the filter hides it.
	if strings.Count(text, "order:1") != 0 {
		t.Error("filter leaked non-matching key")
	}
}

func TestRenderTinyScreen(t *testing.T) {
	s := newSimScreen(t, 5, 3)
	Render(s, sampleFrame(), State{})
	s.Show()
	// Must not panic; the too-small notice may itself be clipped.
}

func TestVisibleKeys(t *testing.T) {
	f := sampleFrame()
	if got := VisibleKeys(f, State{Filter: "order"}); len(got) != 1 || got[0] != "order:1" {
		t.Errorf("VisibleKeys = %v", got)
	}
	if got := VisibleKeys(f, State{}); len(got) != 2 {
		t.Errorf("VisibleKeys unfiltered = %v", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hel…"},
		{"hello", 1, "…"},
		{"hello", 0, ""},
		{"héllo", 4, "hél…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestTypeStyle(t *testing.T) {
	if TypeStyle("string") == styleDim {
		t.Error("known type should get its own color")
	}
	if TypeStyle("mystery") != styleDim {
		t.Error("unknown type should render dim")
	}
}
