package tui

import (
	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

var (
	styleDefault = tcell.StyleDefault
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleFocus   = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleSelect  = tcell.StyleDefault.Reverse(true)
	styleError   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleWarn    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleInfo    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// typeHues anchors each backend value type on the color wheel; the
// gradient between anchors keeps unlisted types readable.
var typeHues = map[string]float64{
	"string": 120,
	"list":   200,
	"set":    260,
	"hash":   30,
	"zset":   330,
	"stream": 170,
}

// TypeStyle colors a key by its backend type. Unknown or unloaded
// types render dim.
func TypeStyle(valueKind string) tcell.Style {
	hue, ok := typeHues[valueKind]
	if !ok {
		return styleDim
	}
	c := colorful.Hsl(hue, 0.6, 0.65)
	r, g, b := c.RGB255()
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}

// truncate cuts s to at most width display cells, grapheme-aware, so
// wide runes and combining sequences never split mid-cluster.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	var out string
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width-1 {
			break
		}
		out += g.Str()
		used += w
	}
	return out + "…"
}

// drawText paints one clipped line and returns the x after the last
// cell written.
func drawText(s tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) int {
	g := uniseg.NewGraphemes(truncate(text, maxWidth))
	for g.Next() {
		runes := g.Runes()
		if len(runes) == 0 {
			continue
		}
		s.SetContent(x, y, runes[0], runes[1:], style)
		x += g.Width()
	}
	return x
}
