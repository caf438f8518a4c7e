package engine

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Renderer draws the board after a committed turn. It is called with the
// race lock held.
type Renderer interface {
	Render(events []Event, snap Snapshot)
}

// TextRenderer writes event messages followed by the board
type TextRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextRenderer creates a renderer writing to w
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

// Render implements Renderer
func (t *TextRenderer) Render(events []Event, snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	header := ""
	for _, ev := range events {
		fmt.Fprintln(t.w, ev.Message)
		switch ev.Type {
		case EventStart:
			header = "Initial Board:"
		case EventMove, EventBlocked:
			header = fmt.Sprintf("Board after %c's move:", ev.Actor)
		}
	}
	if header == "" {
		return
	}
	fmt.Fprintln(t.w, header)
	io.WriteString(t.w, FormatBoard(snap))
}

// FormatBoard renders the snapshot as aligned text. Actors carrying an item
// are shown as X(C).
func FormatBoard(snap Snapshot) string {
	carrying := make(map[Marker]bool)
	for _, a := range snap.Actors {
		if a.Alive && a.Carrying {
			carrying[a.Symbol] = true
		}
	}

	var b strings.Builder
	for _, row := range snap.Rows {
		for i := 0; i < len(row); i++ {
			cell := Marker(row[i])
			text := cell.String()
			if carrying[cell] {
				text += "(C)"
			}
			fmt.Fprintf(&b, "%-4s ", text)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
