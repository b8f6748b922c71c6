package ui

import (
	"fmt"
	"strings"
	"testing"

	"panemux/internal/engine"
	"panemux/internal/pane"

	"github.com/charmbracelet/lipgloss"
)

func TestPaneView_RenderSize(t *testing.T) {
	p := pane.New(pane.ID(2), pane.KindShell, "")
	for i := 0; i < 50; i++ {
		p.AppendLine(fmt.Sprintf("line %d with some words that wrap around", i))
	}
	v := NewPaneView(p)

	for _, size := range [][2]int{{40, 12}, {20, 6}, {80, 30}} {
		out := v.Render(size[0], size[1], false)
		if w := lipgloss.Width(out); w != size[0] {
			t.Errorf("Render(%d, %d) width = %d", size[0], size[1], w)
		}
		if h := lipgloss.Height(out); h != size[1] {
			t.Errorf("Render(%d, %d) height = %d", size[0], size[1], h)
		}
	}
}

func TestPaneView_FollowsNewestOutput(t *testing.T) {
	p := pane.New(pane.ID(2), pane.KindShell, "")
	for i := 0; i < 40; i++ {
		p.AppendLine(fmt.Sprintf("row-%02d", i))
	}
	v := NewPaneView(p)

	out := v.Render(30, 10, true)
	if !strings.Contains(out, "row-39") {
		t.Errorf("newest row not visible:\n%s", out)
	}
	if !strings.Contains(out, "Bash") || !strings.Contains(out, "bash> ") {
		t.Errorf("title or prompt missing:\n%s", out)
	}

	if !v.HandleKey(engine.KeyEvent{Key: "pgup"}) {
		t.Fatal("pgup not handled")
	}
	out = v.Render(30, 10, true)
	if strings.Contains(out, "row-39") {
		t.Errorf("still at bottom after pgup:\n%s", out)
	}

	// New output does not yank the view back while scrolled up.
	p.AppendLine("row-40")
	if out = v.Render(30, 10, true); strings.Contains(out, "row-40") {
		t.Errorf("scrolled view jumped to new output:\n%s", out)
	}

	for i := 0; i < 10; i++ {
		v.HandleKey(engine.KeyEvent{Key: "pgdown"})
	}
	if out = v.Render(30, 10, true); !strings.Contains(out, "row-40") {
		t.Errorf("pgdown did not return to the bottom:\n%s", out)
	}
}

func TestPaneView_HandleKeyIgnoresOtherKeys(t *testing.T) {
	v := NewPaneView(pane.New(pane.ID(1), pane.KindAssistant, ""))
	if v.HandleKey(engine.KeyEvent{Key: "x", Runes: []rune{'x'}}) {
		t.Error("rune key handled by the view")
	}
}

func TestPaneView_ContinuationInput(t *testing.T) {
	p := pane.New(pane.ID(2), pane.KindShell, "")
	p.SetInput(`echo a\`)
	p.Submit()
	v := NewPaneView(p)

	out := v.Render(30, 8, false)
	if !strings.Contains(out, "bash> echo a") {
		t.Errorf("continuation prefix missing:\n%s", out)
	}
}

func TestPaneView_LoadingHidesPrompt(t *testing.T) {
	p := pane.New(pane.ID(1), pane.KindAssistant, "")
	p.SetLoading(true)
	v := NewPaneView(p)
	if out := v.Render(30, 8, false); strings.Contains(out, "assistant>") {
		t.Errorf("prompt shown while loading:\n%s", out)
	}
}
