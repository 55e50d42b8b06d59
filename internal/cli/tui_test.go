package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/domsplit/pkg/graph"
)

func testPlan() graph.Plan {
	return graph.Plan{
		Bundles: []graph.Bundle{
			{Key: "home", Kind: "asset", Size: 300, Assets: []string{"home", "ui"}},
			{Key: "admin", Kind: "asset", Size: 500, Assets: []string{"admin", "ui"}},
		},
		Nodes: []graph.Node{
			{ID: "home", Kind: "asset", Size: 200},
			{ID: "admin", Kind: "asset", Size: 400},
			{ID: "ui", Kind: "asset", Label: "src/ui.js", Size: 100},
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m PlanModel, keys ...string) PlanModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(PlanModel)
	}
	return m
}

func TestPlanModelNavigation(t *testing.T) {
	m := NewPlanModel(testPlan())
	if m.Bundles[0].Key != "admin" {
		t.Fatalf("first bundle = %s, want the largest (admin)", m.Bundles[0].Key)
	}

	m = press(m, "j", "j", "j")
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1 (clamped)", m.Cursor)
	}
	m = press(m, "k")
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0", m.Cursor)
	}

	m = press(m, "enter")
	if m.Open != 0 {
		t.Fatalf("Open = %d, want 0", m.Open)
	}
	view := m.View()
	if !strings.Contains(view, "src/ui.js") || !strings.Contains(view, "×2") {
		t.Errorf("asset view missing duplicated ui:\n%s", view)
	}

	m = press(m, "esc")
	if m.Open != -1 {
		t.Errorf("Open = %d after esc, want -1", m.Open)
	}
	if !strings.Contains(m.View(), "Bundles") {
		t.Error("list view not restored")
	}
}

func TestPlanModelQuit(t *testing.T) {
	m := NewPlanModel(testPlan())
	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q returned no command, want tea.Quit")
	}
}

func TestPlanModelWindowSize(t *testing.T) {
	m := NewPlanModel(testPlan())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	if got := next.(PlanModel).Height; got != 5 {
		t.Errorf("Height = %d, want 5", got)
	}
}
