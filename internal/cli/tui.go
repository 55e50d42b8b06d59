package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/domsplit/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listSharedStyle   = lipgloss.NewStyle().Foreground(colorYellow)
)

// sortedBundles returns the bundles of p, largest first, ties by key.
func sortedBundles(p graph.Plan) []graph.Bundle {
	out := slices.Clone(p.Bundles)
	slices.SortFunc(out, func(a, b graph.Bundle) int {
		if c := cmp.Compare(b.Size, a.Size); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// =============================================================================
// PlanModel - Interactive bundle browser
// =============================================================================

// PlanModel is the bubbletea model for browsing the bundles of a plan. The
// list view shows one row per bundle; enter opens the assets of the selected
// bundle, marking assets duplicated into other bundles.
type PlanModel struct {
	Plan    graph.Plan
	Bundles []graph.Bundle
	Cursor  int
	Offset  int
	Height  int

	// Open is the index of the bundle whose assets are shown, or -1.
	Open      int
	AssetOffs int
}

// NewPlanModel creates a browser over p.
func NewPlanModel(p graph.Plan) PlanModel {
	return PlanModel{
		Plan:    p,
		Bundles: sortedBundles(p),
		Height:  15,
		Open:    -1,
	}
}

func (m PlanModel) Init() tea.Cmd {
	return nil
}

func (m PlanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "backspace", "left", "h":
			if m.Open >= 0 {
				m.Open = -1
				m.AssetOffs = 0
				return m, nil
			}
			if msg.String() == "esc" {
				return m, tea.Quit
			}
		case "up", "k":
			if m.Open >= 0 {
				if m.AssetOffs > 0 {
					m.AssetOffs--
				}
				return m, nil
			}
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Open >= 0 {
				if m.AssetOffs < len(m.Bundles[m.Open].Assets)-m.Height {
					m.AssetOffs++
				}
				return m, nil
			}
			if m.Cursor < len(m.Bundles)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "right", "l":
			if m.Open < 0 && len(m.Bundles) > 0 {
				m.Open = m.Cursor
				m.AssetOffs = 0
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m PlanModel) View() string {
	if m.Open >= 0 {
		return m.assetView()
	}
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Bundles"))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d assets · %s duplicated",
		m.Plan.Stats.Assets, humanize.IBytes(uint64(m.Plan.Stats.TotalSizeIncrease)))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ assets  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Bundles))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		bd := m.Bundles[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, bd.Key, bd.Kind, humanize.IBytes(uint64(bd.Size)), fmt.Sprint(len(bd.Assets))})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Bundle", "Kind", "Size", "Assets").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 2 || col == 4 {
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Bundles))))
	return b.String()
}

func (m PlanModel) assetView() string {
	bd := m.Bundles[m.Open]
	var b strings.Builder

	b.WriteString(StyleTitle.Render(bd.Key))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(humanize.IBytes(uint64(bd.Size))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ scroll  ← back  q quit"))
	b.WriteString("\n\n")

	end := min(m.AssetOffs+m.Height, len(bd.Assets))
	for _, id := range bd.Assets[m.AssetOffs:end] {
		label, size := id, ""
		if n, ok := m.Plan.Node(id); ok {
			label = n.DisplayLabel()
			size = humanize.IBytes(uint64(n.Size))
		}
		line := fmt.Sprintf("  %-48s %10s", label, size)
		if others := len(m.Plan.BundlesFor(id)); others > 1 {
			b.WriteString(listSharedStyle.Render(line + fmt.Sprintf("  ×%d", others)))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d assets, ×n marks assets duplicated into n bundles", len(bd.Assets))))
	return b.String()
}
