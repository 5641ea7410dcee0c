package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/covtools/edgemark/pkg/assign"
	"github.com/covtools/edgemark/pkg/emit"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command, an interactive browser for
// emitted tables.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [table.json]",
		Short: "Browse a slot assignment table interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := emit.ReadTableFile(args[0])
			if err != nil {
				return err
			}

			model := newTableModel(emit.FromTable(t))
			p := tea.NewProgram(model)
			_, err = p.Run()
			return err
		},
	}
}

// =============================================================================
// TableModel - Interactive table browsing
// =============================================================================

// TableModel is the bubbletea model for browsing table entries.
type TableModel struct {
	Table  emit.Table
	Cursor int
	Height int
	Offset int
}

// newTableModel creates a table browser over the given wire table.
func newTableModel(t emit.Table) TableModel {
	return TableModel{
		Table:  t,
		Height: 15,
	}
}

func (m TableModel) Init() tea.Cmd {
	return nil
}

func (m TableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Table.Blocks)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m TableModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Slot Assignment Table"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d bits · global shift %d · ↑/↓ navigate · q quit",
		m.Table.TableBits, m.Table.GlobalShift)))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Table.Blocks) {
		end = len(m.Table.Blocks)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		e := m.Table.Blocks[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		kind := e.Kind
		if kind == "" {
			kind = "-"
		}
		rows = append(rows, []string{
			cursor,
			e.ID,
			fmt.Sprintf("%d", e.Key),
			kind,
			describeSlots(e),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Block", "Key", "Kind", "Slots").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			actualIdx := m.Offset + row
			if actualIdx == m.Cursor {
				return listSelectedStyle
			}
			if actualIdx < len(m.Table.Blocks) && m.Table.Blocks[actualIdx].Kind == assign.KindUnsolved.String() {
				return StyleWarning
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Table.Blocks))))

	return b.String()
}

// describeSlots summarizes where a block's edges land in the bitmap.
func describeSlots(e emit.BlockEntry) string {
	switch e.Kind {
	case assign.KindSingle.String():
		return fmt.Sprintf("%d", e.Slot)
	case assign.KindSolved.String():
		if e.Rule == nil {
			return "?"
		}
		return fmt.Sprintf(">>%d +%d", e.Rule.LocalShift, e.Rule.Offset)
	case assign.KindUnsolved.String():
		parts := make([]string, len(e.Edges))
		for i, es := range e.Edges {
			parts[i] = fmt.Sprintf("%d", es.Slot)
		}
		return strings.Join(parts, ", ")
	case "":
		return ""
	default:
		return "?"
	}
}
