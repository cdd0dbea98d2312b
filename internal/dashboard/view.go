package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

const columnWidth = 44

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	columnStyle = lipgloss.NewStyle().
			Width(columnWidth).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	countdownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	doneStyle      = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	specialStyle   = lipgloss.NewStyle().Bold(true)
	nextStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Task Tracker"))
	sb.WriteString("\n\n")

	columns := make([]string, 0, len(m.board.Columns))
	for _, col := range m.board.Columns {
		columns = append(columns, columnStyle.Render(m.renderColumn(col)))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	sb.WriteString("\n\n")

	sb.WriteString(renderEvents(m.board))
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		sb.WriteString("\n")
	}
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) renderColumn(col service.Column) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(col.Category.Title()))
	sb.WriteString("\n")
	sb.WriteString(countdownStyle.Render("resets in " + col.Countdown))
	sb.WriteString("\n\n")
	if len(col.Tasks) == 0 {
		sb.WriteString(countdownStyle.Render("no tasks"))
		return sb.String()
	}
	for _, task := range col.Tasks {
		sb.WriteString(m.renderTask(task))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderTask(task model.Task) string {
	mark := "[ ]"
	if task.Completed {
		mark = "[x]"
	}
	line := fmt.Sprintf("%s %s (p%d)", mark, task.Text, task.Priority)
	if !task.Completed {
		return line
	}
	line = doneStyle.Render(line)
	if task.CompletedAt != nil {
		line += "\n  " + countdownStyle.Render("Completed on "+service.FormatCompletedAt(*task.CompletedAt, m.source.Location()))
	}
	return line
}

func renderEvents(board service.Board) string {
	var sb strings.Builder
	mode := "UTC"
	if !board.ShowUTC {
		mode = "local"
	}
	sb.WriteString(headerStyle.Render(fmt.Sprintf("Wilderness events (%s)", mode)))
	sb.WriteString("\n")
	for _, slot := range board.Events {
		name := slot.Name
		if slot.Special {
			name = specialStyle.Render(name)
		}
		row := fmt.Sprintf("%s  %-5s  %s", slot.Display, service.FormatEventCountdown(slot.Countdown), name)
		if slot.Next {
			row = nextStyle.Render("> ") + row
		} else {
			row = "  " + row
		}
		sb.WriteString(row)
		sb.WriteString("\n")
	}
	return sb.String()
}
