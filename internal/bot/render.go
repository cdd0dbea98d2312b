package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

const (
	iconOpen    = "⬜"
	iconDone    = "✅"
	iconNext    = "➡️"
	iconSpecial = "⭐"
)

func renderBoard(board service.Board, loc *time.Location) string {
	var b strings.Builder
	var n int
	b.WriteString("📋 <b>Tasks</b>\n")
	for _, col := range board.Columns {
		b.WriteString(fmt.Sprintf("\n%s <b>%s</b> · resets in %s\n", categoryIcon(col.Category), col.Category.Title(), col.Countdown))
		if len(col.Tasks) == 0 {
			b.WriteString("— nothing here\n")
			continue
		}
		for _, task := range col.Tasks {
			n++
			b.WriteString(formatTask(n, task, loc))
		}
	}
	return strings.TrimSpace(b.String())
}

// boardTasks flattens the board in display order; /edit numbers follow it.
func boardTasks(board service.Board) []model.Task {
	var out []model.Task
	for _, col := range board.Columns {
		out = append(out, col.Tasks...)
	}
	return out
}

func formatTask(n int, task model.Task, loc *time.Location) string {
	icon := iconOpen
	if task.Completed {
		icon = iconDone
	}
	line := fmt.Sprintf("%d. %s %s <i>(p%d)</i>\n", n, icon, escape(normalizeText(task.Text)), task.Priority)
	if task.Completed && task.CompletedAt != nil {
		line += fmt.Sprintf("   Completed on %s\n", escape(service.FormatCompletedAt(*task.CompletedAt, loc)))
	}
	return line
}

func renderEvents(board service.Board) string {
	var b strings.Builder
	mode := "UTC"
	if !board.ShowUTC {
		mode = "local time"
	}
	b.WriteString(fmt.Sprintf("🗺 <b>Wilderness events</b> (%s)\n\n", mode))
	for _, slot := range board.Events {
		name := escape(slot.Name)
		if slot.Special {
			name = iconSpecial + " <b>" + name + "</b>"
		}
		prefix := "   "
		if slot.Next {
			prefix = iconNext + " "
		}
		b.WriteString(fmt.Sprintf("%s<code>%s</code> %s · %s\n", prefix, slot.Display, name, service.FormatEventCountdown(slot.Countdown)))
	}
	return strings.TrimSpace(b.String())
}

func taskKeyboard(board service.Board) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, col := range board.Columns {
		for _, task := range col.Tasks {
			icon := iconOpen
			if task.Completed {
				icon = iconDone
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %s", icon, shortText(task.Text, 24)), cbTogglePrefix+task.ID),
				tgbotapi.NewInlineKeyboardButtonData("✏️", cbEditPrefix+task.ID),
				tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
			))
		}
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func eventsKeyboard(showUTC bool) tgbotapi.InlineKeyboardMarkup {
	label := "🕒 Show local time"
	if !showUTC {
		label = "🌐 Show UTC"
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(label, cbToggleUTC),
	))
}

func categoryIcon(c model.Category) string {
	switch c {
	case model.CategoryDaily:
		return "☀️"
	case model.CategoryWeekly:
		return "📅"
	case model.CategoryMonthly:
		return "🗓"
	default:
		return "🏷️"
	}
}

func escape(s string) string {
	return html.EscapeString(s)
}

func shortText(text string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	clean = normalizeText(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
