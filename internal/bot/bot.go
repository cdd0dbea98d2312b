package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"task-tracker/internal/config"
	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageText
	stageCategory
	stagePriority
	stageEditText
	stageEditCategory
	stageEditPriority
)

const (
	cbTogglePrefix  = "toggle:"
	cbEditPrefix    = "edit:"
	cbDeletePrefix  = "delete:"
	cbConfirmPrefix = "confirm:"
	cbCancelPrefix  = "cancel:"
	cbToggleUTC     = "utc"
)

const (
	btnSkip          = "⏭️ Keep"
	btnCancelDialog  = "⏪ Cancel"
	menuLabelAdd     = "➕ New task"
	menuLabelTasks   = "📋 Tasks"
	menuLabelEvents  = "🗺 Events"
	menuLabelHelp    = "ℹ️ Help"
	defaultPriorityS = "5"
)

// conversationState is the per-chat input in progress. Edits remember the task id
// they started on; nothing else about the task is cached.
type conversationState struct {
	stage    conversationStage
	taskID   string
	text     string
	category model.Category
	patch    model.TaskPatch
}

// sender is the part of the Telegram API the handlers write through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram front end over the task and event services.
type Bot struct {
	api           *tgbotapi.BotAPI
	out           sender
	tasks         *service.TaskService
	prefs         *service.PreferenceService
	board         *service.BoardService
	config        *config.Config
	log           logrus.FieldLogger
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(cfg *config.Config, tasks *service.TaskService, prefs *service.PreferenceService, board *service.BoardService, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.WithField("account", api.Self.UserName).Info("bot authorized")

	b := newBot(api, cfg, tasks, prefs, board, log)
	b.api = api
	return b, nil
}

func newBot(out sender, cfg *config.Config, tasks *service.TaskService, prefs *service.PreferenceService, board *service.BoardService, log logrus.FieldLogger) *Bot {
	b := &Bot{
		out:           out,
		tasks:         tasks,
		prefs:         prefs,
		board:         board,
		config:        cfg,
		log:           log,
		conversations: make(map[int64]*conversationState),
	}
	tasks.Subscribe(b.notifyReset)
	return b
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.WithError(err).Error("handle callback")
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !b.allowed(update.Message.Chat.ID) {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.WithError(err).Error("handle message")
		}
	}
}

func (b *Bot) allowed(chatID int64) bool {
	return b.config.AllowedChatID == 0 || b.config.AllowedChatID == chatID
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if msg.IsCommand() {
		b.log.WithFields(logrus.Fields{"chat_id": msg.Chat.ID, "command": msg.Command()}).Debug("command")
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.Chat.ID) {
		return b.handleConversation(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Use /add to create a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.handleHelp(msg)
	case "tasks":
		return b.sendTaskBoard(ctx, msg.Chat.ID)
	case "add":
		return b.startAddConversation(msg)
	case "edit":
		return b.handleEditCommand(ctx, msg)
	case "events":
		return b.sendEvents(ctx, msg.Chat.ID)
	case "utc":
		return b.toggleUTC(ctx, msg.Chat.ID)
	case "cancel":
		b.clearConversation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Periodic task tracker</b>\n" +
		"• /add [text] — add a daily, weekly or monthly task\n" +
		"• /tasks — show tasks; tap to complete, edit or delete\n" +
		"• /edit N — edit task number N of the list\n" +
		"• /events — upcoming wilderness events\n" +
		"• /utc — switch event times between UTC and local time\n" +
		"• /cancel — cancel the current input\n\n" +
		"Daily tasks reset at 00:00 UTC, weekly on Wednesday 00:00 UTC, monthly on the 1st."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) startAddConversation(msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	state := &conversationState{stage: stageText}
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		state.text = args
		state.stage = stageCategory
		b.setConversation(chatID, state)
		return b.sendWithReplyMarkup(chatID, "🏷 Which category?", categoryKeyboard(false))
	}
	b.setConversation(chatID, state)
	return b.sendWithReplyMarkup(chatID, "🆕 New task. What should it say?", cancelKeyboard())
}

// handleEditCommand resolves "/edit N" against the numbering of the task list.
func (b *Bot) handleEditCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	n, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
	if err != nil {
		return b.sendText(chatID, "Usage: /edit N, where N is the task number from /tasks.")
	}
	ordered := boardTasks(b.board.Snapshot(ctx))
	if n < 1 || n > len(ordered) {
		return b.sendText(chatID, fmt.Sprintf("There is no task number %d.", n))
	}
	return b.startEditConversation(chatID, ordered[n-1].ID)
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	state := b.getConversation(chatID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageText:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The task text cannot be empty. Try again.", cancelKeyboard())
		}
		state.text = text
		state.stage = stageCategory
		return b.sendWithReplyMarkup(chatID, "🏷 Which category?", categoryKeyboard(false))
	case stageCategory:
		category, err := model.ParseCategory(text)
		if err != nil {
			return b.sendWithReplyMarkup(chatID, "Pick daily, weekly or monthly.", categoryKeyboard(false))
		}
		state.category = category
		state.stage = stagePriority
		return b.sendWithReplyMarkup(chatID, "⭐ Priority from 1 to 10?", priorityKeyboard(false))
	case stagePriority:
		if text == "" {
			text = defaultPriorityS
		}
		priority, ok := parsePriority(text)
		if !ok {
			return b.sendWithReplyMarkup(chatID, "Priority must be a number from 1 to 10.", priorityKeyboard(false))
		}
		b.clearConversation(chatID)
		return b.finishAdd(ctx, chatID, state.text, state.category, priority)
	case stageEditText:
		if !isSkipInput(text) {
			if text == "" {
				return b.sendWithReplyMarkup(chatID, "The task text cannot be empty. Send new text or keep the old one.", skipKeyboard())
			}
			state.patch.Text = &text
		}
		state.stage = stageEditCategory
		return b.sendWithReplyMarkup(chatID, "🏷 New category?", categoryKeyboard(true))
	case stageEditCategory:
		if !isSkipInput(text) {
			category, err := model.ParseCategory(text)
			if err != nil {
				return b.sendWithReplyMarkup(chatID, "Pick daily, weekly or monthly, or keep the current one.", categoryKeyboard(true))
			}
			state.patch.Category = &category
		}
		state.stage = stageEditPriority
		return b.sendWithReplyMarkup(chatID, "⭐ New priority?", priorityKeyboard(true))
	case stageEditPriority:
		if !isSkipInput(text) {
			priority, ok := parsePriority(text)
			if !ok {
				return b.sendWithReplyMarkup(chatID, "Priority must be a number from 1 to 10.", priorityKeyboard(true))
			}
			state.patch.Priority = &priority
		}
		b.clearConversation(chatID)
		return b.finishEdit(ctx, chatID, state.taskID, state.patch)
	default:
		b.clearConversation(chatID)
		return nil
	}
}

func (b *Bot) finishAdd(ctx context.Context, chatID int64, text string, category model.Category, priority int) error {
	task, err := b.tasks.Add(ctx, text, category, priority)
	if err != nil {
		if errors.Is(err, service.ErrEmptyText) {
			return b.sendText(chatID, "The task text cannot be empty.")
		}
		return b.sendText(chatID, fmt.Sprintf("Could not add the task: %s", escape(err.Error())))
	}
	if err := b.sendText(chatID, fmt.Sprintf("✅ Added «%s» to %s.", escape(normalizeText(task.Text)), task.Category)); err != nil {
		return err
	}
	return b.sendTaskBoard(ctx, chatID)
}

func (b *Bot) finishEdit(ctx context.Context, chatID int64, taskID string, patch model.TaskPatch) error {
	task, ok, err := b.tasks.Edit(ctx, taskID, patch)
	switch {
	case errors.Is(err, service.ErrEmptyText):
		return b.sendText(chatID, "The task text cannot be empty. Nothing was changed.")
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	case !ok:
		return b.sendText(chatID, "That task no longer exists.")
	}
	if err := b.sendText(chatID, fmt.Sprintf("✏️ Saved «%s».", escape(normalizeText(task.Text)))); err != nil {
		return err
	}
	return b.sendTaskBoard(ctx, chatID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Warn("callback ack")
	}
	chatID := cb.Message.Chat.ID
	if !b.allowed(chatID) {
		return nil
	}

	data := cb.Data
	b.log.WithFields(logrus.Fields{"chat_id": chatID, "data": data}).Debug("callback")

	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		return b.toggleTask(ctx, chatID, strings.TrimPrefix(data, cbTogglePrefix))
	case strings.HasPrefix(data, cbEditPrefix):
		return b.startEditConversation(chatID, strings.TrimPrefix(data, cbEditPrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteConfirmation(chatID, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbConfirmPrefix):
		return b.deleteTask(ctx, chatID, strings.TrimPrefix(data, cbConfirmPrefix))
	case strings.HasPrefix(data, cbCancelPrefix):
		return b.sendText(chatID, "Kept it.")
	case data == cbToggleUTC:
		return b.toggleUTC(ctx, chatID)
	default:
		return nil
	}
}

func (b *Bot) toggleTask(ctx context.Context, chatID int64, taskID string) error {
	task, ok, err := b.tasks.ToggleComplete(ctx, taskID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not update the task: %s", escape(err.Error())))
	}
	if !ok {
		return b.sendText(chatID, "That task no longer exists.")
	}
	status := "reopened"
	if task.Completed {
		status = "completed"
	}
	if err := b.sendText(chatID, fmt.Sprintf("«%s» %s.", escape(normalizeText(task.Text)), status)); err != nil {
		return err
	}
	return b.sendTaskBoard(ctx, chatID)
}

func (b *Bot) startEditConversation(chatID int64, taskID string) error {
	task, ok := b.tasks.Get(taskID)
	if !ok {
		return b.sendText(chatID, "That task no longer exists.")
	}
	b.setConversation(chatID, &conversationState{stage: stageEditText, taskID: task.ID})
	text := fmt.Sprintf("✏️ Editing «%s» (%s, priority %d).\nSend the new text or keep it.", escape(task.Text), task.Category, task.Priority)
	return b.sendWithReplyMarkup(chatID, text, skipKeyboard())
}

func (b *Bot) askDeleteConfirmation(chatID int64, taskID string) error {
	task, ok := b.tasks.Get(taskID)
	if !ok {
		return b.sendText(chatID, "That task no longer exists.")
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", cbConfirmPrefix+task.ID),
		tgbotapi.NewInlineKeyboardButtonData("↩️ Keep", cbCancelPrefix+task.ID),
	))
	return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Delete «%s»?", escape(normalizeText(task.Text))), markup)
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, taskID string) error {
	task, found := b.tasks.Get(taskID)
	ok, err := b.tasks.Remove(ctx, taskID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not delete the task: %s", escape(err.Error())))
	}
	if !ok || !found {
		return b.sendText(chatID, "That task was already deleted.")
	}
	b.dropEditsFor(taskID)
	if err := b.sendText(chatID, fmt.Sprintf("🗑 Deleted «%s».", escape(normalizeText(task.Text)))); err != nil {
		return err
	}
	return b.sendTaskBoard(ctx, chatID)
}

func (b *Bot) toggleUTC(ctx context.Context, chatID int64) error {
	if _, err := b.prefs.ToggleShowUTC(ctx); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not save the preference: %s", escape(err.Error())))
	}
	return b.sendEvents(ctx, chatID)
}

func (b *Bot) sendTaskBoard(ctx context.Context, chatID int64) error {
	board := b.board.Snapshot(ctx)
	msg := tgbotapi.NewMessage(chatID, renderBoard(board, b.board.Location()))
	msg.ParseMode = tgbotapi.ModeHTML
	if markup, ok := taskKeyboard(board); ok {
		msg.ReplyMarkup = markup
	} else {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendEvents(ctx context.Context, chatID int64) error {
	board := b.board.Snapshot(ctx)
	return b.sendWithReplyMarkup(chatID, renderEvents(board), eventsKeyboard(board.ShowUTC))
}

// notifyReset tells the configured chat that a category rolled over.
func (b *Bot) notifyReset(ev model.ChangeEvent) {
	if ev.Kind != model.ChangeReset || b.config.AllowedChatID == 0 {
		return
	}
	text := fmt.Sprintf("🔄 %s tasks were reset (%d reopened).", ev.Category.Title(), ev.Count)
	if err := b.sendText(b.config.AllowedChatID, text); err != nil {
		b.log.WithError(err).Warn("send reset notification")
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelAdd):
		return true, b.startAddConversation(msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskBoard(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelEvents):
		return true, b.sendEvents(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) setConversation(chatID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[chatID] = state
}

func (b *Bot) getConversation(chatID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[chatID]
}

func (b *Bot) hasConversation(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[chatID]
	return ok
}

func (b *Bot) clearConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, chatID)
}

// dropEditsFor abandons edit conversations on a task that was just deleted.
func (b *Bot) dropEditsFor(taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for chatID, state := range b.conversations {
		if state.taskID == taskID {
			delete(b.conversations, chatID)
		}
	}
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelAdd),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelEvents),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard(withSkip bool) tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(model.Categories))
	for _, c := range model.Categories {
		row = append(row, tgbotapi.NewKeyboardButton(c.Title()))
	}
	last := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnCancelDialog)}
	if withSkip {
		last = append([]tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnSkip)}, last...)
	}
	kb := tgbotapi.NewReplyKeyboard(row, last)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard(withSkip bool) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for start := model.MinPriority; start <= model.MaxPriority; start += 5 {
		var row []tgbotapi.KeyboardButton
		for p := start; p < start+5 && p <= model.MaxPriority; p++ {
			row = append(row, tgbotapi.NewKeyboardButton(strconv.Itoa(p)))
		}
		rows = append(rows, row)
	}
	last := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnCancelDialog)}
	if withSkip {
		last = append([]tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnSkip)}, last...)
	}
	rows = append(rows, last)
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func parsePriority(text string) (int, bool) {
	p, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || p < model.MinPriority || p > model.MaxPriority {
		return 0, false
	}
	return p, true
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "keep" || value == "skip"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}
