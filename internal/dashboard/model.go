package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"task-tracker/internal/service"
)

const refreshInterval = time.Second

type boardSource interface {
	Snapshot(ctx context.Context) service.Board
	Location() *time.Location
}

type utcToggler interface {
	ToggleShowUTC(ctx context.Context) (bool, error)
}

type tickMsg time.Time

// Model is the terminal board. It holds a snapshot and refreshes it on every tick.
type Model struct {
	ctx    context.Context
	source boardSource
	prefs  utcToggler
	log    logrus.FieldLogger

	keys  keyMap
	help  help.Model
	board service.Board
	width int
	err   error
}

func New(ctx context.Context, source boardSource, prefs utcToggler, log logrus.FieldLogger) Model {
	return Model{
		ctx:    ctx,
		source: source,
		prefs:  prefs,
		log:    log,
		keys:   defaultKeyMap(),
		help:   help.New(),
		board:  source.Snapshot(ctx),
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.board = m.source.Snapshot(m.ctx)
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.ToggleUTC):
			if _, err := m.prefs.ToggleShowUTC(m.ctx); err != nil {
				m.log.WithError(err).Warn("toggle display preference")
				m.err = err
			} else {
				m.err = nil
			}
			m.board = m.source.Snapshot(m.ctx)
		}
	}
	return m, nil
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
