package dashboard

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	ToggleUTC key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleUTC: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "toggle UTC/local"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleUTC, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
