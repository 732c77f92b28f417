package inspector

import "github.com/charmbracelet/bubbles/key"

// keyMap defines key bindings for the frame browser
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	DetailUp   key.Binding
	DetailDown key.Binding
	Filter     key.Binding
	Clear      key.Binding
	Hex        key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// filterKeyMap is shown while the filter input has focus
type filterKeyMap struct {
	Apply  key.Binding
	Cancel key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev frame"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next frame"),
		),
		DetailUp: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "scroll detail up"),
		),
		DetailDown: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "scroll detail down"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		Hex: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "toggle hex"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func newFilterKeyMap() filterKeyMap {
	return filterKeyMap{
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Filter, k.Hex, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.DetailUp, k.DetailDown},
		{k.Filter, k.Clear, k.Hex},
		{k.Help, k.Quit},
	}
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k filterKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Apply, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k filterKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Apply, k.Cancel}}
}
