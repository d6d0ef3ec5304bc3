package tui

import "github.com/charmbracelet/bubbles/key"

type listKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Delete  key.Binding
	Add     key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

type formKeyMap struct {
	Submit key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func newListKeyMap() listKeyMap {
	return listKeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
		Delete:  key.NewBinding(key.WithKeys("d", "x", "delete"), key.WithHelp("d", "delete")),
		Add:     key.NewBinding(key.WithKeys("a", "i", "tab"), key.WithHelp("a", "add")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func newFormKeyMap() formKeyMap {
	return formKeyMap{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add item")),
		Back:   key.NewBinding(key.WithKeys("esc", "tab"), key.WithHelp("tab", "list")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k listKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Delete, k.Add, k.Refresh, k.Quit}
}

func (k listKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

func (k formKeyMap) ShortHelp() []key.Binding { return []key.Binding{k.Submit, k.Back, k.Quit} }

func (k formKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }
