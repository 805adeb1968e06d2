package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Reset         key.Binding
	Finish        key.Binding
	RepulsionUp   key.Binding
	RepulsionDown key.Binding
	DistanceUp    key.Binding
	DistanceDown  key.Binding
	SizeMode      key.Binding
	Help          key.Binding
	Quit          key.Binding
}

var keys = keyMap{
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset layout"),
	),
	Finish: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "finish reveal"),
	),
	RepulsionUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+/-", "repulsion"),
	),
	RepulsionDown: key.NewBinding(
		key.WithKeys("-", "_"),
	),
	DistanceUp: key.NewBinding(
		key.WithKeys(">", "."),
		key.WithHelp("</>", "link distance"),
	),
	DistanceDown: key.NewBinding(
		key.WithKeys("<", ","),
	),
	SizeMode: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "size mode"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.RepulsionUp, k.DistanceUp, k.SizeMode, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.RepulsionUp, k.DistanceUp, k.SizeMode},
		{k.Reset, k.Finish},
		{k.Help, k.Quit},
	}
}
