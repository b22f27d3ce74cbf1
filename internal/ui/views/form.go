// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// form is a vertical stack of text inputs with tab-cycled focus, shared by
// the login, signup, reset, and settings screens.
type form struct {
	labels []string
	inputs []textinput.Model
	focus  int
}

func newForm(fields ...formField) form {
	f := form{}
	for i, field := range fields {
		in := textinput.New()
		in.Placeholder = field.placeholder
		in.CharLimit = 128
		if field.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '*'
		}
		if i == 0 {
			in.Focus()
		}
		f.labels = append(f.labels, field.label)
		f.inputs = append(f.inputs, in)
	}
	return f
}

type formField struct {
	label       string
	placeholder string
	secret      bool
}

// cycle moves focus by delta, wrapping around.
func (f *form) cycle(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

// update forwards msg to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// value returns the trimmed-as-typed content of field i.
func (f *form) value(i int) string {
	return f.inputs[i].Value()
}

// reset blanks every field and refocuses the first.
func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}
	f.focus = 0
	f.inputs[0].Focus()
}

// render draws labels and inputs, marking the focused row.
func (f *form) render(deps Deps) string {
	t := deps.Theme
	out := ""
	for i, in := range f.inputs {
		label := t.FieldLabel.Render(f.labels[i])
		if i == f.focus {
			label = t.FieldFocused.Render(f.labels[i])
		}
		out += label + "\n" + in.View() + "\n"
	}
	return out
}
