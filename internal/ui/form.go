package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/finex/gac/internal/registry"
)

// Form field indices.
const (
	fieldPath = iota
	fieldRepoURL
	fieldUsername
	fieldToken
	fieldCount
)

// form is the add/edit registration form. When editing, the path field is
// fixed: the path is the registry key.
type form struct {
	inputs   []textinput.Model
	focus    int
	editing  bool
	editPath string
}

func newForm(existing *registry.Registration) form {
	f := form{inputs: make([]textinput.Model, fieldCount)}

	labels := []string{"Folder path", "Repository URL", "Username", "Token"}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = labels[i]
		in.CharLimit = 256
		f.inputs[i] = in
	}
	f.inputs[fieldToken].EchoMode = textinput.EchoPassword
	f.inputs[fieldToken].EchoCharacter = '*'

	if existing != nil {
		f.editing = true
		f.editPath = existing.Path
		f.inputs[fieldPath].SetValue(existing.Path)
		f.inputs[fieldRepoURL].SetValue(existing.RepoURL)
		f.inputs[fieldUsername].SetValue(existing.Username)
		f.inputs[fieldToken].SetValue(existing.Token)
	}

	f.focus = fieldPath
	if f.editing {
		f.focus = fieldRepoURL
	}
	f.inputs[f.focus].Focus()
	return f
}

func (f *form) focusCmd() tea.Cmd {
	return textinput.Blink
}

// cycle moves focus by delta, skipping the path field while editing.
func (f *form) cycle(delta int) {
	f.inputs[f.focus].Blur()
	for {
		f.focus = (f.focus + delta + fieldCount) % fieldCount
		if !(f.editing && f.focus == fieldPath) {
			break
		}
	}
	f.inputs[f.focus].Focus()
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.setStatus("cancelled")
		return m, nil
	case "tab", "down":
		m.form.cycle(1)
		return m, nil
	case "shift+tab", "up":
		m.form.cycle(-1)
		return m, nil
	case "enter":
		if m.form.focus == fieldToken {
			return m.submitForm()
		}
		m.form.cycle(1)
		return m, nil
	case "ctrl+s":
		return m.submitForm()
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := &m.form

	if f.editing {
		url := f.value(fieldRepoURL)
		user := f.value(fieldUsername)
		token := f.value(fieldToken)
		err := m.store.Edit(f.editPath, registry.Fields{
			RepoURL:  &url,
			Username: &user,
			Token:    &token,
		})
		if err != nil {
			m.setError("edit: %v", err)
			return m, nil
		}
		m.mode = modeList
		m.setStatus("updated %s", f.editPath)
		return m, m.loadRegistrations()
	}

	if f.value(fieldPath) == "" || f.value(fieldRepoURL) == "" {
		m.setError("folder path and repository URL are required")
		return m, nil
	}

	err := m.store.Add(registry.Registration{
		Path:       f.value(fieldPath),
		RepoURL:    f.value(fieldRepoURL),
		Username:   f.value(fieldUsername),
		Token:      f.value(fieldToken),
		AutoCommit: true,
	})
	if err != nil {
		m.setError("add: %v", err)
		return m, nil
	}
	m.mode = modeList
	m.setStatus("registered %s", f.value(fieldPath))
	return m, m.loadRegistrations()
}
