// Package ui implements the terminal interface for managing folder
// registrations: forms over the registry plus manual commits, with a
// cosmetic theme toggle. All real work is delegated to the registry store
// and the git wrapper, the same code paths the CLI uses.
package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/finex/gac/internal/gitops"
	"github.com/finex/gac/internal/registry"
	"github.com/finex/gac/internal/theme"
)

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

// historyDepth is how many recent commits the side panel shows.
const historyDepth = 5

type (
	regsLoadedMsg struct {
		regs []registry.Registration
		err  error
	}
	commitDoneMsg struct {
		folder string
		err    error
	}
	historyMsg struct {
		folder string
		log    string
		err    error
	}
)

// Model is the bubbletea model for the gac interface.
type Model struct {
	store *registry.Store
	git   *gitops.Runner

	mode      mode
	regs      []registry.Registration
	cursor    int
	form      form
	history   string
	status    string
	statusErr bool

	themeName string
	theme     *theme.Theme

	width  int
	height int
}

// New builds the interface model. The initial theme comes from the
// registry file.
func New(store *registry.Store, git *gitops.Runner) Model {
	themeName := theme.DarkName
	if f, err := store.Load(); err == nil && f.Theme != "" {
		themeName = f.Theme
	}
	return Model{
		store:     store,
		git:       git,
		themeName: themeName,
		theme:     theme.ByName(themeName),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadRegistrations()
}

func (m Model) loadRegistrations() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		regs, err := store.List()
		return regsLoadedMsg{regs: regs, err: err}
	}
}

func (m Model) loadHistory() tea.Cmd {
	if m.cursor >= len(m.regs) {
		return nil
	}
	git := m.git
	folder := m.regs[m.cursor].Path
	return func() tea.Msg {
		out, err := git.Log(context.Background(), folder, historyDepth)
		return historyMsg{folder: folder, log: out, err: err}
	}
}

func (m Model) commitSelected() tea.Cmd {
	if m.cursor >= len(m.regs) {
		return nil
	}
	git := m.git
	reg := m.regs[m.cursor]
	return func() tea.Msg {
		creds := gitops.Credentials{
			RepoURL:  reg.RepoURL,
			Username: reg.Username,
			Token:    reg.Token,
		}
		err := git.CommitAndPush(context.Background(), reg.Path, creds, "")
		return commitDoneMsg{folder: reg.Path, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case regsLoadedMsg:
		if msg.err != nil {
			m.setError("registry: %v", msg.err)
			return m, nil
		}
		m.regs = msg.regs
		if m.cursor >= len(m.regs) {
			m.cursor = max(0, len(m.regs)-1)
		}
		m.history = ""
		return m, m.loadHistory()

	case commitDoneMsg:
		if msg.err != nil {
			m.setError("commit failed for %s: %v", msg.folder, msg.err)
		} else {
			m.setStatus("committed and pushed %s", msg.folder)
		}
		return m, m.loadHistory()

	case historyMsg:
		if msg.err != nil {
			m.history = ""
			return m, nil
		}
		m.history = msg.log
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, m.loadHistory()
	case "down", "j":
		if m.cursor < len(m.regs)-1 {
			m.cursor++
		}
		return m, m.loadHistory()
	case "a":
		m.mode = modeForm
		m.form = newForm(nil)
		return m, m.form.focusCmd()
	case "e":
		if m.cursor < len(m.regs) {
			m.mode = modeForm
			m.form = newForm(&m.regs[m.cursor])
			return m, m.form.focusCmd()
		}
	case "d":
		if m.cursor < len(m.regs) {
			m.mode = modeConfirmDelete
		}
	case "c":
		if m.cursor < len(m.regs) {
			m.setStatus("committing %s...", m.regs[m.cursor].Path)
			return m, m.commitSelected()
		}
	case " ":
		return m.toggleAutoCommit()
	case "t":
		return m.toggleTheme()
	case "r":
		return m, m.loadRegistrations()
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeList
		if m.cursor < len(m.regs) {
			path := m.regs[m.cursor].Path
			if err := m.store.Remove(path); err != nil {
				m.setError("remove: %v", err)
			} else {
				m.setStatus("removed %s", path)
			}
		}
		return m, m.loadRegistrations()
	default:
		m.mode = modeList
		return m, nil
	}
}

func (m Model) toggleAutoCommit() (tea.Model, tea.Cmd) {
	if m.cursor >= len(m.regs) {
		return m, nil
	}
	reg := m.regs[m.cursor]
	enabled := !reg.AutoCommit
	if err := m.store.Edit(reg.Path, registry.Fields{AutoCommit: &enabled}); err != nil {
		m.setError("edit: %v", err)
		return m, nil
	}
	if enabled {
		m.setStatus("auto-commit enabled for %s", reg.Path)
	} else {
		m.setStatus("auto-commit disabled for %s", reg.Path)
	}
	return m, m.loadRegistrations()
}

func (m Model) toggleTheme() (tea.Model, tea.Cmd) {
	m.themeName = theme.ToggleName(m.themeName)
	m.theme = theme.ByName(m.themeName)
	if err := m.store.SetTheme(m.themeName); err != nil {
		m.setError("save theme: %v", err)
	} else {
		m.setStatus("theme: %s", m.themeName)
	}
	return m, nil
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = true
}
