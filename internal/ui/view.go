package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.AccentFg).
		Background(m.theme.Accent).
		Padding(0, 1)
	b.WriteString(titleStyle.Render("gac — git auto commit"))
	b.WriteString("\n\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.viewForm())
	case modeConfirmDelete:
		b.WriteString(m.viewList())
		b.WriteString("\n")
		confirm := lipgloss.NewStyle().Foreground(m.theme.WarnFg)
		b.WriteString(confirm.Render(fmt.Sprintf("Remove %s from tracking? [y/N]", m.selectedPath())))
		b.WriteString("\n")
	default:
		b.WriteString(m.viewList())
		b.WriteString(m.viewHistory())
	}

	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	b.WriteString(m.viewHelp())
	return b.String()
}

func (m Model) selectedPath() string {
	if m.cursor < len(m.regs) {
		return m.regs[m.cursor].Path
	}
	return ""
}

func (m Model) viewList() string {
	muted := lipgloss.NewStyle().Foreground(m.theme.MutedFg)
	if len(m.regs) == 0 {
		return muted.Render("No folders registered. Press 'a' to add one.") + "\n"
	}

	text := lipgloss.NewStyle().Foreground(m.theme.TextFg)
	selected := lipgloss.NewStyle().
		Foreground(m.theme.AccentFg).
		Background(m.theme.Accent)
	okStyle := lipgloss.NewStyle().Foreground(m.theme.SuccessFg)
	offStyle := lipgloss.NewStyle().Foreground(m.theme.MutedFg)

	var b strings.Builder
	b.WriteString(muted.Render(fmt.Sprintf("%-40s %-40s %s", "FOLDER", "REPOSITORY", "AUTO")))
	b.WriteString("\n")
	for i, reg := range m.regs {
		line := fmt.Sprintf("%-40s %-40s", truncate(reg.Path, 40), truncate(reg.RepoURL, 40))
		auto := okStyle.Render("on")
		if !reg.AutoCommit {
			auto = offStyle.Render("off")
		}
		if i == m.cursor {
			b.WriteString(selected.Render(line) + " " + auto)
		} else {
			b.WriteString(text.Render(line) + " " + auto)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewHistory() string {
	if m.history == "" {
		return ""
	}
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border).
		Padding(0, 1)
	muted := lipgloss.NewStyle().Foreground(m.theme.MutedFg)
	return "\n" + border.Render(muted.Render("Recent commits")+"\n"+m.history) + "\n"
}

func (m Model) viewForm() string {
	labelStyle := lipgloss.NewStyle().Foreground(m.theme.MutedFg).Width(16)
	focusStyle := lipgloss.NewStyle().Foreground(m.theme.Accent).Width(16)

	labels := []string{"Folder path", "Repository URL", "Username", "Token"}
	var b strings.Builder
	title := "Register folder"
	if m.form.editing {
		title = "Edit " + m.form.editPath
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(m.theme.TextFg).Render(title))
	b.WriteString("\n\n")
	for i, in := range m.form.inputs {
		if m.form.editing && i == fieldPath {
			continue
		}
		style := labelStyle
		if i == m.form.focus {
			style = focusStyle
		}
		b.WriteString(style.Render(labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(m.theme.SuccessFg)
	if m.statusErr {
		style = lipgloss.NewStyle().Foreground(m.theme.ErrorFg)
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	return style.Render(wordwrap.String(m.status, width))
}

func (m Model) viewHelp() string {
	muted := lipgloss.NewStyle().Foreground(m.theme.MutedFg)
	switch m.mode {
	case modeForm:
		return muted.Render("tab: next field • enter: submit • esc: cancel")
	case modeConfirmDelete:
		return muted.Render("y: confirm • any other key: cancel")
	default:
		return muted.Render("a: add • e: edit • d: delete • c: commit • space: auto on/off • t: theme • r: refresh • q: quit")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
