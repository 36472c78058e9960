package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Padding(0, 1)
	labelStyle    = lipgloss.NewStyle().Width(16)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7D56F4")).Padding(1, 2)
)

var labels = map[field]string{
	fieldFullName:       "Full Name",
	fieldEmail:          "Email",
	fieldRole:           "Role",
	fieldDepartment:     "Department",
	fieldEmploymentType: "Employment Type",
	fieldLocation:       "Location",
	fieldNotes:          "Notes",
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Add Employee"))
	b.WriteString("  ")
	b.WriteString(m.roleToggle())
	b.WriteString("\n\n")

	if m.step == 1 {
		b.WriteString(titleStyle.Render("Step 1: Basic Information"))
	} else {
		// ops 只有这一步，所以对 ops 来说它是第 1 步
		b.WriteString(titleStyle.Render(fmt.Sprintf("Step %d: Employee Details", 3-m.role.FirstStep())))
	}
	b.WriteString("\n\n")

	for i, f := range m.visibleFields() {
		b.WriteString(m.renderField(f, i == m.focus))
		b.WriteString("\n")
		if a, ok := m.auto[f]; ok && i == m.focus && a.open() {
			for j, s := range a.state.Suggestions {
				line := "  " + s.Name
				if j == a.cursor {
					line = cursorStyle.Render("▸ " + s.Name)
				}
				b.WriteString(labelStyle.Render("") + "  " + line + "\n")
			}
		}
	}
	if m.step == 1 {
		id := m.employeeID
		if id == "" {
			id = mutedStyle.Render("-")
		}
		b.WriteString("  " + labelStyle.Render("Employee ID") + id + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + errorStyle.Render(m.notice) + "\n")
	}

	if m.status != statusIdle {
		b.WriteString("\n" + m.progressView())
	}

	b.WriteString("\n" + mutedStyle.Render(m.help()))
	return boxStyle.Render(b.String())
}

func (m *Model) roleToggle() string {
	admin, ops := inactiveStyle, inactiveStyle
	if m.role == domain.RoleAdmin {
		admin = activeStyle
	} else {
		ops = activeStyle
	}
	return admin.Render("Admin") + ops.Render("Ops")
}

func (m *Model) renderField(f field, focused bool) string {
	prefix := "  "
	if focused {
		prefix = cursorStyle.Render("> ")
	}

	var value string
	if c, ok := m.choices[f]; ok {
		v := c.value()
		if v == "" {
			v = mutedStyle.Render("Select " + strings.ToLower(labels[f]))
		}
		value = "‹ " + v + " ›"
	} else {
		value = m.inputs[f].View()
	}
	return prefix + labelStyle.Render(labels[f]) + value
}

func (m *Model) progressView() string {
	var b strings.Builder
	b.WriteString(m.progress.ViewAs(m.percent))
	b.WriteString("\n")

	for i, line := range m.logs {
		icon := "⋯"
		if i < len(m.logs)-1 {
			icon = "✓"
		}
		text := line
		if i == len(m.logs)-1 {
			switch m.status {
			case statusSuccess:
				icon, text = "✓", successStyle.Render(line)
			case statusError:
				icon, text = "✗", errorStyle.Render(line)
			}
		}
		b.WriteString(fmt.Sprintf("%s %s\n", icon, text))
	}
	return b.String()
}

func (m *Model) help() string {
	if m.submitting() {
		return "提交中… ctrl+c 取消并退出"
	}
	keys := []string{"tab/↑↓ 切换字段", "ctrl+r 切换角色"}
	if m.step == 1 {
		keys = append(keys, "enter 下一步")
	} else {
		keys = append(keys, "enter 提交")
		if m.role == domain.RoleAdmin {
			keys = append(keys, "esc 返回")
		}
	}
	return strings.Join(keys, " · ") + " · ctrl+c 退出"
}
