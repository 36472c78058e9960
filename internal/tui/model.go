// Package tui 是终端版的入职向导。
//
// admin 从第一步（基本信息）开始，ops 直接从第二步（详细信息）开始。部门和办公地点的输入框
// 带有防抖的自动补全，提交时用进度条和日志行展示提交流程发出的每一个进度事件。
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/onboarding"
	"github.com/hr-onboarding/employee-wizard/backend/internal/utils"
)

const employeeIDTimeout = 10 * time.Second

// Records 是向导需要的记录库能力，recordstore.Client 实现了这个接口
type Records interface {
	onboarding.BasicInfoLister
	FetchSuggestions(ctx context.Context, endpoint, query string) ([]domain.Suggestion, error)
	DepartmentsEndpoint() string
	LocationsEndpoint() string
}

type Submitter interface {
	Submit(ctx context.Context, basic domain.BasicInfo, details domain.Details, sink onboarding.ProgressSink) error
}

type Options struct {
	Role        domain.OperatorRole
	QuietPeriod time.Duration
}

type field int

const (
	fieldFullName field = iota
	fieldEmail
	fieldRole
	fieldDepartment
	fieldEmploymentType
	fieldLocation
	fieldNotes
	fieldCount
)

var textFields = []field{fieldFullName, fieldEmail, fieldDepartment, fieldLocation, fieldNotes}

type status int

const (
	statusIdle status = iota
	statusLoading
	statusSuccess
	statusError
)

type employeeIDMsg struct {
	department string
	id         string
}

type progressMsg struct {
	progress domain.SubmitProgress
	ch       <-chan domain.SubmitProgress
}

type submitDoneMsg struct{}

type Model struct {
	records  Records
	pipeline Submitter

	role  domain.OperatorRole
	step  int
	focus int

	inputs  [fieldCount]textinput.Model
	choices map[field]*choice
	auto    map[field]*autocomplete

	employeeID   string
	idDepartment string // 最近一次生成工号所用的部门

	status   status
	notice   string
	percent  float64
	logs     []string
	progress progress.Model
	cancel   context.CancelFunc
}

// choice 是只能在固定选项中左右切换的字段，index 为 -1 表示还没有选择
type choice struct {
	options []string
	index   int
}

func (c *choice) value() string {
	if c.index < 0 {
		return ""
	}
	return c.options[c.index]
}

func (c *choice) cycle(delta int) {
	n := len(c.options)
	if c.index < 0 {
		if delta > 0 {
			c.index = 0
		} else {
			c.index = n - 1
		}
		return
	}
	c.index = (c.index + delta + n) % n
}

func New(records Records, pipeline Submitter, opts Options) *Model {
	if opts.Role != domain.RoleOps {
		opts.Role = domain.RoleAdmin
	}

	m := &Model{
		records:  records,
		pipeline: pipeline,
		role:     opts.Role,
		step:     opts.Role.FirstStep(),
		choices: map[field]*choice{
			fieldRole:           {options: domain.EmployeeRoles, index: -1},
			fieldEmploymentType: {options: domain.EmploymentTypes, index: -1},
		},
		auto: map[field]*autocomplete{
			fieldDepartment: newAutocomplete(records.DepartmentsEndpoint(), records.FetchSuggestions, opts.QuietPeriod),
			fieldLocation:   newAutocomplete(records.LocationsEndpoint(), records.FetchSuggestions, opts.QuietPeriod),
		},
		progress: progress.New(progress.WithDefaultGradient()),
	}
	m.progress.Width = 40

	placeholders := map[field]string{
		fieldFullName:   "Jane Doe",
		fieldEmail:      "jane.doe@company.com",
		fieldDepartment: "Engineering",
		fieldLocation:   "Jakarta",
		fieldNotes:      "Optional",
	}
	for f, placeholder := range placeholders {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholder
		ti.CharLimit = 128
		ti.Width = 40
		m.inputs[f] = ti
	}
	m.focusCurrent()
	return m
}

// Close 停止补全的定时器并取消正在进行的提交
func (m *Model) Close() {
	for _, a := range m.auto {
		a.fetcher.Close()
	}
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.auto[fieldDepartment].wait(fieldDepartment),
		m.auto[fieldLocation].wait(fieldLocation),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-10, 10), 60)
		return m, nil

	case suggestMsg:
		m.auto[msg.field].apply(msg.state)
		return m, m.auto[msg.field].wait(msg.field)

	case employeeIDMsg:
		if msg.department == m.idDepartment {
			m.employeeID = msg.id
		}
		return m, nil

	case progressMsg:
		m.handleProgress(msg.progress)
		return m, waitProgress(msg.ch)

	case submitDoneMsg:
		m.cancel = nil
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) submitting() bool {
	return m.status == statusLoading
}

func (m *Model) visibleFields() []field {
	if m.step == 1 {
		return []field{fieldFullName, fieldEmail, fieldRole, fieldDepartment}
	}
	// ops 没有第一步，需要在这里填写用来关联两份记录的邮箱
	var fields []field
	if m.role == domain.RoleOps {
		fields = append(fields, fieldEmail)
	}
	return append(fields, fieldEmploymentType, fieldLocation, fieldNotes)
}

func (m *Model) focused() field {
	return m.visibleFields()[m.focus]
}

func (m *Model) focusCurrent() tea.Cmd {
	current := m.focused()
	var cmd tea.Cmd
	for _, f := range textFields {
		if f == current {
			cmd = m.inputs[f].Focus()
			continue
		}
		m.inputs[f].Blur()
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	}
	if m.submitting() {
		return m, nil
	}

	current := m.focused()
	auto, hasAuto := m.auto[current]
	listOpen := hasAuto && auto.open()

	switch msg.String() {
	case "ctrl+r":
		m.toggleRole()
		return m, m.focusCurrent()

	case "tab":
		return m, m.moveFocus(1)

	case "shift+tab":
		return m, m.moveFocus(-1)

	case "down":
		if listOpen {
			auto.move(1)
			return m, nil
		}
		return m, m.moveFocus(1)

	case "up":
		if listOpen {
			auto.move(-1)
			return m, nil
		}
		return m, m.moveFocus(-1)

	case "esc":
		if listOpen {
			auto.hidden = true
			return m, nil
		}
		if m.step == 2 && m.role == domain.RoleAdmin {
			m.step = 1
			m.focus = 0
			m.notice = ""
			return m, m.focusCurrent()
		}
		return m, nil

	case "enter":
		if listOpen {
			m.inputs[current].SetValue(auto.choose())
			if current == fieldDepartment {
				return m, m.generateEmployeeID()
			}
			return m, nil
		}
		if m.step == 1 {
			return m, m.next()
		}
		return m, m.submit()
	}

	if c, ok := m.choices[current]; ok {
		switch msg.String() {
		case "left":
			c.cycle(-1)
		case "right", " ":
			c.cycle(1)
		}
		return m, nil
	}

	before := m.inputs[current].Value()
	var cmd tea.Cmd
	m.inputs[current], cmd = m.inputs[current].Update(msg)
	if value := m.inputs[current].Value(); hasAuto && value != before {
		auto.fetcher.Set(value)
	}
	return m, cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	leaving := m.focused()
	n := len(m.visibleFields())
	m.focus = (m.focus + delta + n) % n

	cmd := m.focusCurrent()
	if leaving == fieldDepartment {
		return tea.Batch(cmd, m.generateEmployeeID())
	}
	return cmd
}

func (m *Model) toggleRole() {
	if m.role == domain.RoleAdmin {
		m.role = domain.RoleOps
	} else {
		m.role = domain.RoleAdmin
	}
	m.step = m.role.FirstStep()
	m.focus = 0
	m.notice = ""
	for _, a := range m.auto {
		a.hidden = true
	}
}

// generateEmployeeID 只在 admin 填写部门之后生成工号，部门没有变化时不会重复生成
func (m *Model) generateEmployeeID() tea.Cmd {
	department := strings.TrimSpace(m.inputs[fieldDepartment].Value())
	if m.role != domain.RoleAdmin || department == "" || department == m.idDepartment {
		return nil
	}
	m.idDepartment = department
	m.employeeID = ""

	lister := m.records
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), employeeIDTimeout)
		defer cancel()
		return employeeIDMsg{
			department: department,
			id:         onboarding.GenerateEmployeeID(ctx, lister, department),
		}
	}
}

func (m *Model) formData() domain.WizardFormData {
	return domain.WizardFormData{
		FullName:       strings.TrimSpace(m.inputs[fieldFullName].Value()),
		Email:          strings.TrimSpace(m.inputs[fieldEmail].Value()),
		Role:           m.choices[fieldRole].value(),
		Department:     strings.TrimSpace(m.inputs[fieldDepartment].Value()),
		EmployeeID:     m.employeeID,
		EmploymentType: m.choices[fieldEmploymentType].value(),
		Location:       strings.TrimSpace(m.inputs[fieldLocation].Value()),
		Notes:          m.inputs[fieldNotes].Value(),
	}
}

func (m *Model) next() tea.Cmd {
	form := m.formData()
	if form.FullName == "" || form.Email == "" || form.Role == "" || form.Department == "" {
		m.notice = "请填写所有必填项"
		return nil
	}

	m.notice = ""
	m.step = 2
	m.focus = 0
	return tea.Batch(m.focusCurrent(), m.generateEmployeeID())
}

func (m *Model) submit() tea.Cmd {
	form := m.formData()
	basic, details := form.BasicInfo(), form.Details()
	if err := utils.ValidateEmployee(&basic, &details, m.role); err != nil {
		m.notice = err.Error()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.status = statusLoading
	m.notice = ""
	m.percent = 0
	m.logs = nil

	role, records, pipeline := m.role, m.records, m.pipeline
	return func() tea.Msg {
		ch := make(chan domain.SubmitProgress, 8)
		go func() {
			defer close(ch)
			defer cancel()

			if role == domain.RoleAdmin && basic.EmployeeID == "" {
				basic.EmployeeID = onboarding.GenerateEmployeeID(ctx, records, basic.Department)
			}
			// 错误已经通过 error 事件报告给界面
			_ = pipeline.Submit(ctx, basic, details, onboarding.ChannelSink(ch))
		}()
		return waitProgress(ch)()
	}
}

func waitProgress(ch <-chan domain.SubmitProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return submitDoneMsg{}
		}
		return progressMsg{progress: p, ch: ch}
	}
}

func (m *Model) handleProgress(p domain.SubmitProgress) {
	m.percent = float64(p.Progress) / 100
	m.logs = append(m.logs, p.Message)

	switch p.Step {
	case domain.StepComplete:
		m.status = statusSuccess
		m.reset()
	case domain.StepError:
		m.status = statusError
	}
}

// reset 清空表单，进度条和日志保留到下一次提交
func (m *Model) reset() {
	for _, f := range textFields {
		m.inputs[f].SetValue("")
	}
	for _, c := range m.choices {
		c.index = -1
	}
	for _, a := range m.auto {
		a.hidden = true
	}
	m.employeeID = ""
	m.idDepartment = ""
	m.step = m.role.FirstStep()
	m.focus = 0
	m.focusCurrent()
}
