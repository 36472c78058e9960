package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hr-onboarding/employee-wizard/backend/internal/suggest"
)

type suggestMsg struct {
	field field
	state suggest.State
}

// autocomplete 把 suggest.Fetcher 的状态接入 bubbletea 的消息循环
type autocomplete struct {
	fetcher *suggest.Fetcher
	updates chan suggest.State

	state  suggest.State
	cursor int
	hidden bool // 按 esc 收起，下一次状态变化时重新展开
}

func newAutocomplete(endpoint string, lookup suggest.Lookup, quiet time.Duration) *autocomplete {
	a := &autocomplete{updates: make(chan suggest.State, 1)}
	a.fetcher = suggest.New(endpoint, lookup, quiet, a.push)
	return a
}

// push 只保留最新的状态，channel 里还没被读走的旧状态直接丢掉
func (a *autocomplete) push(st suggest.State) {
	for {
		select {
		case a.updates <- st:
			return
		default:
		}
		select {
		case <-a.updates:
		default:
		}
	}
}

func (a *autocomplete) wait(f field) tea.Cmd {
	return func() tea.Msg {
		return suggestMsg{field: f, state: <-a.updates}
	}
}

// apply 返回 false 表示这是一个过期的状态
func (a *autocomplete) apply(st suggest.State) bool {
	if st.Version <= a.state.Version {
		return false
	}
	a.state = st
	a.cursor = 0
	a.hidden = false
	return true
}

func (a *autocomplete) open() bool {
	return a.state.Open && !a.hidden && len(a.state.Suggestions) > 0
}

func (a *autocomplete) move(delta int) {
	n := len(a.state.Suggestions)
	if n == 0 {
		return
	}
	a.cursor = (a.cursor + delta + n) % n
}

// choose 选中光标所在的候选项，返回要写回输入框的值
func (a *autocomplete) choose() string {
	s := a.state.Suggestions[a.cursor]
	name := a.fetcher.Select(s)
	a.apply(a.fetcher.State())
	return name
}
