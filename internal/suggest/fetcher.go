// Package suggest 实现自动补全的取数逻辑：对输入做防抖，停顿之后才向补全接口发出一次请求。
package suggest

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
)

const DefaultQuietPeriod = 300 * time.Millisecond

// Lookup 请求 endpoint + 编码后的 query，recordstore.Client.FetchSuggestions 满足这个签名
type Lookup func(ctx context.Context, endpoint, query string) ([]domain.Suggestion, error)

// State 是补全列表的当前状态。Version 单调递增，消费方可以用它丢弃乱序到达的旧状态
type State struct {
	Version     uint64
	Query       string
	Suggestions []domain.Suggestion
	Open        bool
	Loading     bool
}

type Fetcher struct {
	endpoint string
	lookup   Lookup
	quiet    time.Duration
	onChange func(State)

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	timer     *time.Timer
	timerGen  uint64 // 每次输入都会让之前的定时器失效
	debounced string // 最近一次防抖生效的输入
	seq       uint64 // 最近一次发出的请求序号
	state     State
	closed    bool

	pubMu     sync.Mutex
	published uint64
}

// New 创建一个 Fetcher，onChange 在状态变化时被调用，可以为 nil。
// onChange 不会被并发调用，也不会收到比已经收到的版本更旧的状态，但它不应该阻塞
func New(endpoint string, lookup Lookup, quiet time.Duration, onChange func(State)) *Fetcher {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if onChange == nil {
		onChange = func(State) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Fetcher{
		endpoint: endpoint,
		lookup:   lookup,
		quiet:    quiet,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Set 记录一次输入变化。在静默期内的下一次输入会取消这次输入，不会发出任何请求
func (f *Fetcher) Set(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	if f.timer != nil {
		f.timer.Stop()
	}
	f.timerGen++
	gen := f.timerGen
	f.timer = time.AfterFunc(f.quiet, func() {
		f.fire(gen, value)
	})
}

// Select 选中一个候选项：返回候选项的名称作为新的输入值，并关闭列表。
// 选中的值不会再触发一次查询
func (f *Fetcher) Select(s domain.Suggestion) string {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timerGen++
	f.seq++ // 丢弃还在路上的响应
	f.debounced = s.Name
	st := f.setStateLocked(State{Query: s.Name})
	f.mu.Unlock()

	f.publish(st)
	return s.Name
}

func (f *Fetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Close 停止等待中的定时器，并取消还在进行的请求
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	if f.timer != nil {
		f.timer.Stop()
	}
	f.cancel()
}

func (f *Fetcher) fire(gen uint64, value string) {
	f.mu.Lock()
	if f.closed || gen != f.timerGen || value == f.debounced {
		f.mu.Unlock()
		return
	}
	f.debounced = value
	f.seq++
	seq := f.seq

	// 只用去掉空白后的值判断是否需要查询，请求里发送的是原始输入
	if strings.TrimSpace(value) == "" {
		st := f.setStateLocked(State{Query: value})
		f.mu.Unlock()
		f.publish(st)
		return
	}

	st := f.setStateLocked(State{
		Query:       value,
		Suggestions: f.state.Suggestions,
		Open:        f.state.Open,
		Loading:     true,
	})
	f.mu.Unlock()
	f.publish(st)

	suggestions, err := f.lookup(f.ctx, f.endpoint, value)

	f.mu.Lock()
	if f.closed || seq != f.seq {
		// 已经有更新的请求发出，这个响应过期了
		f.mu.Unlock()
		return
	}
	if err != nil {
		slog.Warn("无法获取补全候选项", "endpoint", f.endpoint, "query", value, "error", err)
		st = f.setStateLocked(State{Query: value})
	} else {
		st = f.setStateLocked(State{
			Query:       value,
			Suggestions: suggestions,
			Open:        len(suggestions) > 0,
		})
	}
	f.mu.Unlock()
	f.publish(st)
}

func (f *Fetcher) setStateLocked(st State) State {
	st.Version = f.state.Version + 1
	f.state = st
	return st
}

func (f *Fetcher) publish(st State) {
	f.pubMu.Lock()
	defer f.pubMu.Unlock()

	if st.Version <= f.published {
		return
	}
	f.published = st.Version
	f.onChange(st)
}
