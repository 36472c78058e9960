// Package onboarding 负责把一名新员工的两份记录依次写入基本信息库和详细信息库，
// 并在过程中通过 ProgressSink 报告进度。
package onboarding

import (
	"context"
	"log/slog"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
)

const DefaultPacing = 3 * time.Second

const (
	MessageSubmittingBasic   = "Submitting basic information..."
	MessageBasicSubmitted    = "Basic information submitted successfully"
	MessageSubmittingDetails = "Submitting employee details..."
	MessageComplete          = "Employee created successfully!"
	MessageFallbackError     = "An error occurred"
)

// RecordStore 是两个独立的记录库，recordstore.Client 实现了这个接口
type RecordStore interface {
	CreateBasicInfo(ctx context.Context, info domain.BasicInfo) (*domain.BasicInfo, error)
	CreateDetails(ctx context.Context, details domain.Details) (*domain.Details, error)
}

// ProgressSink 接收进度事件，事件按产生的顺序同步投递
type ProgressSink func(domain.SubmitProgress)

// ChannelSink 把进度事件写入 ch，ch 需要有足够的缓冲或者有人在读，否则提交流程会阻塞
func ChannelSink(ch chan<- domain.SubmitProgress) ProgressSink {
	return func(p domain.SubmitProgress) {
		ch <- p
	}
}

type Pipeline struct {
	store  RecordStore
	pacing time.Duration
}

// New 创建提交流程，pacing 是两个阶段之间的等待时间，只是为了让进度条有时间展示动画
func New(store RecordStore, pacing time.Duration) *Pipeline {
	if pacing < 0 {
		pacing = 0
	}
	return &Pipeline{
		store:  store,
		pacing: pacing,
	}
}

func (p *Pipeline) Pacing() time.Duration {
	return p.pacing
}

// Submit 先提交基本信息，成功后再提交详细信息，不会重试也不会回滚。
// 任意一步失败都会发出且只发出一个 error 事件，然后把错误原样返回。
// 详细信息提交失败时，已经写入的基本信息会保留下来
func (p *Pipeline) Submit(ctx context.Context, basic domain.BasicInfo, details domain.Details, sink ProgressSink) (err error) {
	if sink == nil {
		sink = func(domain.SubmitProgress) {}
	}

	logger := slog.With("email", basic.Email, "employee_id", basic.EmployeeID)

	defer func() {
		if err == nil {
			return
		}
		msg := err.Error()
		if msg == "" {
			msg = MessageFallbackError
		}
		logger.Error("员工提交失败", "error", err)
		sink(domain.SubmitProgress{Step: domain.StepError, Message: msg, Progress: 0})
	}()

	// 第一步：基本信息
	sink(domain.SubmitProgress{Step: domain.StepBasic, Message: MessageSubmittingBasic, Progress: 25})
	if _, err = p.store.CreateBasicInfo(ctx, basic); err != nil {
		return err
	}
	sink(domain.SubmitProgress{Step: domain.StepBasic, Message: MessageBasicSubmitted, Progress: 50})

	if err = p.wait(ctx); err != nil {
		return err
	}

	// 第二步：详细信息
	sink(domain.SubmitProgress{Step: domain.StepDetails, Message: MessageSubmittingDetails, Progress: 75})
	if _, err = p.store.CreateDetails(ctx, details); err != nil {
		return err
	}

	if err = p.wait(ctx); err != nil {
		return err
	}

	sink(domain.SubmitProgress{Step: domain.StepComplete, Message: MessageComplete, Progress: 100})
	logger.Info("员工提交成功")
	return nil
}

func (p *Pipeline) wait(ctx context.Context) error {
	if p.pacing == 0 {
		return ctx.Err()
	}

	t := time.NewTimer(p.pacing)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
