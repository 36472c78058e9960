package domain

type Step string

const (
	StepIdle     Step = "idle"
	StepBasic    Step = "basic"
	StepDetails  Step = "details"
	StepComplete Step = "complete"
	StepError    Step = "error"
)

// SubmitProgress 是提交流程中产生的进度事件，只在内存中传递，不会被持久化
type SubmitProgress struct {
	Step     Step   `json:"step"`
	Message  string `json:"message"`
	Progress int    `json:"progress"` // 0 ~ 100
}

func (p SubmitProgress) Done() bool {
	return p.Step == StepComplete || p.Step == StepError
}
