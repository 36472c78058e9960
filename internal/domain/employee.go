package domain

// BasicInfo 是基本信息库中的一条记录，EmployeeID 在提交前由编号生成逻辑预先算好
type BasicInfo struct {
	ID         string `json:"id,omitempty"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
	EmployeeID string `json:"employeeId"`
}

// Details 是详细信息库中的一条记录。
// 两个库之间没有事务上的关联，Details 通过 Email 与 BasicInfo 连接，Email 一致性由调用方保证
type Details struct {
	ID             string `json:"id,omitempty"`
	Email          string `json:"email"`
	Photo          string `json:"photo"` // data URI，可以为空
	EmploymentType string `json:"employmentType"`
	Location       string `json:"location"`
	Notes          string `json:"notes"`
}

// Employee 是员工目录中展示的一行，由 BasicInfo 和 Details 按邮箱合并得到
type Employee struct {
	BasicInfo
	Photo          string `json:"photo"`
	EmploymentType string `json:"employmentType"`
	Location       string `json:"location"`
	Notes          string `json:"notes"`
}

// Suggestion 是自动补全的候选项，部门和地点都使用这个结构
type Suggestion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// 向导第一步和第二步下拉框中的可选值
var (
	EmployeeRoles   = []string{"Ops", "Admin", "Engineer", "Finance"}
	EmploymentTypes = []string{"Full-time", "Part-time", "Contract", "Intern"}
)
