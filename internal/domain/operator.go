package domain

import (
	"time"
)

// OperatorRole 决定向导从哪一步开始：admin 填写全部两步，ops 只填写详细信息
type OperatorRole string

const (
	RoleAdmin OperatorRole = "admin"
	RoleOps   OperatorRole = "ops"
)

func (r OperatorRole) FirstStep() int {
	if r == RoleOps {
		return 2
	}
	return 1
}

type Operator struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	FullName     string       `json:"fullName"`
	Email        string       `json:"email"`
	Role         OperatorRole `json:"role"`
	IsActive     bool         `json:"isActive"`
	CreatedAt    time.Time    `json:"createdAt"`
	Version      int32        `json:"-"`
}
