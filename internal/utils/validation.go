package utils

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
)

// ValidateEmployee 检查一次提交的两份记录。两个记录库只能通过邮箱关联，所以两份记录的邮箱必须一致。
// admin 填写了第一步，基本信息必须完整；ops 跳过了第一步，只检查详细信息
func ValidateEmployee(basic *domain.BasicInfo, details *domain.Details, role domain.OperatorRole) error {
	if strings.TrimSpace(details.Email) == "" {
		return errors.New("邮箱不能为空")
	}
	if basic.Email != details.Email {
		return fmt.Errorf("基本信息的邮箱 %q 与详细信息的邮箱 %q 不一致", basic.Email, details.Email)
	}

	if !slices.Contains(domain.EmploymentTypes, details.EmploymentType) {
		return fmt.Errorf("不支持的雇佣类型 %q", details.EmploymentType)
	}
	if strings.TrimSpace(details.Location) == "" {
		return errors.New("办公地点不能为空")
	}

	if role != domain.RoleAdmin {
		return nil
	}

	if strings.TrimSpace(basic.FullName) == "" {
		return errors.New("姓名不能为空")
	}
	if !slices.Contains(domain.EmployeeRoles, basic.Role) {
		return fmt.Errorf("不支持的职位 %q", basic.Role)
	}
	if strings.TrimSpace(basic.Department) == "" {
		return errors.New("部门不能为空")
	}

	return nil
}
