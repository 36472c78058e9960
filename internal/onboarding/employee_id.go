package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/mozillazg/go-pinyin"
)

const prefixLength = 3

type BasicInfoLister interface {
	ListBasicInfoByDepartment(ctx context.Context, department string) ([]domain.BasicInfo, error)
}

// DepartmentPrefix 取部门名称的前三个字符并转成大写，汉字先转换成拼音，比如 工程部 -> GON
func DepartmentPrefix(department string) string {
	var b strings.Builder
	for _, r := range department {
		if unicode.Is(unicode.Han, r) {
			for _, py := range pinyin.LazyConvert(string(r), nil) {
				b.WriteString(py)
			}
			continue
		}
		b.WriteRune(r)
	}

	runes := []rune(b.String())
	if len(runes) > prefixLength {
		runes = runes[:prefixLength]
	}
	return strings.ToUpper(string(runes))
}

// GenerateEmployeeID 在该部门已有编号的最大序号上加一，生成形如 ENG-007 的员工编号。
// 查询失败时不会报错，而是退回到序号 001
func GenerateEmployeeID(ctx context.Context, lister BasicInfoLister, department string) string {
	prefix := DepartmentPrefix(department)

	infos, err := lister.ListBasicInfoByDepartment(ctx, department)
	if err != nil {
		slog.Error("无法生成员工编号", "department", department, "error", err)
		return formatEmployeeID(prefix, 1)
	}

	maxSequence := 0
	for _, info := range infos {
		if info.EmployeeID == "" || !strings.HasPrefix(info.EmployeeID, prefix) {
			continue
		}
		parts := strings.Split(info.EmployeeID, "-")
		if len(parts) != 2 {
			continue
		}
		sequence, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		if sequence > maxSequence {
			maxSequence = sequence
		}
	}

	return formatEmployeeID(prefix, maxSequence+1)
}

func formatEmployeeID(prefix string, sequence int) string {
	return fmt.Sprintf("%s-%03d", prefix, sequence)
}
