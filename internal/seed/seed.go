package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/onboarding"
	"github.com/hr-onboarding/employee-wizard/backend/internal/repository"
	"github.com/hr-onboarding/employee-wizard/backend/internal/utils"
	"gopkg.in/yaml.v3"
)

type Lookups struct {
	Departments []string `yaml:"departments"`
	Locations   []string `yaml:"locations"`
}

// LoadLookups 读取部门和办公地点列表，空白项和重复项会被去掉
func LoadLookups(path string) (*Lookups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	l := &Lookups{}
	if err := yaml.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", path, err)
	}

	l.Departments = normalize(l.Departments)
	l.Locations = normalize(l.Locations)
	return l, nil
}

func normalize(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

type LookupWriter interface {
	UpsertLookup(table repository.LookupTable, name string) (*domain.Suggestion, error)
}

// SeedLookups 写入所有名称，已存在的名称不会重复插入。单条失败只记录日志，返回成功的条数
func SeedLookups(w LookupWriter, l *Lookups) int {
	cnt := 0
	for _, group := range []struct {
		table repository.LookupTable
		names []string
	}{
		{repository.LookupDepartments, l.Departments},
		{repository.LookupLocations, l.Locations},
	} {
		for _, name := range group.names {
			if _, err := w.UpsertLookup(group.table, name); err != nil {
				slog.Error("插入候选项失败", "table", group.table, "name", name, "error", err)
				continue
			}
			cnt++
		}
	}
	return cnt
}

type EmployeeWriter interface {
	CreateBasicInfo(info *domain.BasicInfo) error
	GetAllBasicInfo(department string) ([]*domain.BasicInfo, error)
	CreateDetails(details *domain.Details) error
}

// repositoryLister 让员工编号生成逻辑可以直接读数据库
type repositoryLister struct {
	w EmployeeWriter
}

func (l repositoryLister) ListBasicInfoByDepartment(ctx context.Context, department string) ([]domain.BasicInfo, error) {
	infos, err := l.w.GetAllBasicInfo(department)
	if err != nil {
		return nil, err
	}
	out := make([]domain.BasicInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, *info)
	}
	return out, nil
}

// SeedEmployees 插入 n 名随机员工，员工编号按部门依次递增。返回成功插入的人数
func SeedEmployees(w EmployeeWriter, n int, emailDomain string, l *Lookups) int {
	lister := repositoryLister{w: w}
	cnt := 0

	for i := 0; i < n; i++ {
		basic, details := utils.GenerateRandomEmployee(emailDomain, l.Departments, l.Locations)
		basic.EmployeeID = onboarding.GenerateEmployeeID(context.Background(), lister, basic.Department)

		if err := w.CreateBasicInfo(&basic); err != nil {
			slog.Error("插入基本信息失败", "email", basic.Email, "error", err)
			continue
		}
		if err := w.CreateDetails(&details); err != nil {
			slog.Error("插入详细信息失败", "email", details.Email, "error", err)
			continue
		}
		cnt++
	}

	return cnt
}
