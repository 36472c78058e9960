package directory

import (
	"context"
	"fmt"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 6

	// 没有对应详细信息时显示的占位值
	notAvailable = "N/A"
)

// Source 是目录需要读取的两个记录库
type Source interface {
	ListBasicInfo(ctx context.Context) ([]domain.BasicInfo, error)
	ListDetails(ctx context.Context) ([]domain.Details, error)
}

type Page struct {
	Employees  []domain.Employee `json:"employees"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	Total      int               `json:"total"`
}

type Directory struct {
	source   Source
	pageSize int
}

func New(source Source, pageSize int) *Directory {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Directory{source: source, pageSize: pageSize}
}

// List 并发读取两个记录库，按邮箱合并后返回第 page 页。
// page 会被限制在 [1, max(TotalPages, 1)] 之间
func (d *Directory) List(ctx context.Context, page int) (*Page, error) {
	var (
		basics  []domain.BasicInfo
		details []domain.Details
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		basics, err = d.source.ListBasicInfo(gctx)
		if err != nil {
			return fmt.Errorf("获取基本信息失败: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		details, err = d.source.ListDetails(gctx)
		if err != nil {
			return fmt.Errorf("获取详细信息失败: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	employees := Merge(basics, details)
	return d.paginate(employees, page), nil
}

// Merge 以基本信息为主表，按邮箱连接详细信息。同一邮箱有多条详细信息时取第一条
func Merge(basics []domain.BasicInfo, details []domain.Details) []domain.Employee {
	byEmail := make(map[string]domain.Details, len(details))
	for _, d := range details {
		if _, ok := byEmail[d.Email]; !ok {
			byEmail[d.Email] = d
		}
	}

	employees := make([]domain.Employee, 0, len(basics))
	for _, b := range basics {
		e := domain.Employee{
			BasicInfo:      b,
			EmploymentType: notAvailable,
			Location:       notAvailable,
		}
		if d, ok := byEmail[b.Email]; ok {
			e.Photo = d.Photo
			e.EmploymentType = d.EmploymentType
			e.Location = d.Location
			e.Notes = d.Notes
		}
		employees = append(employees, e)
	}
	return employees
}

func (d *Directory) paginate(employees []domain.Employee, page int) *Page {
	total := len(employees)
	totalPages := (total + d.pageSize - 1) / d.pageSize

	page = max(page, 1)
	page = min(page, max(totalPages, 1))

	start := min((page-1)*d.pageSize, total)
	end := min(start+d.pageSize, total)

	return &Page{
		Employees:  employees[start:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}
}
