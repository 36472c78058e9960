package handler

import (
	"net/http"
	"strings"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/logging"
	"github.com/hr-onboarding/employee-wizard/backend/internal/onboarding"
)

func (h *Handler) GenerateEmployeeID(w http.ResponseWriter, r *http.Request) {
	department := strings.TrimSpace(r.URL.Query().Get("department"))
	if department == "" {
		h.errorResponse(w, r, "部门不能为空")
		return
	}

	id := onboarding.GenerateEmployeeID(r.Context(), h.records, department)
	h.successResponse(w, r, "生成员工编号成功", map[string]string{"employeeId": id})
}

func (h *Handler) SuggestDepartments(w http.ResponseWriter, r *http.Request) {
	h.suggest(w, r, h.records.DepartmentsEndpoint())
}

func (h *Handler) SuggestLocations(w http.ResponseWriter, r *http.Request) {
	h.suggest(w, r, h.records.LocationsEndpoint())
}

// suggest 查询失败时返回空列表，补全不可用不应该阻止用户继续填写
func (h *Handler) suggest(w http.ResponseWriter, r *http.Request, endpoint string) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.successResponse(w, r, "获取候选项成功", []domain.Suggestion{})
		return
	}

	suggestions, err := h.records.FetchSuggestions(r.Context(), endpoint, query)
	if err != nil {
		logging.FromContext(r.Context()).Warn("无法获取候选项", "endpoint", endpoint, "query", query, "error", err)
		suggestions = []domain.Suggestion{}
	}

	h.successResponse(w, r, "获取候选项成功", suggestions)
}
