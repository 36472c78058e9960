package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/logging"
	"github.com/hr-onboarding/employee-wizard/backend/internal/onboarding"
	"github.com/hr-onboarding/employee-wizard/backend/internal/utils"
)

const progressEvent = "progress"

// SubmitEmployee 校验两份记录后运行提交流程，并以 server-sent events 的形式逐条推送进度。
// 响应头发出之后错误只会以 error 事件的形式出现，不再使用 JSON 包装
func (h *Handler) SubmitEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BasicInfo domain.BasicInfo `json:"basicInfo"`
		Details   domain.Details   `json:"details"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.validate.Var(req.Details.Photo, "omitempty,datauri"); err != nil {
		h.errorResponse(w, r, "照片格式错误")
		return
	}

	role := currentRole(r)
	if err := utils.ValidateEmployee(&req.BasicInfo, &req.Details, role); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 客户端没有带上员工编号时在这里补上
	if req.BasicInfo.EmployeeID == "" && strings.TrimSpace(req.BasicInfo.Department) != "" {
		req.BasicInfo.EmployeeID = onboarding.GenerateEmployeeID(r.Context(), h.records, req.BasicInfo.Department)
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// 两次节奏等待可能超过服务器的写超时
	_ = rc.SetWriteDeadline(time.Time{})

	logger := logging.FromContext(r.Context())
	sink := func(p domain.SubmitProgress) {
		data, err := json.Marshal(p)
		if err != nil {
			logger.Error("无法序列化进度", "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", progressEvent, data); err != nil {
			logger.Warn("无法推送进度", "error", err)
			return
		}
		_ = rc.Flush()
	}

	// 客户端断开时 r.Context() 会被取消，提交流程随之中止
	if err := h.pipeline.Submit(r.Context(), req.BasicInfo, req.Details, sink); err != nil {
		// 保留草稿，用户可以修改后重新提交
		return
	}

	// 提交已经成功，下面两步失败只记录日志。客户端收到 complete 事件后可能马上断开，
	// 所以不能再跟随请求的取消
	ctx := context.WithoutCancel(r.Context())
	if err := h.drafts.Clear(ctx, role); err != nil {
		logger.Warn("无法清除草稿", "role", role, "error", err)
	}
	if err := h.mail.PublishWelcome(ctx, req.BasicInfo, req.Details); err != nil {
		logger.Error("无法发送欢迎邮件", "email", req.Details.Email, "error", err)
	}
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}

	result, err := h.directory.List(r.Context(), page)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取员工列表成功", result)
}
