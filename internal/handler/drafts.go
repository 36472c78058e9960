package handler

import (
	"errors"
	"net/http"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/drafts"
	"github.com/hr-onboarding/employee-wizard/backend/internal/logging"
)

// 草稿只是为了方便，读写失败都只记录日志，不影响向导本身

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	role := currentRole(r)

	form, err := h.drafts.Load(r.Context(), role)
	if err != nil {
		if !errors.Is(err, drafts.ErrNoDraft) {
			logging.FromContext(r.Context()).Warn("无法读取草稿", "role", role, "error", err)
		}
		h.successResponse(w, r, "没有草稿", nil)
		return
	}

	h.successResponse(w, r, "获取草稿成功", form)
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var form domain.WizardFormData
	if err := h.readJSON(w, r, &form); err != nil {
		h.badRequest(w, r, err)
		return
	}

	role := currentRole(r)
	if err := h.drafts.Save(r.Context(), role, form); err != nil {
		logging.FromContext(r.Context()).Warn("无法保存草稿", "role", role, "error", err)
		h.errorResponse(w, r, "保存草稿失败")
		return
	}

	h.successResponse(w, r, "保存草稿成功", nil)
}

func (h *Handler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	role := currentRole(r)
	if err := h.drafts.Clear(r.Context(), role); err != nil {
		logging.FromContext(r.Context()).Warn("无法清除草稿", "role", role, "error", err)
	}

	h.successResponse(w, r, "清除草稿成功", nil)
}
