package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/logging"
	"github.com/hr-onboarding/employee-wizard/backend/internal/utils"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetAllOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := h.repository.GetAllOperators()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取操作员列表成功", operators)
}

func (h *Handler) CreateOperator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=admin ops"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 初始密码随机生成，通过邮件发给本人
	password := utils.GenerateRandomPassword(h.config.NewOperator.PasswordLength)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	op := &domain.Operator{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.OperatorRole(req.Role),
	}

	if err := h.repository.CreateOperator(op); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "operators_username_key":
			h.badRequest(w, r, errors.New("用户名已存在"))
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "operators_email_key":
			h.badRequest(w, r, errors.New("邮箱已存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.mail.PublishNewOperator(r.Context(), op, password); err != nil {
		// 账户已经创建成功，邮件失败时管理员可以再重置一次密码
		logging.FromContext(r.Context()).Error("无法发送账户邮件", "username", op.Username, "error", err)
		h.successResponse(w, r, "操作员创建成功，但账户邮件发送失败", op)
		return
	}

	h.successResponse(w, r, "操作员创建成功", op)
}

func (h *Handler) GetOperator(w http.ResponseWriter, r *http.Request) {
	op := r.Context().Value(OperatorInfoCtx).(*domain.Operator)
	h.successResponse(w, r, "获取操作员信息成功", op)
}

func (h *Handler) UpdateOperator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string `json:"fullName"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Role     *string `json:"role" validate:"omitempty,oneof=admin ops"`
		IsActive *bool   `json:"isActive"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	op := r.Context().Value(OperatorInfoCtx).(*domain.Operator)

	if req.FullName != nil {
		op.FullName = *req.FullName
	}
	if req.Email != nil {
		op.Email = *req.Email
	}
	if req.Role != nil {
		op.Role = domain.OperatorRole(*req.Role)
	}
	if req.IsActive != nil {
		op.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateOperator(op); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "operators_email_key":
			h.badRequest(w, r, errors.New("邮箱已存在"))
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新操作员信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新操作员信息成功", op)
}

func (h *Handler) UpdateOperatorPassword(w http.ResponseWriter, r *http.Request) {
	op := r.Context().Value(OperatorInfoCtx).(*domain.Operator)

	var req struct {
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	op.PasswordHash = string(hashedPassword)
	if err := h.repository.UpdateOperator(op); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "修改密码失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "修改密码成功", nil)
}
