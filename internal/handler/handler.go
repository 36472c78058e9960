package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/hr-onboarding/employee-wizard/backend/internal/config"
	"github.com/hr-onboarding/employee-wizard/backend/internal/directory"
	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/onboarding"
)

// OperatorRepository 由 repository.Repository 实现
type OperatorRepository interface {
	GetOperatorByID(id int64) (*domain.Operator, error)
	GetOperatorByUsername(username string) (*domain.Operator, error)
	GetAllOperators() ([]*domain.Operator, error)
	CreateOperator(op *domain.Operator) error
	UpdateOperator(op *domain.Operator) error
}

// RecordStore 由 recordstore.Client 实现
type RecordStore interface {
	onboarding.BasicInfoLister
	FetchSuggestions(ctx context.Context, endpoint, query string) ([]domain.Suggestion, error)
	DepartmentsEndpoint() string
	LocationsEndpoint() string
}

type Submitter interface {
	Submit(ctx context.Context, basic domain.BasicInfo, details domain.Details, sink onboarding.ProgressSink) error
}

type EmployeeDirectory interface {
	List(ctx context.Context, page int) (*directory.Page, error)
}

type DraftStore interface {
	Save(ctx context.Context, role domain.OperatorRole, form domain.WizardFormData) error
	Load(ctx context.Context, role domain.OperatorRole) (*domain.WizardFormData, error)
	Clear(ctx context.Context, role domain.OperatorRole) error
}

type MailPublisher interface {
	PublishWelcome(ctx context.Context, basic domain.BasicInfo, details domain.Details) error
	PublishNewOperator(ctx context.Context, op *domain.Operator, password string) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository OperatorRepository
	translator ut.Translator
	records    RecordStore
	pipeline   Submitter
	directory  EmployeeDirectory
	drafts     DraftStore
	mail       MailPublisher

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo OperatorRepository, records RecordStore, pipeline Submitter, dir EmployeeDirectory, drafts DraftStore, mail MailPublisher) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		records:    records,
		pipeline:   pipeline,
		directory:  dir,
		drafts:     drafts,
		mail:       mail,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(middleware.RequestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/operators", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.OperatorRole{domain.RoleAdmin}))
			r.Post("/", h.CreateOperator)
			r.Get("/", h.GetAllOperators)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.operatorInfo)
				r.Get("/", h.GetOperator)
				r.With(h.preventOperateInitialAdmin).Patch("/", h.UpdateOperator)
				r.With(h.preventOperateInitialAdmin).Patch("/password", h.UpdateOperatorPassword)
			})
		})

		// 草稿按当前登录者的角色保存
		r.Route("/drafts", func(r chi.Router) {
			r.Get("/", h.GetDraft)
			r.Put("/", h.SaveDraft)
			r.Delete("/", h.ClearDraft)
		})

		r.With(h.RequiredRole([]domain.OperatorRole{domain.RoleAdmin})).Get("/employee-id", h.GenerateEmployeeID)

		r.Route("/suggestions", func(r chi.Router) {
			r.Get("/departments", h.SuggestDepartments)
			r.Get("/locations", h.SuggestLocations)
		})

		r.Route("/employees", func(r chi.Router) {
			r.With(h.myInfo, h.preventInactiveOperator).Post("/", h.SubmitEmployee)
			r.Get("/", h.ListEmployees)
		})
	})
}
