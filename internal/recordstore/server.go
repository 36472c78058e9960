package recordstore

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/logging"
	"github.com/hr-onboarding/employee-wizard/backend/internal/repository"
)

const (
	ResourceBasicInfo   = "basicInfo"
	ResourceDetails     = "details"
	ResourceDepartments = "departments"
	ResourceLocations   = "locations"
)

// Store 是记录库服务需要的持久化能力，repository.Repository 实现了这个接口
type Store interface {
	CreateBasicInfo(info *domain.BasicInfo) error
	GetAllBasicInfo(department string) ([]*domain.BasicInfo, error)
	CreateDetails(details *domain.Details) error
	GetAllDetails() ([]*domain.Details, error)
	SearchLookup(table repository.LookupTable, nameLike string, limit int) ([]*domain.Suggestion, error)
}

// Server 以 REST 资源的形式暴露基本信息库、详细信息库以及两个补全表。
// 响应体直接是资源本身，不使用 api 服务的 {success, message, data} 包装
type Server struct {
	store           Store
	validate        *validator.Validate
	suggestionLimit int

	Mux *chi.Mux
}

func NewServer(store Store, resources []string, suggestionLimit int) *Server {
	s := &Server{
		store:           store,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		suggestionLimit: suggestionLimit,
		Mux:             chi.NewRouter(),
	}

	s.Mux.Use(middleware.RequestID)
	s.Mux.Use(requestLogger)
	s.Mux.Use(middleware.Recoverer)

	if slices.Contains(resources, ResourceBasicInfo) {
		s.Mux.Get("/basicInfo", s.listBasicInfo)
		s.Mux.Post("/basicInfo", s.createBasicInfo)
	}
	if slices.Contains(resources, ResourceDetails) {
		s.Mux.Get("/details", s.listDetails)
		s.Mux.Post("/details", s.createDetails)
	}
	if slices.Contains(resources, ResourceDepartments) {
		s.Mux.Get("/departments", s.searchLookup(repository.LookupDepartments))
	}
	if slices.Contains(resources, ResourceLocations) {
		s.Mux.Get("/locations", s.searchLookup(repository.LookupLocations))
	}

	return s
}

type statusRecorder struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		logging.FromContext(r.Context()).Info("已处理请求", "status", rw.StatusCode, "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) listBasicInfo(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.GetAllBasicInfo(r.URL.Query().Get("department"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if infos == nil {
		infos = []*domain.BasicInfo{}
	}
	s.writeJSON(w, r, http.StatusOK, infos)
}

func (s *Server) createBasicInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		// ops 只填写第二步，基本信息的其他字段可能为空
		FullName   string `json:"fullName"`
		Email      string `json:"email" validate:"required,email"`
		Role       string `json:"role"`
		Department string `json:"department"`
		EmployeeID string `json:"employeeId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	info := &domain.BasicInfo{
		FullName:   req.FullName,
		Email:      req.Email,
		Role:       req.Role,
		Department: req.Department,
		EmployeeID: req.EmployeeID,
	}
	if err := s.store.CreateBasicInfo(info); err != nil {
		s.internalError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, info)
}

func (s *Server) listDetails(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.GetAllDetails()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if list == nil {
		list = []*domain.Details{}
	}
	s.writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) createDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email          string `json:"email" validate:"required,email"`
		Photo          string `json:"photo" validate:"omitempty,datauri"`
		EmploymentType string `json:"employmentType" validate:"required"`
		Location       string `json:"location" validate:"required"`
		Notes          string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	details := &domain.Details{
		Email:          req.Email,
		Photo:          req.Photo,
		EmploymentType: req.EmploymentType,
		Location:       req.Location,
		Notes:          req.Notes,
	}
	if err := s.store.CreateDetails(details); err != nil {
		s.internalError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, details)
}

func (s *Server) searchLookup(table repository.LookupTable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suggestions, err := s.store.SearchLookup(table, r.URL.Query().Get("name_like"), s.suggestionLimit)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		if suggestions == nil {
			suggestions = []*domain.Suggestion{}
		}
		s.writeJSON(w, r, http.StatusOK, suggestions)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("无法写入响应", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, map[string]string{"error": msg})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
	s.writeError(w, r, http.StatusInternalServerError, "internal server error")
}
