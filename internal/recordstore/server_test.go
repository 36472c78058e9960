package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/onboarding"
	"github.com/hr-onboarding/employee-wizard/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	basic      []*domain.BasicInfo
	details    []*domain.Details
	createErr  error

	detailsFailures int // 前几次写入详细信息会失败
	lastTable  repository.LookupTable
	lastLike   string
	lastLimit  int
	department string
}

func (m *memoryStore) CreateBasicInfo(info *domain.BasicInfo) error {
	if m.createErr != nil {
		return m.createErr
	}
	info.ID = "b1"
	m.basic = append(m.basic, info)
	return nil
}

func (m *memoryStore) GetAllBasicInfo(department string) ([]*domain.BasicInfo, error) {
	m.department = department
	return m.basic, nil
}

func (m *memoryStore) CreateDetails(details *domain.Details) error {
	if m.detailsFailures > 0 {
		m.detailsFailures--
		return errors.New("details store unavailable")
	}
	details.ID = "d1"
	m.details = append(m.details, details)
	return nil
}

func (m *memoryStore) GetAllDetails() ([]*domain.Details, error) {
	return m.details, nil
}

func (m *memoryStore) SearchLookup(table repository.LookupTable, nameLike string, limit int) ([]*domain.Suggestion, error) {
	m.lastTable, m.lastLike, m.lastLimit = table, nameLike, limit
	return []*domain.Suggestion{{ID: "1", Name: "Engineering"}}, nil
}

var allResources = []string{ResourceBasicInfo, ResourceDetails, ResourceDepartments, ResourceLocations}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateBasicInfoAssignsID(t *testing.T) {
	store := &memoryStore{}
	s := NewServer(store, allResources, 10)

	rec := serve(s, http.MethodPost, "/basicInfo", `{"id":"client-id","fullName":"John Doe","email":"john@example.com","role":"Engineer","department":"Engineering","employeeId":"ENG-001"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var out domain.BasicInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "b1", out.ID)
	assert.Equal(t, "ENG-001", out.EmployeeID)
}

func TestCreateBasicInfoValidation(t *testing.T) {
	s := NewServer(&memoryStore{}, allResources, 10)

	rec := serve(s, http.MethodPost, "/basicInfo", `{"fullName":"John Doe","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, http.MethodPost, "/basicInfo", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResubmitAfterDetailsFailure(t *testing.T) {
	store := &memoryStore{detailsFailures: 1}
	srv := httptest.NewServer(NewServer(store, allResources, 10).Mux)
	defer srv.Close()

	client := New(srv.URL, srv.URL, 5*time.Second)
	pipeline := onboarding.New(client, 0)

	basic := domain.BasicInfo{FullName: "John Doe", Email: "john@example.com", Role: "Engineer", Department: "Engineering", EmployeeID: "ENG-001"}
	details := domain.Details{Email: "john@example.com", EmploymentType: "Full-time", Location: "Remote"}

	var first []domain.SubmitProgress
	err := pipeline.Submit(context.Background(), basic, details, func(p domain.SubmitProgress) { first = append(first, p) })
	require.Error(t, err)
	assert.Equal(t, domain.StepError, first[len(first)-1].Step)
	require.Len(t, store.basic, 1)
	require.Empty(t, store.details)

	// 基本信息已经写入，重新提交会再写一次同一邮箱的基本信息
	var second []domain.SubmitProgress
	require.NoError(t, pipeline.Submit(context.Background(), basic, details, func(p domain.SubmitProgress) { second = append(second, p) }))
	last := second[len(second)-1]
	assert.Equal(t, domain.StepComplete, last.Step)
	assert.Equal(t, 100, last.Progress)
	assert.Len(t, store.basic, 2)
	assert.Len(t, store.details, 1)
}

func TestCreateBasicInfoStoreError(t *testing.T) {
	s := NewServer(&memoryStore{createErr: errors.New("connection refused")}, allResources, 10)

	rec := serve(s, http.MethodPost, "/basicInfo", `{"email":"john@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateDetailsRejectsBadPhoto(t *testing.T) {
	s := NewServer(&memoryStore{}, allResources, 10)

	rec := serve(s, http.MethodPost, "/details", `{"email":"john@example.com","photo":"not a data uri","employmentType":"Full-time","location":"Remote"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, http.MethodPost, "/details", `{"email":"john@example.com","photo":"","employmentType":"Full-time","location":"Remote"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestListBasicInfoFiltersByDepartment(t *testing.T) {
	store := &memoryStore{}
	s := NewServer(store, allResources, 10)

	rec := serve(s, http.MethodGet, "/basicInfo?department=Engineering", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Engineering", store.department)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSearchDepartments(t *testing.T) {
	store := &memoryStore{}
	s := NewServer(store, allResources, 5)

	rec := serve(s, http.MethodGet, "/departments?name_like=eng", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, repository.LookupDepartments, store.lastTable)
	assert.Equal(t, "eng", store.lastLike)
	assert.Equal(t, 5, store.lastLimit)
	assert.JSONEq(t, `[{"id":"1","name":"Engineering"}]`, rec.Body.String())
}

func TestResourcesSelectRoutes(t *testing.T) {
	s := NewServer(&memoryStore{}, []string{ResourceDetails, ResourceLocations}, 10)

	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/basicInfo", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/departments?name_like=a", "").Code)
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/details", "").Code)
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/locations?name_like=a", "").Code)
}
