package handler

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hr-onboarding/employee-wizard/backend/internal/config"
	"github.com/hr-onboarding/employee-wizard/backend/internal/directory"
	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/drafts"
	"github.com/hr-onboarding/employee-wizard/backend/internal/onboarding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type fakeOperators struct {
	mu        sync.Mutex
	operators map[int64]*domain.Operator
	nextID    int64
}

func newFakeOperators(t *testing.T, ops ...*domain.Operator) *fakeOperators {
	f := &fakeOperators{operators: map[int64]*domain.Operator{}, nextID: 100}
	for _, op := range ops {
		f.operators[op.ID] = op
	}
	return f
}

func (f *fakeOperators) GetOperatorByID(id int64) (*domain.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.operators[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *op
	return &cp, nil
}

func (f *fakeOperators) GetOperatorByUsername(username string) (*domain.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range f.operators {
		if op.Username == username {
			cp := *op
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOperators) GetAllOperators() ([]*domain.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Operator, 0, len(f.operators))
	for _, op := range f.operators {
		out = append(out, op)
	}
	return out, nil
}

func (f *fakeOperators) CreateOperator(op *domain.Operator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	op.ID = f.nextID
	op.IsActive = true
	op.Version = 1
	f.operators[op.ID] = op
	return nil
}

func (f *fakeOperators) UpdateOperator(op *domain.Operator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.operators[op.ID]
	if !ok || cur.Version != op.Version {
		return sql.ErrNoRows
	}
	op.Version++
	cp := *op
	f.operators[op.ID] = &cp
	return nil
}

type fakeRecords struct {
	mu          sync.Mutex
	basic       []domain.BasicInfo
	details     []domain.Details
	basicErr    error
	suggestErr  error
	suggestions []domain.Suggestion
	lastQuery   string
	fetches     int
}

func (f *fakeRecords) CreateBasicInfo(ctx context.Context, info domain.BasicInfo) (*domain.BasicInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.basicErr != nil {
		return nil, f.basicErr
	}
	info.ID = strconv.Itoa(len(f.basic) + 1)
	f.basic = append(f.basic, info)
	return &info, nil
}

func (f *fakeRecords) CreateDetails(ctx context.Context, d domain.Details) (*domain.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details = append(f.details, d)
	return &d, nil
}

func (f *fakeRecords) ListBasicInfoByDepartment(ctx context.Context, department string) ([]domain.BasicInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.BasicInfo{}
	for _, b := range f.basic {
		if b.Department == department {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRecords) ListBasicInfo(ctx context.Context) ([]domain.BasicInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.BasicInfo{}, f.basic...), nil
}

func (f *fakeRecords) ListDetails(ctx context.Context) ([]domain.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Details{}, f.details...), nil
}

func (f *fakeRecords) FetchSuggestions(ctx context.Context, endpoint, query string) ([]domain.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	f.lastQuery = endpoint + query
	return f.suggestions, f.suggestErr
}

func (f *fakeRecords) DepartmentsEndpoint() string { return "http://basic/departments?name_like=" }
func (f *fakeRecords) LocationsEndpoint() string   { return "http://details/locations?name_like=" }

type fakeDrafts struct {
	mu        sync.Mutex
	forms     map[domain.OperatorRole]domain.WizardFormData
	failing   error
	clearErrs []error // 每次 Clear 时 ctx.Err() 的值
}

func (f *fakeDrafts) Save(ctx context.Context, role domain.OperatorRole, form domain.WizardFormData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return f.failing
	}
	f.forms[role] = form
	return nil
}

func (f *fakeDrafts) Load(ctx context.Context, role domain.OperatorRole) (*domain.WizardFormData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return nil, f.failing
	}
	form, ok := f.forms[role]
	if !ok {
		return nil, drafts.ErrNoDraft
	}
	return &form, nil
}

func (f *fakeDrafts) Clear(ctx context.Context, role domain.OperatorRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearErrs = append(f.clearErrs, ctx.Err())
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(f.forms, role)
	return f.failing
}

type fakeMail struct {
	mu          sync.Mutex
	welcomed    []string
	welcomeErrs []error // 每次发布时 ctx.Err() 的值
	operators   []string
}

func (f *fakeMail) PublishWelcome(ctx context.Context, basic domain.BasicInfo, details domain.Details) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomeErrs = append(f.welcomeErrs, ctx.Err())
	if err := ctx.Err(); err != nil {
		return err
	}
	f.welcomed = append(f.welcomed, basic.Email)
	return nil
}

func (f *fakeMail) PublishNewOperator(ctx context.Context, op *domain.Operator, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.operators = append(f.operators, op.Username)
	return nil
}

type env struct {
	h       *Handler
	ops     *fakeOperators
	records *fakeRecords
	drafts  *fakeDrafts
	mail    *fakeMail
}

func hash(t *testing.T, password string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.Expiration = 1
	cfg.InitialAdmin.Username = "admin"
	cfg.NewOperator.PasswordLength = 12

	e := &env{
		ops: newFakeOperators(t,
			&domain.Operator{ID: 1, Username: "admin", PasswordHash: hash(t, "admin-pass"), Role: domain.RoleAdmin, IsActive: true, Version: 1},
			&domain.Operator{ID: 2, Username: "ops", PasswordHash: hash(t, "ops-pass"), Role: domain.RoleOps, IsActive: true, Version: 1},
			&domain.Operator{ID: 3, Username: "gone", PasswordHash: hash(t, "gone-pass"), Role: domain.RoleAdmin, IsActive: false, Version: 1},
		),
		records: &fakeRecords{},
		drafts:  &fakeDrafts{forms: map[domain.OperatorRole]domain.WizardFormData{}},
		mail:    &fakeMail{},
	}

	h, err := NewHandler(cfg, e.ops, e.records, onboarding.New(e.records, 0), directory.New(e.records, 6), e.drafts, e.mail)
	require.NoError(t, err)
	h.RegisterRoutes()
	e.h = h
	return e
}

func tokenFor(t *testing.T, id int64, role domain.OperatorRole) *http.Cookie {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Subject:   strconv.FormatInt(id, 10),
		},
	})
	ss, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return &http.Cookie{Name: tokenCookieName, Value: ss}
}

func (e *env) do(t *testing.T, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.h.Mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func readEvents(t *testing.T, body string) []domain.SubmitProgress {
	t.Helper()
	var events []domain.SubmitProgress
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var p domain.SubmitProgress
			require.NoError(t, json.Unmarshal([]byte(data), &p))
			events = append(events, p)
		}
	}
	return events
}

func TestLogin(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/auth/login", `{"username":"ops","password":"ops-pass"}`, nil)
	resp := decode(t, rec)
	require.True(t, resp.Success, resp.Message)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, tokenCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 2, data["firstStep"])
}

func TestLoginRejected(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"wrong password", `{"username":"ops","password":"nope"}`, "用户名不存在或密码错误"},
		{"unknown user", `{"username":"nobody","password":"x"}`, "用户名不存在或密码错误"},
		{"inactive", `{"username":"gone","password":"gone-pass"}`, "您的账户已停用"},
		{"malformed body", `{"username":`, "请求体不是合法的 JSON"},
		{"empty body", ``, "请求体不能为空"},
		{"wrong type", `{"username":1,"password":"x"}`, "字段 username 的类型错误"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := decode(t, e.do(t, http.MethodPost, "/auth/login", tt.body, nil))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.msg, resp.Message)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)

	resp := decode(t, e.do(t, http.MethodGet, "/my-info/", "", nil))
	assert.False(t, resp.Success)
	assert.Equal(t, "用户未登录", resp.Message)

	resp = decode(t, e.do(t, http.MethodGet, "/my-info/", "", &http.Cookie{Name: tokenCookieName, Value: "garbage"}))
	assert.Equal(t, "无效的令牌", resp.Message)
}

func TestUpdateMyPassword(t *testing.T) {
	e := newEnv(t)
	cookie := tokenFor(t, 2, domain.RoleOps)

	resp := decode(t, e.do(t, http.MethodPatch, "/my-info/password", `{"oldPassword":"ops-pass","newPassword":"brand-new-pass"}`, cookie))
	require.True(t, resp.Success, resp.Message)

	op, err := e.ops.GetOperatorByID(2)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte("brand-new-pass")))
}

const adminSubmission = `{
	"basicInfo": {"fullName":"Jane Roe","email":"jane@example.com","role":"Engineer","department":"Engineering"},
	"details": {"email":"jane@example.com","photo":"","employmentType":"Full-time","location":"Remote","notes":""}
}`

func TestSubmitEmployeeStreamsProgress(t *testing.T) {
	e := newEnv(t)
	e.records.basic = []domain.BasicInfo{{Email: "a@example.com", Department: "Engineering", EmployeeID: "ENG-002"}}
	e.drafts.forms[domain.RoleAdmin] = domain.WizardFormData{FullName: "Jane"}

	rec := e.do(t, http.MethodPost, "/employees/", adminSubmission, tokenFor(t, 1, domain.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: progress\n")

	events := readEvents(t, rec.Body.String())
	require.Len(t, events, 4)
	assert.Equal(t, []int{25, 50, 75, 100}, []int{events[0].Progress, events[1].Progress, events[2].Progress, events[3].Progress})
	assert.Equal(t, domain.StepComplete, events[3].Step)
	assert.Equal(t, onboarding.MessageComplete, events[3].Message)

	// 员工编号在服务端补上
	require.Len(t, e.records.basic, 2)
	assert.Equal(t, "ENG-003", e.records.basic[1].EmployeeID)

	_, hasDraft := e.drafts.forms[domain.RoleAdmin]
	assert.False(t, hasDraft)
	assert.Equal(t, []string{"jane@example.com"}, e.mail.welcomed)
}

// disconnectingWriter 在写出 complete 事件时取消请求的 context，模拟客户端读完最后一个事件就断开
type disconnectingWriter struct {
	*httptest.ResponseRecorder
	cancel context.CancelFunc
}

func (w *disconnectingWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseRecorder.Write(b)
	if strings.Contains(string(b), `"step":"complete"`) {
		w.cancel()
	}
	return n, err
}

func TestSubmitEmployeeClientDisconnectAfterComplete(t *testing.T) {
	e := newEnv(t)
	e.drafts.forms[domain.RoleAdmin] = domain.WizardFormData{FullName: "Jane"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/employees/", strings.NewReader(adminSubmission)).WithContext(ctx)
	req.AddCookie(tokenFor(t, 1, domain.RoleAdmin))
	w := &disconnectingWriter{ResponseRecorder: httptest.NewRecorder(), cancel: cancel}

	e.h.Mux.ServeHTTP(w, req)

	events := readEvents(t, w.Body.String())
	require.Len(t, events, 4)
	require.Error(t, ctx.Err())

	assert.Equal(t, []string{"jane@example.com"}, e.mail.welcomed)
	assert.Equal(t, []error{nil}, e.mail.welcomeErrs)
	assert.Equal(t, []error{nil}, e.drafts.clearErrs)
	_, hasDraft := e.drafts.forms[domain.RoleAdmin]
	assert.False(t, hasDraft)
}

func TestSubmitEmployeeFailureKeepsDraft(t *testing.T) {
	e := newEnv(t)
	e.records.basicErr = errors.New("basic store unavailable")
	e.drafts.forms[domain.RoleAdmin] = domain.WizardFormData{FullName: "Jane"}

	rec := e.do(t, http.MethodPost, "/employees/", adminSubmission, tokenFor(t, 1, domain.RoleAdmin))

	events := readEvents(t, rec.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, domain.StepError, events[1].Step)
	assert.Equal(t, "basic store unavailable", events[1].Message)
	assert.Equal(t, 0, events[1].Progress)

	assert.Empty(t, e.records.details)
	assert.Contains(t, e.drafts.forms, domain.RoleAdmin)
	assert.Empty(t, e.mail.welcomed)
}

func TestSubmitEmployeeValidation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		role domain.OperatorRole
		id   int64
		body string
	}{
		{"email mismatch", domain.RoleAdmin, 1, `{"basicInfo":{"fullName":"A","email":"a@x.com","role":"Ops","department":"IT"},"details":{"email":"b@x.com","employmentType":"Intern","location":"HQ"}}`},
		{"admin missing name", domain.RoleAdmin, 1, `{"basicInfo":{"email":"a@x.com","role":"Ops","department":"IT"},"details":{"email":"a@x.com","employmentType":"Intern","location":"HQ"}}`},
		{"bad employment type", domain.RoleOps, 2, `{"basicInfo":{"email":"a@x.com"},"details":{"email":"a@x.com","employmentType":"Freelance","location":"HQ"}}`},
		{"bad photo", domain.RoleOps, 2, `{"basicInfo":{"email":"a@x.com"},"details":{"email":"a@x.com","photo":"not-a-data-uri","employmentType":"Intern","location":"HQ"}}`},
		{"malformed", domain.RoleOps, 2, `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/employees/", tt.body, tokenFor(t, tt.id, tt.role))
			resp := decode(t, rec)
			assert.False(t, resp.Success)
		})
	}
	assert.Empty(t, e.records.basic)
}

func TestSubmitEmployeeAsOps(t *testing.T) {
	e := newEnv(t)

	body := `{"basicInfo":{"email":"a@x.com"},"details":{"email":"a@x.com","employmentType":"Intern","location":"HQ"}}`
	rec := e.do(t, http.MethodPost, "/employees/", body, tokenFor(t, 2, domain.RoleOps))

	events := readEvents(t, rec.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, domain.StepComplete, events[len(events)-1].Step)
}

func TestSubmitEmployeeInactiveOperator(t *testing.T) {
	e := newEnv(t)

	resp := decode(t, e.do(t, http.MethodPost, "/employees/", adminSubmission, tokenFor(t, 3, domain.RoleAdmin)))
	assert.False(t, resp.Success)
	assert.Equal(t, "您的账户已停用", resp.Message)
}

func TestListEmployees(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 8; i++ {
		e.records.basic = append(e.records.basic, domain.BasicInfo{Email: strconv.Itoa(i) + "@x.com"})
	}

	resp := decode(t, e.do(t, http.MethodGet, "/employees/?page=2", "", tokenFor(t, 2, domain.RoleOps)))
	require.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 2, data["page"])
	assert.EqualValues(t, 2, data["totalPages"])
	assert.Len(t, data["employees"], 2)

	resp = decode(t, e.do(t, http.MethodGet, "/employees/?page=abc", "", tokenFor(t, 2, domain.RoleOps)))
	assert.EqualValues(t, 1, resp.Data.(map[string]any)["page"])
}

func TestDrafts(t *testing.T) {
	e := newEnv(t)
	admin := tokenFor(t, 1, domain.RoleAdmin)
	ops := tokenFor(t, 2, domain.RoleOps)

	resp := decode(t, e.do(t, http.MethodGet, "/drafts/", "", admin))
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Data)

	resp = decode(t, e.do(t, http.MethodPut, "/drafts/", `{"fullName":"Jane","department":"Eng"}`, admin))
	require.True(t, resp.Success)

	resp = decode(t, e.do(t, http.MethodGet, "/drafts/", "", admin))
	assert.Equal(t, "Jane", resp.Data.(map[string]any)["fullName"])

	// 不同角色的草稿互不影响
	resp = decode(t, e.do(t, http.MethodGet, "/drafts/", "", ops))
	assert.Nil(t, resp.Data)

	resp = decode(t, e.do(t, http.MethodDelete, "/drafts/", "", admin))
	assert.True(t, resp.Success)
	assert.NotContains(t, e.drafts.forms, domain.RoleAdmin)
}

func TestDraftsDegrade(t *testing.T) {
	e := newEnv(t)
	e.drafts.failing = errors.New("redis down")
	admin := tokenFor(t, 1, domain.RoleAdmin)

	resp := decode(t, e.do(t, http.MethodGet, "/drafts/", "", admin))
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Data)

	resp = decode(t, e.do(t, http.MethodPut, "/drafts/", `{"fullName":"Jane"}`, admin))
	assert.False(t, resp.Success)
	assert.Equal(t, "保存草稿失败", resp.Message)
}

func TestGenerateEmployeeID(t *testing.T) {
	e := newEnv(t)
	e.records.basic = []domain.BasicInfo{{Department: "Finance", EmployeeID: "FIN-009"}}

	resp := decode(t, e.do(t, http.MethodGet, "/employee-id?department=Finance", "", tokenFor(t, 1, domain.RoleAdmin)))
	require.True(t, resp.Success)
	assert.Equal(t, "FIN-010", resp.Data.(map[string]any)["employeeId"])

	resp = decode(t, e.do(t, http.MethodGet, "/employee-id?department=Finance", "", tokenFor(t, 2, domain.RoleOps)))
	assert.Equal(t, "权限不足", resp.Message)

	resp = decode(t, e.do(t, http.MethodGet, "/employee-id?department=", "", tokenFor(t, 1, domain.RoleAdmin)))
	assert.False(t, resp.Success)
}

func TestSuggestions(t *testing.T) {
	e := newEnv(t)
	e.records.suggestions = []domain.Suggestion{{ID: "1", Name: "Engineering"}}
	cookie := tokenFor(t, 2, domain.RoleOps)

	resp := decode(t, e.do(t, http.MethodGet, "/suggestions/departments?q=%20%20", "", cookie))
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Data)
	assert.Zero(t, e.records.fetches)

	resp = decode(t, e.do(t, http.MethodGet, "/suggestions/locations?q=%20rem%20", "", cookie))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, "http://details/locations?name_like=rem", e.records.lastQuery)

	e.records.suggestErr = errors.New("timeout")
	resp = decode(t, e.do(t, http.MethodGet, "/suggestions/departments?q=eng", "", cookie))
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Data)
}

func TestOperators(t *testing.T) {
	e := newEnv(t)
	admin := tokenFor(t, 1, domain.RoleAdmin)

	resp := decode(t, e.do(t, http.MethodPost, "/operators/", `{"username":"lina","fullName":"李娜","email":"lina@company.com","role":"ops"}`, admin))
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, []string{"lina"}, e.mail.operators)

	resp = decode(t, e.do(t, http.MethodPost, "/operators/", `{"username":"x","fullName":"x","email":"x@company.com","role":"root"}`, admin))
	assert.False(t, resp.Success)

	resp = decode(t, e.do(t, http.MethodPatch, "/operators/1/", `{"isActive":false}`, admin))
	assert.Equal(t, "禁止操作初始管理员", resp.Message)

	resp = decode(t, e.do(t, http.MethodPatch, "/operators/2/", `{"isActive":false}`, admin))
	require.True(t, resp.Success, resp.Message)
	op, _ := e.ops.GetOperatorByID(2)
	assert.False(t, op.IsActive)

	resp = decode(t, e.do(t, http.MethodGet, "/operators/", "", tokenFor(t, 2, domain.RoleOps)))
	assert.Equal(t, "权限不足", resp.Message)
}
