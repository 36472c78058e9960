package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
)

const contentTypeJSON = "application/json"

// HTTPError 表示记录库返回了非 2xx 的响应
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 300))
}

// snippet 截取前 max 个字符，按 rune 截断，避免把中文错误信息切成非法的 UTF-8
func snippet(b []byte, max int) string {
	runes := []rune(strings.TrimSpace(string(b)))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "…"
}

// Client 访问基本信息库和详细信息库，两个库有各自独立的地址。
// 请求失败时不会重试，由调用方决定如何处理
type Client struct {
	BasicInfoURL string
	DetailsURL   string
	HTTP         *http.Client
}

func New(basicInfoURL, detailsURL string, timeout time.Duration) *Client {
	tr := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		BasicInfoURL: strings.TrimRight(basicInfoURL, "/"),
		DetailsURL:   strings.TrimRight(detailsURL, "/"),
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
	}
}

// DepartmentsEndpoint 返回部门补全的地址模板，直接在末尾拼接编码后的查询字符串即可
func (c *Client) DepartmentsEndpoint() string {
	return c.BasicInfoURL + "/departments?name_like="
}

func (c *Client) LocationsEndpoint() string {
	return c.DetailsURL + "/locations?name_like="
}

func (c *Client) CreateBasicInfo(ctx context.Context, info domain.BasicInfo) (*domain.BasicInfo, error) {
	var out domain.BasicInfo
	if err := c.doJSON(ctx, http.MethodPost, c.BasicInfoURL+"/basicInfo", info, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateDetails(ctx context.Context, details domain.Details) (*domain.Details, error) {
	var out domain.Details
	if err := c.doJSON(ctx, http.MethodPost, c.DetailsURL+"/details", details, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListBasicInfo(ctx context.Context) ([]domain.BasicInfo, error) {
	out := make([]domain.BasicInfo, 0)
	if err := c.doJSON(ctx, http.MethodGet, c.BasicInfoURL+"/basicInfo", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListBasicInfoByDepartment(ctx context.Context, department string) ([]domain.BasicInfo, error) {
	out := make([]domain.BasicInfo, 0)
	u := c.BasicInfoURL + "/basicInfo?department=" + url.QueryEscape(department)
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListDetails(ctx context.Context) ([]domain.Details, error) {
	out := make([]domain.Details, 0)
	if err := c.doJSON(ctx, http.MethodGet, c.DetailsURL+"/details", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchSuggestions 请求 endpoint + 编码后的 query，endpoint 需要由调用方拼好，比如 .../departments?name_like=
func (c *Client) FetchSuggestions(ctx context.Context, endpoint, query string) ([]domain.Suggestion, error) {
	out := make([]domain.Suggestion, 0)
	if err := c.doJSON(ctx, http.MethodGet, endpoint+escapeComponent(query), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// escapeComponent 和浏览器的 encodeURIComponent 一样把空格编码为 %20，
// endpoint 不以查询参数结尾时 + 不会被解码成空格
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (c *Client) doJSON(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", contentTypeJSON)
	if in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			Method:     method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("json parse error: %w body=%s", err, snippet(respBody, 300))
	}
	return nil
}
