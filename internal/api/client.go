package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
)

// CredentialSource 在每个请求发出前提供当前的 Bearer 凭证，为空表示未登录
type CredentialSource interface {
	Credential() string
}

// Client 封装对上游预约后端的全部调用。
// 错误统一映射为三类：401 -> domain.ErrUnauthenticated，
// 业务拒绝 -> *domain.APIError，传输失败 -> *domain.APIError{Code: -1}。
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialSource
}

func NewClient(baseURL string, timeout time.Duration, creds CredentialSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
	}
}

func (c *Client) Login(ctx context.Context, phone, password string) (*domain.LoginResult, error) {
	req := struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}{Phone: phone, Password: password}

	var res domain.LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SetPassword(ctx context.Context, newPassword string) (*domain.Member, error) {
	req := struct {
		Password string `json:"password"`
	}{Password: newPassword}

	var res struct {
		User *domain.Member `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/set-password", req, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

func (c *Client) GetBindHandle(ctx context.Context) (*domain.BindHandle, error) {
	var res domain.BindHandle
	if err := c.do(ctx, http.MethodGet, "/auth/wechat-bind-qr", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetBindStatus(ctx context.Context, ticket string) (*domain.BindStatusResult, error) {
	var res domain.BindStatusResult
	path := "/auth/wechat-bind-status?ticket=" + url.QueryEscape(ticket)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CompleteOnboarding(ctx context.Context, payload domain.OnboardingPayload) (*domain.Member, error) {
	var res struct {
		User *domain.Member `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/onboarding/complete", payload, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.creds.Credential(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// 请求已发出但没有收到响应
		return &domain.APIError{Code: domain.CodeNetwork, Messages: "网络连接失败或服务器无响应，请稍后重试"}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrUnauthenticated
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr domain.APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Messages == "" {
			return &domain.APIError{
				Code:     resp.StatusCode,
				Messages: fmt.Sprintf("服务器错误 (HTTP %d)", resp.StatusCode),
			}
		}
		return &apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.APIError{Code: domain.CodeNetwork, Messages: "上游响应格式错误"}
	}
	return nil
}
