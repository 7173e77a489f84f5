// Package client HTTP-клиент API качества воздуха для aqctl.
// Все вызовы проходят через circuit breaker; ошибки сети и 5xx
// считаются отказами upstream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"smartcity-air/internal/config"
	"smartcity-air/internal/models"
	"smartcity-air/internal/scenario"
)

// ErrUpstream API недоступен или ответил ошибкой сервера
var ErrUpstream = errors.New("client: upstream unavailable")

// APIError ответ API со статусом не 2xx
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Unwrap 5xx и 429 считаются отказом upstream
func (e *APIError) Unwrap() error {
	if e.Status >= 500 || e.Status == http.StatusTooManyRequests {
		return ErrUpstream
	}
	return nil
}

// Client клиент API
type Client struct {
	base    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	token   string
}

// Option настройка клиента
type Option func(*Client)

// WithToken bearer-токен для запросов
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient заменяет http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New клиент с нормализованным базовым адресом
func New(base string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		base: config.NormalizeBase(base),
		http: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        "aq-api",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base базовый адрес API
func (c *Client) Base() string {
	return c.base
}

// URL полный адрес пути, ведущий "/" добавляется при необходимости
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base + path
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.http.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	if err != nil {
		if resp != nil {
			return nil, decodeError(resp)
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUpstream, method, path, err)
	}
	if resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &payload) == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// Get GET с разбором JSON в out
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

// Post POST JSON, ответ разбирается в out (если не nil)
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, http.MethodPost, path, in, out)
}

// Put PUT JSON
func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, http.MethodPut, path, in, out)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Download тело ответа и имя файла из Content-Disposition
func (c *Client) Download(ctx context.Context, path, fallbackName string) ([]byte, string, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := fallbackName
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return data, name, nil
}

// Dashboard снимок сценария для фильтров
func (c *Client) Dashboard(ctx context.Context, f scenario.Filters) (scenario.Snapshot, error) {
	q := url.Values{}
	q.Set("period", f.Period)
	q.Set("zone", f.Zone)
	q.Set("pollutant", f.Pollutant)

	var snap scenario.Snapshot
	err := c.Get(ctx, "/api/dashboard?"+q.Encode(), &snap)
	return snap, err
}

// Overview снимок "сейчас"
func (c *Client) Overview(ctx context.Context) (scenario.Overview, error) {
	var ov scenario.Overview
	err := c.Get(ctx, "/api/snapshot", &ov)
	return ov, err
}

// Login вход, возвращает токен и пользователя
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.Post(ctx, "/api/auth/login", req, &resp)
	return resp, err
}

// Ingest отправляет измерение датчика
func (c *Client) Ingest(ctx context.Context, r models.Reading) error {
	return c.Post(ctx, "/api/iot/ingest", r, nil)
}
