package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amandhiraj/financetracker/internal/core"
)

const DefaultTimeout = 7 * time.Second

// HTTPClient talks to the finance tracker REST service.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

type (
	credentialsDTO struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	loginDTO struct {
		Username string `json:"username"`
	}

	transactionDTO struct {
		ID          string  `json:"id,omitempty"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
		User        string  `json:"user,omitempty"`
	}

	summaryDTO struct {
		TotalIncome   float64 `json:"total_income"`
		TotalExpenses float64 `json:"total_expenses"`
		Balance       float64 `json:"balance"`
	}

	messageDTO struct {
		Message string `json:"message"`
	}
)

// NewHTTPClient builds a client for baseURL. A zero timeout means
// DefaultTimeout; a nil client means a fresh http.Client.
func NewHTTPClient(baseURL string, timeout time.Duration, client *http.Client) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		timeout: timeout,
		client:  client,
	}, nil
}

func (c *HTTPClient) BaseURL() string        { return c.baseURL }
func (c *HTTPClient) Timeout() time.Duration { return c.timeout }

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	err := c.do(ctx, http.MethodPost, "/register", nil, credentialsDTO{Username: username, Password: password}, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		apiErr.Err = ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("register %q: %w", username, err)
	}
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	var out loginDTO
	err := c.do(ctx, http.MethodPost, "/login", nil, credentialsDTO{Username: username, Password: password}, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		apiErr.Err = ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("login %q: %w", username, err)
	}
	if out.Username == "" {
		return username, nil
	}
	return out.Username, nil
}

func (c *HTTPClient) ListTransactions(ctx context.Context, user string) ([]core.Transaction, error) {
	var out []transactionDTO
	if err := c.do(ctx, http.MethodGet, "/transactions", url.Values{"user": {user}}, nil, &out); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]core.Transaction, 0, len(out))
	for _, d := range out {
		t := d.toCore()
		// The list endpoint omits the owner.
		if t.User == "" {
			t.User = user
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func (c *HTTPClient) ReadSummary(ctx context.Context, user string) (core.Summary, error) {
	var out summaryDTO
	if err := c.do(ctx, http.MethodGet, "/summary", url.Values{"user": {user}}, nil, &out); err != nil {
		return core.Summary{}, fmt.Errorf("read summary: %w", err)
	}
	return core.Summary{
		TotalIncome:   core.MoneyFromFloat(out.TotalIncome),
		TotalExpenses: core.MoneyFromFloat(out.TotalExpenses),
		Balance:       core.MoneyFromFloat(out.Balance),
	}, nil
}

func (c *HTTPClient) CreateTransaction(ctx context.Context, t core.Transaction) error {
	body := fromCore(t)
	body.ID = ""
	if err := c.do(ctx, http.MethodPost, "/transactions", nil, body, nil); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (c *HTTPClient) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	err := c.do(ctx, http.MethodPut, "/transactions/"+url.PathEscape(t.ID), nil, fromCore(t), nil)
	markNotFound(err)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return nil
}

func (c *HTTPClient) DeleteTransaction(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/transactions/"+url.PathEscape(id), nil, nil, nil)
	markNotFound(err)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// Ping checks that the service answers at all; any HTTP status counts.
func (c *HTTPClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	slog.DebugContext(ctx, "Backend request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg messageDTO
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&msg); err == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func markNotFound(err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		apiErr.Err = ErrNotFound
	}
}

func (d transactionDTO) toCore() core.Transaction {
	return core.Transaction{
		ID:          d.ID,
		Amount:      core.MoneyFromFloat(d.Amount),
		Category:    core.Category(d.Category),
		Description: d.Description,
		User:        d.User,
	}
}

func fromCore(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		Amount:      t.Amount.Float64(),
		Category:    t.Category.String(),
		Description: t.Description,
		User:        t.User,
	}
}
