package sogni

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Options controls how the Sogni client is configured.
type Options struct {
	BaseURL      string
	AppID        string
	Network      string
	HTTPClient   *http.Client
	Timeout      time.Duration
	PollInterval time.Duration
}

// Client talks to the Sogni generation API over HTTP. One client serves
// one network (fast or spark); the session token is set by Authenticate
// and sent as a bearer token afterwards.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	appID        string
	network      string
	pollInterval time.Duration
	token        string
}

// APIError is a non-2xx response from the provider. The status code is
// what retry classification keys off.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sogni: %s (http %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("sogni: http %d", e.StatusCode)
}

// NewClient builds a Client from options, applying defaults.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.sogni.ai/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	network := opts.Network
	if network == "" {
		network = "fast"
	}
	return &Client{
		httpClient:   client,
		baseURL:      base,
		appID:        opts.AppID,
		network:      network,
		pollInterval: poll,
	}
}

type restoreRequest struct {
	AppID        string `json:"appId"`
	Network      string `json:"network"`
	Username     string `json:"username"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Authenticate restores a stored session for the given account. The token
// is reused as the bearer credential on subsequent calls.
func (c *Client) Authenticate(ctx context.Context, username, token, refreshToken string) error {
	if c == nil {
		return errors.New("sogni: client not configured")
	}
	if strings.TrimSpace(username) == "" || strings.TrimSpace(token) == "" {
		return errors.New("sogni: username and token are required")
	}
	payload := restoreRequest{
		AppID:        c.appID,
		Network:      c.network,
		Username:     username,
		Token:        token,
		RefreshToken: refreshToken,
	}
	if err := c.do(ctx, http.MethodPost, "/account/restore", payload, nil); err != nil {
		return err
	}
	c.token = token
	return nil
}

// AvailableModels lists the models currently served on this network.
func (c *Client) AvailableModels(ctx context.Context) ([]Model, error) {
	var out struct {
		Models []Model `json:"models"`
	}
	if err := c.do(ctx, http.MethodGet, "/models", nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

type projectRequest struct {
	ModelID               string  `json:"modelId"`
	PositivePrompt        string  `json:"positivePrompt"`
	NegativePrompt        string  `json:"negativePrompt,omitempty"`
	StartingImage         []byte  `json:"startingImage,omitempty"`
	StartingImageStrength float64 `json:"startingImageStrength"`
	Guidance              float64 `json:"guidance"`
	Steps                 int     `json:"steps"`
	NumberOfImages        int     `json:"numberOfImages"`
	OutputFormat          string  `json:"outputFormat"`
	SizePreset            string  `json:"sizePreset"`
	Width                 int     `json:"width"`
	Height                int     `json:"height"`
	TokenType             string  `json:"tokenType"`
}

// Submit creates a generation project and returns its handle.
func (c *Client) Submit(ctx context.Context, params ProjectParams) (ProjectHandle, error) {
	payload := projectRequest{
		ModelID:               params.ModelID,
		PositivePrompt:        params.PositivePrompt,
		NegativePrompt:        params.NegativePrompt,
		StartingImage:         params.StartingImage,
		StartingImageStrength: params.StartingImageStrength,
		Guidance:              params.Guidance,
		Steps:                 params.Steps,
		NumberOfImages:        params.NumberOfImages,
		OutputFormat:          params.OutputFormat,
		SizePreset:            "custom",
		Width:                 params.Width,
		Height:                params.Height,
		TokenType:             params.TokenType,
	}
	var out struct {
		ProjectID string `json:"projectId"`
	}
	if err := c.do(ctx, http.MethodPost, "/projects", payload, &out); err != nil {
		return ProjectHandle{}, err
	}
	if strings.TrimSpace(out.ProjectID) == "" {
		return ProjectHandle{}, errors.New("sogni: missing project id in response")
	}
	return ProjectHandle{ID: out.ProjectID}, nil
}

// AwaitCompletion polls the project until it reaches a terminal state and
// returns the provider's result payload as decoded JSON.
func (c *Client) AwaitCompletion(ctx context.Context, handle ProjectHandle) (any, error) {
	if strings.TrimSpace(handle.ID) == "" {
		return nil, errors.New("sogni: project handle is required")
	}
	for {
		var out struct {
			Status string          `json:"status"`
			Error  string          `json:"error,omitempty"`
			Result json.RawMessage `json:"result,omitempty"`
		}
		if err := c.do(ctx, http.MethodGet, "/projects/"+handle.ID, nil, &out); err != nil {
			return nil, err
		}
		switch strings.ToLower(out.Status) {
		case "completed", "done":
			var result any
			if len(out.Result) > 0 {
				if err := json.Unmarshal(out.Result, &result); err != nil {
					return nil, fmt.Errorf("sogni: decode project result: %w", err)
				}
			}
			return result, nil
		case "failed", "error", "canceled":
			if out.Error != "" {
				return nil, fmt.Errorf("sogni: project failed: %s", out.Error)
			}
			return nil, errors.New("sogni: project failed")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("sogni: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.appID != "" {
		req.Header.Set("X-App-Id", c.appID)
	}
	req.Header.Set("X-Network", c.network)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
		}
		return apiErr
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("sogni: decode response: %w", err)
		}
	}
	return nil
}
