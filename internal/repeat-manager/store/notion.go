package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"golang.org/x/time/rate"

	"repeat-task-service/internal/repeat-manager/recurrence"
)

const (
	DefaultNotionBaseURL    = "https://api.notion.com"
	DefaultNotionVersion    = "2022-06-28"
	DefaultNotionRatePerSec = 3 // Notion's documented average request rate
	DefaultNotionTimeout    = 30 * time.Second

	notionPageSize = 100
)

// NotionConfig identifies the database and credential for NotionStore.
type NotionConfig struct {
	BaseURL    string
	Token      string // do not log
	DatabaseID string
	Version    string
	RatePerSec int
	Timeout    time.Duration
	// TemplateProperty is the checkbox property that flags repeat templates.
	TemplateProperty string
}

// NotionStore reads and writes pages of one Notion database.
type NotionStore struct {
	cfg     NotionConfig
	client  *client.Client
	limiter *rate.Limiter
}

func NewNotionStore(cfg NotionConfig) (*NotionStore, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("notion token is required")
	}
	if strings.TrimSpace(cfg.DatabaseID) == "" {
		return nil, errors.New("notion database id is required")
	}
	if cfg.TemplateProperty == "" {
		return nil, errors.New("notion template property name is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNotionBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Version == "" {
		cfg.Version = DefaultNotionVersion
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = DefaultNotionRatePerSec
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultNotionTimeout
	}

	c, err := client.NewClient(
		client.WithDialer(standard.NewDialer()),
		client.WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		client.WithDialTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notion http client: %w", err)
	}
	return &NotionStore{
		cfg:     cfg,
		client:  c,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}, nil
}

type notionPage struct {
	Object      string                `json:"object"`
	ID          string                `json:"id"`
	CreatedTime time.Time             `json:"created_time"`
	Properties  recurrence.Properties `json:"properties"`
}

type notionQueryResponse struct {
	Results    []notionPage `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor *string      `json:"next_cursor"`
}

type notionErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// QueryTemplates pages through the database for checked template pages.
func (s *NotionStore) QueryTemplates(ctx context.Context) ([]recurrence.Record, error) {
	var records []recurrence.Record
	cursor := ""
	for {
		body := map[string]any{
			"filter": map[string]any{
				"property": s.cfg.TemplateProperty,
				"checkbox": map[string]any{"equals": true},
			},
			"page_size": notionPageSize,
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		var resp notionQueryResponse
		path := "/v1/databases/" + s.cfg.DatabaseID + "/query"
		if err := s.post(ctx, path, body, &resp); err != nil {
			return nil, fmt.Errorf("failed to query notion database: %w", err)
		}
		for _, p := range resp.Results {
			records = append(records, recurrence.Record{
				ID:          p.ID,
				Type:        p.Object,
				CreatedTime: p.CreatedTime,
				Properties:  p.Properties,
			})
		}
		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			return records, nil
		}
		cursor = *resp.NextCursor
	}
}

// CreateInstance creates a page in the database with props.
func (s *NotionStore) CreateInstance(ctx context.Context, props recurrence.Properties) (string, error) {
	body := map[string]any{
		"parent":     map[string]any{"database_id": s.cfg.DatabaseID},
		"properties": props,
	}
	var page notionPage
	if err := s.post(ctx, "/v1/pages", body, &page); err != nil {
		return "", fmt.Errorf("failed to create notion page: %w", err)
	}
	return page.ID, nil
}

func (s *NotionStore) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(s.cfg.BaseURL + path)
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("Notion-Version", s.cfg.Version)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(payload)

	if err := s.client.DoTimeout(ctx, req, resp, s.cfg.Timeout); err != nil {
		return err
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		apiErr := &APIError{Status: status}
		var eb notionErrorBody
		if json.Unmarshal(resp.Body(), &eb) == nil && eb.Message != "" {
			apiErr.Code, apiErr.Message = eb.Code, eb.Message
		} else {
			apiErr.Message = string(resp.Body())
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
