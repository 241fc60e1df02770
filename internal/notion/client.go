// Package notion writes assignments into a Notion database.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/coursework-sync/internal/models"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
	"github.com/noah-isme/coursework-sync/pkg/upstream"
)

const (
	defaultBaseURL    = "https://api.notion.com"
	defaultAPIVersion = "2022-06-28"
	queryPageSize     = 100
	maxQueryPages     = 100
)

// Options configures a Client.
type Options struct {
	Token      string
	DatabaseID string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Logger     *zap.Logger
}

// Client is bound to one database. The property schema and the existing-item index
// are fetched at most once per Client; use WithDatabase or a new Client to refresh.
type Client struct {
	baseURL    string
	token      string
	apiVersion string
	databaseID string
	http       *upstream.Client
	logger     *zap.Logger

	mu     sync.Mutex
	schema propertyTypes
	index  *models.ExistingIndex
}

type databaseResponse struct {
	Object     string                     `json:"object"`
	ID         string                     `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type queryResponse struct {
	Results    []pageObject `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor *string      `json:"next_cursor"`
}

type pageObject struct {
	ID         string                   `json:"id"`
	Properties map[string]propertyValue `json:"properties"`
}

type propertyValue struct {
	Type   string     `json:"type"`
	Title  []richText `json:"title"`
	Select *struct {
		Name string `json:"name"`
	} `json:"select"`
	URL *string `json:"url"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type apiError struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient builds a destination client. A token is required; the base URL and API
// version default to the public Notion API.
func NewClient(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "notion token is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		apiVersion: apiVersion,
		databaseID: strings.TrimSpace(opts.DatabaseID),
		http: upstream.New(upstream.Options{
			HTTPClient: opts.HTTPClient,
			Timeout:    opts.Timeout,
			MaxRetries: opts.MaxRetries,
			BaseDelay:  opts.BaseDelay,
			MaxDelay:   opts.MaxDelay,
		}),
		logger: logger.With(zap.String("component", "notion")),
	}, nil
}

// WithDatabase returns a client bound to databaseID with empty caches.
func (c *Client) WithDatabase(databaseID string) *Client {
	return &Client{
		baseURL:    c.baseURL,
		token:      c.token,
		apiVersion: c.apiVersion,
		databaseID: strings.TrimSpace(databaseID),
		http:       c.http,
		logger:     c.logger,
	}
}

// DatabaseID returns the database the client is bound to, or "" when unbound.
func (c *Client) DatabaseID() string {
	return c.databaseID
}

// DatabaseExists probes the bound database. Any non-2xx answer or error object means
// the database does not exist; only transport failures are returned as errors.
func (c *Client) DatabaseExists(ctx context.Context) (bool, error) {
	if c.databaseID == "" {
		return false, nil
	}
	types, found, err := c.fetchSchema(ctx)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	c.mu.Lock()
	c.schema = types
	c.mu.Unlock()
	return true, nil
}

// CreateDatabase creates a database under parentPageID and returns its id.
func (c *Client) CreateDatabase(ctx context.Context, parentPageID string, propertyNames []string) (string, error) {
	parentPageID = strings.TrimSpace(parentPageID)
	if parentPageID == "" {
		return "", appErrors.Clone(appErrors.ErrConfiguration, "notion parent page id is required")
	}
	payload := map[string]any{
		"parent": map[string]any{"type": "page_id", "page_id": parentPageID},
		"icon":   map[string]any{"type": "emoji", "emoji": databaseIcon},
		"title": []map[string]any{{
			"type": "text",
			"text": map[string]any{"content": DatabaseTitle},
		}},
		"properties": BuildSchema(propertyNames),
	}
	resp, err := c.send(ctx, http.MethodPost, "/v1/databases", payload)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", upstreamError("create database", resp)
	}
	var created databaseResponse
	if err := json.Unmarshal(resp.Body, &created); err != nil {
		return "", fmt.Errorf("decode created database: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("notion returned no database id")
	}
	c.logger.Info("created database", zap.String("database_id", created.ID), zap.String("parent_page_id", parentPageID))
	return created.ID, nil
}

// FetchExistingIndex reads every page of the bound database once and indexes it by URL
// and by class/title key.
func (c *Client) FetchExistingIndex(ctx context.Context) (*models.ExistingIndex, error) {
	c.mu.Lock()
	cached := c.index
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	if c.databaseID == "" {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "notion database id is required")
	}

	var records []models.DestinationRecord
	var cursor string
	for page := 0; ; page++ {
		if page >= maxQueryPages {
			return nil, fmt.Errorf("notion query exceeded %d pages", maxQueryPages)
		}
		body := map[string]any{"page_size": queryPageSize}
		if cursor != "" {
			body["start_cursor"] = cursor
		}
		resp, err := c.send(ctx, http.MethodPost, "/v1/databases/"+url.PathEscape(c.databaseID)+"/query", body)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, upstreamError("query database", resp)
		}
		var result queryResponse
		if err := json.Unmarshal(resp.Body, &result); err != nil {
			return nil, fmt.Errorf("decode database query: %w", err)
		}
		for _, p := range result.Results {
			records = append(records, toRecord(p))
		}
		if !result.HasMore || result.NextCursor == nil || *result.NextCursor == "" {
			break
		}
		cursor = *result.NextCursor
	}

	index := models.NewExistingIndex(records)
	c.mu.Lock()
	c.index = index
	c.mu.Unlock()
	c.logger.Debug("indexed database", zap.String("database_id", c.databaseID), zap.Int("pages", len(records)))
	return index, nil
}

// CreateItem adds a page for item to the bound database.
func (c *Client) CreateItem(ctx context.Context, item models.DestinationItem) (models.WriteOutcome, error) {
	types, err := c.properties(ctx)
	if err != nil {
		return models.WriteOutcome{}, err
	}
	payload := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": buildProperties(item, types),
	}
	resp, err := c.send(ctx, http.MethodPost, "/v1/pages", payload)
	if err != nil {
		return models.WriteOutcome{}, err
	}
	return models.WriteOutcome{StatusCode: resp.StatusCode, Body: string(resp.Body)}, nil
}

// UpdateItem overwrites the properties of an existing page.
func (c *Client) UpdateItem(ctx context.Context, pageID string, item models.DestinationItem) (models.WriteOutcome, error) {
	if pageID == "" {
		return models.WriteOutcome{}, fmt.Errorf("page id is required")
	}
	types, err := c.properties(ctx)
	if err != nil {
		return models.WriteOutcome{}, err
	}
	payload := map[string]any{"properties": buildProperties(item, types)}
	resp, err := c.send(ctx, http.MethodPatch, "/v1/pages/"+url.PathEscape(pageID), payload)
	if err != nil {
		return models.WriteOutcome{}, err
	}
	return models.WriteOutcome{StatusCode: resp.StatusCode, Body: string(resp.Body)}, nil
}

// properties returns the cached schema, loading it on first use. A database whose
// schema cannot be read yields an empty schema, which disables filtering.
func (c *Client) properties(ctx context.Context) (propertyTypes, error) {
	c.mu.Lock()
	cached := c.schema
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	types, found, err := c.fetchSchema(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		types = propertyTypes{}
	}
	c.mu.Lock()
	c.schema = types
	c.mu.Unlock()
	return types, nil
}

func (c *Client) fetchSchema(ctx context.Context) (propertyTypes, bool, error) {
	if c.databaseID == "" {
		return propertyTypes{}, false, nil
	}
	resp, err := c.send(ctx, http.MethodGet, "/v1/databases/"+url.PathEscape(c.databaseID), nil)
	if err != nil {
		return nil, false, err
	}
	if !resp.OK() {
		c.logger.Debug("database lookup failed", zap.String("database_id", c.databaseID), zap.Int("status", resp.StatusCode))
		return nil, false, nil
	}
	var db databaseResponse
	if err := json.Unmarshal(resp.Body, &db); err != nil || db.Object == "error" {
		return nil, false, nil
	}
	types := make(propertyTypes, len(db.Properties))
	for name, raw := range db.Properties {
		var prop struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &prop); err == nil {
			types[name] = prop.Type
		}
	}
	return types, true, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload any) (*upstream.Response, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = encoded
	}
	target := c.baseURL + path
	var opts []upstream.CallOption
	if strings.HasSuffix(path, "/query") {
		opts = append(opts, upstream.Replayable())
	}
	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", c.apiVersion)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "notion request failed")
	}
	return resp, nil
}

func toRecord(p pageObject) models.DestinationRecord {
	rec := models.DestinationRecord{PageID: p.ID}
	if prop, ok := p.Properties[PropertyURL]; ok && prop.URL != nil {
		rec.URL = *prop.URL
	}
	if prop, ok := p.Properties[PropertyAssignment]; ok {
		var sb strings.Builder
		for _, part := range prop.Title {
			sb.WriteString(part.PlainText)
		}
		rec.Title = strings.TrimSpace(sb.String())
	}
	if prop, ok := p.Properties[PropertyClass]; ok && prop.Select != nil {
		rec.CourseName = prop.Select.Name
	}
	return rec
}

// upstreamError renders a Notion error body as {code, message} when possible.
func upstreamError(op string, resp *upstream.Response) error {
	var parsed apiError
	if json.Unmarshal(resp.Body, &parsed) == nil && parsed.Code != "" {
		return appErrors.Clone(appErrors.ErrUpstream,
			fmt.Sprintf("notion %s failed: status=%d code=%s message=%s", op, resp.StatusCode, parsed.Code, parsed.Message))
	}
	return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("notion %s failed: %s", op, resp.Summary()))
}
