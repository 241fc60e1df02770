package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursework-sync/internal/models"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
)

const statusSelectDatabase = `{"object":"database","id":"db-1","properties":{
	"Assignment":{"type":"title"},"Class":{"type":"select"},"Due Date":{"type":"date"},
	"Status":{"type":"select"},"URL":{"type":"url"}}}`

func newTestClient(t *testing.T, server *httptest.Server, databaseID string) *Client {
	t.Helper()
	client, err := NewClient(Options{
		Token:      "secret_abc",
		DatabaseID: databaseID,
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func sampleItem() models.DestinationItem {
	return models.DestinationItem{
		Assignment: models.Assignment{
			Title:      "Tutorial 1",
			CourseName: "MA1521",
			URL:        "https://canvas.test/a/1",
		},
		Status:   "Done",
		DueDate:  "2024-09-15T23:59:00+08:00",
		Semester: "AY2024/2025 Semester 1",
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Options{})
	assert.ErrorIs(t, err, appErrors.ErrConfiguration)
}

func TestDatabaseExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret_abc", r.Header.Get("Authorization"))
		assert.Equal(t, defaultAPIVersion, r.Header.Get("Notion-Version"))
		switch r.URL.Path {
		case "/v1/databases/db-1":
			_, _ = w.Write([]byte(statusSelectDatabase))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"object":"error","status":404,"code":"object_not_found","message":"missing"}`))
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, "db-1")
	exists, err := client.DatabaseExists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "select", client.schema[PropertyStatus])

	exists, err = client.WithDatabase("db-missing").DatabaseExists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = client.WithDatabase("").DatabaseExists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDatabaseExistsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(t, server, "db-1")
	server.Close()

	_, err := client.DatabaseExists(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
}

func TestCreateDatabase(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/databases", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"object":"database","id":"db-new"}`))
	}))
	defer server.Close()

	id, err := newTestClient(t, server, "").CreateDatabase(context.Background(), "parent-1", []string{"Status", "Bogus"})
	require.NoError(t, err)
	assert.Equal(t, "db-new", id)

	parent := payload["parent"].(map[string]any)
	assert.Equal(t, "parent-1", parent["page_id"])
	props := payload["properties"].(map[string]any)
	assert.Len(t, props, 4)
	assert.Contains(t, props, PropertyStatus)
	assert.NotContains(t, props, "Bogus")
	title := payload["title"].([]any)[0].(map[string]any)["text"].(map[string]any)
	assert.Equal(t, DatabaseTitle, title["content"])
}

func TestCreateDatabaseFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","code":"validation_error","message":"parent not shared"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, "")
	_, err := client.CreateDatabase(context.Background(), "", nil)
	assert.ErrorIs(t, err, appErrors.ErrConfiguration)

	_, err = client.CreateDatabase(context.Background(), "parent-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation_error")
}

func TestFetchExistingIndexPaginatesAndCaches(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/databases/db-1/query", r.URL.Path)
		atomic.AddInt32(&calls, 1)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["start_cursor"] == "cursor-2" {
			_, _ = w.Write([]byte(`{"results":[
				{"id":"p3","properties":{"Assignment":{"type":"title","title":[{"plain_text":"Lab 2"}]},"Class":{"type":"select","select":{"name":"CS2040"}},"URL":{"type":"url","url":null}}}
			],"has_more":false,"next_cursor":null}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[
			{"id":"p1","properties":{"URL":{"type":"url","url":"https://canvas.test/a/1"},"Assignment":{"type":"title","title":[{"plain_text":"Tutorial "},{"plain_text":"1"}]},"Class":{"type":"select","select":{"name":"MA1521"}}}},
			{"id":"p2","properties":{"URL":{"type":"url","url":"https://canvas.test/a/2"},"Class":{"type":"select","select":null}}}
		],"has_more":true,"next_cursor":"cursor-2"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, "db-1")
	index, err := client.FetchExistingIndex(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "p1", index.ByURL["https://canvas.test/a/1"])
	assert.Equal(t, "p2", index.ByURL["https://canvas.test/a/2"])
	assert.Equal(t, "p1", index.ByKey["MA1521||Tutorial 1"])
	assert.Equal(t, "p3", index.ByKey["CS2040||Lab 2"])
	assert.Equal(t, 3, index.Len())

	_, err = client.FetchExistingIndex(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetchExistingIndexFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"object":"error","code":"unauthorized","message":"API token is invalid."}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server, "db-1").FetchExistingIndex(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestCreateItemFiltersToSchema(t *testing.T) {
	var created map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/databases/db-1":
			_, _ = w.Write([]byte(statusSelectDatabase))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/pages":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			_, _ = w.Write([]byte(`{"object":"page","id":"p-new"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	outcome, err := newTestClient(t, server, "db-1").CreateItem(context.Background(), sampleItem())
	require.NoError(t, err)
	assert.True(t, outcome.Success())

	assert.Equal(t, "db-1", created["parent"].(map[string]any)["database_id"])
	props := created["properties"].(map[string]any)
	assert.NotContains(t, props, PropertyWeek)
	assert.NotContains(t, props, PropertySemester)
	assert.Equal(t, map[string]any{"select": map[string]any{"name": "Done"}}, props[PropertyStatus])
	assert.Equal(t, map[string]any{"url": "https://canvas.test/a/1"}, props[PropertyURL])
}

func TestUpdateItemReportsRejection(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/pages/p1", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","code":"validation_error"}`))
	}))
	defer server.Close()

	outcome, err := newTestClient(t, server, "db-1").UpdateItem(context.Background(), "p1", sampleItem())
	require.NoError(t, err)
	assert.False(t, outcome.Success())
	assert.Equal(t, http.StatusBadRequest, outcome.StatusCode)
	assert.Contains(t, outcome.Body, "validation_error")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestWithDatabaseResetsCaches(t *testing.T) {
	client := &Client{databaseID: "old", schema: propertyTypes{"Status": "select"}, index: models.NewExistingIndex(nil)}
	rebound := client.WithDatabase("new")
	assert.Equal(t, "new", rebound.DatabaseID())
	assert.Nil(t, rebound.schema)
	assert.Nil(t, rebound.index)
	assert.Equal(t, "old", client.DatabaseID())
}

type flakyTransport struct {
	posts map[string]int
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodGet {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(statusSelectDatabase)),
			Request:    req,
		}, nil
	}
	f.posts[req.URL.Path]++
	return nil, errors.New("connection reset by peer")
}

func TestWritesAreNotResentAfterTransportFailure(t *testing.T) {
	transport := &flakyTransport{posts: map[string]int{}}
	client, err := NewClient(Options{
		Token:      "secret_abc",
		DatabaseID: "db-1",
		BaseURL:    "http://notion.test",
		HTTPClient: &http.Client{Transport: transport},
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.CreateItem(context.Background(), sampleItem())
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
	assert.Equal(t, 1, transport.posts["/v1/pages"])

	_, err = client.FetchExistingIndex(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
	assert.Equal(t, 3, transport.posts["/v1/databases/db-1/query"])
}
