// Package canvas reads courses and assignments from a Canvas LMS instance.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/coursework-sync/internal/models"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
	"github.com/noah-isme/coursework-sync/pkg/upstream"
)

const (
	defaultBaseURLTemplate = "https://%s.instructure.com"
	pageSize               = 100
	maxPages               = 50
	recentWindow           = 6 // months
)

// Options configures a Client. BaseURL wins over BaseURLTemplate when both are set.
type Options struct {
	Token           string
	SchoolDomain    string
	BaseURLTemplate string
	BaseURL         string
	HTTPClient      *http.Client
	Timeout         time.Duration
	MaxRetries      int
	Logger          *zap.Logger
	Now             func() time.Time
}

// Client is a read-only Canvas REST API client.
type Client struct {
	baseURL string
	token   string
	http    *upstream.Client
	logger  *zap.Logger
	now     func() time.Time
}

type courseDTO struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	CourseCode string     `json:"course_code"`
	StartAt    *time.Time `json:"start_at"`
	CreatedAt  *time.Time `json:"created_at"`
}

type assignmentDTO struct {
	ID                      int64   `json:"id"`
	Name                    string  `json:"name"`
	HTMLURL                 string  `json:"html_url"`
	DueAt                   *string `json:"due_at"`
	HasSubmittedSubmissions bool    `json:"has_submitted_submissions"`
}

// NewClient validates credentials and returns a client bound to one school domain.
func NewClient(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "canvas token is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		domain := strings.TrimSpace(opts.SchoolDomain)
		if domain == "" {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, "canvas school domain is required")
		}
		template := opts.BaseURLTemplate
		if template == "" {
			template = defaultBaseURLTemplate
		}
		baseURL = strings.TrimRight(fmt.Sprintf(template, domain), "/")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http: upstream.New(upstream.Options{
			HTTPClient: opts.HTTPClient,
			Timeout:    opts.Timeout,
			MaxRetries: opts.MaxRetries,
		}),
		logger: logger.With(zap.String("component", "canvas")),
		now:    now,
	}, nil
}

// ListCourses returns the courses visible to the token, filtered by scope.
func (c *Client) ListCourses(ctx context.Context, scope models.CourseScope) ([]models.Course, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(pageSize))

	var raw []courseDTO
	if err := c.getAll(ctx, "/api/v1/courses", query, func(page []byte) error {
		var batch []courseDTO
		if err := json.Unmarshal(page, &batch); err != nil {
			return fmt.Errorf("decode courses: %w", err)
		}
		raw = append(raw, batch...)
		return nil
	}); err != nil {
		return nil, err
	}

	cutoff := c.now().AddDate(0, -recentWindow, 0)
	courses := make([]models.Course, 0, len(raw))
	for _, dto := range raw {
		// Restricted enrollments come back without a name.
		if dto.Name == "" {
			continue
		}
		course := models.Course{
			ID:        strconv.FormatInt(dto.ID, 10),
			Name:      dto.Name,
			Code:      dto.CourseCode,
			StartAt:   dto.StartAt,
			CreatedAt: dto.CreatedAt,
		}
		if scope == models.CourseScopeRecent && !startedAfter(course, cutoff) {
			continue
		}
		courses = append(courses, course)
	}
	c.logger.Debug("listed courses", zap.String("scope", string(scope)), zap.Int("count", len(courses)))
	return courses, nil
}

// ListAssignments returns a course's assignments. A non-empty timeframe is passed to
// Canvas as the assignment bucket (upcoming, past, overdue, ...).
func (c *Client) ListAssignments(ctx context.Context, course models.Course, timeframe string) ([]models.Assignment, error) {
	if course.ID == "" {
		return nil, fmt.Errorf("course id is required")
	}
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(pageSize))
	if timeframe = strings.TrimSpace(timeframe); timeframe != "" {
		query.Set("bucket", timeframe)
	}

	var assignments []models.Assignment
	path := "/api/v1/courses/" + url.PathEscape(course.ID) + "/assignments"
	err := c.getAll(ctx, path, query, func(page []byte) error {
		var batch []assignmentDTO
		if err := json.Unmarshal(page, &batch); err != nil {
			return fmt.Errorf("decode assignments: %w", err)
		}
		for _, dto := range batch {
			a := models.Assignment{
				ExternalID:   strconv.FormatInt(dto.ID, 10),
				Title:        dto.Name,
				CourseName:   course.Name,
				URL:          dto.HTMLURL,
				HasSubmitted: dto.HasSubmittedSubmissions,
			}
			if dto.DueAt != nil {
				a.DueAt = *dto.DueAt
			}
			assignments = append(assignments, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// getAll follows rel="next" links until exhausted, handing each page body to visit.
func (c *Client) getAll(ctx context.Context, path string, query url.Values, visit func([]byte) error) error {
	next := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		next += "?" + encoded
	}

	for page := 0; next != ""; page++ {
		if page >= maxPages {
			return fmt.Errorf("canvas pagination exceeded %d pages for %s", maxPages, path)
		}
		target := next
		resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+c.token)
			req.Header.Set("Accept", "application/json")
			return req, nil
		})
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "canvas request failed")
		}
		if !resp.OK() {
			return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("canvas %s: %s", path, resp.Summary()))
		}
		if err := visit(resp.Body); err != nil {
			return err
		}
		next = nextLink(resp.Header.Get("Link"))
	}
	return nil
}

func startedAfter(course models.Course, cutoff time.Time) bool {
	started := course.StartAt
	if started == nil {
		started = course.CreatedAt
	}
	return started != nil && !started.Before(cutoff)
}
