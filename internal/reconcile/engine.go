package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/coursework-sync/internal/calendar"
	"github.com/noah-isme/coursework-sync/internal/models"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
)

const (
	StatusDone       = "Done"
	StatusNotStarted = "Not started"

	maxResponseSummary = 500
)

// State is a stage of a reconciliation run. Runs move strictly forward.
type State string

const (
	StateInit           State = "INIT"
	StateEnsureDatabase State = "ENSURE_DATABASE"
	StateIndexExisting  State = "INDEX_EXISTING"
	StateCreatePass     State = "CREATE_PASS"
	StateUpdatePass     State = "UPDATE_PASS"
	StateDone           State = "DONE"
)

// StatusLabel maps submission state to the destination status label.
func StatusLabel(hasSubmitted bool) string {
	if hasSubmitted {
		return StatusDone
	}
	return StatusNotStarted
}

// Options configures one engine instance.
type Options struct {
	// ParentPageID is where a missing destination database gets created.
	ParentPageID string
	// PropertyNames are the optional destination properties requested at creation.
	PropertyNames []string
	// Rebind binds a new destination adapter after a database is created.
	Rebind Rebinder
	Logger *zap.Logger
	Now    func() time.Time
}

// Request selects what one run reconciles.
type Request struct {
	// Courses overrides course discovery when non-nil.
	Courses   []models.Course
	Scope     models.CourseScope
	Timeframe string
}

// Engine reconciles source assignments into the destination database. An Engine
// serves exactly one Run; build a new one, with new adapters, for every run.
type Engine struct {
	source   SourceAdapter
	dest     DestinationAdapter
	bucketer *calendar.Bucketer
	opts     Options
	logger   *zap.Logger

	mu    sync.Mutex
	state State

	assignments map[string][]models.Assignment
}

// New validates collaborators and returns an engine ready for a single run.
func New(source SourceAdapter, dest DestinationAdapter, bucketer *calendar.Bucketer, opts Options) (*Engine, error) {
	if source == nil || dest == nil || bucketer == nil {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "source, destination and calendar are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		source:      source,
		dest:        dest,
		bucketer:    bucketer,
		opts:        opts,
		logger:      opts.Logger,
		state:       StateInit,
		assignments: make(map[string][]models.Assignment),
	}, nil
}

// State reports the stage the engine has reached.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) advance(next State) {
	e.mu.Lock()
	e.state = next
	e.mu.Unlock()
	e.logger.Debug("sync stage", zap.String("state", string(next)))
}

// Run executes INIT -> ENSURE_DATABASE -> INDEX_EXISTING -> CREATE_PASS -> UPDATE_PASS -> DONE.
//
// The returned error is non-nil only for precondition violations detected before any
// remote call. Failures of individual creates or updates are recorded in the result and
// do not stop the run; failures outside the item loops abort the run and become the
// result's sole error entry.
func (e *Engine) Run(ctx context.Context, req Request) (*models.SyncResult, error) {
	if err := e.checkPreconditions(); err != nil {
		return nil, err
	}

	result := &models.SyncResult{
		StartedAt: e.opts.Now().UTC(),
		Errors:    []models.SyncError{},
	}
	defer func() {
		result.FinishedAt = e.opts.Now().UTC()
		e.advance(StateDone)
		e.logger.Info("sync finished",
			zap.Int("created", result.Created),
			zap.Int("updated", result.Updated),
			zap.Int("errors", len(result.Errors)),
			zap.String("status", result.Status()),
		)
	}()

	e.advance(StateEnsureDatabase)
	if err := e.ensureDatabase(ctx, result); err != nil {
		return e.abort(result, fmt.Errorf("ensure database: %w", err)), nil
	}

	e.advance(StateIndexExisting)
	index, err := e.dest.FetchExistingIndex(ctx)
	if err != nil {
		return e.abort(result, fmt.Errorf("fetch existing items: %w", err)), nil
	}
	e.logger.Info("indexed destination", zap.Int("by_url", len(index.ByURL)), zap.Int("by_key", len(index.ByKey)))

	courses := req.Courses
	if courses == nil {
		courses, err = e.source.ListCourses(ctx, req.Scope)
		if err != nil {
			return e.abort(result, fmt.Errorf("list courses: %w", err)), nil
		}
	}

	e.advance(StateCreatePass)
	createErrors, err := e.createPass(ctx, courses, req.Timeframe, index, result)
	if err != nil {
		return e.abort(result, err), nil
	}

	e.advance(StateUpdatePass)
	updateErrors, err := e.updatePass(ctx, courses, index, result)
	if err != nil {
		return e.abort(result, err), nil
	}

	result.Errors = append(result.Errors, createErrors...)
	result.Errors = append(result.Errors, updateErrors...)
	return result, nil
}

func (e *Engine) checkPreconditions() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateInit {
		return appErrors.Clone(appErrors.ErrConfiguration, "engine already used; build a new engine per run")
	}
	if e.dest.DatabaseID() == "" && e.opts.ParentPageID == "" {
		return appErrors.Clone(appErrors.ErrConfiguration, "destination database id or parent page id is required")
	}
	return nil
}

// ensureDatabase creates the destination database when the configured id is absent or
// unknown to the destination, then rebinds the destination adapter to the new id.
func (e *Engine) ensureDatabase(ctx context.Context, result *models.SyncResult) error {
	if id := e.dest.DatabaseID(); id != "" {
		exists, err := e.dest.DatabaseExists(ctx)
		if err != nil {
			return err
		}
		if exists {
			result.DatabaseID = id
			return nil
		}
		e.logger.Warn("destination database not found, creating", zap.String("database_id", id))
	}
	if e.opts.ParentPageID == "" {
		return fmt.Errorf("parent page id is required to create a database")
	}

	newID, err := e.dest.CreateDatabase(ctx, e.opts.ParentPageID, e.opts.PropertyNames)
	if err != nil {
		return err
	}
	if newID == "" {
		return fmt.Errorf("destination returned no database id")
	}
	// Recorded before rebinding so the caller can persist the id even if the run aborts.
	result.DatabaseID = newID
	result.DatabaseCreated = true
	e.logger.Info("created destination database", zap.String("database_id", newID))

	if e.opts.Rebind == nil {
		return fmt.Errorf("created database %s but no rebinder is configured", newID)
	}
	rebound := e.opts.Rebind(newID)
	if rebound == nil {
		return fmt.Errorf("rebind destination to %s", newID)
	}
	e.dest = rebound
	return nil
}

func (e *Engine) createPass(ctx context.Context, courses []models.Course, timeframe string, index *models.ExistingIndex, result *models.SyncResult) ([]models.SyncError, error) {
	var failures []models.SyncError
	for _, course := range courses {
		assignments, err := e.listAssignments(ctx, course, timeframe)
		if err != nil {
			return nil, err
		}
		for _, a := range assignments {
			if _, found := index.Lookup(a); found {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("run interrupted during create pass: %w", err)
			}
			if failure := e.attempt(ctx, models.SyncActionCreate, "", a); failure != nil {
				failures = append(failures, *failure)
				continue
			}
			result.Created++
		}
	}
	return failures, nil
}

func (e *Engine) updatePass(ctx context.Context, courses []models.Course, index *models.ExistingIndex, result *models.SyncResult) ([]models.SyncError, error) {
	var failures []models.SyncError
	for _, course := range courses {
		assignments, err := e.listAssignments(ctx, course, "")
		if err != nil {
			return nil, err
		}
		for _, a := range assignments {
			pageID, found := index.Lookup(a)
			if !found {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("run interrupted during update pass: %w", err)
			}
			if failure := e.attempt(ctx, models.SyncActionUpdate, pageID, a); failure != nil {
				failures = append(failures, *failure)
				continue
			}
			result.Updated++
		}
	}
	return failures, nil
}

// listAssignments fetches a course's assignments once per timeframe within the run and
// stamps the course name used for fallback matching.
func (e *Engine) listAssignments(ctx context.Context, course models.Course, timeframe string) ([]models.Assignment, error) {
	key := course.ID + "\x00" + timeframe
	if cached, ok := e.assignments[key]; ok {
		return cached, nil
	}
	assignments, err := e.source.ListAssignments(ctx, course, timeframe)
	if err != nil {
		return nil, fmt.Errorf("list assignments for %s: %w", course.Name, err)
	}
	for i := range assignments {
		assignments[i].CourseName = course.Name
	}
	e.assignments[key] = assignments
	return assignments, nil
}

// attempt performs one create or update and converts any failure into an error entry.
func (e *Engine) attempt(ctx context.Context, action models.SyncAction, pageID string, a models.Assignment) *models.SyncError {
	failure := &models.SyncError{Action: action, Course: a.CourseName, URL: a.URL}

	item, err := e.buildItem(a)
	if err != nil {
		failure.Error = err.Error()
		e.logItemFailure(failure)
		return failure
	}

	var outcome models.WriteOutcome
	if action == models.SyncActionCreate {
		outcome, err = e.dest.CreateItem(ctx, item)
	} else {
		outcome, err = e.dest.UpdateItem(ctx, pageID, item)
	}
	switch {
	case err != nil:
		failure.Error = err.Error()
	case !outcome.Success():
		failure.Response = summarize(outcome)
	default:
		return nil
	}
	e.logItemFailure(failure)
	return failure
}

func (e *Engine) buildItem(a models.Assignment) (models.DestinationItem, error) {
	bucket, err := e.bucketer.Resolve(a.DueAt)
	if err != nil {
		return models.DestinationItem{}, err
	}
	due, err := calendar.FormatDue(a.DueAt, e.bucketer.Location())
	if err != nil {
		return models.DestinationItem{}, err
	}
	return models.DestinationItem{
		Assignment: a,
		Status:     StatusLabel(a.HasSubmitted),
		DueDate:    due,
		Semester:   bucket.Semester,
		Week:       bucket.Week,
	}, nil
}

func (e *Engine) logItemFailure(f *models.SyncError) {
	e.logger.Warn("sync item failed",
		zap.String("action", string(f.Action)),
		zap.String("course", f.Course),
		zap.String("url", f.URL),
		zap.String("response", f.Response),
		zap.String("error", f.Error),
	)
}

// abort replaces any collected item errors with the single run-level error. Counts of
// writes that already succeeded are kept.
func (e *Engine) abort(result *models.SyncResult, err error) *models.SyncResult {
	e.logger.Error("sync aborted", zap.Error(err))
	result.Errors = []models.SyncError{{Action: models.SyncActionSync, Error: err.Error()}}
	return result
}

func summarize(o models.WriteOutcome) string {
	body := o.Body
	if len(body) > maxResponseSummary {
		cut := maxResponseSummary
		for back := 0; back < utf8.UTFMax-1 && cut > 0 && !utf8.RuneStart(body[cut]); back++ {
			cut--
		}
		body = body[:cut] + "..."
	}
	return fmt.Sprintf("status=%d body=%s", o.StatusCode, body)
}
