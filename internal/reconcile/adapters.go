package reconcile

import (
	"context"

	"github.com/noah-isme/coursework-sync/internal/models"
)

// SourceAdapter pulls courses and assignments from the course-management system.
// Implementations own authentication, pagination and timeframe filtering.
type SourceAdapter interface {
	ListCourses(ctx context.Context, scope models.CourseScope) ([]models.Course, error)
	ListAssignments(ctx context.Context, course models.Course, timeframe string) ([]models.Assignment, error)
}

// DestinationAdapter reads and writes the workspace database. Implementations cache the
// database schema and the existing-item index for the lifetime of the instance, so a
// fresh adapter must be built for every run.
type DestinationAdapter interface {
	DatabaseID() string
	// DatabaseExists reports false for any non-existence answer, including error objects.
	DatabaseExists(ctx context.Context) (bool, error)
	// CreateDatabase creates a database under parentPageID with the required properties
	// plus any known names in propertyNames, returning the new database id.
	CreateDatabase(ctx context.Context, parentPageID string, propertyNames []string) (string, error)
	FetchExistingIndex(ctx context.Context) (*models.ExistingIndex, error)
	CreateItem(ctx context.Context, item models.DestinationItem) (models.WriteOutcome, error)
	UpdateItem(ctx context.Context, pageID string, item models.DestinationItem) (models.WriteOutcome, error)
}

// Rebinder returns a destination adapter bound to another database id.
type Rebinder func(databaseID string) DestinationAdapter
