package calendar

import (
	"strings"
	"time"

	"github.com/noah-isme/coursework-sync/internal/models"
)

// strategy resolves a semester label for a local date.
type strategy func(d time.Time) (string, bool)

// Bucketer resolves semester and week labels. It is safe for concurrent use.
type Bucketer struct {
	loc      *time.Location
	defaults Defaults
	chain    []strategy
}

// NewBucketer compiles the precedence chain for cfg: phases, then the custom range,
// then the built-in semesters.
func NewBucketer(cfg Config, defaults Defaults, loc *time.Location) *Bucketer {
	if loc == nil {
		loc = time.UTC
	}
	b := &Bucketer{loc: loc, defaults: defaults}
	if phases := compilePhases(cfg.Phases); len(phases) > 0 {
		b.chain = append(b.chain, rangeStrategy(phases))
	}
	if cfg.CustomStart != nil && cfg.CustomEnd != nil {
		label := strings.TrimSpace(cfg.CustomLabel)
		if label == "" {
			label = CustomSemesterLabel
		}
		b.chain = append(b.chain, rangeStrategy([]Range{{Label: label, Start: *cfg.CustomStart, End: *cfg.CustomEnd}}))
	}
	b.chain = append(b.chain, rangeStrategy(defaults.Semesters))
	return b
}

// Location returns the local calendar timezone.
func (b *Bucketer) Location() *time.Location {
	return b.loc
}

// ResolveSemester returns the semester label for a due value, NotApplicable when the
// value is absent, or "" when no range contains the date.
func (b *Bucketer) ResolveSemester(due string) (string, error) {
	d, present, err := NormalizeDue(due, b.loc)
	if err != nil {
		return "", err
	}
	if !present {
		return NotApplicable, nil
	}
	return b.SemesterForDate(d), nil
}

// ResolveWeek returns the week label for a due value. It is NotApplicable whenever the
// semester is NotApplicable or unresolved.
func (b *Bucketer) ResolveWeek(due string) (string, error) {
	bucket, err := b.Resolve(due)
	if err != nil {
		return "", err
	}
	return bucket.Week, nil
}

// Resolve computes both labels with a single parse of the due value.
func (b *Bucketer) Resolve(due string) (Bucket, error) {
	d, present, err := NormalizeDue(due, b.loc)
	if err != nil {
		return Bucket{}, err
	}
	if !present {
		return Bucket{Semester: NotApplicable, Week: NotApplicable}, nil
	}
	semester := b.SemesterForDate(d)
	return Bucket{Semester: semester, Week: b.weekFor(semester, d)}, nil
}

// SemesterForDate runs the strategy chain for a local date.
func (b *Bucketer) SemesterForDate(d time.Time) string {
	for _, match := range b.chain {
		if label, ok := match(d); ok {
			return label
		}
	}
	return ""
}

func (b *Bucketer) weekFor(semester string, d time.Time) string {
	switch {
	case semester == "" || semester == NotApplicable:
		return NotApplicable
	case strings.Contains(semester, SpecialTerm):
		return SpecialTerm
	case strings.Contains(semester, WinterTerm):
		return WinterTerm
	}
	label, _ := firstContaining(b.defaults.Weeks[semester], d)
	return label
}

func rangeStrategy(ranges []Range) strategy {
	return func(d time.Time) (string, bool) {
		return firstContaining(ranges, d)
	}
}

func firstContaining(ranges []Range, d time.Time) (string, bool) {
	for _, r := range ranges {
		if r.Contains(d) {
			return r.Label, true
		}
	}
	return "", false
}

// compilePhases keeps phases with a name and parseable, ordered bounds, preserving order.
func compilePhases(phases []models.Phase) []Range {
	out := make([]Range, 0, len(phases))
	for _, p := range phases {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		start, err := ParseDate(p.Start)
		if err != nil {
			continue
		}
		end, err := ParseDate(p.End)
		if err != nil {
			continue
		}
		if start.After(end) {
			continue
		}
		out = append(out, Range{Label: name, Start: start, End: end})
	}
	return out
}
