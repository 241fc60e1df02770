package models

// DestinationRecord is an existing entry in the destination database.
type DestinationRecord struct {
	PageID     string
	URL        string
	CourseName string
	Title      string
}

// ExistingIndex maps both matching keys of existing destination records to their page ids.
type ExistingIndex struct {
	ByURL map[string]string
	ByKey map[string]string
}

// NewExistingIndex populates both maps in a single pass. Records lacking a URL are only
// indexed by key; records lacking a course or title are only indexed by URL.
func NewExistingIndex(records []DestinationRecord) *ExistingIndex {
	idx := &ExistingIndex{
		ByURL: make(map[string]string, len(records)),
		ByKey: make(map[string]string, len(records)),
	}
	for _, rec := range records {
		if rec.PageID == "" {
			continue
		}
		if rec.URL != "" {
			idx.ByURL[rec.URL] = rec.PageID
		}
		if rec.CourseName != "" && rec.Title != "" {
			idx.ByKey[MatchKey(rec.CourseName, rec.Title)] = rec.PageID
		}
	}
	return idx
}

// Lookup resolves an assignment to an existing page id. The URL is consulted first;
// the course/title key is only consulted after a URL miss.
func (i *ExistingIndex) Lookup(a Assignment) (string, bool) {
	if i == nil {
		return "", false
	}
	if a.URL != "" {
		if pageID, ok := i.ByURL[a.URL]; ok {
			return pageID, true
		}
	}
	pageID, ok := i.ByKey[a.MatchKey()]
	return pageID, ok
}

// Len reports the number of distinct pages reachable through the index.
func (i *ExistingIndex) Len() int {
	if i == nil {
		return 0
	}
	seen := make(map[string]struct{}, len(i.ByURL)+len(i.ByKey))
	for _, id := range i.ByURL {
		seen[id] = struct{}{}
	}
	for _, id := range i.ByKey {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// DestinationItem is the fully computed payload for a create or update.
// DueDate is the local-offset timestamp; empty Semester or Week means no bucket matched.
type DestinationItem struct {
	Assignment Assignment
	Status     string
	DueDate    string
	Semester   string
	Week       string
}

// WriteOutcome is the transport-level result of a create or update call.
type WriteOutcome struct {
	StatusCode int
	Body       string
}

// Success reports whether the destination accepted the write.
func (o WriteOutcome) Success() bool {
	return o.StatusCode >= 200 && o.StatusCode <= 299
}
