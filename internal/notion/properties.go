package notion

import "github.com/noah-isme/coursework-sync/internal/models"

// propertyTypes maps database property names to their Notion type, e.g. "select".
type propertyTypes map[string]string

func textValue(content string) []map[string]any {
	return []map[string]any{{"text": map[string]any{"content": content}}}
}

func selectValue(name string) map[string]any {
	if name == "" {
		return map[string]any{"select": nil}
	}
	return map[string]any{"select": map[string]any{"name": name}}
}

func statusValue(name string, types propertyTypes) map[string]any {
	if types[PropertyStatus] == "select" {
		return selectValue(name)
	}
	return map[string]any{"status": map[string]any{"name": name}}
}

func dateValue(start string) map[string]any {
	if start == "" {
		return map[string]any{"date": nil}
	}
	return map[string]any{"date": map[string]any{"start": start}}
}

func urlValue(u string) map[string]any {
	if u == "" {
		return map[string]any{"url": nil}
	}
	return map[string]any{"url": u}
}

// buildProperties renders an item as page properties restricted to the database
// schema. An empty schema disables filtering.
func buildProperties(item models.DestinationItem, types propertyTypes) map[string]any {
	props := map[string]any{
		PropertyAssignment: map[string]any{"title": textValue(item.Assignment.Title)},
		PropertyClass:      selectValue(item.Assignment.CourseName),
		PropertyDueDate:    dateValue(item.DueDate),
		PropertyStatus:     statusValue(item.Status, types),
		PropertyURL:        urlValue(item.Assignment.URL),
		PropertyWeek:       selectValue(item.Week),
		PropertySemester:   selectValue(item.Semester),
	}
	if len(types) == 0 {
		return props
	}
	for name := range props {
		if _, ok := types[name]; !ok {
			delete(props, name)
		}
	}
	return props
}
