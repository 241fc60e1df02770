package notion

const (
	PropertyAssignment = "Assignment"
	PropertyClass      = "Class"
	PropertyDueDate    = "Due Date"
	PropertyStatus     = "Status"
	PropertyURL        = "URL"
	PropertyWeek       = "Week"
	PropertySemester   = "Semester"

	// DatabaseTitle names databases created by the sync.
	DatabaseTitle = "Canvas Assignments"
	databaseIcon  = "🔖"
)

// RequiredProperties are always present on created databases.
var RequiredProperties = []string{PropertyAssignment, PropertyClass, PropertyDueDate}

// catalogOrder lists every property the sync knows how to create, in display order.
var catalogOrder = []string{
	PropertyAssignment,
	PropertyClass,
	PropertyDueDate,
	PropertyStatus,
	PropertyURL,
	PropertyWeek,
	PropertySemester,
}

type selectOption struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func propertyDefinition(name string) (map[string]any, bool) {
	switch name {
	case PropertyAssignment:
		return map[string]any{"title": map[string]any{}}, true
	case PropertyClass, PropertyWeek, PropertySemester:
		return map[string]any{"select": map[string]any{"options": []selectOption{}}}, true
	case PropertyDueDate:
		return map[string]any{"date": map[string]any{}}, true
	case PropertyStatus:
		return map[string]any{"select": map[string]any{"options": []selectOption{
			{Name: "Not started", Color: "red"},
			{Name: "In progress", Color: "yellow"},
			{Name: "Done", Color: "green"},
		}}}, true
	case PropertyURL:
		return map[string]any{"url": map[string]any{}}, true
	default:
		return nil, false
	}
}

// KnownProperty reports whether name is part of the property catalog.
func KnownProperty(name string) bool {
	_, ok := propertyDefinition(name)
	return ok
}

// CatalogProperties returns every known property name in display order.
func CatalogProperties() []string {
	return append([]string(nil), catalogOrder...)
}

// BuildSchema returns the creation schema for the required properties plus every known
// name in requested. Unknown names are dropped.
func BuildSchema(requested []string) map[string]any {
	schema := make(map[string]any, len(catalogOrder))
	for _, name := range RequiredProperties {
		def, _ := propertyDefinition(name)
		schema[name] = def
	}
	for _, name := range requested {
		if _, exists := schema[name]; exists {
			continue
		}
		if def, ok := propertyDefinition(name); ok {
			schema[name] = def
		}
	}
	return schema
}
