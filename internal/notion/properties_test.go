package notion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSchemaAlwaysIncludesRequired(t *testing.T) {
	schema := BuildSchema(nil)
	assert.Len(t, schema, len(RequiredProperties))
	for _, name := range RequiredProperties {
		assert.Contains(t, schema, name)
	}

	full := BuildSchema(CatalogProperties())
	assert.Len(t, full, 7)
}

func TestKnownProperty(t *testing.T) {
	assert.True(t, KnownProperty(PropertyWeek))
	assert.False(t, KnownProperty("Priority"))
}

func TestBuildPropertiesWithoutSchema(t *testing.T) {
	item := sampleItem()
	props := buildProperties(item, nil)

	assert.Len(t, props, 7)
	assert.Equal(t, map[string]any{"status": map[string]any{"name": "Done"}}, props[PropertyStatus])
	assert.Equal(t, map[string]any{"select": nil}, props[PropertyWeek])
	assert.Equal(t, map[string]any{"select": map[string]any{"name": "AY2024/2025 Semester 1"}}, props[PropertySemester])
	assert.Equal(t, map[string]any{"date": map[string]any{"start": "2024-09-15T23:59:00+08:00"}}, props[PropertyDueDate])
}

func TestBuildPropertiesNullsMissingValues(t *testing.T) {
	item := sampleItem()
	item.DueDate = ""
	item.Assignment.URL = ""
	props := buildProperties(item, propertyTypes{PropertyDueDate: "date", PropertyURL: "url", PropertyStatus: "status"})

	assert.Len(t, props, 3)
	assert.Equal(t, map[string]any{"date": nil}, props[PropertyDueDate])
	assert.Equal(t, map[string]any{"url": nil}, props[PropertyURL])
	assert.Equal(t, map[string]any{"status": map[string]any{"name": "Done"}}, props[PropertyStatus])
}
