package chunk

import "fmt"

// Category classifies the source a chunk was indexed from.
type Category string

// Recognized source categories.
const (
	ArchitectureDocs   Category = "architecture_docs"
	LearningResources  Category = "learning_resources"
	Intrinsics         Category = "intrinsics"
	CompatibilityNotes Category = "compatibility_notes"
)

// Categories lists all recognized categories in a stable order.
func Categories() []Category {
	return []Category{ArchitectureDocs, LearningResources, Intrinsics, CompatibilityNotes}
}

// IsValid reports whether c is a recognized category.
func (c Category) IsValid() bool {
	switch c {
	case ArchitectureDocs, LearningResources, Intrinsics, CompatibilityNotes:
		return true
	}
	return false
}

// ParseCategory converts a raw string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
