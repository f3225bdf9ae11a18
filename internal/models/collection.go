// Package models defines the data structures shared across the AdaptEd pipeline.
package models

import "fmt"

// Collection names one of the fixed document sets served by the pipeline.
type Collection string

const (
	CollectionResources Collection = "resources"
	CollectionQuestions Collection = "questions"
	CollectionProjects  Collection = "projects"
)

// AllCollections returns every collection in a stable order.
func AllCollections() []Collection {
	return []Collection{CollectionResources, CollectionQuestions, CollectionProjects}
}

// ParseCollection validates a collection name.
func ParseCollection(s string) (Collection, error) {
	switch c := Collection(s); c {
	case CollectionResources, CollectionQuestions, CollectionProjects:
		return c, nil
	}
	return "", fmt.Errorf("unknown collection: %q", s)
}

func (c Collection) String() string { return string(c) }
