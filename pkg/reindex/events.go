// Package reindex keeps search state fresh after artifact changes. Events
// describe what happened to an artifact; the orchestrator turns them into
// background tasks that are serial per artifact and parallel across
// artifacts.
package reindex

import "context"

// Event kinds.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Artifact field names carried in Updated events.
const (
	FieldContent  = "content"
	FieldSummary  = "summary"
	FieldText     = "text"
	FieldFileName = "file_name"
	FieldVendor   = "vendor"
	FieldKeywords = "keywords"
	FieldEntities = "entities"
)

// Event is one reindex request for a single artifact.
type Event struct {
	Kind       string `json:"kind"`
	ArtifactID string `json:"artifactId"`
	TenantID   string `json:"tenantId"`

	// ChangedFields scopes an Updated event. Empty means unknown, which
	// runs the full update set.
	ChangedFields []string `json:"changedFields,omitempty"`

	// EmbeddingsFresh tells a Created task that the caller already embedded
	// the artifact and its chunks, so embedding regeneration can be skipped.
	EmbeddingsFresh bool `json:"embeddingsFresh,omitempty"`
}

// Publisher delivers events to the orchestrator, either in process or
// through a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
