// ABOUTME: Artifact store: resolves image-artifact ids to bytes and caches them for the current answer.
// ABOUTME: Resolution failures drop the artifact and emit an event; order of surviving artifacts is preserved.
package analyst

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Artifact is a generated image resolved to bytes, named for display in
// emission order ("plot_1.png", "plot_2.png", ...).
type Artifact struct {
	ID          string
	Bytes       []byte
	DisplayName string
}

// FileFetcher is the slice of the execution backend the store needs.
type FileFetcher interface {
	FileBytes(ctx context.Context, fileID string) ([]byte, error)
}

// ArtifactStore holds the artifacts belonging to the current answer.
// Artifacts are per-answer, never accumulated: Resolve replaces the held
// set, and Clear empties it between queries and on conversation reset.
type ArtifactStore struct {
	fetcher FileFetcher
	events  *EventEmitter

	mu        sync.Mutex
	artifacts []Artifact
}

// NewArtifactStore creates an ArtifactStore. events may be nil.
func NewArtifactStore(fetcher FileFetcher, events *EventEmitter) *ArtifactStore {
	return &ArtifactStore{fetcher: fetcher, events: events}
}

// Resolve fetches bytes for each id in order, replacing the store's held
// set. Ids that fail to resolve (or resolve to zero bytes) are silently
// dropped from the result; each drop emits an artifact_failed event. The
// surviving artifacts keep the input order.
func (s *ArtifactStore) Resolve(ctx context.Context, ids []string) []Artifact {
	resolved := make([]Artifact, 0, len(ids))

	for i, id := range ids {
		data, err := s.fetcher.FileBytes(ctx, id)
		if err != nil || len(data) == 0 {
			s.emit(EventArtifactFailed, map[string]any{
				"artifact_id": id,
				"error":       errText(err),
			})
			continue
		}

		artifact := Artifact{
			ID:          id,
			Bytes:       data,
			DisplayName: fmt.Sprintf("plot_%d.png", i+1),
		}
		resolved = append(resolved, artifact)
		s.emit(EventArtifactResolved, map[string]any{
			"artifact_id": id,
			"bytes":       len(data),
		})
	}

	s.mu.Lock()
	s.artifacts = resolved
	s.mu.Unlock()

	return resolved
}

// Current returns the artifacts held for the current answer.
func (s *ArtifactStore) Current() []Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Artifact, len(s.artifacts))
	copy(out, s.artifacts)
	return out
}

// Clear empties the held set.
func (s *ArtifactStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = nil
}

func (s *ArtifactStore) emit(kind EventKind, data map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Emit(PipelineEvent{Kind: kind, Timestamp: time.Now(), Data: data})
}

func errText(err error) string {
	if err == nil {
		return "empty file content"
	}
	return err.Error()
}
