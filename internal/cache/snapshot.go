package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oversightlabs/oversight/internal/types"
)

// snapshotVersion is the current on-disk format version. Unrecognized
// versions are rejected on load.
const snapshotVersion = 1

// snapshotEntry is one persisted cache entry. TTL is stored in whole
// seconds; the remaining TTL is recomputed from CreatedAt on load.
type snapshotEntry struct {
	Value      json.RawMessage `json:"value"`
	CreatedAt  time.Time       `json:"created_at"`
	TTLSeconds int64           `json:"ttl"`
}

// snapshotDoc is the single versioned document holding both namespaces.
type snapshotDoc struct {
	Version    int                      `json:"version"`
	SavedAt    time.Time                `json:"saved_at"`
	Embeddings map[string]snapshotEntry `json:"embeddings"`
	Analyses   map[string]snapshotEntry `json:"analyses"`
}

// SaveToDisk writes every non-expired entry from both namespaces to a
// single JSON document at path. Failures are non-fatal to the cache: the
// error is returned and in-memory state is untouched.
func (m *Manager) SaveToDisk(path string) error {
	doc := snapshotDoc{
		Version:    snapshotVersion,
		SavedAt:    time.Now(),
		Embeddings: make(map[string]snapshotEntry),
		Analyses:   make(map[string]snapshotEntry),
	}

	for key, entry := range m.embeddings.snapshot() {
		raw, err := json.Marshal(entry.Value)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding %q: %w", key, err)
		}
		doc.Embeddings[key] = snapshotEntry{
			Value:      raw,
			CreatedAt:  entry.CreatedAt,
			TTLSeconds: int64(entry.TTL.Seconds()),
		}
	}
	for key, entry := range m.analyses.snapshot() {
		raw, err := json.Marshal(entry.Value)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis %q: %w", key, err)
		}
		doc.Analyses[key] = snapshotEntry{
			Value:      raw,
			CreatedAt:  entry.CreatedAt,
			TTLSeconds: int64(entry.TTL.Seconds()),
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache snapshot: %w", err)
	}
	return nil
}

// LoadFromDisk restores entries from a snapshot written by SaveToDisk.
// Each entry's remaining TTL is recomputed from elapsed wall-clock time
// since it was created; entries whose remaining TTL is non-positive are
// dropped rather than reinserted. A malformed document, version mismatch,
// or I/O error returns an error and leaves the in-memory caches untouched.
func (m *Manager) LoadFromDisk(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read cache snapshot: %w", err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse cache snapshot: %w", err)
	}
	if doc.Version != snapshotVersion {
		return fmt.Errorf("unsupported cache snapshot version %d (want %d)", doc.Version, snapshotVersion)
	}

	// Decode everything before touching the caches so a malformed entry
	// cannot leave a partial restore behind.
	now := time.Now()

	type embeddingRestore struct {
		key       string
		value     []float64
		remaining time.Duration
	}
	type analysisRestore struct {
		key       string
		value     *types.AnalysisResult
		remaining time.Duration
	}

	var embeddings []embeddingRestore
	for key, entry := range doc.Embeddings {
		remaining := time.Duration(entry.TTLSeconds)*time.Second - now.Sub(entry.CreatedAt)
		if remaining <= 0 {
			continue
		}
		var vector []float64
		if err := json.Unmarshal(entry.Value, &vector); err != nil {
			return fmt.Errorf("failed to decode embedding %q: %w", key, err)
		}
		embeddings = append(embeddings, embeddingRestore{key, vector, remaining})
	}

	var analyses []analysisRestore
	for key, entry := range doc.Analyses {
		remaining := time.Duration(entry.TTLSeconds)*time.Second - now.Sub(entry.CreatedAt)
		if remaining <= 0 {
			continue
		}
		var result types.AnalysisResult
		if err := json.Unmarshal(entry.Value, &result); err != nil {
			return fmt.Errorf("failed to decode analysis %q: %w", key, err)
		}
		analyses = append(analyses, analysisRestore{key, &result, remaining})
	}

	for _, e := range embeddings {
		m.embeddings.SetTTL(e.key, e.value, e.remaining)
	}
	for _, a := range analyses {
		m.analyses.SetTTL(a.key, a.value, a.remaining)
	}
	return nil
}
