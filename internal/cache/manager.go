package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oversightlabs/oversight/internal/types"
)

// Default sizing for the two namespaces. Embeddings are stable for the
// life of the content, so they get a long TTL and a large capacity.
// Analysis results reflect in-progress review state and go stale fast.
const (
	DefaultEmbeddingTTL      = 24 * time.Hour
	DefaultEmbeddingCapacity = 1000
	DefaultAnalysisTTL       = 5 * time.Minute
	DefaultAnalysisCapacity  = 200

	// contentHashLen is the number of hex characters kept from the
	// SHA-256 digest. Collision resistance here is for cache keying,
	// not integrity.
	contentHashLen = 16
)

// ManagerConfig holds per-namespace TTLs and capacities.
type ManagerConfig struct {
	EmbeddingTTL      time.Duration
	EmbeddingCapacity int
	AnalysisTTL       time.Duration
	AnalysisCapacity  int
}

// DefaultManagerConfig returns the default cache sizing.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		EmbeddingTTL:      DefaultEmbeddingTTL,
		EmbeddingCapacity: DefaultEmbeddingCapacity,
		AnalysisTTL:       DefaultAnalysisTTL,
		AnalysisCapacity:  DefaultAnalysisCapacity,
	}
}

// Manager exposes two logically distinct caches over content-derived
// keys: one for embeddings (keyed purely by content hash) and one for
// analysis results (keyed by path plus content hash). The namespaces
// never share key space or counters.
type Manager struct {
	embeddings *Cache[[]float64]
	analyses   *Cache[*types.AnalysisResult]
}

// NewManager creates a manager with the given sizing. Zero values fall
// back to defaults.
func NewManager(cfg ManagerConfig) *Manager {
	def := DefaultManagerConfig()
	if cfg.EmbeddingTTL == 0 {
		cfg.EmbeddingTTL = def.EmbeddingTTL
	}
	if cfg.EmbeddingCapacity == 0 {
		cfg.EmbeddingCapacity = def.EmbeddingCapacity
	}
	if cfg.AnalysisTTL == 0 {
		cfg.AnalysisTTL = def.AnalysisTTL
	}
	if cfg.AnalysisCapacity == 0 {
		cfg.AnalysisCapacity = def.AnalysisCapacity
	}
	return &Manager{
		embeddings: New[[]float64](cfg.EmbeddingCapacity, cfg.EmbeddingTTL),
		analyses:   New[*types.AnalysisResult](cfg.AnalysisCapacity, cfg.AnalysisTTL),
	}
}

// ContentHash returns a deterministic short digest of content. Identical
// content always maps to the same key regardless of when or where it was
// submitted.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:contentHashLen]
}

// GetCachedEmbedding returns the embedding cached for content, if any.
func (m *Manager) GetCachedEmbedding(content string) ([]float64, bool) {
	return m.embeddings.Get(ContentHash(content))
}

// CacheEmbedding stores the embedding computed for content.
func (m *Manager) CacheEmbedding(content string, vector []float64) {
	m.embeddings.Set(ContentHash(content), vector)
}

// analysisKey joins path and content hash so identical content at
// different paths is not confused, and changed content at the same path
// is not served stale.
func analysisKey(path, content string) string {
	return path + ":" + ContentHash(content)
}

// GetCachedAnalysis returns the analysis result cached for the given
// path and content, if any.
func (m *Manager) GetCachedAnalysis(path, content string) (*types.AnalysisResult, bool) {
	return m.analyses.Get(analysisKey(path, content))
}

// CacheAnalysis stores an analysis result for the given path and content.
func (m *Manager) CacheAnalysis(path, content string, result *types.AnalysisResult) {
	m.analyses.Set(analysisKey(path, content), result)
}

// InvalidateFile removes every analysis entry for path and returns the
// number removed. Embeddings are content-addressed, not path-addressed,
// so a rename does not invalidate them.
func (m *Manager) InvalidateFile(path string) int {
	return m.analyses.InvalidatePrefix(path + ":")
}

// CleanupExpired sweeps both namespaces and returns total removed.
func (m *Manager) CleanupExpired() int {
	return m.embeddings.CleanupExpired() + m.analyses.CleanupExpired()
}

// Clear empties both namespaces and returns total removed.
func (m *Manager) Clear() int {
	return m.embeddings.Clear() + m.analyses.Clear()
}

// EmbeddingStats returns counters for the embedding namespace.
func (m *Manager) EmbeddingStats() Stats { return m.embeddings.Stats() }

// AnalysisStats returns counters for the analysis namespace.
func (m *Manager) AnalysisStats() Stats { return m.analyses.Stats() }
