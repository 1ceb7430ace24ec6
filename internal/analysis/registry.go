package analysis

import "sync"

var (
	registryMu sync.Mutex
	registry   = make(map[string]*Orchestrator)
)

// ForProject returns the shared orchestrator for a project root,
// constructing it on first use with cfg. Later calls for the same root
// ignore cfg and return the existing instance. Callers that want an
// isolated instance use New directly.
func ForProject(cfg Config) *Orchestrator {
	registryMu.Lock()
	defer registryMu.Unlock()

	if o, ok := registry[cfg.ProjectRoot]; ok {
		return o
	}
	o := New(cfg)
	registry[cfg.ProjectRoot] = o
	return o
}
