package functions

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/metahuman-os/workflow-memory/pkg/logging"
)

// Manager wires the whole workflow library together from one Config: store,
// learning gate, retriever, maintainer and journal. The execution engine
// talks to this facade; the components stay usable on their own.
type Manager struct {
	config     Config
	store      *Store
	gate       *LearningGate
	retriever  *Retriever
	maintainer *Maintainer
	journal    *Journal

	// Background maintenance
	done      chan struct{}
	wg        sync.WaitGroup
	loopOnce  sync.Once
	closeOnce sync.Once

	// Metrics
	functionsLearned  atomic.Int64
	matchesReinforced atomic.Int64
	rejections        atomic.Int64
	maintenancePasses atomic.Int64
}

// NewManager creates a manager with the given configuration. The semantic
// index may be nil when the host never retrieves.
func NewManager(cfg Config, index SemanticIndex) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := NewStore(cfg.BaseDir)
	if err != nil {
		return nil, err
	}
	store.WithLockTimeout(cfg.LockTimeout.Std())

	var journal *Journal
	if cfg.JournalPath != "" {
		journal, err = OpenJournal(cfg.JournalPath)
		if err != nil {
			return nil, err
		}
	}

	m := &Manager{
		config:     cfg,
		store:      store,
		gate:       NewLearningGate(store, cfg).WithJournal(journal),
		retriever:  NewRetriever(store, index, cfg),
		maintainer: NewMaintainer(store, cfg).WithJournal(journal),
		journal:    journal,
		done:       make(chan struct{}),
	}

	return m, nil
}

// Store exposes the underlying function store for the administrative layer.
func (m *Manager) Store() *Store {
	return m.store
}

// Journal exposes the observability journal, or nil when disabled.
func (m *Manager) Journal() *Journal {
	return m.journal
}

// LearnFromExecution runs the learning gate at the tail of a completed
// execution.
func (m *Manager) LearnFromExecution(ctx context.Context, goalText string, steps []Step, successRate float64) (LearnResult, error) {
	result, err := m.gate.DetectAndLearn(ctx, goalText, steps, successRate)
	if err != nil {
		return result, err
	}

	switch {
	case result.Learned:
		m.functionsLearned.Add(1)
	case result.MatchedExisting:
		m.matchesReinforced.Add(1)
	default:
		m.rejections.Add(1)
	}
	return result, nil
}

// RecordUsage reports one use of a retrieved function back to the library.
func (m *Manager) RecordUsage(ctx context.Context, id string, success bool) error {
	return m.gate.RecordUsage(ctx, id, success)
}

// Retrieve returns functions relevant to the query for pre-planning.
func (m *Manager) Retrieve(ctx context.Context, query string, opts *RetrieveOptions) ([]RetrievedFunction, error) {
	return m.retriever.Retrieve(ctx, query, opts)
}

// RetrieveGuides retrieves and renders matching workflows as prompt-ready
// guide text.
func (m *Manager) RetrieveGuides(ctx context.Context, query string, opts *RetrieveOptions) (string, error) {
	matches, err := m.retriever.Retrieve(ctx, query, opts)
	if err != nil {
		return "", err
	}
	return FormatAsGuides(matches), nil
}

// Maintain triggers one consolidation + cleanup pass.
func (m *Manager) Maintain(ctx context.Context, dryRun bool) (MaintenanceReport, error) {
	report, err := m.maintainer.Maintain(ctx, dryRun)
	if err == nil && !dryRun {
		m.maintenancePasses.Add(1)
	}
	return report, err
}

// StartMaintenanceLoop runs periodic maintenance in the background when the
// config enables it. Safe to call once; Close stops the loop.
func (m *Manager) StartMaintenanceLoop() {
	interval := m.config.MaintenanceInterval.Std()
	if interval <= 0 {
		return
	}

	m.loopOnce.Do(func() {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-m.done:
					return
				case <-ticker.C:
					ctx := context.Background()
					if _, err := m.Maintain(ctx, false); err != nil {
						logging.GetLogger().Error(ctx, "background maintenance failed: %v", err)
					}
				}
			}
		}()
	})
}

// Metrics returns counters for the host's observability surface.
func (m *Manager) Metrics() map[string]int64 {
	return map[string]int64{
		"functions_learned":  m.functionsLearned.Load(),
		"matches_reinforced": m.matchesReinforced.Load(),
		"rejections":         m.rejections.Load(),
		"maintenance_passes": m.maintenancePasses.Load(),
	}
}

// Close stops background work and releases the journal.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
		err = m.journal.Close()
	})
	return err
}
