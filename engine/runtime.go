// Package engine owns the runtime task queue and the lifecycle of the
// store: startup loading, flow-event debouncing, application graph
// rebuilds, and inference cycles.
//
// The store is a single shared mutable resource. Every read and mutation
// runs on one goroutine fed by a serialized task queue; handlers and
// subscribers post closures and never touch the store directly.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360/urdf/config"
	"github.com/c360/urdf/events"
	"github.com/c360/urdf/hostapi"
	"github.com/c360/urdf/inference"
	"github.com/c360/urdf/metric"
	"github.com/c360/urdf/reason"
	"github.com/c360/urdf/store"
	"github.com/c360/urdf/translator"
)

// Runtime drives the semantic core.
type Runtime struct {
	cfg     *config.Config
	store   *store.Store
	orch    *inference.Orchestrator
	host    *hostapi.Client
	events  *events.Publisher
	metrics *metric.Metrics
	logger  *slog.Logger

	tasks    chan func()
	stopOnce sync.Once
	stopped  chan struct{}

	debouncer *Debouncer
	watcher   *Watcher
}

// Options carries the injected capabilities.
type Options struct {
	Config   *config.Config
	Store    *store.Store
	Host     *hostapi.Client
	Events   *events.Publisher
	Metrics  *metric.Metrics
	Logger   *slog.Logger
	Reasoner reason.Reasoner // nil enables SPARQL-only mode
}

// New assembles a runtime. The store must already carry its dictionary;
// the ontology, rules, environment, and application graphs are loaded by
// Start.
func New(opts Options) *Runtime {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runtime{
		cfg:     opts.Config,
		store:   opts.Store,
		host:    opts.Host,
		events:  opts.Events,
		metrics: opts.Metrics,
		logger:  logger,
		tasks:   make(chan func(), 256),
		stopped: make(chan struct{}),
	}
	r.orch = inference.New(opts.Store, opts.Reasoner, opts.Events, logger,
		opts.Config.RulesGraph, opts.Config.InferredGraph)
	r.debouncer = NewDebouncer(opts.Config.Debounce, func(reason string) {
		r.Do(func() { r.reloadCycle(reason) })
	})
	return r
}

// Do posts a task to the serialized queue. It never blocks the caller
// unless the queue is full.
func (r *Runtime) Do(fn func()) {
	select {
	case r.tasks <- fn:
	case <-r.stopped:
	}
}

// DoWait posts a task and waits for its completion, returning its error.
// This is how the gateway reads and mutates the store.
func (r *Runtime) DoWait(fn func() error) error {
	done := make(chan error, 1)
	r.Do(func() { done <- fn() })
	select {
	case err := <-done:
		return err
	case <-r.stopped:
		return context.Canceled
	}
}

// Start launches the task loop, runs the startup loaders in order, and
// wires the flow-event subscription and the file watcher.
func (r *Runtime) Start(ctx context.Context, bus events.Subscriber) error {
	go r.loop(ctx)

	// Ontology and rules load in order as the first queued task; failures
	// are per-graph and do not stop the runtime.
	r.Do(func() { r.startupLoad() })

	// The environment graph waits for the host admin surface on its own
	// goroutine and posts the load once reachable.
	go r.environmentLoad(ctx)

	if bus != nil {
		err := events.SubscribeFlowEvents(bus, func(subject string) {
			r.debouncer.Trigger(subject)
		})
		if err != nil {
			r.logger.Warn("flow event subscription failed", "error", err)
		}
	}

	if r.cfg.WatchFiles {
		w, err := NewWatcher(r, r.logger)
		if err != nil {
			r.logger.Warn("file watcher unavailable", "error", err)
		} else {
			r.watcher = w
			w.Start(ctx)
		}
	}
	return nil
}

// Stop terminates the task loop.
func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopped)
		r.debouncer.Stop()
		if r.watcher != nil {
			r.watcher.Stop()
		}
	})
}

// Store returns the store for use inside DoWait closures.
func (r *Runtime) Store() *store.Store {
	return r.store
}

// Config returns the runtime configuration.
func (r *Runtime) Config() *config.Config {
	return r.cfg
}

// Trigger requests a debounced reload cycle.
func (r *Runtime) Trigger(reason string) {
	r.debouncer.Trigger(reason)
}

// RunInference posts a synchronous inference cycle. The gateway's rules
// CRUD uses it after mutating the rules graph.
func (r *Runtime) RunInference(ctx context.Context, trigger string) error {
	return r.DoWait(func() error {
		_, err := r.orch.Run(ctx, trigger)
		r.updateSizeMetrics()
		return err
	})
}

func (r *Runtime) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.Stop()
			return
		case <-r.stopped:
			return
		case fn := <-r.tasks:
			fn()
		}
	}
}

// reloadCycle is one full change cycle: application graph replacement
// happens-before rule recomputation happens-before event publication.
func (r *Runtime) reloadCycle(reason string) {
	ctx := context.Background()
	if err := r.reloadApplication(ctx, reason); err != nil {
		r.logger.Error("application reload failed", "reason", reason, "error", err)
		return
	}
	if _, err := r.orch.Run(ctx, reason); err != nil {
		r.metrics.InferenceErrors.Inc()
		r.logger.Error("inference failed", "reason", reason, "error", err)
		return
	}
	r.metrics.InferenceRuns.Inc()
	r.updateSizeMetrics()
}

func (r *Runtime) reloadApplication(ctx context.Context, reason string) error {
	nodes, err := r.host.Flows(ctx)
	if err != nil {
		return err
	}
	appNodes, err := translator.Translate(r.cfg.InstanceID, nodes)
	if err != nil {
		return err
	}
	r.store.Clear(r.cfg.ApplicationGraph)
	if err := r.store.LoadGraph(r.cfg.ApplicationGraph, appNodes); err != nil {
		return err
	}
	size, _ := r.store.Size(r.cfg.ApplicationGraph)
	r.events.Publish("appUpdate", map[string]any{
		"ok":     true,
		"reason": reason,
		"gid":    r.cfg.ApplicationGraph,
		"size":   size,
	})
	return nil
}

func (r *Runtime) updateSizeMetrics() {
	sizes := map[string]int{}
	for _, gid := range r.store.GraphIDs() {
		if n, err := r.store.Size(gid); err == nil {
			sizes[gid] = n
		}
	}
	r.metrics.SetGraphSizes(sizes)
}
