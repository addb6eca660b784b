package engine

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/urdf/config"
	"github.com/c360/urdf/dictionary"
	"github.com/c360/urdf/events"
	"github.com/c360/urdf/hostapi"
	"github.com/c360/urdf/metric"
	"github.com/c360/urdf/sparql"
	"github.com/c360/urdf/store"
)

func newTestRuntime(t *testing.T, flowFetches *atomic.Int32) (*Runtime, *store.Store) {
	t.Helper()

	admin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/flows" {
			if flowFetches != nil {
				flowFetches.Add(1)
			}
			_, _ = w.Write([]byte(`[
				{"id":"tab1","type":"tab","label":"Flow 1"},
				{"id":"n1","type":"inject","z":"tab1","wires":[["n2"]]},
				{"id":"n2","type":"debug","z":"tab1","wires":[]}
			]`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(admin.Close)

	cfg := config.Default()
	cfg.AdminBaseURL = admin.URL
	cfg.DictionaryPath = "testdata/none.json"
	cfg.OntologyPath = "testdata/none.jsonld"
	cfg.RulesPath = "testdata/none.jsonld"
	cfg.WatchFiles = false
	cfg.ReadyAttempts = 1
	cfg.ReadyInterval = time.Millisecond
	cfg.Debounce = 50 * time.Millisecond
	require.NoError(t, cfg.Validate())

	d := dictionary.New([]string{"http://www.w3.org/1999/02/22-rdf-syntax-ns#type"})
	st := store.New(d, sparql.NewSubsetEvaluator(d))

	r := New(Options{
		Config:  cfg,
		Store:   st,
		Host:    hostapi.NewClient(cfg.AdminBaseURL, slog.Default()),
		Events:  events.NewPublisher(nil, slog.Default()),
		Metrics: metric.New(),
		Logger:  slog.Default(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, r.Start(ctx, nil))
	return r, st
}

// A burst of flow events coalesces into exactly one reload cycle; a later
// event opens a second cycle.
func TestRuntimeDebouncedReload(t *testing.T) {
	var fetches atomic.Int32
	r, st := newTestRuntime(t, &fetches)

	for i := 0; i < 5; i++ {
		r.Trigger("flows:updated")
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return fetches.Load() == 1
	}, 2*time.Second, 10*time.Millisecond, "one burst, one reload")

	require.Eventually(t, func() bool {
		var ok bool
		_ = r.DoWait(func() error {
			ok = st.HasGraph(r.Config().ApplicationGraph)
			return nil
		})
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	r.Trigger("flows:deployed")
	require.Eventually(t, func() bool {
		return fetches.Load() == 2
	}, 2*time.Second, 10*time.Millisecond, "next event after the window reloads again")
}

func TestRuntimeReloadBuildsApplicationGraph(t *testing.T) {
	r, st := newTestRuntime(t, nil)

	r.Trigger("flows:started")

	require.Eventually(t, func() bool {
		var size int
		_ = r.DoWait(func() error {
			var err error
			size, err = st.Size(r.Config().ApplicationGraph)
			return err
		})
		return size > 0
	}, 2*time.Second, 10*time.Millisecond)

	var node map[string]any
	err := r.DoWait(func() error {
		var err error
		node, err = st.Find("urn:nrua:ftab1", r.Config().ApplicationGraph)
		return err
	})
	require.NoError(t, err)
	assert.Contains(t, node, "https://schema.org/keywords")
}

func TestRuntimeReloadReplacesApplicationGraph(t *testing.T) {
	r, st := newTestRuntime(t, nil)

	r.Trigger("first")
	require.Eventually(t, func() bool {
		var ok bool
		_ = r.DoWait(func() error {
			ok = st.HasGraph(r.Config().ApplicationGraph)
			return nil
		})
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	var sizeA int
	require.NoError(t, r.DoWait(func() error {
		var err error
		sizeA, err = st.Size(r.Config().ApplicationGraph)
		return err
	}))

	r.Trigger("second")
	time.Sleep(150 * time.Millisecond)

	var sizeB int
	require.NoError(t, r.DoWait(func() error {
		var err error
		sizeB, err = st.Size(r.Config().ApplicationGraph)
		return err
	}))
	assert.Equal(t, sizeA, sizeB, "reload replaces, never accumulates")
}
