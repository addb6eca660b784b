package engine

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/c360/urdf/config"
	"github.com/c360/urdf/dictionary"
	"github.com/c360/urdf/events"
	"github.com/c360/urdf/hostapi"
	"github.com/c360/urdf/metric"
	"github.com/c360/urdf/sparql"
	"github.com/c360/urdf/store"
)

func TestWatcherReloadsRulesFile(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.jsonld")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`[]`), 0o644))

	admin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(admin.Close)

	cfg := config.Default()
	cfg.AdminBaseURL = admin.URL
	cfg.DictionaryPath = filepath.Join(dir, "zurl.json")
	cfg.OntologyPath = filepath.Join(dir, "ontology.jsonld")
	cfg.RulesPath = rulesPath
	cfg.WatchFiles = true
	cfg.ReadyAttempts = 1
	cfg.ReadyInterval = time.Millisecond
	cfg.Debounce = 20 * time.Millisecond
	require.NoError(t, cfg.Validate())

	d := dictionary.New(nil)
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

	rule := `[{
		"@id": "urn:rule1",
		"@type": ["urn:nrua:Rule"],
		"https://schema.org/text": [{"@value": "SELECT ?s ?p ?o WHERE { ?s <urn:p> ?o . ?s <urn:q> ?p }"}]
	}]`
	require.NoError(t, os.WriteFile(rulesPath, []byte(rule), 0o644))

	require.Eventually(t, func() bool {
		var size int
		_ = r.DoWait(func() error {
			var err error
			size, err = st.Size(cfg.RulesGraph)
			return err
		})
		return size > 0
	}, 3*time.Second, 20*time.Millisecond, "rules graph reloads after the file changes")
}
