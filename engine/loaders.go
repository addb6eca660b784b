package engine

import (
	"context"
	"encoding/json"
	"os"

	"github.com/c360/urdf/dictionary"
	"github.com/c360/urdf/errors"
	"github.com/c360/urdf/jsonld"
	"github.com/c360/urdf/translator"
)

// LoadDictionary reads and parses the ZURL file. A missing file yields an
// empty dictionary: compression then passes everything through, which is
// a valid degraded mode. A malformed file is a ConfigError.
func LoadDictionary(path string) (*dictionary.Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return dictionary.New(nil), nil
		}
		return nil, errors.WrapConfig(err, "engine", "LoadDictionary", "read "+path)
	}
	return dictionary.Parse(data)
}

// startupLoad runs the fixed loader order: ontology then rules. Each
// failure is confined to its own graph.
func (r *Runtime) startupLoad() {
	loaded := map[string]int{}
	for _, in := range []struct {
		path string
		gid  string
	}{
		{r.cfg.OntologyPath, r.cfg.OntologyGraph},
		{r.cfg.RulesPath, r.cfg.RulesGraph},
	} {
		if err := r.loadGraphFile(in.path, in.gid); err != nil {
			r.logger.Warn("startup graph load failed", "path", in.path, "gid", in.gid, "error", err)
			continue
		}
		if n, err := r.store.Size(in.gid); err == nil {
			loaded[in.gid] = n
		}
	}
	r.updateSizeMetrics()
	r.events.Publish("startupLoad", map[string]any{
		"ok":     true,
		"graphs": loaded,
	})
}

// loadGraphFile reads a JSON-LD file and loads it into a named graph. The
// file may hold a dataset (array of graph objects), a single graph
// object, a node array, or a single node; everything but a dataset is
// loaded into gid.
func (r *Runtime) loadGraphFile(path, gid string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WrapConfig(err, "engine", "loadGraphFile", "read "+path)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.WrapConfig(err, "engine", "loadGraphFile", "decode "+path)
	}
	ds, err := DatasetFor(doc, gid)
	if err != nil {
		return err
	}
	r.store.Clear(gid)
	return r.store.Load(ds)
}

// DatasetFor normalizes the accepted document shapes into a dataset
// targeted at gid. Graph objects keep their own @id only when the caller
// passes gid == ""; bare nodes without a target land in the default graph.
func DatasetFor(doc any, gid string) (jsonld.Dataset, error) {
	target := gid
	if target == "" {
		target = jsonld.DefaultGraph
	}
	switch t := doc.(type) {
	case []any:
		// Array of graph objects, or array of nodes.
		if len(t) > 0 {
			if first, ok := t[0].(map[string]any); ok {
				if _, isGraph := first[jsonld.KeyGraph]; isGraph {
					ds := make(jsonld.Dataset, 0, len(t))
					for _, item := range t {
						obj, ok := item.(map[string]any)
						if !ok {
							continue
						}
						if gid != "" {
							obj = retarget(obj, gid)
						}
						ds = append(ds, obj)
					}
					return ds, nil
				}
			}
		}
		nodes := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if n, ok := item.(map[string]any); ok {
				nodes = append(nodes, n)
			}
		}
		return jsonld.Dataset{jsonld.NewGraphObject(target, nodes)}, nil
	case map[string]any:
		if _, isGraph := t[jsonld.KeyGraph]; isGraph {
			if gid != "" {
				t = retarget(t, gid)
			}
			return jsonld.Dataset{t}, nil
		}
		return jsonld.Dataset{jsonld.NewGraphObject(target, []map[string]any{t})}, nil
	default:
		return nil, errors.WrapContract(
			errors.ErrMissingID, "engine", "DatasetFor", "read document")
	}
}

func retarget(obj map[string]any, gid string) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	out[jsonld.KeyID] = gid
	return out
}

// environmentLoad waits for the host admin surface and writes the
// environment graph once. Exhausting the attempt budget abandons the
// load; the runtime continues without an environment graph.
func (r *Runtime) environmentLoad(ctx context.Context) {
	if err := r.host.WaitReady(ctx, r.cfg.ReadyAttempts, r.cfg.ReadyInterval); err != nil {
		r.logger.Warn("environment load abandoned", "error", err)
		return
	}
	diagnostics, err := r.host.Diagnostics(ctx)
	if err != nil {
		r.logger.Warn("diagnostics fetch failed", "error", err)
	}
	settings, err := r.host.Settings(ctx)
	if err != nil {
		r.logger.Warn("settings fetch failed", "error", err)
	}
	nodes, err := translator.Environment(r.cfg.InstanceID, diagnostics, settings)
	if err != nil {
		r.logger.Warn("environment encoding failed", "error", err)
		return
	}
	r.Do(func() {
		if err := r.store.LoadGraph(r.cfg.EnvironmentGraph, nodes); err != nil {
			r.logger.Warn("environment load failed", "error", err)
			return
		}
		size, _ := r.store.Size(r.cfg.EnvironmentGraph)
		r.updateSizeMetrics()
		r.events.Publish("envLoad", map[string]any{
			"ok":   true,
			"gid":  r.cfg.EnvironmentGraph,
			"size": size,
		})
	})
}

// ReloadInputFile reloads the graph backed by a watched input file and
// re-runs inference. The dictionary is fixed at startup; a dictionary
// file change only logs a hint.
func (r *Runtime) ReloadInputFile(path string) {
	switch path {
	case r.cfg.DictionaryPath:
		r.logger.Info("dictionary file changed; restart to apply")
		return
	case r.cfg.OntologyPath:
		r.Do(func() {
			if err := r.loadGraphFile(path, r.cfg.OntologyGraph); err != nil {
				r.logger.Warn("ontology reload failed", "error", err)
				return
			}
			r.reloadCycleAfterFileChange("file:" + path)
		})
	case r.cfg.RulesPath:
		r.Do(func() {
			if err := r.loadGraphFile(path, r.cfg.RulesGraph); err != nil {
				r.logger.Warn("rules reload failed", "error", err)
				return
			}
			r.reloadCycleAfterFileChange("file:" + path)
		})
	}
}

func (r *Runtime) reloadCycleAfterFileChange(reason string) {
	ctx := context.Background()
	if _, err := r.orch.Run(ctx, reason); err != nil {
		r.metrics.InferenceErrors.Inc()
		r.logger.Error("inference failed", "reason", reason, "error", err)
		return
	}
	r.metrics.InferenceRuns.Inc()
	r.updateSizeMetrics()
}
