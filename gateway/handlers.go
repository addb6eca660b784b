package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/c360/urdf/engine"
	pkgerrors "github.com/c360/urdf/errors"
	"github.com/c360/urdf/jsonld"
	"github.com/c360/urdf/sparql"
)

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	var size int
	err := g.runtime.DoWait(func() error {
		var err error
		size, err = g.runtime.Store().Size("")
		return err
	})
	if err != nil {
		g.writeError(w, r, "health", err)
		return
	}
	g.writeOK(w, r, "health", map[string]any{"size": size})
}

func (g *Gateway) handleSize(w http.ResponseWriter, r *http.Request) {
	gid := r.URL.Query().Get("gid")
	var total, size int
	err := g.runtime.DoWait(func() error {
		var err error
		total, err = g.runtime.Store().Size("")
		if err != nil {
			return err
		}
		if gid != "" {
			size, err = g.runtime.Store().Size(gid)
		}
		return err
	})
	if err != nil {
		g.writeError(w, r, "size", err)
		return
	}
	fields := map[string]any{"totalSize": total}
	if gid != "" {
		fields["gid"] = gid
		fields["size"] = size
	}
	g.writeOK(w, r, "size", fields)
}

func (g *Gateway) handleGraph(w http.ResponseWriter, r *http.Request) {
	gid := r.URL.Query().Get("gid")
	if gid == "" {
		g.writeError(w, r, "graph", pkgerrors.WrapContract(
			fmt.Errorf("missing gid parameter"), "gateway", "handleGraph", "read query"))
		return
	}
	var nodes []map[string]any
	err := g.runtime.DoWait(func() error {
		var err error
		nodes, err = g.runtime.Store().FindGraph(gid)
		return err
	})
	if err != nil {
		g.writeError(w, r, "graph", err)
		return
	}
	g.writeOK(w, r, "graph", map[string]any{"gid": gid, "graph": nodes})
}

func (g *Gateway) handleExport(w http.ResponseWriter, r *http.Request) {
	gid := r.URL.Query().Get("gid")
	if gid == "" {
		g.writeError(w, r, "graph", pkgerrors.WrapContract(
			fmt.Errorf("missing gid parameter"), "gateway", "handleExport", "read query"))
		return
	}
	var nodes []map[string]any
	err := g.runtime.DoWait(func() error {
		var err error
		nodes, err = g.runtime.Store().FindGraph(gid)
		return err
	})
	if err != nil {
		g.writeError(w, r, "graph", err)
		return
	}
	doc := jsonld.Dataset{jsonld.NewGraphObject(gid, nodes)}
	w.Header().Set("Content-Type", "application/ld+json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", url.QueryEscape(gid)+".jsonld"))
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		g.logger.Debug("export write failed", "error", err)
	}
	g.metrics.HTTPRequests.WithLabelValues(r.URL.Path, "ok").Inc()
	g.publish("graph", r, map[string]any{"ok": true, "gid": gid, "nodes": len(nodes)})
}

func (g *Gateway) handleNode(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	gid := r.URL.Query().Get("gid")
	if id == "" {
		g.writeError(w, r, "node", pkgerrors.WrapContract(
			fmt.Errorf("missing id parameter"), "gateway", "handleNode", "read query"))
		return
	}
	var node map[string]any
	err := g.runtime.DoWait(func() error {
		var err error
		node, err = g.runtime.Store().Find(id, gid)
		return err
	})
	if err != nil {
		g.writeError(w, r, "node", err)
		return
	}
	g.writeOK(w, r, "node", map[string]any{"id": id, "gid": gid, "node": node})
}

func (g *Gateway) handleClear(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GID string `json:"gid"`
	}
	if err := readBody(r, &body); err != nil {
		g.writeError(w, r, "clear", err)
		return
	}
	_ = g.runtime.DoWait(func() error {
		if body.GID == "" {
			g.runtime.Store().ClearAll()
		} else {
			g.runtime.Store().Clear(body.GID)
		}
		return nil
	})
	g.metrics.StoreClears.Inc()
	fields := map[string]any{}
	if body.GID != "" {
		fields["gid"] = body.GID
	}
	g.writeOK(w, r, "clear", fields)
}

func (g *Gateway) handleLoad(w http.ResponseWriter, r *http.Request) {
	var doc any
	if err := readBody(r, &doc); err != nil {
		g.writeError(w, r, "load", err)
		return
	}
	ds, err := engine.DatasetFor(doc, "")
	if err != nil {
		g.writeError(w, r, "load", err)
		return
	}
	var size int
	err = g.runtime.DoWait(func() error {
		if err := g.runtime.Store().Load(ds); err != nil {
			return err
		}
		var err error
		size, err = g.runtime.Store().Size("")
		return err
	})
	if err != nil {
		g.writeError(w, r, "load", err)
		return
	}
	g.metrics.StoreLoads.Inc()
	g.writeOK(w, r, "load", map[string]any{"size": size})
}

func (g *Gateway) handleLoadFile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Doc any `json:"doc"`
	}
	if err := readBody(r, &body); err != nil {
		g.writeError(w, r, "loadFile", err)
		return
	}
	gid, ok := loadFileGraphID(body.Doc)
	if !ok {
		g.writeError(w, r, "loadFile", pkgerrors.WrapContract(
			pkgerrors.ErrMissingID, "gateway", "handleLoadFile", "read document"))
		return
	}
	ds, err := engine.DatasetFor(body.Doc, "")
	if err != nil {
		g.writeError(w, r, "loadFile", err)
		return
	}
	var size, total int
	err = g.runtime.DoWait(func() error {
		if err := g.runtime.Store().Load(ds); err != nil {
			return err
		}
		var err error
		size, err = g.runtime.Store().Size(gid)
		if err != nil {
			return err
		}
		total, err = g.runtime.Store().Size("")
		return err
	})
	if err != nil {
		g.writeError(w, r, "loadFile", err)
		return
	}
	g.metrics.StoreLoads.Inc()
	g.writeOK(w, r, "loadFile", map[string]any{
		"gid":       gid,
		"size":      size,
		"totalSize": total,
	})
}

// loadFileGraphID enforces the loadFile contract: the document (or its
// first graph object) must carry an @id naming the target graph.
func loadFileGraphID(doc any) (string, bool) {
	switch t := doc.(type) {
	case map[string]any:
		return jsonld.GraphID(t)
	case []any:
		if len(t) == 0 {
			return "", false
		}
		if m, ok := t[0].(map[string]any); ok {
			return jsonld.GraphID(m)
		}
	}
	return "", false
}

func (g *Gateway) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SPARQL string `json:"sparql"`
	}
	if err := readBody(r, &body); err != nil {
		g.writeError(w, r, "query", err)
		return
	}
	if body.SPARQL == "" {
		g.writeError(w, r, "query", pkgerrors.WrapContract(
			fmt.Errorf("missing sparql field"), "gateway", "handleQuery", "read request"))
		return
	}
	var res *sparql.Result
	err := g.runtime.DoWait(func() error {
		var err error
		res, err = g.runtime.Store().Query(r.Context(), body.SPARQL)
		return err
	})
	g.metrics.StoreQueries.Inc()
	if err != nil {
		g.metrics.QueryFailures.Inc()
		g.writeError(w, r, "query", err)
		return
	}
	if res.Type == sparql.TypeAsk {
		g.writeOK(w, r, "query", map[string]any{"type": string(res.Type), "result": res.Boolean})
		return
	}
	g.writeOK(w, r, "query", map[string]any{"type": string(res.Type), "results": res.Bindings})
}

func (g *Gateway) handleZurl(w http.ResponseWriter, r *http.Request) {
	iris := g.runtime.Store().Dictionary().IRIs()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(iris); err != nil {
		g.logger.Debug("zurl write failed", "error", err)
	}
	g.metrics.HTTPRequests.WithLabelValues(r.URL.Path, "ok").Inc()
}
