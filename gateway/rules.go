package gateway

import (
	"fmt"
	"net/http"

	"github.com/xeipuuv/gojsonschema"

	pkgerrors "github.com/c360/urdf/errors"
	"github.com/c360/urdf/jsonld"
	"github.com/c360/urdf/vocabulary"
)

// ruleSchema validates the rule resource shape before it touches the
// rules graph: an @id, an @type carrying the Rule class, and a non-empty
// schema:text array.
var ruleSchema = gojsonschema.NewStringLoader(fmt.Sprintf(`{
	"type": "object",
	"required": ["@id", "@type", %q],
	"properties": {
		"@id": {"type": "string", "minLength": 1},
		"@type": {
			"type": "array",
			"contains": {"const": %q}
		},
		%q: {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["@value"],
				"properties": {"@value": {"type": "string", "minLength": 1}}
			}
		}
	}
}`, vocabulary.SchemaText, vocabulary.ClassRule, vocabulary.SchemaText))

func validateRule(rule map[string]any) error {
	res, err := gojsonschema.Validate(ruleSchema, gojsonschema.NewGoLoader(rule))
	if err != nil {
		return pkgerrors.WrapContract(err, "gateway", "validateRule", "run schema")
	}
	if !res.Valid() {
		msg := "invalid rule resource"
		if errs := res.Errors(); len(errs) > 0 {
			msg = errs[0].String()
		}
		return pkgerrors.WrapContract(fmt.Errorf("%s", msg), "gateway", "validateRule", "check shape")
	}
	return nil
}

type ruleBody struct {
	Rule map[string]any `json:"rule"`
}

func (g *Gateway) handleRuleCreate(w http.ResponseWriter, r *http.Request) {
	var body ruleBody
	if err := readBody(r, &body); err != nil {
		g.writeError(w, r, "rulesCreate", err)
		return
	}
	if err := validateRule(body.Rule); err != nil {
		g.writeError(w, r, "rulesCreate", err)
		return
	}
	id, _ := jsonld.NodeID(body.Rule)
	rulesGraph := g.runtime.Config().RulesGraph
	err := g.runtime.DoWait(func() error {
		if _, err := g.runtime.Store().Find(id, rulesGraph); err == nil {
			return pkgerrors.WrapContract(
				fmt.Errorf("%w: %s", pkgerrors.ErrRuleExists, id),
				"gateway", "handleRuleCreate", "check existing")
		}
		return g.runtime.Store().LoadGraph(rulesGraph, []map[string]any{body.Rule})
	})
	if err != nil {
		g.writeError(w, r, "rulesCreate", err)
		return
	}
	g.runInferenceAfterRuleChange(r, "rules:create")
	g.writeOK(w, r, "rulesCreate", map[string]any{"id": id})
}

func (g *Gateway) handleRuleUpdate(w http.ResponseWriter, r *http.Request) {
	var body ruleBody
	if err := readBody(r, &body); err != nil {
		g.writeError(w, r, "rulesUpdate", err)
		return
	}
	if err := validateRule(body.Rule); err != nil {
		g.writeError(w, r, "rulesUpdate", err)
		return
	}
	id, _ := jsonld.NodeID(body.Rule)
	rulesGraph := g.runtime.Config().RulesGraph
	err := g.runtime.DoWait(func() error {
		if err := g.runtime.Store().Remove(rulesGraph, id); err != nil {
			return err
		}
		return g.runtime.Store().LoadGraph(rulesGraph, []map[string]any{body.Rule})
	})
	if err != nil {
		g.writeError(w, r, "rulesUpdate", err)
		return
	}
	g.runInferenceAfterRuleChange(r, "rules:update")
	g.writeOK(w, r, "rulesUpdate", map[string]any{"id": id})
}

func (g *Gateway) handleRuleDelete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := readBody(r, &body); err != nil {
		g.writeError(w, r, "rulesDelete", err)
		return
	}
	if body.ID == "" {
		g.writeError(w, r, "rulesDelete", pkgerrors.WrapContract(
			fmt.Errorf("missing id field"), "gateway", "handleRuleDelete", "read request"))
		return
	}
	rulesGraph := g.runtime.Config().RulesGraph
	err := g.runtime.DoWait(func() error {
		return g.runtime.Store().Remove(rulesGraph, body.ID)
	})
	if err != nil {
		g.writeError(w, r, "rulesDelete", err)
		return
	}
	g.runInferenceAfterRuleChange(r, "rules:delete")
	g.writeOK(w, r, "rulesDelete", map[string]any{"id": body.ID})
}

func (g *Gateway) runInferenceAfterRuleChange(r *http.Request, trigger string) {
	if err := g.runtime.RunInference(r.Context(), trigger); err != nil {
		g.logger.Warn("inference after rule change failed", "trigger", trigger, "error", err)
	}
}
