package decl

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/calcgrid/internal/computer"
)

// payloadName is the reserved variable through which event set
// expressions receive the caller-supplied payload.
const payloadName = "payload"

// exprFunctions is the fixed function table available to every declared
// expression.
var exprFunctions = map[string]function.Function{
	"abs":      stdlib.AbsoluteFunc,
	"ceil":     stdlib.CeilFunc,
	"floor":    stdlib.FloorFunc,
	"max":      stdlib.MaxFunc,
	"min":      stdlib.MinFunc,
	"concat":   stdlib.ConcatFunc,
	"contains": stdlib.ContainsFunc,
	"length":   stdlib.LengthFunc,
	"range":    stdlib.RangeFunc,
	"coalesce": stdlib.CoalesceFunc,
	"format":   stdlib.FormatFunc,
	"join":     stdlib.JoinFunc,
	"split":    stdlib.SplitFunc,
	"lower":    stdlib.LowerFunc,
	"upper":    stdlib.UpperFunc,
	"strlen":   stdlib.StrlenFunc,
	"substr":   stdlib.SubstrFunc,
}

// referencedRoots walks the expression's variable traversals and returns
// the unique root names, sorted for deterministic output.
func referencedRoots(exprs ...hcl.Expression) []string {
	roots := make(map[string]struct{})
	for _, expr := range exprs {
		if expr == nil {
			continue
		}
		for _, traversal := range expr.Variables() {
			roots[traversal.RootName()] = struct{}{}
		}
	}

	out := make([]string, 0, len(roots))
	for name := range roots {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// evalContext builds the evaluation scope for one invocation: the
// snapshot's entries as variables, plus the shared function table.
func evalContext(snap computer.Snapshot) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: snap.Map(),
		Functions: exprFunctions,
	}
}

// computeFromExpr wraps an HCL expression as a compute function.
func computeFromExpr(expr hcl.Expression) computer.ComputeFunc {
	return func(snap computer.Snapshot) (cty.Value, error) {
		v, diags := expr.Value(evalContext(snap))
		if diags.HasErrors() {
			return cty.NilVal, diags
		}
		return v, nil
	}
}

// handlerFromSets wraps an event's set blocks as a handler. Events whose
// expressions reference the payload variable get the payload-accepting
// shape.
func handlerFromSets(sets []*hclSet) any {
	usesPayload := false
	for _, root := range referencedRootsOfSets(sets) {
		if root == payloadName {
			usesPayload = true
			break
		}
	}

	evalSets := func(ectx *hcl.EvalContext) (map[string]cty.Value, error) {
		out := make(map[string]cty.Value, len(sets))
		for _, set := range sets {
			v, diags := set.To.Value(ectx)
			if diags.HasErrors() {
				return nil, diags
			}
			out[set.Input] = v
		}
		return out, nil
	}

	if usesPayload {
		return computer.PayloadHandlerFunc(func(snap computer.Snapshot, payload cty.Value) (map[string]cty.Value, error) {
			ectx := evalContext(snap)
			if payload == cty.NilVal {
				payload = cty.NullVal(cty.DynamicPseudoType)
			}
			ectx.Variables[payloadName] = payload
			return evalSets(ectx)
		})
	}
	return computer.HandlerFunc(func(snap computer.Snapshot) (map[string]cty.Value, error) {
		return evalSets(evalContext(snap))
	})
}

func referencedRootsOfSets(sets []*hclSet) []string {
	exprs := make([]hcl.Expression, len(sets))
	for i, set := range sets {
		exprs[i] = set.To
	}
	return referencedRoots(exprs...)
}

// constValue evaluates an expression that must not reference anything,
// used for input defaults.
func constValue(expr hcl.Expression, what string) (cty.Value, error) {
	if refs := referencedRoots(expr); len(refs) > 0 {
		return cty.NilVal, fmt.Errorf("%s must be a constant, but references %v", what, refs)
	}
	v, diags := expr.Value(&hcl.EvalContext{Functions: exprFunctions})
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return v, nil
}
