package script

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// evalAttrs decodes the raw attribute set of body; expression evaluation
// (and so exposure of the is_plat/is_config/... predicates) happens per
// attribute in attrString/attrBool/attrStringList against the ctx passed
// there, not here.
func evalAttrs(body hcl.Body) (hcl.Attributes, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	return attrs, diags
}

func attrString(attrs hcl.Attributes, name string, ctx *hcl.EvalContext) (string, bool, error) {
	a, ok := attrs[name]
	if !ok {
		return "", false, nil
	}
	v, diags := a.Expr.Value(ctx)
	if diags.HasErrors() {
		return "", false, diags
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", name, err)
	}
	if s.IsNull() {
		return "", false, nil
	}
	return s.AsString(), true, nil
}

func attrBool(attrs hcl.Attributes, name string, ctx *hcl.EvalContext) (bool, bool, error) {
	a, ok := attrs[name]
	if !ok {
		return false, false, nil
	}
	v, diags := a.Expr.Value(ctx)
	if diags.HasErrors() {
		return false, false, diags
	}
	b, err := convert.Convert(v, cty.Bool)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", name, err)
	}
	return b.True(), true, nil
}

// attrDynamicString evaluates an attribute whose name was not known ahead
// of time (configvar_<NAME> companions), returning its value as a string.
func attrDynamicString(a *hcl.Attribute, ctx *hcl.EvalContext) (string, error) {
	v, diags := a.Expr.Value(ctx)
	if diags.HasErrors() {
		return "", diags
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.Name, err)
	}
	if s.IsNull() {
		return "", nil
	}
	return s.AsString(), nil
}

func attrStringList(attrs hcl.Attributes, name string, ctx *hcl.EvalContext) ([]string, bool, error) {
	a, ok := attrs[name]
	if !ok {
		return nil, false, nil
	}
	v, diags := a.Expr.Value(ctx)
	if diags.HasErrors() {
		return nil, false, diags
	}
	if v.IsNull() {
		return nil, true, nil
	}
	listType := cty.List(cty.String)
	lv, err := convert.Convert(v, listType)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", name, err)
	}
	var out []string
	for it := lv.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		out = append(out, ev.AsString())
	}
	return out, true, nil
}
