package script

import (
	"runtime"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/forgemk/forgemk/internal/model"
	"github.com/forgemk/forgemk/internal/store"
)

// SetEnvironment records the resolved plat/arch/mode/toolchain so a script
// attribute expression can query them through is_plat/is_arch/is_mode/
// is_toolchain/is_host. Called once with the CLI-derived plat/arch/mode
// before the options/toolchains pass, and again with the detected
// toolchain name before the targets pass.
func (l *Loader) SetEnvironment(plat, arch, mode, toolchainName string) {
	l.plat, l.arch, l.mode, l.toolchainName = plat, arch, mode, toolchainName
}

func stringPredicate(f func(string) bool) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "value", Type: cty.String}},
		Type:   function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.BoolVal(f(args[0].AsString())), nil
		},
	})
}

// evalContext builds the hcl.EvalContext exposed to every attribute
// expression: the §6 predicates is_plat, is_arch, is_mode, is_toolchain,
// is_host, is_config, and has_config, resolved against the loader's
// current environment and the store's option values (which, by the time
// the targets phase runs, hold the option prober's results per S3).
func (l *Loader) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"is_plat":      stringPredicate(func(v string) bool { return l.plat == v }),
			"is_arch":      stringPredicate(func(v string) bool { return l.arch == v }),
			"is_mode":      stringPredicate(func(v string) bool { return l.mode == v }),
			"is_toolchain": stringPredicate(func(v string) bool { return l.toolchainName == v }),
			"is_host": function.New(&function.Spec{
				Type: function.StaticReturnType(cty.Bool),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					return cty.BoolVal(l.plat == runtime.GOOS && l.arch == runtime.GOARCH), nil
				},
			}),
			"has_config": stringPredicate(func(name string) bool {
				v, _ := l.Store.GetOverride(store.Options, name, model.AttrValue)
				return v == "true"
			}),
			"is_config": function.New(&function.Spec{
				Params: []function.Parameter{
					{Name: "name", Type: cty.String},
					{Name: "value", Type: cty.String},
				},
				Type: function.StaticReturnType(cty.Bool),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					v, _ := l.Store.GetOverride(store.Options, args[0].AsString(), model.AttrValue)
					return cty.BoolVal(v == args[1].AsString()), nil
				},
			}),
		},
	}
}
