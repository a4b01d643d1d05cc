package script

import "github.com/hashicorp/hcl/v2"

// topSchema recognizes every block type a project script may contain. The
// operations of the original script API (`option(...)`, `add_defines(...)`,
// `set_kind(...)`, ...) become HCL block labels and attributes: a
// declarative schema parsed with hclparse and decoded with
// hcl.Body.Content/JustAttributes in place of an `eval`'d DSL, per the
// script-evaluation design note.
var topSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "project"},
		{Type: "defaults"},
		{Type: "option", LabelNames: []string{"name"}},
		{Type: "toolchain", LabelNames: []string{"name"}},
		{Type: "target", LabelNames: []string{"name"}},
		{Type: "config", LabelNames: []string{"name"}},
		{Type: "include", LabelNames: []string{"path"}},
	},
}
