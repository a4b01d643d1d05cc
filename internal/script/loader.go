// Package script evaluates project scripts. In place of the original
// sources' `eval`'d DSL, a project script is an HCL file: `option`,
// `toolchain`, and `target` blocks register into the scoped store, gated by
// the loader phase of internal/scope, exactly as the spec's operations are
// gated. `includes(path...)` becomes an `include` block, and `set_config`
// becomes a `config` block. Attribute expressions are evaluated against
// an EvalContext (see predicates.go) exposing is_plat/is_arch/is_mode/
// is_toolchain/is_host/is_config/has_config as callable functions.
package script

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/forgemk/forgemk/internal/model"
	"github.com/forgemk/forgemk/internal/scope"
	"github.com/forgemk/forgemk/internal/store"
)

// ProjectMeta holds the scalar project-wide declarations from `project {}`,
// kept apart from the store: unlike flag-style attributes, name/version/
// version_build are single values that must never be treated as
// concatenation targets by store.Get's list-style root-scope prepend.
type ProjectMeta struct {
	Name         string
	Version      string
	VersionBuild string
}

// Loader evaluates project scripts into a Store, respecting the current
// Scope's loading phase.
type Loader struct {
	Store   *store.Store
	Scope   *scope.Scope
	Project ProjectMeta

	shell string

	// plat/arch/mode/toolchainName back the is_plat/is_arch/is_mode/
	// is_toolchain/is_host predicates; see SetEnvironment.
	plat, arch, mode, toolchainName string
}

// NewLoader returns a Loader bound to a store and scope. shell runs any
// `include { command = "..." }` script generators; it defaults to "sh" when
// empty.
func NewLoader(s *store.Store, sc *scope.Scope, shell string) *Loader {
	if shell == "" {
		shell = "sh"
	}
	return &Loader{Store: s, Scope: sc, shell: shell}
}

// DiscoverScriptFile finds the project script at root, or, failing that,
// the first script at depth 2 of the project tree.
func DiscoverScriptFile(root string) (string, error) {
	candidate := filepath.Join(root, "project.hcl")
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	matches, err := filepath.Glob(filepath.Join(root, "*", "*.hcl"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no project script found (expected %s or a *.hcl file one directory down)", candidate)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// LoadFile parses and evaluates one script; blocks whose kind is not
// loadable in the current phase are silently skipped, which is what lets
// the same file be evaluated twice (once for options/toolchains, again for
// targets).
func (l *Loader) LoadFile(path string) error {
	dir := filepath.Dir(path)
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return diags
	}
	content, diags := f.Body.Content(topSchema)
	if diags.HasErrors() {
		return diags
	}

	l.Scope.PushScriptDir(dir)
	defer l.Scope.PopScriptDir()

	for _, blk := range content.Blocks {
		var err error
		switch blk.Type {
		case "project":
			err = l.loadProject(blk)
		case "defaults":
			err = l.loadDefaults(blk)
		case "option":
			err = l.loadOption(blk)
		case "toolchain":
			err = l.loadToolchain(blk)
		case "target":
			err = l.loadTarget(blk)
		case "config":
			err = l.loadConfig(blk)
		case "include":
			err = l.loadInclude(blk, dir)
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, blk.DefRange.Start.Line, err)
		}
	}
	return nil
}

func (l *Loader) loadProject(blk *hcl.Block) error {
	ctx := l.evalContext()
	attrs, diags := evalAttrs(blk.Body)
	if diags.HasErrors() {
		return diags
	}
	if v, ok, err := attrString(attrs, "name", ctx); err != nil {
		return err
	} else if ok {
		l.Project.Name = v
	}
	if v, ok, err := attrString(attrs, "version", ctx); err != nil {
		return err
	} else if ok {
		l.Project.Version = v
	}
	if v, ok, err := attrString(attrs, "version_build", ctx); err != nil {
		return err
	} else if ok {
		l.Project.VersionBuild = v
	}
	return nil
}

// loadConfig implements the §6 `set_config` predicate as a declarative
// block: `config "name" { value = ... }` sets the named option's resolved
// value directly, auto-declaring it if it wasn't registered by an `option`
// block. Not phase-gated: a config value can be forced during either the
// options/toolchains pass or the targets pass.
func (l *Loader) loadConfig(blk *hcl.Block) error {
	name := blk.Labels[0]
	attrs, diags := evalAttrs(blk.Body)
	if diags.HasErrors() {
		return diags
	}
	v, ok, err := attrString(attrs, "value", l.evalContext())
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if !l.Store.Exists(store.Options, name) {
		l.Store.Declare(store.Options, name)
	}
	l.Store.Set(store.Options, name, model.AttrValue, v)
	return nil
}

func (l *Loader) loadInclude(blk *hcl.Block, dir string) error {
	target := blk.Labels[0]
	attrs, diags := evalAttrs(blk.Body)
	if diags.HasErrors() {
		return diags
	}
	if cmdStr, ok, err := attrString(attrs, "command", l.evalContext()); err != nil {
		return err
	} else if ok {
		return l.loadCommandOutput(cmdStr, dir)
	}

	full := target
	if !filepath.IsAbs(full) {
		full = filepath.Join(dir, full)
	}
	info, err := os.Stat(full)
	if err != nil {
		return err
	}
	if info.IsDir() {
		full = filepath.Join(full, filepath.Base(full)+".hcl")
	}
	return l.LoadFile(full)
}

// loadCommandOutput evaluates a generated script: a shell command whose
// stdout is HCL, written to a temp file and loaded like any other script.
// This mirrors the teacher's `<|command` include convention.
func (l *Loader) loadCommandOutput(command, dir string) error {
	cmd := exec.Command(l.shell, "-c", command)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("include command %q: %w", command, err)
	}
	tmp, err := os.CreateTemp("", "forgemk-include-*.hcl")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()
	return l.LoadFile(tmp.Name())
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

var optionScalarKeys = []string{
	model.AttrDescription, model.AttrDefault, model.AttrCSnippets, model.AttrCXXSnippets,
}

var optionListKeys = []string{
	model.AttrCFuncs, model.AttrCXXFuncs, model.AttrCIncludes, model.AttrCXXIncludes,
	model.AttrCTypes, model.AttrCXXTypes, model.AttrLinks, model.AttrSysLinks,
	model.AttrCFlags, model.AttrCXXFlags, model.AttrCXFlags, model.AttrLDFlags,
	model.AttrDefines, model.AttrUDefines, model.AttrIncludeDirs, model.AttrLinkDirs,
	model.AttrFrameworks, model.AttrFrameworkDir, model.AttrLanguages, model.AttrWarnings,
	model.AttrOptimizes, model.AttrConfigVars,
}

func (l *Loader) loadOption(blk *hcl.Block) error {
	if !l.Scope.OptionsLoadable() {
		return nil
	}
	name := blk.Labels[0]
	l.Scope.BeginOption(name)
	defer l.Scope.EndOption()
	l.Store.Declare(store.Options, name)

	ctx := l.evalContext()
	attrs, diags := evalAttrs(blk.Body)
	if diags.HasErrors() {
		return diags
	}

	if v, ok, err := attrBool(attrs, model.AttrShowMenu, ctx); err != nil {
		return err
	} else if ok {
		l.Store.Set(store.Options, name, model.AttrShowMenu, boolStr(v))
	}
	for _, key := range optionScalarKeys {
		v, ok, err := attrString(attrs, key, ctx)
		if err != nil {
			return err
		}
		if ok {
			l.Store.Set(store.Options, name, key, v)
		}
	}
	for _, key := range optionListKeys {
		vals, ok, err := attrStringList(attrs, key, ctx)
		if err != nil {
			return err
		}
		if ok {
			l.Store.AppendAll(store.Options, name, key, vals)
		}
	}
	return applyConfigVars(l.Store, store.Options, name, attrs, ctx)
}

var toolsetKinds = []string{"as", "cc", "cxx", "mm", "mxx", "ld", "sh", "ar"}

func (l *Loader) loadToolchain(blk *hcl.Block) error {
	if !l.Scope.ToolchainsLoadable() {
		return nil
	}
	name := blk.Labels[0]
	l.Scope.BeginToolchain(name)
	defer l.Scope.EndToolchain()
	l.Store.Declare(store.Toolchains, name)

	ctx := l.evalContext()
	attrs, diags := evalAttrs(blk.Body)
	if diags.HasErrors() {
		return diags
	}
	for _, k := range toolsetKinds {
		key := "toolset_" + k
		vals, ok, err := attrStringList(attrs, key, ctx)
		if err != nil {
			return err
		}
		if ok {
			l.Store.AppendAll(store.Toolchains, name, key, vals)
		}
	}
	return nil
}

var targetScalarKeys = []string{
	model.AttrKind, model.AttrBasename, model.AttrExtension, model.AttrPrefixname,
	model.AttrFilename, model.AttrTargetDir, model.AttrObjectDir, model.AttrInstallDir,
	model.AttrConfigDir, model.AttrVersion, model.AttrVersionBld, model.AttrStrip,
	model.AttrSymbols,
}

var targetListKeys = []string{
	model.AttrDeps, model.AttrOptions, model.AttrFiles, model.AttrHeaderFiles,
	model.AttrInstallFile, model.AttrConfigFiles, model.AttrDefines, model.AttrUDefines,
	model.AttrIncludeDirs, model.AttrLinkDirs, model.AttrLinks, model.AttrSysLinks,
	model.AttrFrameworks, model.AttrFrameworkDir, model.AttrRpathDirs, model.AttrLanguages,
	model.AttrWarnings, model.AttrOptimizes, model.AttrCFlags, model.AttrCXXFlags,
	model.AttrCXFlags, model.AttrMFlags, model.AttrMXXFlags, model.AttrMXFlags,
	model.AttrASFlags, model.AttrLDFlags, model.AttrSHFlags, model.AttrARFlags,
	model.AttrConfigVars,
}

func isPublicCapable(key string) bool {
	for _, k := range model.PublicCapableAttrs {
		if k == key {
			return true
		}
	}
	return false
}

func (l *Loader) loadTarget(blk *hcl.Block) error {
	if !l.Scope.TargetsLoadable() {
		return nil
	}
	name := blk.Labels[0]
	l.Scope.BeginTarget(name)
	defer l.Scope.EndTarget()
	l.Store.Declare(store.Targets, name)
	return l.applyTargetAttrs(name, blk.Body)
}

func (l *Loader) loadDefaults(blk *hcl.Block) error {
	if !l.Scope.TargetsLoadable() {
		return nil
	}
	return l.applyTargetAttrs(store.RootScope, blk.Body)
}

func (l *Loader) applyTargetAttrs(name string, body hcl.Body) error {
	ctx := l.evalContext()
	attrs, diags := evalAttrs(body)
	if diags.HasErrors() {
		return diags
	}

	for _, key := range targetScalarKeys {
		v, ok, err := attrString(attrs, key, ctx)
		if err != nil {
			return err
		}
		if ok {
			l.Store.Set(store.Targets, name, key, v)
		}
	}
	if v, ok, err := attrBool(attrs, model.AttrDefault, ctx); err != nil {
		return err
	} else if ok {
		l.Store.Set(store.Targets, name, model.AttrDefault, boolStr(v))
	}

	for _, key := range targetListKeys {
		vals, ok, err := attrStringList(attrs, key, ctx)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if isPublicCapable(key) {
			all, public := model.SplitPublic(vals)
			l.Store.AppendAll(store.Targets, name, key, all)
			if len(public) > 0 {
				l.Store.AppendAll(store.Targets, name, model.PublicAttr(key), public)
			}
		} else {
			l.Store.AppendAll(store.Targets, name, key, vals)
		}
	}
	return applyConfigVars(l.Store, store.Targets, name, attrs, ctx)
}

// applyConfigVars copies dynamically-named configvar_<NAME> attributes
// through verbatim; their names cannot be enumerated ahead of time.
func applyConfigVars(s *store.Store, kind store.Kind, name string, attrs hcl.Attributes, ctx *hcl.EvalContext) error {
	for key, attr := range attrs {
		if !strings.HasPrefix(key, "configvar_") {
			continue
		}
		v, err := attrDynamicString(attr, ctx)
		if err != nil {
			return err
		}
		s.Set(kind, name, key, v)
	}
	return nil
}
