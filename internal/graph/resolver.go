// Package graph implements the target graph resolver (§4.6): default file
// paths, glob-expanded object lists, transitive library dependencies with
// cycle detection, and public-attribute inheritance across `deps`.
package graph

import (
	"fmt"
	"path"
	"strings"

	"github.com/forgemk/forgemk/internal/model"
	"github.com/forgemk/forgemk/internal/osutil"
	"github.com/forgemk/forgemk/internal/store"
)

// noneMarker distinguishes computed-empty transitive deps from an
// as-yet-uncomputed entry in the resolver's memoization map.
const noneMarker = "__none__"

// Platform carries the plat/arch/mode/buildir inputs the resolver needs to
// compute defaulted file paths; these come from CLI flags, not the store.
type Platform struct {
	Plat    string
	Arch    string
	Mode    string
	Buildir string
}

func (p Platform) isMingw() bool { return strings.Contains(p.Plat, "mingw") }

// Object pairs a resolved source path with its computed object path and
// inferred source kind.
type Object struct {
	Source     string
	ObjectPath string
	SourceKind model.SourceKind
}

// Target is the resolver's fully-computed view of one declared target.
type Target struct {
	Name       string
	Kind       model.TargetKind
	TargetFile string
	TargetDir  string
	ObjectDir  string
	Objects    []Object
	Deps       []string // transitive library deps, dedup, reverse order
}

// CycleError is fatal: `deps` forms a cycle.
type CycleError struct {
	Target string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected involving target %q", e.Target)
}

// UnknownExtensionError is fatal: a source file's extension has no mapped
// sourcekind.
type UnknownExtensionError struct {
	Path string
}

func (e *UnknownExtensionError) Error() string {
	return fmt.Sprintf("unknown source extension: %q", e.Path)
}

// MissingKindError is fatal: a target has no `kind` set before generation.
type MissingKindError struct {
	Target string
}

func (e *MissingKindError) Error() string {
	return fmt.Sprintf("target %q has no kind set", e.Target)
}

// Resolver resolves every declared target against a store and platform.
type Resolver struct {
	Store    *store.Store
	Platform Platform
	Root     string // project root, used to resolve glob patterns on disk

	depsCache map[string][]string
}

// NewResolver returns a Resolver bound to a store, platform, and project
// root directory (used only for glob expansion of `files`).
func NewResolver(s *store.Store, plat Platform, root string) *Resolver {
	return &Resolver{Store: s, Platform: plat, Root: root, depsCache: make(map[string][]string)}
}

// ResolveAll resolves every declared target, in first-occurrence order.
func (r *Resolver) ResolveAll() ([]*Target, error) {
	names := r.Store.EntityNames(store.Targets)
	out := make([]*Target, 0, len(names))
	for _, name := range names {
		t, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Resolve computes the file paths, object list, and transitive deps for one
// target.
func (r *Resolver) Resolve(name string) (*Target, error) {
	kindStr, ok := r.Store.GetOverride(store.Targets, name, model.AttrKind)
	if !ok || kindStr == "" {
		return nil, &MissingKindError{Target: name}
	}
	kind := model.TargetKind(kindStr)

	targetDir := r.targetDir(name)
	objectDir := r.objectDir(name)
	targetFile := r.targetFile(name, kind, targetDir)

	objects, err := r.resolveObjects(name, objectDir)
	if err != nil {
		return nil, err
	}

	deps, err := r.transitiveDeps(name, make(map[string]bool))
	if err != nil {
		return nil, err
	}

	return &Target{
		Name: name, Kind: kind, TargetFile: targetFile,
		TargetDir: targetDir, ObjectDir: objectDir, Objects: objects, Deps: deps,
	}, nil
}

func (r *Resolver) targetDir(name string) string {
	if v, ok := r.Store.GetOverride(store.Targets, name, model.AttrTargetDir); ok && v != "" {
		return v
	}
	return path.Join(r.Platform.Buildir, r.Platform.Plat, r.Platform.Arch, r.Platform.Mode)
}

func (r *Resolver) objectDir(name string) string {
	if v, ok := r.Store.GetOverride(store.Targets, name, model.AttrObjectDir); ok && v != "" {
		return v
	}
	return path.Join(r.Platform.Buildir, ".objs", name, r.Platform.Plat, r.Platform.Arch, r.Platform.Mode)
}

func (r *Resolver) targetFile(name string, kind model.TargetKind, targetDir string) string {
	if v, ok := r.Store.GetOverride(store.Targets, name, model.AttrFilename); ok && v != "" {
		return path.Join(targetDir, v)
	}
	prefix, _ := r.Store.GetOverride(store.Targets, name, model.AttrPrefixname)
	if prefix == "" && kind.IsLibrary() {
		prefix = "lib"
	}
	base, ok := r.Store.GetOverride(store.Targets, name, model.AttrBasename)
	if !ok || base == "" {
		base = name
	}
	ext, ok := r.Store.GetOverride(store.Targets, name, model.AttrExtension)
	if !ok || ext == "" {
		ext = r.defaultExtension(kind)
	}
	return path.Join(targetDir, prefix+base+ext)
}

func (r *Resolver) defaultExtension(kind model.TargetKind) string {
	switch kind {
	case model.KindBinary:
		if r.Platform.isMingw() {
			return ".exe"
		}
		return ""
	case model.KindStatic:
		return ".a"
	case model.KindShared:
		if r.Platform.isMingw() {
			return ".dll"
		}
		return ".so"
	default:
		return ""
	}
}

func (r *Resolver) objectExtension() string {
	if r.Platform.isMingw() {
		return ".obj"
	}
	return ".o"
}

func (r *Resolver) resolveObjects(name, objectDir string) ([]Object, error) {
	patterns := r.Store.GetList(store.Targets, name, model.AttrFiles)
	var out []Object
	for _, pattern := range patterns {
		matches, err := osutil.Glob(r.Root, pattern)
		if err != nil {
			return nil, err
		}
		for _, src := range matches {
			kind, err := classifySource(src)
			if err != nil {
				return nil, err
			}
			out = append(out, Object{
				Source:     src,
				ObjectPath: path.Join(objectDir, src+r.objectExtension()),
				SourceKind: kind,
			})
		}
	}
	return out, nil
}

func classifySource(src string) (model.SourceKind, error) {
	switch {
	case strings.HasSuffix(src, ".c"):
		return model.SourceCC, nil
	case strings.HasSuffix(src, ".cpp"), strings.HasSuffix(src, ".cc"), strings.HasSuffix(src, ".ixx"):
		return model.SourceCXX, nil
	case strings.HasSuffix(src, ".m"):
		return model.SourceMM, nil
	case strings.HasSuffix(src, ".mm"), strings.HasSuffix(src, ".mxx"):
		return model.SourceMXX, nil
	case strings.HasSuffix(src, ".s"), strings.HasSuffix(src, ".S"), strings.HasSuffix(src, ".asm"):
		return model.SourceAS, nil
	default:
		return "", &UnknownExtensionError{Path: src}
	}
}

// transitiveDeps computes the reverse-dedup closure of static/shared `deps`,
// memoized per target, with cycle detection grounded on a permanent/
// temporary/unvisited DFS coloring.
func (r *Resolver) transitiveDeps(name string, inStack map[string]bool) ([]string, error) {
	if cached, ok := r.depsCache[name]; ok {
		if len(cached) == 1 && cached[0] == noneMarker {
			return nil, nil
		}
		return cached, nil
	}
	if inStack[name] {
		return nil, &CycleError{Target: name}
	}
	inStack[name] = true
	defer delete(inStack, name)

	var out []string
	seen := make(map[string]bool)
	for _, dep := range r.Store.GetList(store.Targets, name, model.AttrDeps) {
		if !r.Store.Exists(store.Targets, dep) {
			return nil, fmt.Errorf("target %q depends on undeclared target %q", name, dep)
		}
		depKindStr, _ := r.Store.GetOverride(store.Targets, dep, model.AttrKind)
		if model.TargetKind(depKindStr).IsLibrary() && !seen[dep] {
			seen[dep] = true
			out = append(out, dep)
		}
		nested, err := r.transitiveDeps(dep, inStack)
		if err != nil {
			return nil, err
		}
		for _, n := range nested {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}

	if len(out) == 0 {
		r.depsCache[name] = []string{noneMarker}
	} else {
		r.depsCache[name] = out
	}
	return out, nil
}

// EffectiveAttr computes the effective list value for an abstract itemname:
// the target's own list plus, for each static/shared dep (in resolved
// order), that dep's `<item>_public` list. For the link-related items it
// also synthesizes the dep itself: its targetdir as a `linkdirs` entry, its
// link name as a `links` entry, and — for shared deps only — its targetdir
// again as a `rpathdirs` entry, so `add_deps("foo")` alone is enough to link
// and locate `foo` at runtime without the caller spelling out `add_links`/
// `add_link_dirs`/`add_rpath_dirs` by hand.
func (r *Resolver) EffectiveAttr(name, item string) ([]string, error) {
	deps, err := r.transitiveDeps(name, make(map[string]bool))
	if err != nil {
		return nil, err
	}
	out := append([]string{}, r.Store.GetList(store.Targets, name, item)...)
	publicKey := model.PublicAttr(item)
	for _, dep := range deps {
		out = append(out, r.Store.GetList(store.Targets, dep, publicKey)...)
		switch item {
		case model.AttrLinkDirs:
			out = append(out, r.targetDir(dep))
		case model.AttrLinks:
			out = append(out, r.linkName(dep))
		case model.AttrRpathDirs:
			depKindStr, _ := r.Store.GetOverride(store.Targets, dep, model.AttrKind)
			if model.TargetKind(depKindStr) == model.KindShared {
				out = append(out, r.targetDir(dep))
			}
		}
	}
	return out, nil
}

// linkName is the `-l<name>` name a dependent links against: the dep's
// basename override, or its target name when none is set — the same
// naming targetFile uses for the `lib` prefix it adds.
func (r *Resolver) linkName(name string) string {
	if base, ok := r.Store.GetOverride(store.Targets, name, model.AttrBasename); ok && base != "" {
		return base
	}
	return name
}

// Toolkinds returns the deduplicated set of target kinds and sourcekinds
// across every resolved target, driving Makefile variable emission.
func Toolkinds(targets []*Target) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, t := range targets {
		add(string(t.Kind))
		for _, o := range t.Objects {
			add(string(o.SourceKind))
		}
	}
	return out
}
