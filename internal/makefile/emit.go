// Package makefile implements the Makefile emitter (§4.8): toolchain
// variables, per-target flag variables, compile/link/archive rules, and the
// run/clean/install phony rules, written in the teacher's bufio.Writer,
// tab-indented-recipe style.
package makefile

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/forgemk/forgemk/internal/flags"
	"github.com/forgemk/forgemk/internal/graph"
	"github.com/forgemk/forgemk/internal/model"
	"github.com/forgemk/forgemk/internal/store"
)

// Install describes one headerfiles/installfiles entry, decoded from its
// `src:root:prefix:filename` token.
type Install struct {
	Src      string
	Root     string
	Prefix   string
	Filename string
}

// DestPath computes the installed path for one Install entry, relative to
// its destination root (bindir/libdir/includedir, joined by the caller).
func (i Install) DestPath() string {
	name := i.Filename
	if name == "" {
		name = i.Src
		if i.Root != "" && strings.HasPrefix(i.Src, i.Root) {
			name = strings.TrimPrefix(strings.TrimPrefix(i.Src, i.Root), "/")
		} else if i.Root == "" {
			name = lastSegment(i.Src)
		}
	}
	if i.Prefix == "" {
		return name
	}
	return i.Prefix + "/" + name
}

func lastSegment(p string) string {
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

// ParseInstall decodes a `src:root:prefix:filename` token.
func ParseInstall(token string) Install {
	parts := strings.SplitN(token, ":", 4)
	var i Install
	if len(parts) > 0 {
		i.Src = parts[0]
	}
	if len(parts) > 1 {
		i.Root = parts[1]
	}
	if len(parts) > 2 {
		i.Prefix = parts[2]
	}
	if len(parts) > 3 {
		i.Filename = parts[3]
	}
	return i
}

// Dirs carries the destination directories the install rule copies into.
type Dirs struct {
	Prefix     string
	Bindir     string
	Libdir     string
	Includedir string
	Installdir string
}

// Toolset resolves a program per toolkind, used for the header variable
// block.
type Toolset map[flags.Toolkind]string

// Emitter writes a complete Makefile for a resolved target graph.
type Emitter struct {
	w        *bufio.Writer
	Store    *store.Store
	Resolver *graph.Resolver
	Toolset  Toolset
	Toolname map[flags.Toolkind]flags.Toolname
	Dirs     Dirs
}

// NewEmitter wraps out in a buffered writer bound to a store/resolver.
func NewEmitter(out io.Writer, s *store.Store, r *graph.Resolver, toolset Toolset, toolname map[flags.Toolkind]flags.Toolname, dirs Dirs) *Emitter {
	return &Emitter{w: bufio.NewWriter(out), Store: s, Resolver: r, Toolset: toolset, Toolname: toolname, Dirs: dirs}
}

// Emit writes every section in the order §4.8 specifies, then flushes.
func (e *Emitter) Emit(targets []*graph.Target) error {
	e.header()
	e.verbositySwitch()
	e.toolchainVars()
	if err := e.perTargetFlagVars(targets); err != nil {
		return err
	}
	e.phonyDeclarations(targets)
	if err := e.perTargetRules(targets); err != nil {
		return err
	}
	e.runRule(targets)
	e.cleanRule(targets)
	e.installRule(targets)
	return e.w.Flush()
}

func (e *Emitter) header() {
	fmt.Fprintln(e.w, "# generated by forgemk, do not edit by hand")
	fmt.Fprintln(e.w)
}

func (e *Emitter) verbositySwitch() {
	fmt.Fprintln(e.w, "ifneq ($(VERBOSE),1)")
	fmt.Fprintln(e.w, "V=@")
	fmt.Fprintln(e.w, "endif")
	fmt.Fprintln(e.w)
}

func (e *Emitter) toolchainVars() {
	kinds := make([]string, 0, len(e.Toolset))
	for k := range e.Toolset {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(e.w, "%s=%s\n", strings.ToUpper(k), e.Toolset[flags.Toolkind(k)])
	}
	fmt.Fprintln(e.w)
}

var flagAttrsByKind = map[model.SourceKind]string{
	model.SourceCC:  model.AttrCFlags,
	model.SourceCXX: model.AttrCXXFlags,
	model.SourceMM:  model.AttrMFlags,
	model.SourceMXX: model.AttrMXXFlags,
	model.SourceAS:  model.AttrASFlags,
}

func toolkindForSource(sk model.SourceKind) flags.Toolkind {
	switch sk {
	case model.SourceCC:
		return flags.CC
	case model.SourceCXX:
		return flags.CXX
	case model.SourceMM:
		return flags.MM
	case model.SourceMXX:
		return flags.MXX
	case model.SourceAS:
		return flags.AS
	default:
		return flags.CC
	}
}

// perTargetFlagVars emits `<target>_<flagname>=<flags>` for each (target,
// kind) pair actually used by that target's objects, plus its ldflags.
func (e *Emitter) perTargetFlagVars(targets []*graph.Target) error {
	for _, t := range targets {
		kinds := usedSourceKinds(t)
		for _, sk := range kinds {
			flagsStr, err := e.compileFlags(t.Name, sk)
			if err != nil {
				return err
			}
			attrKey := flagAttrsByKind[sk]
			fmt.Fprintf(e.w, "%s_%s=%s\n", t.Name, attrKey, flagsStr)
		}
		ldflagsStr, err := e.linkFlags(t.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.w, "%s_%s=%s\n", t.Name, model.AttrLDFlags, ldflagsStr)
	}
	fmt.Fprintln(e.w)
	return nil
}

func usedSourceKinds(t *graph.Target) []model.SourceKind {
	seen := make(map[model.SourceKind]bool)
	var out []model.SourceKind
	for _, o := range t.Objects {
		if !seen[o.SourceKind] {
			seen[o.SourceKind] = true
			out = append(out, o.SourceKind)
		}
	}
	return out
}

func (e *Emitter) compileFlags(target string, sk model.SourceKind) (string, error) {
	kind := toolkindForSource(sk)
	toolname := e.Toolname[kind]

	var b strings.Builder
	for _, item := range []string{model.AttrLanguages, model.AttrWarnings, model.AttrOptimizes, model.AttrDefines, model.AttrUDefines, model.AttrIncludeDirs} {
		vals, err := e.Resolver.EffectiveAttr(target, item)
		if err != nil {
			return "", err
		}
		translated, err := flags.TranslateAll(kind, toolname, item, vals)
		if err != nil {
			return "", err
		}
		b.WriteString(translated)
	}
	raw := e.Store.GetList(store.Targets, target, model.AttrCXFlags)
	raw = append(raw, e.Store.GetList(store.Targets, target, flagAttrsByKind[sk])...)
	if len(raw) > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Join(raw, " "))
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), ":", " "), nil
}

func (e *Emitter) linkFlags(target string) (string, error) {
	var b strings.Builder
	for _, item := range []string{model.AttrLinkDirs, model.AttrLinks, model.AttrSysLinks, model.AttrFrameworks, model.AttrFrameworkDir, model.AttrRpathDirs} {
		vals, err := e.Resolver.EffectiveAttr(target, item)
		if err != nil {
			return "", err
		}
		translated, err := flags.TranslateAll(flags.LD, e.Toolname[flags.LD], item, vals)
		if err != nil {
			return "", err
		}
		b.WriteString(translated)
	}
	raw := e.Store.GetList(store.Targets, target, model.AttrLDFlags)
	if len(raw) > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Join(raw, " "))
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), ":", " "), nil
}

func isDefault(s *store.Store, name string) bool {
	v, ok := s.GetOverride(store.Targets, name, model.AttrDefault)
	return !ok || v == "" || v == "true"
}

func (e *Emitter) phonyDeclarations(targets []*graph.Target) {
	var defaults, all []string
	for _, t := range targets {
		all = append(all, t.Name)
		if isDefault(e.Store, t.Name) {
			defaults = append(defaults, t.Name)
		}
	}
	fmt.Fprintf(e.w, ".PHONY: default all run clean install %s\n", strings.Join(all, " "))
	fmt.Fprintf(e.w, "default: %s\n", strings.Join(defaults, " "))
	fmt.Fprintf(e.w, "all: %s\n\n", strings.Join(all, " "))
}

func (e *Emitter) perTargetRules(targets []*graph.Target) error {
	byName := make(map[string]*graph.Target, len(targets))
	for _, t := range targets {
		byName[t.Name] = t
	}

	for _, t := range targets {
		fmt.Fprintf(e.w, "%s: %s\n\n", t.Name, t.TargetFile)

		var depFiles []string
		for _, d := range t.Deps {
			if dt, ok := byName[d]; ok {
				depFiles = append(depFiles, dt.TargetFile)
			}
		}
		var objFiles []string
		for _, o := range t.Objects {
			objFiles = append(objFiles, o.ObjectPath)
		}

		fmt.Fprintf(e.w, "%s: %s\n", t.TargetFile, strings.Join(append(append([]string{}, depFiles...), objFiles...), " "))
		fmt.Fprintf(e.w, "\t@mkdir -p $(dir %s)\n", t.TargetFile)
		fmt.Fprintf(e.w, "\t@echo linking %s\n", t.TargetFile)
		if err := e.emitLinkRecipe(t); err != nil {
			return err
		}
		fmt.Fprintln(e.w)

		for _, o := range t.Objects {
			kind := toolkindForSource(o.SourceKind)
			fmt.Fprintf(e.w, "%s: %s\n", o.ObjectPath, o.Source)
			fmt.Fprintf(e.w, "\t@mkdir -p $(dir %s)\n", o.ObjectPath)
			fmt.Fprintf(e.w, "\t@echo compiling %s\n", o.Source)
			fmt.Fprintf(e.w, "\t$(V)$(%s) -c $(%s_%s) -o %s %s\n\n", strings.ToUpper(string(kind)), t.Name, flagAttrsByKind[o.SourceKind], o.ObjectPath, o.Source)
		}
	}
	return nil
}

func (e *Emitter) emitLinkRecipe(t *graph.Target) error {
	var objFiles []string
	for _, o := range t.Objects {
		objFiles = append(objFiles, o.ObjectPath)
	}
	switch t.Kind {
	case model.KindStatic:
		fmt.Fprintf(e.w, "\t$(V)$(AR) -cr %s %s\n", t.TargetFile, strings.Join(objFiles, " "))
	case model.KindShared:
		fmt.Fprintf(e.w, "\t$(V)$(LD) -shared -o %s %s $(%s_%s)\n", t.TargetFile, strings.Join(objFiles, " "), t.Name, model.AttrLDFlags)
	default:
		fmt.Fprintf(e.w, "\t$(V)$(LD) -o %s %s $(%s_%s)\n", t.TargetFile, strings.Join(objFiles, " "), t.Name, model.AttrLDFlags)
	}
	return nil
}

func (e *Emitter) runRule(targets []*graph.Target) {
	var bins []string
	for _, t := range targets {
		if t.Kind == model.KindBinary && isDefault(e.Store, t.Name) {
			bins = append(bins, t.TargetFile)
		}
	}
	fmt.Fprintf(e.w, "run: %s\n", strings.Join(bins, " "))
	for _, b := range bins {
		fmt.Fprintf(e.w, "\t$(V)%s\n", b)
	}
	fmt.Fprintln(e.w)
}

func (e *Emitter) cleanRule(targets []*graph.Target) {
	var files []string
	for _, t := range targets {
		if !isDefault(e.Store, t.Name) {
			continue
		}
		files = append(files, t.TargetFile)
		for _, o := range t.Objects {
			files = append(files, o.ObjectPath)
		}
	}
	fmt.Fprintln(e.w, "clean:")
	fmt.Fprintf(e.w, "\t$(V)rm -f %s\n\n", strings.Join(files, " "))
}

func (e *Emitter) installRule(targets []*graph.Target) {
	fmt.Fprintln(e.w, "install:")
	for _, t := range targets {
		destDir := e.Dirs.Bindir
		if t.Kind.IsLibrary() {
			destDir = e.Dirs.Libdir
		}
		fmt.Fprintf(e.w, "\t@mkdir -p %s/%s\n", e.Dirs.Installdir, destDir)
		fmt.Fprintf(e.w, "\t$(V)cp %s %s/%s/\n", t.TargetFile, e.Dirs.Installdir, destDir)

		for _, tok := range e.Store.GetList(store.Targets, t.Name, model.AttrHeaderFiles) {
			inst := ParseInstall(tok)
			dest := e.Dirs.Installdir + "/" + e.Dirs.Includedir + "/" + inst.DestPath()
			fmt.Fprintf(e.w, "\t@mkdir -p $(dir %s)\n", dest)
			fmt.Fprintf(e.w, "\t$(V)cp %s %s\n", inst.Src, dest)
		}
		for _, tok := range e.Store.GetList(store.Targets, t.Name, model.AttrInstallFile) {
			inst := ParseInstall(tok)
			dest := e.Dirs.Installdir + "/" + inst.DestPath()
			fmt.Fprintf(e.w, "\t@mkdir -p $(dir %s)\n", dest)
			fmt.Fprintf(e.w, "\t$(V)cp %s %s\n", inst.Src, dest)
		}
	}
}
