// Package probe implements the option prober (§4.4): it synthesizes a tiny
// C/C++ snippet from an option's probing inputs, compiles (and optionally
// links) it with the resolved toolchain, and records the outcome as the
// option's boolean value.
package probe

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/forgemk/forgemk/internal/flags"
	"github.com/forgemk/forgemk/internal/model"
	"github.com/forgemk/forgemk/internal/osutil"
	"github.com/forgemk/forgemk/internal/store"
	"github.com/forgemk/forgemk/internal/toolchain"
)

// Reporter receives "checking for <option> .. ok|no" progress lines.
type Reporter func(format string, args ...any)

var sanitizeRE = regexp.MustCompile(`[^A-Za-z0-9]`)

// kindKeys names the store attribute keys probed for a single language kind
// ("c" or "cxx").
type kindKeys struct {
	kind       flags.Toolkind
	funcs      string
	includes   string
	types      string
	snippets   string
	rawFlags   string // cflags or cxxflags
	extension  string
	compilerOf func(r *toolchain.Resolved) (string, flags.Toolname)
}

var cKind = kindKeys{
	kind: flags.CC, funcs: model.AttrCFuncs, includes: model.AttrCIncludes,
	types: model.AttrCTypes, snippets: model.AttrCSnippets, rawFlags: model.AttrCFlags,
	extension: ".c",
	compilerOf: func(r *toolchain.Resolved) (string, flags.Toolname) {
		return r.Program(flags.CC), r.Toolname(flags.CC)
	},
}

var cxxKind = kindKeys{
	kind: flags.CXX, funcs: model.AttrCXXFuncs, includes: model.AttrCXXIncludes,
	types: model.AttrCXXTypes, snippets: model.AttrCXXSnippets, rawFlags: model.AttrCXXFlags,
	extension: ".cpp",
	compilerOf: func(r *toolchain.Resolved) (string, flags.Toolname) {
		return r.Program(flags.CXX), r.Toolname(flags.CXX)
	},
}

// Probe evaluates every declared option against the resolved toolchain,
// setting `value` in the store. Options with a non-empty `default` skip
// probing entirely (testable property 2). workdir hosts temporary sources
// and objects, all removed before Probe returns.
func Probe(s *store.Store, resolved *toolchain.Resolved, cache *toolchain.Cache, workdir string, report Reporter) error {
	for _, name := range s.EntityNames(store.Options) {
		if def, ok := s.Get(store.Options, name, model.AttrDefault); ok && def != "" {
			s.Set(store.Options, name, model.AttrValue, def)
			continue
		}

		ok, err := probeOption(s, resolved, cache, workdir, name)
		if err != nil {
			return fmt.Errorf("probing option %q: %w", name, err)
		}
		s.Set(store.Options, name, model.AttrValue, boolStr(ok))
		if ok {
			report("checking for %s .. ok", name)
		} else {
			report("checking for %s .. no", name)
		}
	}
	return nil
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// probeOption ANDs the per-kind (c, cxx) snippet checks: an option only
// succeeds when neither language kind's probe fails. An option with an
// empty default and no probing inputs at all (no funcs/includes/types/
// snippets in either kind) never invokes probeKind's compiler path and
// ANDs two vacuous trues, landing on value=true.
func probeOption(s *store.Store, resolved *toolchain.Resolved, cache *toolchain.Cache, workdir, name string) (bool, error) {
	for _, kk := range []kindKeys{cKind, cxxKind} {
		ok, err := probeKind(s, resolved, cache, workdir, name, kk)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func hasProbingInputs(s *store.Store, name string, kk kindKeys) bool {
	for _, key := range []string{kk.funcs, kk.includes, kk.types, kk.snippets} {
		if len(s.GetList(store.Options, name, key)) > 0 {
			return true
		}
	}
	return false
}

// probeKind implements testable property 3: with no probing input for this
// kind, the check trivially succeeds without invoking the compiler.
func probeKind(s *store.Store, resolved *toolchain.Resolved, cache *toolchain.Cache, workdir, name string, kk kindKeys) (bool, error) {
	if !hasProbingInputs(s, name, kk) {
		return true, nil
	}

	snippet := assembleSnippet(s, name, kk)
	program, toolname := kk.compilerOf(resolved)
	fingerprint := fingerprintOf(resolved.Name, program, snippet)
	if cache != nil {
		if v, ok := cache.Get(fingerprint); ok {
			return v, nil
		}
	}

	ok, err := compileAndMaybeLink(s, resolved, name, kk, program, toolname, snippet, workdir)
	if err != nil {
		return false, err
	}
	if cache != nil {
		cache.Set(fingerprint, ok)
	}
	return ok, nil
}

func fingerprintOf(toolchainName, program, snippet string) string {
	return toolchainName + "|" + program + "|" + snippet
}

// assembleSnippet builds the synthetic source per §4.4's four-step order.
func assembleSnippet(s *store.Store, name string, kk kindKeys) string {
	var b strings.Builder
	for _, inc := range s.GetList(store.Options, name, kk.includes) {
		fmt.Fprintf(&b, "#include %s\n", quoteInclude(inc))
	}
	for _, typ := range s.GetList(store.Options, name, kk.types) {
		fmt.Fprintf(&b, "typedef %s __type_%s;\n", typ, sanitizeRE.ReplaceAllString(typ, "_"))
	}
	if raw, ok := s.Get(store.Options, name, kk.snippets); ok && raw != "" {
		b.WriteString(raw)
		b.WriteString("\n")
	}
	b.WriteString("int main(int argc, char** argv) {\n")
	for _, fn := range s.GetList(store.Options, name, kk.funcs) {
		if strings.Contains(fn, "(") {
			fmt.Fprintf(&b, "  %s;\n", fn)
		} else {
			fmt.Fprintf(&b, "  volatile void* p%s = (void*)&%s;\n", sanitizeRE.ReplaceAllString(fn, "_"), fn)
		}
	}
	b.WriteString("  return 0;\n}\n")
	return b.String()
}

func quoteInclude(name string) string {
	if strings.HasPrefix(name, "<") || strings.HasPrefix(name, "\"") {
		return name
	}
	return "\"" + name + "\""
}

// compileAndMaybeLink writes the snippet to a temp source, compiles it, and
// links it when links/syslinks are non-empty, cleaning up temp files on
// every exit path.
func compileAndMaybeLink(s *store.Store, resolved *toolchain.Resolved, name string, kk kindKeys, program string, toolname flags.Toolname, snippet, workdir string) (bool, error) {
	src, err := osutil.TempFile(workdir, "forgemk-probe", kk.extension)
	if err != nil {
		return false, err
	}
	defer os.Remove(src)
	if err := os.WriteFile(src, []byte(snippet), 0o644); err != nil {
		return false, err
	}

	obj, err := osutil.TempFile(workdir, "forgemk-probe", ".o")
	if err != nil {
		return false, err
	}
	defer os.Remove(obj)

	abstract, err := translateJoin(kk.kind, toolname, s, name,
		model.AttrLanguages, model.AttrWarnings, model.AttrOptimizes, model.AttrDefines, model.AttrUDefines)
	if err != nil {
		return false, err
	}
	raw := s.GetList(store.Options, name, model.AttrCXFlags)
	raw = append(raw, s.GetList(store.Options, name, kk.rawFlags)...)

	args := buildArgs("-c", abstract, strings.Join(raw, " "), "-o", obj, src)
	ok, _, err := osutil.Run(program, args, nil)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	links := s.GetList(store.Options, name, model.AttrLinks)
	syslinks := s.GetList(store.Options, name, model.AttrSysLinks)
	if len(links) == 0 && len(syslinks) == 0 {
		return true, nil
	}

	ldProgram := resolved.Program(flags.LD)
	ldToolname := resolved.Toolname(flags.LD)
	bin, err := osutil.TempFile(workdir, "forgemk-probe", "")
	if err != nil {
		return false, err
	}
	defer os.Remove(bin)

	linkAbstract, err := translateJoin(flags.LD, ldToolname, s, name, model.AttrLinkDirs, model.AttrLinks, model.AttrSysLinks)
	if err != nil {
		return false, err
	}
	ldflags := strings.Join(s.GetList(store.Options, name, model.AttrLDFlags), " ")
	linkArgs := buildArgs(linkAbstract, ldflags, "-o", bin, obj)
	ok, _, err = osutil.Run(ldProgram, linkArgs, nil)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// translateJoin translates every value under each attribute key through
// flags.TranslateAll and concatenates the results, rewriting any colon
// delimiter left inside a translated segment to a space before invocation.
func translateJoin(kind flags.Toolkind, tool flags.Toolname, s *store.Store, name string, keys ...string) (string, error) {
	var b strings.Builder
	for _, key := range keys {
		values := s.GetList(store.Options, name, key)
		if len(values) == 0 {
			continue
		}
		translated, err := flags.TranslateAll(kind, tool, key, values)
		if err != nil {
			return "", err
		}
		b.WriteString(translated)
	}
	return strings.ReplaceAll(b.String(), ":", " "), nil
}

// buildArgs flattens a mix of pre-joined flag strings and single tokens into
// an argv slice, splitting whitespace-joined segments and dropping empties.
func buildArgs(parts ...string) []string {
	var out []string
	for _, p := range parts {
		for _, f := range strings.Fields(p) {
			out = append(out, f)
		}
	}
	return out
}
