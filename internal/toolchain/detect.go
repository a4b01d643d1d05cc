// Package toolchain implements the toolchain detector (§4.5): it enumerates
// candidate programs per toolset kind, verifies each via `--version` or a
// tiny link test, and fixes the winning toolchain's toolsets to single
// programs.
package toolchain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgemk/forgemk/internal/flags"
	"github.com/forgemk/forgemk/internal/osutil"
	"github.com/forgemk/forgemk/internal/store"
)

// Reporter receives the "checking for ..." progress lines of §7 without
// this package needing to know how they're rendered (color, indentation).
type Reporter func(format string, args ...any)

// Resolved is the outcome of a successful detection: a single concrete
// program and derived toolname per required toolkind.
type Resolved struct {
	Name     string
	Programs map[flags.Toolkind]string
	Names    map[flags.Toolkind]flags.Toolname
}

// Program returns the resolved program for a toolkind, or "" if unset.
func (r *Resolved) Program(k flags.Toolkind) string { return r.Programs[k] }

// Toolname returns the resolved toolname for a toolkind.
func (r *Resolved) Toolname(k flags.Toolkind) flags.Toolname { return r.Names[k] }

// NotFoundError is fatal: no candidate toolchain fully detected.
type NotFoundError struct {
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("toolchain not found (tried: %s)", strings.Join(e.Tried, ", "))
}

// probeCache avoids re-invoking `program --version` for a program
// seen earlier in this run.
type probeCache struct {
	version map[string]bool
}

func newProbeCache() *probeCache { return &probeCache{version: make(map[string]bool)} }

func (c *probeCache) versionOK(program string) bool {
	if ok, done := c.version[program]; done {
		return ok
	}
	ok, _, err := osutil.Run(program, []string{"--version"}, nil)
	ok = ok && err == nil
	c.version[program] = ok
	return ok
}

func arProbeOK(program, workdir string) bool {
	obj, err := osutil.TempFile(workdir, "forgemk-ar-obj", ".o")
	if err != nil {
		return false
	}
	defer os.Remove(obj)
	lib, err := osutil.TempFile(workdir, "forgemk-ar-lib", ".a")
	if err != nil {
		return false
	}
	os.Remove(lib) // ar creates it; it must not pre-exist as an empty file
	defer os.Remove(lib)

	ok, _, err := osutil.Run(program, []string{"-cr", lib, obj}, nil)
	return ok && err == nil
}

// classify derives a Toolname from a program's basename, stripping any
// cross-compile prefix (e.g. "x86_64-w64-mingw32-g++" -> gxx).
func classify(kind flags.Toolkind, program string) flags.Toolname {
	base := filepath.Base(program)
	switch {
	case kind == flags.AR:
		return flags.Arname
	case strings.HasSuffix(base, "clang++"):
		return flags.ClangXX
	case strings.HasSuffix(base, "g++"):
		return flags.GXX
	case strings.HasSuffix(base, "clang"):
		return flags.Clang
	case strings.HasSuffix(base, "gcc"), strings.HasSuffix(base, "cc"):
		return flags.GCC
	default:
		return flags.GCC
	}
}

func probeCandidate(kind flags.Toolkind, program string, cache *probeCache, workdir string) bool {
	if program == "" {
		return false
	}
	if kind == flags.AR {
		return arProbeOK(program, workdir)
	}
	return cache.versionOK(program)
}

// Detect tries candidate toolchains named in order, in turn, returning the
// first that fully resolves every required toolset kind. Winning toolsets
// are collapsed to their single program in the store, per the spec's
// "toolset_k is collapsed from a candidate sequence to the single program
// that passed probing."
func Detect(s *store.Store, order []string, workdir string, report Reporter) (*Resolved, error) {
	cache := newProbeCache()
	var tried []string

	for _, name := range order {
		if !s.Exists(store.Toolchains, name) {
			continue
		}
		tried = append(tried, name)
		resolved, ok := detectOne(s, name, cache, workdir, report)
		if ok {
			report("checking for toolchain ... %s", name)
			return resolved, nil
		}
	}
	report("checking for toolchain ... no")
	return nil, &NotFoundError{Tried: tried}
}

func detectOne(s *store.Store, name string, cache *probeCache, workdir string, report Reporter) (*Resolved, bool) {
	resolved := &Resolved{
		Name:     name,
		Programs: make(map[flags.Toolkind]string),
		Names:    make(map[flags.Toolkind]flags.Toolname),
	}

	for _, kindStr := range RequiredKinds {
		kind := flags.Toolkind(kindStr)
		candidates := s.GetList(store.Toolchains, name, "toolset_"+kindStr)
		var winner string
		for _, candidate := range candidates {
			if probeCandidate(kind, candidate, cache, workdir) {
				winner = candidate
				break
			}
		}
		if winner == "" {
			return nil, false
		}
		resolved.Programs[kind] = winner
		resolved.Names[kind] = classify(kind, winner)
		report("checking for the %s (%s) ... %s", kindStr, name, winner)
	}

	// Fix the store's toolset_k attributes to the winning singleton, per
	// the spec's Toolchain lifecycle: "during detection, each toolset_k is
	// collapsed ... to the single program that passed probing."
	for kindStr, program := range programsByKindString(resolved) {
		s.Set(store.Toolchains, name, "toolset_"+kindStr, program)
	}
	return resolved, true
}

func programsByKindString(r *Resolved) map[string]string {
	out := make(map[string]string, len(r.Programs))
	for k, v := range r.Programs {
		out[string(k)] = v
	}
	return out
}
