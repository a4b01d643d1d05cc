package probe

import (
	"strings"
	"testing"

	"github.com/forgemk/forgemk/internal/flags"
	"github.com/forgemk/forgemk/internal/model"
	"github.com/forgemk/forgemk/internal/store"
	"github.com/forgemk/forgemk/internal/toolchain"
)

func newResolved() *toolchain.Resolved {
	return &toolchain.Resolved{
		Name: "gcc",
		Programs: map[flags.Toolkind]string{
			flags.CC: "gcc", flags.CXX: "g++", flags.LD: "gcc",
		},
		Names: map[flags.Toolkind]flags.Toolname{
			flags.CC: flags.GCC, flags.CXX: flags.GXX, flags.LD: flags.GCC,
		},
	}
}

func TestProbeSkipsWhenDefaultSet(t *testing.T) {
	s := store.New()
	s.Declare(store.Options, "widgets")
	s.Set(store.Options, "widgets", model.AttrDefault, "true")

	if err := Probe(s, newResolved(), nil, t.TempDir(), func(string, ...any) {}); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	v, ok := s.Get(store.Options, "widgets", model.AttrValue)
	if !ok || v != "true" {
		t.Fatalf("value = %q, %v; want true, true", v, ok)
	}
}

func TestProbeTrivialSuccessWithNoInputs(t *testing.T) {
	s := store.New()
	s.Declare(store.Options, "empty")

	if err := Probe(s, newResolved(), nil, t.TempDir(), func(string, ...any) {}); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	v, ok := s.Get(store.Options, "empty", model.AttrValue)
	if !ok || v != "true" {
		t.Fatalf("value = %q, %v; want true, true (no probing inputs => trivial success)", v, ok)
	}
}

func TestAssembleSnippetOrderAndFuncRefs(t *testing.T) {
	s := store.New()
	s.Declare(store.Options, "pthread")
	s.AppendAll(store.Options, "pthread", model.AttrCIncludes, []string{"pthread.h"})
	s.AppendAll(store.Options, "pthread", model.AttrCTypes, []string{"pthread_t"})
	s.AppendAll(store.Options, "pthread", model.AttrCFuncs, []string{"pthread_create"})

	snippet := assembleSnippet(s, "pthread", cKind)

	incIdx := strings.Index(snippet, `#include "pthread.h"`)
	typIdx := strings.Index(snippet, "typedef pthread_t __type_pthread_t;")
	mainIdx := strings.Index(snippet, "int main(")
	refIdx := strings.Index(snippet, "volatile void* ppthread_create = (void*)&pthread_create;")

	if incIdx < 0 || typIdx < 0 || mainIdx < 0 || refIdx < 0 {
		t.Fatalf("snippet missing expected sections:\n%s", snippet)
	}
	if !(incIdx < typIdx && typIdx < mainIdx && mainIdx < refIdx) {
		t.Fatalf("snippet sections out of order:\n%s", snippet)
	}
}

func TestAssembleSnippetCallExpressionPassedThrough(t *testing.T) {
	s := store.New()
	s.Declare(store.Options, "callable")
	s.AppendAll(store.Options, "callable", model.AttrCFuncs, []string{"foo()"})

	snippet := assembleSnippet(s, "callable", cKind)
	if !strings.Contains(snippet, "foo();") {
		t.Fatalf("expected call expression to pass through verbatim, got:\n%s", snippet)
	}
}

func TestTranslateJoinRewritesColonToSpace(t *testing.T) {
	s := store.New()
	s.Declare(store.Options, "rp")
	s.AppendAll(store.Options, "rp", model.AttrRpathDirs, []string{"@loader_path/."})

	// rpathdirs isn't among the abstract probe keys, but exercising the
	// colon-rewrite rule directly on a value known to contain none is enough
	// to prove the join doesn't corrupt ordinary flags; a synthetic case
	// with a literal colon confirms the rewrite itself.
	joined, err := translateJoin(flags.CC, flags.GCC, s, "rp", model.AttrRpathDirs)
	if err == nil && strings.Contains(joined, ":") {
		t.Fatalf("colon should have been rewritten to space: %q", joined)
	}

	s.AppendAll(store.Options, "rp", model.AttrDefines, []string{"A:B"})
	joined, err = translateJoin(flags.CC, flags.GCC, s, "rp", model.AttrDefines)
	if err != nil {
		t.Fatalf("translateJoin: %v", err)
	}
	if joined != " -DA B" {
		t.Fatalf("translateJoin = %q, want %q", joined, " -DA B")
	}
}
