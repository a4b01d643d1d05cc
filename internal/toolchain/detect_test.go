package toolchain

import (
	"testing"

	"github.com/forgemk/forgemk/internal/flags"
	"github.com/forgemk/forgemk/internal/store"
)

func TestClassifyStripsCrossCompilePrefixAndSuffix(t *testing.T) {
	cases := map[string]flags.Toolname{
		"g++":                      flags.GXX,
		"x86_64-w64-mingw32-g++":   flags.GXX,
		"clang++":                  flags.ClangXX,
		"clang":                    flags.Clang,
		"gcc":                      flags.GCC,
		"x86_64-w64-mingw32-gcc":   flags.GCC,
		"cc":                       flags.GCC,
	}
	for program, want := range cases {
		if got := classify(flags.CC, program); got != want {
			t.Errorf("classify(CC, %q) = %v, want %v", program, got, want)
		}
	}
}

func TestClassifyArAlwaysArname(t *testing.T) {
	if got := classify(flags.AR, "x86_64-w64-mingw32-ar"); got != flags.Arname {
		t.Fatalf("classify(AR, ...) = %v, want Arname", got)
	}
}

func TestDetectReturnsNotFoundErrorWhenNoCandidateResolves(t *testing.T) {
	s := store.New()
	_, err := Detect(s, []string{"nonexistent-toolchain"}, t.TempDir(), func(string, ...any) {})
	if err == nil {
		t.Fatal("expected NotFoundError, got nil")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
}

func TestDetectSkipsUndeclaredToolchainNames(t *testing.T) {
	s := store.New()
	s.Declare(store.Toolchains, "gcc")
	// no toolset_* attributes registered, so this candidate can never resolve;
	// "missing" is used purely to confirm skipping an undeclared name doesn't panic.
	_, err := Detect(s, []string{"missing", "gcc"}, t.TempDir(), func(string, ...any) {})
	if err == nil {
		t.Fatal("expected an error since gcc has no toolset candidates registered")
	}
	nf, ok := err.(*NotFoundError)
	if !ok {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
	if len(nf.Tried) != 1 || nf.Tried[0] != "gcc" {
		t.Fatalf("expected only the declared toolchain to be tried, got %v", nf.Tried)
	}
}
