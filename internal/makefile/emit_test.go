package makefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgemk/forgemk/internal/flags"
	"github.com/forgemk/forgemk/internal/graph"
	"github.com/forgemk/forgemk/internal/model"
	"github.com/forgemk/forgemk/internal/store"
)

func writeSource(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("int main(){return 0;}\n"), 0o644); err != nil {
		t.Fatalf("writeSource: %v", err)
	}
}

func TestEmitMinimalBinary(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c")

	s := store.New()
	s.Declare(store.Targets, "hello")
	s.Set(store.Targets, "hello", model.AttrKind, string(model.KindBinary))
	s.AppendAll(store.Targets, "hello", model.AttrFiles, []string{"main.c"})

	plat := graph.Platform{Plat: "linux", Arch: "x86_64", Mode: "release", Buildir: "build"}
	r := graph.NewResolver(s, plat, dir)
	targets, err := r.ResolveAll()
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}

	var out strings.Builder
	e := NewEmitter(&out, s, r,
		Toolset{flags.CC: "gcc", flags.LD: "gcc", flags.AR: "ar"},
		map[flags.Toolkind]flags.Toolname{flags.CC: flags.GCC, flags.LD: flags.GCC},
		Dirs{Prefix: "/usr/local", Bindir: "bin", Libdir: "lib", Includedir: "include", Installdir: "/usr/local"},
	)
	if err := e.Emit(targets); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	got := out.String()

	wantTargetFile := "build/linux/x86_64/release/hello"
	wantObj := "build/.objs/hello/linux/x86_64/release/main.c.o"
	for _, want := range []string{
		"CC=gcc",
		"hello: " + wantTargetFile,
		wantTargetFile + ": " + wantObj,
		"$(CC) -c $(hello_cflags) -o " + wantObj + " main.c",
		"$(LD) -o " + wantTargetFile + " " + wantObj + " $(hello_ldflags)",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q; full output:\n%s", want, got)
		}
	}
}

func TestEmitSharedPlusBinaryDepLinksAndRpaths(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "foo.c")
	writeSource(t, dir, "app.c")

	s := store.New()
	s.Declare(store.Targets, "foo")
	s.Set(store.Targets, "foo", model.AttrKind, string(model.KindShared))
	s.AppendAll(store.Targets, "foo", model.AttrFiles, []string{"foo.c"})

	s.Declare(store.Targets, "app")
	s.Set(store.Targets, "app", model.AttrKind, string(model.KindBinary))
	s.AppendAll(store.Targets, "app", model.AttrFiles, []string{"app.c"})
	// add_deps("foo") alone must be enough: the resolver synthesizes app's
	// -L/-l/rpath flags from foo's own targetdir and name.
	s.AppendAll(store.Targets, "app", model.AttrDeps, []string{"foo"})

	plat := graph.Platform{Plat: "linux", Arch: "x86_64", Mode: "release", Buildir: "build"}
	r := graph.NewResolver(s, plat, dir)
	targets, err := r.ResolveAll()
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}

	var out strings.Builder
	e := NewEmitter(&out, s, r,
		Toolset{flags.CC: "gcc", flags.LD: "gcc", flags.AR: "ar"},
		map[flags.Toolkind]flags.Toolname{flags.CC: flags.GCC, flags.LD: flags.GCC},
		Dirs{},
	)
	if err := e.Emit(targets); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	got := out.String()

	if !strings.Contains(got, "-Lbuild/linux/x86_64/release -lfoo") {
		t.Fatalf("expected link dir + lib flag synthesized from add_deps, got:\n%s", got)
	}
	if !strings.Contains(got, `-Wl,-rpath='build/linux/x86_64/release'`) {
		t.Fatalf("expected rpath synthesized to foo's targetdir, got:\n%s", got)
	}
}

func TestParseInstallDestPath(t *testing.T) {
	i := ParseInstall("src/foo/bar.h:src:include:")
	got := i.DestPath()
	want := "include/foo/bar.h"
	if got != want {
		t.Fatalf("DestPath = %q, want %q", got, want)
	}
}

func TestParseInstallFilenameOverride(t *testing.T) {
	i := ParseInstall("build/bar.h::include:renamed.h")
	got := i.DestPath()
	want := "include/renamed.h"
	if got != want {
		t.Fatalf("DestPath = %q, want %q", got, want)
	}
}
