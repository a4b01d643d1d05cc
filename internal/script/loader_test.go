package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/forgemk/forgemk/internal/model"
	"github.com/forgemk/forgemk/internal/scope"
	"github.com/forgemk/forgemk/internal/store"
)

const testScript = `
project {
  name    = "widget"
  version = "1.2.3"
}

option "pthread" {
  description = "POSIX threads"
  links       = ["pthread"]
}

toolchain "gcc" {
  toolset_cc = ["gcc"]
  toolset_ar = ["ar"]
}

target "libwidget" {
  kind    = "static"
  files   = ["src/*.c"]
  defines = ["WIDGET_VERSION=1", "{public}", "WIDGET_EXPORT"]
}
`

func writeScript(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "project.hcl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoaderRegistersOptionsAndToolchainsDuringLoadPhase(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, testScript)

	s := store.New()
	sc := scope.New(dir)
	l := NewLoader(s, sc, "")
	sc.SetPhase(scope.PhaseLoad)

	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if !s.Exists(store.Options, "pthread") {
		t.Fatal("expected option pthread to be declared")
	}
	if got := s.GetList(store.Options, "pthread", model.AttrLinks); len(got) != 1 || got[0] != "pthread" {
		t.Fatalf("option links = %v", got)
	}
	if !s.Exists(store.Toolchains, "gcc") {
		t.Fatal("expected toolchain gcc to be declared")
	}
	if s.Exists(store.Targets, "libwidget") {
		t.Fatal("targets must not load during the load phase")
	}
	if l.Project.Name != "widget" || l.Project.Version != "1.2.3" {
		t.Fatalf("project meta = %+v", l.Project)
	}
}

func TestLoaderRegistersTargetsDuringTargetsPhaseAndSplitsPublicMarker(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, testScript)

	s := store.New()
	sc := scope.New(dir)
	l := NewLoader(s, sc, "")
	sc.SetPhase(scope.PhaseTargets)

	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if !s.Exists(store.Targets, "libwidget") {
		t.Fatal("expected target libwidget to be declared")
	}
	defines := s.GetList(store.Targets, "libwidget", model.AttrDefines)
	if len(defines) != 2 {
		t.Fatalf("defines = %v, want both entries kept (public marker stripped, not dropped)", defines)
	}
	public := s.GetList(store.Targets, "libwidget", model.PublicAttr(model.AttrDefines))
	if len(public) != 2 || public[0] != "WIDGET_VERSION=1" || public[1] != "WIDGET_EXPORT" {
		t.Fatalf("public defines = %v, want [WIDGET_VERSION=1 WIDGET_EXPORT]", public)
	}
	if s.Exists(store.Options, "pthread") {
		// options were never declared in this fresh store during this phase
		t.Fatal("expected pthread not to be declared when only the targets phase ran")
	}
}

func TestLoaderIncludeLoadsSubordinateFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "extra.hcl"), []byte(`
option "shared" {
  description = "build shared libraries"
}
`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	path := writeScript(t, dir, `
include "extra.hcl" {}
`)

	s := store.New()
	sc := scope.New(dir)
	l := NewLoader(s, sc, "")
	sc.SetPhase(scope.PhaseLoad)

	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !s.Exists(store.Options, "shared") {
		t.Fatal("expected included file's option to be registered")
	}
}
