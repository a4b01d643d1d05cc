package scope

import (
	"testing"

	"github.com/forgemk/forgemk/internal/store"
)

func TestSetPhaseClearsOpenScopes(t *testing.T) {
	s := New("/proj")
	s.BeginOption("pthread")
	if _, ok := s.CurrentOption(); !ok {
		t.Fatal("expected option scope open")
	}

	s.SetPhase(PhaseTargets)
	if _, ok := s.CurrentOption(); ok {
		t.Fatal("expected option scope cleared after phase transition")
	}
}

func TestBeginOptionNoopOutsideLoadPhase(t *testing.T) {
	s := New("/proj")
	s.SetPhase(PhaseTargets)
	s.BeginOption("pthread")
	if _, ok := s.CurrentOption(); ok {
		t.Fatal("expected BeginOption to be a no-op outside the load phase")
	}
}

func TestBeginTargetNoopOutsideTargetsPhase(t *testing.T) {
	s := New("/proj")
	s.BeginTarget("app")
	if name := s.CurrentTarget(); name != "" && s.hasTarget {
		t.Fatalf("expected BeginTarget to be a no-op during load phase, got %q", name)
	}
}

func TestCurrentTargetDefaultsToRootScope(t *testing.T) {
	s := New("/proj")
	s.SetPhase(PhaseTargets)
	if got := s.CurrentTarget(); got != store.RootScope {
		t.Fatalf("CurrentTarget() = %q, want RootScope", got)
	}
}

func TestScriptDirStackPushPop(t *testing.T) {
	s := New("/proj")
	s.PushScriptDir("/proj/sub")
	if got := s.ScriptDir(); got != "/proj/sub" {
		t.Fatalf("ScriptDir() = %q", got)
	}
	s.PopScriptDir()
	if got := s.ScriptDir(); got != "/proj" {
		t.Fatalf("ScriptDir() after pop = %q", got)
	}
}

func TestScriptDirStackNeverEmpties(t *testing.T) {
	s := New("/proj")
	s.PopScriptDir()
	if got := s.ScriptDir(); got != "/proj" {
		t.Fatalf("ScriptDir() = %q, expected the initial dir to survive an extra pop", got)
	}
}
