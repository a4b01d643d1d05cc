package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAppendPreservesOrderAndDuplicates(t *testing.T) {
	s := New()
	s.Append(Targets, "app", "defines", "A")
	s.Append(Targets, "app", "defines", "B")
	s.Append(Targets, "app", "defines", "A")

	got := s.GetList(Targets, "app", "defines")
	want := []string{"A", "B", "A"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetList mismatch (-want +got):\n%s", diff)
	}
}

func TestRootScopePrependsForTargets(t *testing.T) {
	s := New()
	s.Append(Targets, RootScope, "warnings", "all")
	s.Append(Targets, "app", "warnings", "error")

	got := s.GetList(Targets, "app", "warnings")
	want := []string{"all", "error"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetList mismatch (-want +got):\n%s", diff)
	}
}

func TestRootScopeDoesNotAffectOtherKinds(t *testing.T) {
	s := New()
	s.Append(Options, RootScope, "cflags", "-Wall")
	s.Append(Options, "pthread", "cflags", "-pthread")

	got := s.GetList(Options, "pthread", "cflags")
	want := []string{"-pthread"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetList mismatch (-want +got):\n%s", diff)
	}
}

func TestEntityNamesFirstOccurrence(t *testing.T) {
	s := New()
	s.Declare(Targets, "foo")
	s.Declare(Targets, "bar")
	s.Declare(Targets, "foo")

	got := s.EntityNames(Targets)
	want := []string{"foo", "bar"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EntityNames mismatch (-want +got):\n%s", diff)
	}
}

func TestGetMissingKeyIsFalse(t *testing.T) {
	s := New()
	s.Declare(Options, "pthread")
	if _, ok := s.Get(Options, "pthread", "default"); ok {
		t.Fatalf("expected missing attribute to report ok=false")
	}
}
