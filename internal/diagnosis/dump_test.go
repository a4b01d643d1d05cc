package diagnosis

import (
	"strings"
	"testing"

	"github.com/forgemk/forgemk/internal/model"
	"github.com/forgemk/forgemk/internal/store"
)

func TestBuildSnapshotIncludesDeclaredOptions(t *testing.T) {
	s := store.New()
	s.Declare(store.Options, "pthread")
	s.Set(store.Options, "pthread", model.AttrValue, "true")

	snap := BuildSnapshot(s)
	if snap.Options["pthread"][model.AttrValue] != "true" {
		t.Fatalf("snapshot options = %+v", snap.Options)
	}
}

func TestDumpWithoutExprUsesLitter(t *testing.T) {
	s := store.New()
	s.Declare(store.Options, "pthread")
	snap := BuildSnapshot(s)

	out, err := Dump(snap, "")
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(out, "pthread") {
		t.Fatalf("expected litter dump to mention pthread, got:\n%s", out)
	}
}

func TestDumpWithJMESPathExpr(t *testing.T) {
	s := store.New()
	s.Declare(store.Options, "pthread")
	s.Set(store.Options, "pthread", model.AttrValue, "true")
	snap := BuildSnapshot(s)

	out, err := Dump(snap, "options.pthread.value")
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(out, "true") {
		t.Fatalf("expected query result to contain true, got:\n%s", out)
	}
}
