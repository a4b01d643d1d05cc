// Package diagnosis implements the --diagnosis inspection mode: a
// non-mutating dump of the resolved store, either pretty-printed with
// sanity-io/litter or queried with jmespath-go, plus the single fatal exit
// primitive used throughout the configurator.
package diagnosis

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmespath/go-jmespath"
	"github.com/sanity-io/litter"

	"github.com/forgemk/forgemk/internal/store"
)

// Fatal prints a single-line diagnostic to stderr and exits 1. No cleanup
// beyond whatever temp-file removal already ran via defer.
func Fatal(format string, args ...any) {
	fmt.Fprintln(os.Stderr, "forgemk: "+fmt.Sprintf(format, args...))
	os.Exit(1)
}

// Snapshot is the JSON-shaped projection of the resolved store that
// --diagnosis operates on.
type Snapshot struct {
	Options    map[string]map[string]string `json:"options"`
	Toolchains map[string]map[string]string `json:"toolchains"`
	Targets    map[string]map[string]string `json:"targets"`
}

// BuildSnapshot walks every declared entity in s into a Snapshot.
func BuildSnapshot(s *store.Store) Snapshot {
	snap := Snapshot{
		Options:    entitiesOf(s, store.Options),
		Toolchains: entitiesOf(s, store.Toolchains),
		Targets:    entitiesOf(s, store.Targets),
	}
	return snap
}

func entitiesOf(s *store.Store, kind store.Kind) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, name := range s.EntityNames(kind) {
		out[name] = s.Attributes(kind, name)
	}
	return out
}

// Dump renders a snapshot as a string: a litter pretty-print when expr is empty,
// otherwise the result of evaluating expr as a jmespath query over the
// snapshot's JSON projection.
func Dump(snap Snapshot, expr string) (string, error) {
	if expr == "" {
		return litter.Sdump(snap), nil
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", err
	}

	result, err := jmespath.Search(expr, data)
	if err != nil {
		return "", fmt.Errorf("diagnosis query %q: %w", expr, err)
	}
	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(pretty), nil
}
