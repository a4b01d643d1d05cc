// Package osutil holds the pure string/path/OS helpers shared across the
// configurator: glob expansion, temp files, and subprocess execution. The
// spec treats general glob utilities as an external collaborator assumed
// available; no example in the retrieval pack ships a third-party glob
// engine, so this stays on path/filepath, matching what the spec calls out
// as out of scope for the core.
package osutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Glob expands a single file pattern per the rule: recursive glob for `**`,
// single-depth for `*`, literal for no wildcard.
func Glob(root, pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[") {
		full := filepath.Join(root, pattern)
		if _, err := os.Stat(full); err != nil {
			return nil, nil
		}
		return []string{pattern}, nil
	}

	if strings.Contains(pattern, "**") {
		return globRecursive(root, pattern)
	}

	full := filepath.Join(root, pattern)
	matches, err := filepath.Glob(full)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(root, m)
		if err != nil {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out, nil
}

// globRecursive supports exactly one "**" segment, expanding it to every
// directory depth beneath root before matching the remaining pattern
// components against each candidate directory.
func globRecursive(root, pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	before, after, _ := strings.Cut(pattern, "**")
	before = strings.TrimSuffix(before, "/")
	after = strings.TrimPrefix(after, "/")

	base := filepath.Join(root, before)
	var out []string
	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if after == "" {
			out = append(out, filepath.ToSlash(filepath.Join(before, rel)))
			return nil
		}
		matched, err := filepath.Match(after, filepath.Base(rel))
		if err == nil && matched {
			out = append(out, filepath.ToSlash(filepath.Join(before, rel)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// TempFile creates an empty file with the given suffix in dir (or the
// system temp dir when dir is empty) and returns its path. Callers are
// responsible for removing it on every exit path.
func TempFile(dir, prefix, suffix string) (string, error) {
	f, err := os.CreateTemp(dir, prefix+"*"+suffix)
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	return name, nil
}

// Run executes program with args, returning true iff it exits zero.
// Combined output is returned for debug logging; it is never printed
// directly by this helper.
func Run(program string, args []string, env []string) (ok bool, output string, err error) {
	cmd := exec.Command(program, args...)
	if env != nil {
		cmd.Env = env
	}
	out, runErr := cmd.CombinedOutput()
	if runErr == nil {
		return true, string(out), nil
	}
	if _, isExit := runErr.(*exec.ExitError); isExit {
		return false, string(out), nil
	}
	return false, string(out), runErr
}
