// Package configfile implements the configfile templater (§4.7):
// `${VAR}`/`${define VAR}` substitution against a target's version, date,
// and git metadata, preserving everything else byte-for-byte.
package configfile

import (
	"regexp"
	"strings"
	"time"

	"github.com/forgemk/forgemk/internal/osutil"
)

var (
	varRE    = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	defineRE = regexp.MustCompile(`\$\{define\s+([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// Vars is a plain substitution table, keyed by variable name (without the
// `${}` wrapper).
type Vars map[string]string

// Platform carries the fields the templater needs to compute OS/version
// predefined variables without importing the graph or store packages.
type Platform struct {
	Plat         string
	Version      string
	VersionBuild string // date format pattern
}

func (p Platform) isMingw() bool { return strings.Contains(p.Plat, "mingw") }

// Now is injected so substitution is deterministic under test; production
// callers pass time.Now().
type Now func() time.Time

// BuildVars assembles the predefined variable table for one target: OS,
// VERSION and its major/minor/alter split, VERSION_BUILD (formatted per the
// target's date pattern), and, when the template mentions any GIT_ token,
// git metadata resolved by subprocess.
func BuildVars(p Platform, now Now, projectDir string, template string) Vars {
	vars := Vars{
		"OS":      osName(p),
		"VERSION": p.Version,
	}
	major, minor, alter := splitVersion(p.Version)
	vars["VERSION_MAJOR"] = major
	vars["VERSION_MINOR"] = minor
	vars["VERSION_ALTER"] = alter

	if p.VersionBuild != "" {
		t := time.Now()
		if now != nil {
			t = now()
		}
		vars["VERSION_BUILD"] = formatDate(p.VersionBuild, t)
	}

	if strings.Contains(template, "GIT_") {
		for k, v := range gitVars(projectDir) {
			vars[k] = v
		}
	}
	return vars
}

func osName(p Platform) string {
	if p.isMingw() {
		return "WINDOWS"
	}
	return strings.ToUpper(p.Plat)
}

func splitVersion(version string) (major, minor, alter string) {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) > 0 {
		major = parts[0]
	}
	if len(parts) > 1 {
		minor = parts[1]
	}
	if len(parts) > 2 {
		alter = parts[2]
	}
	return major, minor, alter
}

// formatDate translates a small set of strftime-style directives into Go's
// reference-time layout, matching the "version_build is a date format
// pattern applied to the current local time" rule.
func formatDate(pattern string, t time.Time) string {
	replacer := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
	)
	layout := replacer.Replace(pattern)
	return t.Format(layout)
}

func gitVars(dir string) Vars {
	out := Vars{}
	run := func(args ...string) (string, bool) {
		ok, output, err := osutil.Run("git", args, nil)
		if err != nil || !ok {
			return "", false
		}
		return strings.TrimSpace(output), true
	}
	if v, ok := run("-C", dir, "describe", "--tags"); ok {
		out["GIT_TAG"] = v
	}
	if v, ok := run("-C", dir, "describe", "--tags", "--long"); ok {
		out["GIT_TAG_LONG"] = v
	}
	if v, ok := run("-C", dir, "rev-parse", "--abbrev-ref", "HEAD"); ok {
		out["GIT_BRANCH"] = v
	}
	if v, ok := run("-C", dir, "rev-parse", "--short", "HEAD"); ok {
		out["GIT_COMMIT_SHORT"] = v
	}
	if v, ok := run("-C", dir, "rev-parse", "HEAD"); ok {
		out["GIT_COMMIT"] = v
	}
	if v, ok := run("-C", dir, "log", "-1", "--format=%cI"); ok {
		out["GIT_COMMIT_DATE"] = v
	}
	return out
}

// Substitute applies `${VAR}` and `${define VAR}` rules against src,
// preserving every other byte verbatim. Missing vars are left as an undef
// define, or, for a bare `${VAR}`, dropped to the empty string.
func Substitute(src string, vars Vars) string {
	out := defineRE.ReplaceAllStringFunc(src, func(m string) string {
		name := defineRE.FindStringSubmatch(m)[1]
		return renderDefine(name, vars[name])
	})
	out = varRE.ReplaceAllStringFunc(out, func(m string) string {
		name := varRE.FindStringSubmatch(m)[1]
		return vars[name]
	})
	// Final sweep: any `${define X}` that a `${VAR}` substitution value
	// introduced after the first pass renders as an explicit undef.
	out = defineRE.ReplaceAllStringFunc(out, func(m string) string {
		name := defineRE.FindStringSubmatch(m)[1]
		return "/* #undef " + name + " */"
	})
	return out
}

func renderDefine(name, value string) string {
	switch value {
	case "":
		return "/* #undef " + name + " */"
	case "1", "true":
		return "#define " + name + " 1"
	case "0", "false":
		return "/* #define " + name + " 0 */"
	default:
		return "#define " + name + " " + value
	}
}
