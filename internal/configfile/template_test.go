package configfile

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)
}

func TestSubstituteDefineVariants(t *testing.T) {
	src := "${define HAS_PTHREAD}\n${define DISABLED}\n${define UNSET}\n${VERSION_MAJOR}"
	vars := Vars{"HAS_PTHREAD": "1", "DISABLED": "0", "VERSION_MAJOR": "1"}

	got := Substitute(src, vars)
	want := "#define HAS_PTHREAD 1\n/* #define DISABLED 0 */\n/* #undef UNSET */\n1"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestSubstituteArbitraryValueDefine(t *testing.T) {
	got := Substitute("${define NAME}", Vars{"NAME": "forgemk"})
	want := "#define NAME forgemk"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSubstitutePreservesUnrelatedBytes(t *testing.T) {
	src := "line one\n${VERSION}\nline three\n"
	got := Substitute(src, Vars{"VERSION": "1.2.3"})
	want := "line one\n1.2.3\nline three\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSubstituteIsDeterministic(t *testing.T) {
	src := "${VERSION_MAJOR}.${VERSION_MINOR}.${VERSION_ALTER} ${define X}"
	vars := Vars{"VERSION_MAJOR": "1", "VERSION_MINOR": "2", "VERSION_ALTER": "3", "X": "1"}
	first := Substitute(src, vars)
	second := Substitute(src, vars)
	if first != second {
		t.Fatalf("substitution not deterministic: %q vs %q", first, second)
	}
}

func TestBuildVarsSplitsVersionAndFormatsBuildDate(t *testing.T) {
	p := Platform{Plat: "linux", Version: "1.2.3", VersionBuild: "%Y%m%d"}
	vars := BuildVars(p, fixedNow, ".", "no git tokens here")

	if vars["VERSION_MAJOR"] != "1" || vars["VERSION_MINOR"] != "2" || vars["VERSION_ALTER"] != "3" {
		t.Fatalf("version split wrong: %+v", vars)
	}
	if vars["VERSION_BUILD"] != "20260806" {
		t.Fatalf("VERSION_BUILD = %q, want 20260806", vars["VERSION_BUILD"])
	}
	if vars["OS"] != "LINUX" {
		t.Fatalf("OS = %q, want LINUX", vars["OS"])
	}
}

func TestBuildVarsOSIsWindowsForMingw(t *testing.T) {
	p := Platform{Plat: "x86_64_w64_mingw32", Version: "1.0.0"}
	vars := BuildVars(p, fixedNow, ".", "")
	if vars["OS"] != "WINDOWS" {
		t.Fatalf("OS = %q, want WINDOWS", vars["OS"])
	}
}
