package toolchain

import (
	"os"
	"runtime"
	"strings"

	"github.com/forgemk/forgemk/internal/store"
)

// RequiredKinds are the toolset kinds every candidate toolchain must fully
// resolve for detection to declare the toolchain usable.
var RequiredKinds = []string{"cc", "cxx", "as", "mm", "mxx", "ld", "ar", "sh"}

// RegisterDefaults declares the minimum pre-declared toolchains (§4.5) into
// the store, without clobbering any toolchain a project script already
// declared under the same name.
func RegisterDefaults(s *store.Store) {
	registerIfAbsent(s, "gcc", map[string][]string{
		"cc": {"gcc"}, "cxx": {"g++"}, "as": {"gcc"}, "mm": {"gcc"},
		"mxx": {"g++"}, "ld": {"gcc"}, "sh": {"gcc"}, "ar": {"ar"},
	})
	registerIfAbsent(s, "clang", map[string][]string{
		"cc": {"clang"}, "cxx": {"clang++"}, "as": {"clang"}, "mm": {"clang"},
		"mxx": {"clang++"}, "ld": {"clang"}, "sh": {"clang"}, "ar": {"ar"},
	})
	registerIfAbsent(s, "envs", map[string][]string{
		"cc": envCandidates("CC"), "cxx": envCandidates("CXX"),
		"as": envCandidates("AS"), "mm": envCandidates("CC"),
		"mxx": envCandidates("CXX"), "ld": envCandidates("LD"),
		"sh": envCandidates("CC"), "ar": envCandidates("AR"),
	})
	registerMingw(s, "x86_64_w64_mingw32", "x86_64-w64-mingw32")
	registerMingw(s, "i686_w64_mingw32", "i686-w64-mingw32")
}

func registerMingw(s *store.Store, name, prefix string) {
	registerIfAbsent(s, name, map[string][]string{
		"cc": {prefix + "-gcc"}, "cxx": {prefix + "-g++"}, "as": {prefix + "-gcc"},
		"mm": {prefix + "-gcc"}, "mxx": {prefix + "-g++"}, "ld": {prefix + "-gcc"},
		"sh": {prefix + "-gcc"}, "ar": {prefix + "-ar"},
	})
}

func envCandidates(name string) []string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return []string{v}
	}
	return nil
}

func registerIfAbsent(s *store.Store, name string, toolsets map[string][]string) {
	if s.Exists(store.Toolchains, name) {
		return
	}
	s.Declare(store.Toolchains, name)
	for kind, candidates := range toolsets {
		s.AppendAll(store.Toolchains, name, "toolset_"+kind, candidates)
	}
}

// DefaultOrder returns the platform-defaulted candidate order the detector
// tries: macOS prefers clang then gcc; elsewhere gcc then clang; the mingw
// platform (any `plat` containing "mingw", the same convention
// graph.Platform.isMingw and configfile.Platform.isMingw use) forces the
// mingw-prefixed toolchain matching arch.
func DefaultOrder(plat, arch string) []string {
	if strings.Contains(plat, "mingw") {
		if arch == "386" {
			return []string{"i686_w64_mingw32"}
		}
		return []string{"x86_64_w64_mingw32"}
	}
	if plat == "darwin" {
		return []string{"clang", "gcc", "envs"}
	}
	return []string{"gcc", "clang", "envs"}
}

// HostDefaultOrder is DefaultOrder for the running host.
func HostDefaultOrder() []string { return DefaultOrder(runtime.GOOS, runtime.GOARCH) }
