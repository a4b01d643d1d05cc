package toolchain

import "testing"

func TestDefaultOrderMatchesMingwByPlatStringNotGOOS(t *testing.T) {
	cases := []struct {
		plat, arch string
		want       string
	}{
		{"mingw", "amd64", "x86_64_w64_mingw32"},
		{"mingw", "386", "i686_w64_mingw32"},
		{"x86_64_w64_mingw32", "amd64", "x86_64_w64_mingw32"},
		{"linux", "amd64", "gcc"},
		{"darwin", "amd64", "clang"},
		// GOOS-shaped values are not the plat convention this repo uses for
		// mingw (graph.Platform.isMingw / configfile.Platform.isMingw both
		// key on the "mingw" substring, not "windows"), so "windows" alone
		// must not select a mingw toolchain.
		{"windows", "amd64", "gcc"},
	}
	for _, c := range cases {
		got := DefaultOrder(c.plat, c.arch)
		if len(got) == 0 || got[0] != c.want {
			t.Errorf("DefaultOrder(%q, %q) = %v, want first entry %q", c.plat, c.arch, got, c.want)
		}
	}
}
