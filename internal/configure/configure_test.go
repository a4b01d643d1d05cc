package configure

import "testing"

func TestVerifyMakeProgramFailsForNonexistentProgram(t *testing.T) {
	if err := verifyMakeProgram("forgemk-definitely-not-a-real-program"); err == nil {
		t.Fatal("expected an error for a nonexistent make program")
	}
}

func TestDefaultDirsFillsInMissingFields(t *testing.T) {
	o := Options{}
	defaultDirs(&o)

	if o.Mode != "release" {
		t.Errorf("Mode = %q, want release", o.Mode)
	}
	if o.Buildir != "build" {
		t.Errorf("Buildir = %q, want build", o.Buildir)
	}
	if o.Prefix != "/usr/local" {
		t.Errorf("Prefix = %q, want /usr/local", o.Prefix)
	}
	if o.MakeProgram != "make" {
		t.Errorf("MakeProgram = %q, want make", o.MakeProgram)
	}
	if o.Plat == "" || o.Arch == "" {
		t.Error("expected Plat/Arch to default to the host")
	}
}

func TestDefaultDirsPreservesExplicitValues(t *testing.T) {
	o := Options{Mode: "debug", MakeProgram: "gmake"}
	defaultDirs(&o)

	if o.Mode != "debug" {
		t.Errorf("Mode = %q, want debug to be preserved", o.Mode)
	}
	if o.MakeProgram != "gmake" {
		t.Errorf("MakeProgram = %q, want gmake to be preserved", o.MakeProgram)
	}
}
