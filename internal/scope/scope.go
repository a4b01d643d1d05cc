// Package scope implements the loader state machine of the configuration
// model: three mutually exclusive phases gate which registration calls take
// effect, and a single scope (option, toolchain, or target) is "current" at
// any time during loading.
package scope

import "github.com/forgemk/forgemk/internal/store"

// Phase is one of the three mutually exclusive loading phases.
type Phase int

const (
	// PhaseLoad covers both options and toolchains loading: `options=true,
	// toolchains=true, targets=false` in the spec's phase table.
	PhaseLoad Phase = iota
	// PhaseDetect is probing/detection: nothing is loadable.
	PhaseDetect
	// PhaseTargets is target loading: `targets=true` only.
	PhaseTargets
)

// Scope tracks the loader's current phase and the entity currently open for
// mutation. Unscoped setters (no current option/toolchain/target) affect
// root scope for targets, and are no-ops for options/toolchains (there is
// no root scope for those kinds).
type Scope struct {
	phase          Phase
	currentOption  string
	currentToolchn string
	currentTarget  string
	hasOption      bool
	hasToolchain   bool
	hasTarget      bool
	scriptDirStack []string
}

// New returns a Scope starting in the options/toolchains loading phase with
// scriptdir set to dir.
func New(dir string) *Scope {
	return &Scope{phase: PhaseLoad, scriptDirStack: []string{dir}}
}

func (s *Scope) Phase() Phase { return s.phase }

// SetPhase transitions the loader; mid-block scopes are cleared, matching
// the spec's "silently ignored" rule for calls issued in the wrong phase
// (a stale open scope from a previous phase can never leak into the next).
func (s *Scope) SetPhase(p Phase) {
	s.phase = p
	s.hasOption, s.hasToolchain, s.hasTarget = false, false, false
	s.currentOption, s.currentToolchn, s.currentTarget = "", "", ""
}

func (s *Scope) OptionsLoadable() bool    { return s.phase == PhaseLoad }
func (s *Scope) ToolchainsLoadable() bool { return s.phase == PhaseLoad }
func (s *Scope) TargetsLoadable() bool    { return s.phase == PhaseTargets }

// BeginOption opens an option scope. No-op outside the load phase.
func (s *Scope) BeginOption(name string) {
	if !s.OptionsLoadable() {
		return
	}
	s.currentOption, s.hasOption = name, true
}

func (s *Scope) EndOption() { s.currentOption, s.hasOption = "", false }

// CurrentOption returns the open option name, or "" if none is open.
func (s *Scope) CurrentOption() (string, bool) { return s.currentOption, s.hasOption }

func (s *Scope) BeginToolchain(name string) {
	if !s.ToolchainsLoadable() {
		return
	}
	s.currentToolchn, s.hasToolchain = name, true
}

func (s *Scope) EndToolchain() { s.currentToolchn, s.hasToolchain = "", false }

func (s *Scope) CurrentToolchain() (string, bool) { return s.currentToolchn, s.hasToolchain }

func (s *Scope) BeginTarget(name string) {
	if !s.TargetsLoadable() {
		return
	}
	s.currentTarget, s.hasTarget = name, true
}

func (s *Scope) EndTarget() { s.currentTarget, s.hasTarget = "", false }

// CurrentTarget returns the open target name, defaulting to root scope
// (store.RootScope) when no target block is open — unscoped add_* calls at
// targets-loading phase affect every target by concatenation at read time.
func (s *Scope) CurrentTarget() string {
	if !s.hasTarget {
		return store.RootScope
	}
	return s.currentTarget
}

// PushScriptDir/PopScriptDir implement the includes() convention: each
// included script sees its own directory as scriptdir, restored on return.
func (s *Scope) PushScriptDir(dir string) { s.scriptDirStack = append(s.scriptDirStack, dir) }

func (s *Scope) PopScriptDir() {
	if len(s.scriptDirStack) > 1 {
		s.scriptDirStack = s.scriptDirStack[:len(s.scriptDirStack)-1]
	}
}

func (s *Scope) ScriptDir() string {
	return s.scriptDirStack[len(s.scriptDirStack)-1]
}
