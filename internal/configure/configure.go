// Package configure orchestrates the load -> detect -> generate pipeline
// (§5): strictly sequential, single-threaded, with a single fatal exit on
// any unrecoverable error.
package configure

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/forgemk/forgemk/internal/configfile"
	"github.com/forgemk/forgemk/internal/flags"
	"github.com/forgemk/forgemk/internal/graph"
	"github.com/forgemk/forgemk/internal/makefile"
	"github.com/forgemk/forgemk/internal/model"
	"github.com/forgemk/forgemk/internal/osutil"
	"github.com/forgemk/forgemk/internal/probe"
	"github.com/forgemk/forgemk/internal/scope"
	"github.com/forgemk/forgemk/internal/script"
	"github.com/forgemk/forgemk/internal/store"
	"github.com/forgemk/forgemk/internal/toolchain"
	"github.com/forgemk/forgemk/internal/ui"
)

// Options carries the CLI-derived inputs that steer configure, beyond what
// scripts declare in the store.
type Options struct {
	ProjectRoot     string
	Plat            string
	Arch            string
	Mode            string
	Toolchain       string // explicit override; empty means platform-defaulted order
	Prefix          string
	Bindir          string
	Libdir          string
	Includedir      string
	Buildir         string
	OptionOverrides map[string]string // --<option>=<value>
	CacheFile       string
	ToolchainBucket string // s3://... optional mingw fetch mirror
	MakeProgram     string // path to make, verified via --version before generation
	Verbose         bool
}

func defaultDirs(o *Options) {
	if o.Mode == "" {
		o.Mode = "release"
	}
	if o.Buildir == "" {
		o.Buildir = "build"
	}
	if o.Prefix == "" {
		o.Prefix = "/usr/local"
	}
	if o.Bindir == "" {
		o.Bindir = "bin"
	}
	if o.Libdir == "" {
		o.Libdir = "lib"
	}
	if o.Includedir == "" {
		o.Includedir = "include"
	}
	if o.Plat == "" {
		o.Plat = runtime.GOOS
	}
	if o.Arch == "" {
		o.Arch = runtime.GOARCH
	}
	if o.MakeProgram == "" {
		o.MakeProgram = "make"
	}
}

// Run executes the full pipeline: load scripts, detect a toolchain, probe
// options, resolve the target graph, and emit the Makefile plus any
// configfiles. It returns an error on any fatal condition; callers translate
// that into the single stderr line + exit 1 of §7.
func Run(o Options, out *ui.UI) error {
	defaultDirs(&o)

	s := store.New()
	sc := scope.New(o.ProjectRoot)
	loader := script.NewLoader(s, sc, "")

	scriptPath, err := script.DiscoverScriptFile(o.ProjectRoot)
	if err != nil {
		return err
	}

	loader.SetEnvironment(o.Plat, o.Arch, o.Mode, o.Toolchain)
	sc.SetPhase(scope.PhaseLoad)
	if err := loader.LoadFile(scriptPath); err != nil {
		return err
	}
	toolchain.RegisterDefaults(s)

	for name, value := range o.OptionOverrides {
		if !s.Exists(store.Options, name) {
			return fmt.Errorf("unknown option %q", name)
		}
		s.Set(store.Options, name, model.AttrDefault, value)
	}

	out.Checking("checking for platform ... %s", o.Plat)
	out.Checking("checking for architecture ... %s", o.Arch)

	sc.SetPhase(scope.PhaseDetect)
	order := toolchain.DefaultOrder(o.Plat, o.Arch)
	if o.Toolchain != "" {
		order = []string{o.Toolchain}
	}
	resolved, err := toolchain.Detect(s, order, o.ProjectRoot, out.Checking)
	if err != nil {
		if o.ToolchainBucket != "" && len(order) > 0 {
			bin, ferr := toolchain.FetchMingwFromBucket(o.ToolchainBucket, order[0], filepath.Join(o.Buildir, ".toolchains"))
			if ferr == nil {
				os.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
				resolved, err = toolchain.Detect(s, order, o.ProjectRoot, out.Checking)
			}
		}
		if err != nil {
			return err
		}
	}

	cache := toolchain.LoadCache(cacheFilePath(o))
	if err := probe.Probe(s, resolved, cache, o.ProjectRoot, out.Checking); err != nil {
		return err
	}
	if err := cache.Save(); err != nil {
		return err
	}

	loader.SetEnvironment(o.Plat, o.Arch, o.Mode, resolved.Name)
	sc.SetPhase(scope.PhaseTargets)
	if err := loader.LoadFile(scriptPath); err != nil {
		return err
	}

	plat := graph.Platform{Plat: o.Plat, Arch: o.Arch, Mode: o.Mode, Buildir: o.Buildir}
	resolver := graph.NewResolver(s, plat, o.ProjectRoot)
	targets, err := resolver.ResolveAll()
	if err != nil {
		return err
	}

	if err := verifyMakeProgram(o.MakeProgram); err != nil {
		return err
	}

	if err := generateConfigfiles(s, targets, loader, o, out); err != nil {
		return err
	}

	out.Status("generating makefile ..")
	if err := writeMakefile(s, resolver, resolved, targets, o); err != nil {
		return err
	}
	out.Status("makefile is generated!")
	return nil
}

// verifyMakeProgram is the fatal "make not found" check of §7's error
// taxonomy: the configured backend must answer --version before generation
// proceeds.
func verifyMakeProgram(program string) error {
	ok, _, err := osutil.Run(program, []string{"--version"}, nil)
	if err != nil || !ok {
		return fmt.Errorf("make not found: %s", program)
	}
	return nil
}

func cacheFilePath(o Options) string {
	if o.CacheFile != "" {
		return o.CacheFile
	}
	return filepath.Join(o.ProjectRoot, toolchain.CacheFile)
}

func generateConfigfiles(s *store.Store, targets []*graph.Target, loader *script.Loader, o Options, out *ui.UI) error {
	for _, t := range targets {
		version, _ := s.GetOverride(store.Targets, t.Name, model.AttrVersion)
		versionBuild, _ := s.GetOverride(store.Targets, t.Name, model.AttrVersionBld)
		configDir, _ := s.GetOverride(store.Targets, t.Name, model.AttrConfigDir)

		for _, tmplPath := range s.GetList(store.Targets, t.Name, model.AttrConfigFiles) {
			full := tmplPath
			if !filepath.IsAbs(full) {
				full = filepath.Join(o.ProjectRoot, tmplPath)
			}
			raw, err := os.ReadFile(full)
			if err != nil {
				return err
			}
			out.Status("generating %s ..", tmplPath)

			cfPlat := configfile.Platform{Plat: o.Plat, Version: version, VersionBuild: versionBuild}
			vars := configfile.BuildVars(cfPlat, nil, o.ProjectRoot, string(raw))
			for _, name := range s.GetList(store.Targets, t.Name, model.AttrConfigVars) {
				if v, ok := s.GetOverride(store.Targets, t.Name, fmt.Sprintf(model.AttrConfigVarFmt, name)); ok {
					vars[name] = v
				}
			}
			if _, err := configfile.Generate(full, configDir, vars); err != nil {
				return err
			}
			out.Status("%s is generated!", tmplPath)
		}
	}
	return nil
}

func writeMakefile(s *store.Store, resolver *graph.Resolver, resolved *toolchain.Resolved, targets []*graph.Target, o Options) error {
	f, err := os.Create(filepath.Join(o.ProjectRoot, "Makefile"))
	if err != nil {
		return err
	}
	defer f.Close()

	toolset := makefile.Toolset{}
	for kindStr, program := range programStrings(resolved) {
		toolset[flags.Toolkind(kindStr)] = program
	}
	dirs := makefile.Dirs{
		Prefix: o.Prefix, Bindir: o.Bindir, Libdir: o.Libdir,
		Includedir: o.Includedir, Installdir: o.Prefix,
	}
	emitter := makefile.NewEmitter(f, s, resolver, toolset, resolved.Names, dirs)
	return emitter.Emit(targets)
}

func programStrings(r *toolchain.Resolved) map[string]string {
	out := make(map[string]string, len(r.Programs))
	for k, v := range r.Programs {
		out[string(k)] = v
	}
	return out
}
