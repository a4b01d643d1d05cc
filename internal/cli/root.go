// Package cli wires the CLI surface of §6 with spf13/cobra + spf13/pflag,
// following the command-tree shape of goplus-llar's cmd/llar/internal.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/forgemk/forgemk/internal/configure"
	"github.com/forgemk/forgemk/internal/diagnosis"
	"github.com/forgemk/forgemk/internal/scope"
	"github.com/forgemk/forgemk/internal/script"
	"github.com/forgemk/forgemk/internal/store"
	"github.com/forgemk/forgemk/internal/toolchain"
	"github.com/forgemk/forgemk/internal/ui"
)

var (
	flagVerbose         bool
	flagDiagnosis       string
	flagGenerator       string
	flagMake            string
	flagNinja           string
	flagPlat            string
	flagArch            string
	flagMode            string
	flagToolchain       string
	flagPrefix          string
	flagBindir          string
	flagLibdir          string
	flagIncludedir      string
	flagBuildir         string
	flagToolchainBucket string

	rootCmd = &cobra.Command{
		Use:     "forgemk",
		Aliases: []string{"configure"},
		Short:   "probe a host C/C++ toolchain and emit a self-contained Makefile",
		// project options aren't known until after the options-loading
		// phase runs, so an unrecognized --<option>=<value> at cobra's
		// parse time must not abort before dynamicOptionOverrides gets a
		// chance to register it and reparse os.Args.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	}
)

func init() {
	rootCmd.RunE = runConfigure
	fs := rootCmd.Flags()
	fs.BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	fs.StringVar(&flagDiagnosis, "diagnosis", "", "dump the resolved store; a jmespath expression queries it")
	fs.StringVar(&flagGenerator, "generator", "gmake", "backend generator: gmake or ninja (ninja is unsupported)")
	fs.StringVar(&flagMake, "make", "make", "path to the make program")
	fs.StringVar(&flagNinja, "ninja", "ninja", "path to the ninja program (unsupported)")
	fs.StringVar(&flagPlat, "plat", "", "target platform, defaults to the host")
	fs.StringVar(&flagArch, "arch", "", "target architecture, defaults to the host")
	fs.StringVar(&flagMode, "mode", "release", "build mode: release or debug")
	fs.StringVar(&flagToolchain, "toolchain", "", "force a specific declared toolchain")
	fs.StringVar(&flagPrefix, "prefix", "/usr/local", "install prefix")
	fs.StringVar(&flagBindir, "bindir", "bin", "binary install subdirectory")
	fs.StringVar(&flagLibdir, "libdir", "lib", "library install subdirectory")
	fs.StringVar(&flagIncludedir, "includedir", "include", "header install subdirectory")
	fs.StringVar(&flagBuildir, "buildir", "build", "build output directory")
	fs.StringVar(&flagToolchainBucket, "toolchain-bucket", "", "s3://bucket/prefix mirror for prebuilt mingw cross-toolchains")
	rootCmd.SetVersionTemplate("forgemk {{.Version}}\n")
	rootCmd.Version = "0.1.0"
}

// Execute runs the root command; called once from cmd/forgemk/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		diagnosis.Fatal("%s", err)
	}
}

func runConfigure(cmd *cobra.Command, args []string) error {
	if flagGenerator == "ninja" {
		return fmt.Errorf("ninja generator is not supported")
	}

	root, err := os.Getwd()
	if err != nil {
		return err
	}

	if flagDiagnosis != "" || cmd.Flags().Changed("diagnosis") {
		return runDiagnosis(root)
	}

	overrides, err := dynamicOptionOverrides(root, os.Args[1:])
	if err != nil {
		return err
	}

	out := ui.New(os.Stdout, flagVerbose)
	opts := configure.Options{
		ProjectRoot:     root,
		Plat:            flagPlat,
		Arch:            flagArch,
		Mode:            flagMode,
		Toolchain:       flagToolchain,
		Prefix:          flagPrefix,
		Bindir:          flagBindir,
		Libdir:          flagLibdir,
		Includedir:      flagIncludedir,
		Buildir:         flagBuildir,
		OptionOverrides: overrides,
		ToolchainBucket: flagToolchainBucket,
		MakeProgram:     flagMake,
		Verbose:         flagVerbose,
	}
	if err := configure.Run(opts, out); err != nil {
		diagnosis.Fatal("%s", err)
	}
	return nil
}

// dynamicOptionOverrides registers `--<option>=<value>` flags after a
// preliminary options-loading pass, per §6's "registered options are bound
// after the options-loading phase finishes."
func dynamicOptionOverrides(root string, args []string) (map[string]string, error) {
	s := store.New()
	sc := scope.New(root)
	sc.SetPhase(scope.PhaseLoad)
	loader := script.NewLoader(s, sc, "")
	loader.SetEnvironment(flagPlat, flagArch, flagMode, flagToolchain)

	scriptPath, err := script.DiscoverScriptFile(root)
	if err != nil {
		return nil, err
	}
	if err := loader.LoadFile(scriptPath); err != nil {
		return nil, err
	}
	toolchain.RegisterDefaults(s)

	// Reparse into a fresh FlagSet seeded from the static flags, rather than
	// mutating rootCmd's own set: normalizing in place would rename already
	// registered static flags (e.g. "toolchain-bucket" -> "toolchain_bucket")
	// as a side effect.
	fs := pflag.NewFlagSet("forgemk", pflag.ContinueOnError)
	fs.AddFlagSet(rootCmd.Flags())
	// project option names may contain underscores (they come straight from
	// HCL attribute names); normalize so --foo_bar and --foo-bar both bind.
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "-", "_"))
	})
	// Every declared option is registered above before this parse, unlike
	// rootCmd's own static parse: an unrecognized flag here is a genuine
	// unknown option, so (unlike rootCmd) this set is not whitelisted and
	// fs.Parse below returns a fatal error for it, per §6/§7.
	overrides := make(map[string]string)
	for _, name := range s.EntityNames(store.Options) {
		if fs.Lookup(name) != nil {
			continue
		}
		var v string
		fs.StringVar(&v, name, "", "project option override")
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	for _, name := range s.EntityNames(store.Options) {
		if flag := fs.Lookup(name); flag != nil && flag.Changed {
			overrides[name] = flag.Value.String()
		}
	}
	return overrides, nil
}

func runDiagnosis(root string) error {
	s := store.New()
	sc := scope.New(root)
	sc.SetPhase(scope.PhaseLoad)
	loader := script.NewLoader(s, sc, "")
	loader.SetEnvironment(flagPlat, flagArch, flagMode, flagToolchain)

	scriptPath, err := script.DiscoverScriptFile(root)
	if err != nil {
		return err
	}
	if err := loader.LoadFile(scriptPath); err != nil {
		return err
	}
	toolchain.RegisterDefaults(s)

	sc.SetPhase(scope.PhaseTargets)
	if err := loader.LoadFile(scriptPath); err != nil {
		return err
	}

	snap := diagnosis.BuildSnapshot(s)
	out, err := diagnosis.Dump(snap, flagDiagnosis)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
