// Package model names the attribute keys of the configuration store (§3)
// and holds the small set of shared value types the rest of the
// configurator passes around once data leaves the store.
package model

// Option attribute keys.
const (
	AttrDescription = "description"
	AttrDefault     = "default"
	AttrShowMenu    = "showmenu"
	AttrValue       = "value"

	AttrCFuncs       = "cfuncs"
	AttrCXXFuncs     = "cxxfuncs"
	AttrCIncludes    = "cincludes"
	AttrCXXIncludes  = "cxxincludes"
	AttrCTypes       = "ctypes"
	AttrCXXTypes     = "cxxtypes"
	AttrCSnippets    = "csnippets"
	AttrCXXSnippets  = "cxxsnippets"
	AttrLinks        = "links"
	AttrSysLinks     = "syslinks"
	AttrConfigVars   = "configvars"
	AttrConfigVarFmt = "configvar_%s"
)

// Attribute keys shared between options and targets: raw and abstract
// compile/link flag categories.
const (
	AttrCFlags       = "cflags"
	AttrCXXFlags     = "cxxflags"
	AttrCXFlags      = "cxflags"
	AttrLDFlags      = "ldflags"
	AttrDefines      = "defines"
	AttrUDefines     = "udefines"
	AttrIncludeDirs  = "includedirs"
	AttrLinkDirs     = "linkdirs"
	AttrFrameworks   = "frameworks"
	AttrFrameworkDir = "frameworkdirs"
	AttrLanguages    = "languages"
	AttrWarnings     = "warnings"
	AttrOptimizes    = "optimizes"
)

// Target-only structural attribute keys.
const (
	AttrName        = "name"
	AttrKind        = "kind"
	AttrBasename    = "basename"
	AttrExtension   = "extension"
	AttrPrefixname  = "prefixname"
	AttrFilename    = "filename"
	AttrTargetDir   = "targetdir"
	AttrObjectDir   = "objectdir"
	AttrInstallDir  = "installdir"
	AttrConfigDir   = "configdir"
	AttrDeps        = "deps"
	AttrOptions     = "options"
	AttrFiles       = "files"
	AttrHeaderFiles = "headerfiles"
	AttrInstallFile = "installfiles"
	AttrConfigFiles = "configfiles"
	AttrVersion     = "version"
	AttrVersionBld  = "version_build"
	// AttrDefault (declared above) doubles as the target's "build by
	// default" boolean; the two uses never collide because options and
	// targets live in separate store kinds.
)

// Target-only compiler/linker attribute keys not shared with options.
const (
	AttrRpathDirs = "rpathdirs"
	AttrSymbols   = "symbols"
	AttrStrip     = "strip"
	AttrMFlags    = "mflags"
	AttrMXXFlags  = "mxxflags"
	AttrMXFlags   = "mxflags"
	AttrASFlags   = "asflags"
	AttrSHFlags   = "shflags"
	AttrARFlags   = "arflags"
)

// Attributes that carry a public counterpart, exposed to dependents when a
// target's kind is static or shared.
var PublicCapableAttrs = []string{
	AttrDefines, AttrUDefines, AttrIncludeDirs, AttrLinkDirs,
	AttrLinks, AttrSysLinks, AttrFrameworks,
}

// PublicAttr returns the `_public` companion key for a base attribute.
func PublicAttr(base string) string { return base + "_public" }

// TargetKind enumerates the structural kind of a target.
type TargetKind string

const (
	KindBinary TargetKind = "binary"
	KindStatic TargetKind = "static"
	KindShared TargetKind = "shared"
)

// IsLibrary reports whether k produces a linkable library archive/object
// that other targets can depend on transitively.
func (k TargetKind) IsLibrary() bool { return k == KindStatic || k == KindShared }

// SourceKind is a toolkind inferred from a source file's extension.
type SourceKind string

const (
	SourceCC  SourceKind = "cc"
	SourceCXX SourceKind = "cxx"
	SourceMM  SourceKind = "mm"
	SourceMXX SourceKind = "mxx"
	SourceAS  SourceKind = "as"
)

// PublicMarker is the literal token that marks a list argument as public:
// when it appears, every other token in the list is also exposed to
// dependents (see SplitPublic).
const PublicMarker = "{public}"

// SplitPublic strips the first PublicMarker occurrence. all is every
// non-marker token; public is the same set of tokens when the marker
// appears anywhere in the list, and nil when it does not, matching
// invariant 5: all non-marker tokens are copied to `_public` when the
// marker is present.
func SplitPublic(args []string) (all []string, public []string) {
	markerIdx := -1
	for i, a := range args {
		if a == PublicMarker {
			markerIdx = i
			break
		}
	}
	if markerIdx == -1 {
		for _, a := range args {
			all = append(all, a)
		}
		return all, nil
	}
	for i, a := range args {
		if i == markerIdx {
			continue
		}
		all = append(all, a)
		public = append(public, a)
	}
	return all, public
}
