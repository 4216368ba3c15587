// Package platform detects the host operating system and CPU architecture
// and maps them into the key vocabularies used by the two remote runtime
// sources (Mojang's java-runtime manifest and the Adoptium API).
package platform

import (
	"fmt"
	"runtime"
	"sync"
)

// OS identifies a supported operating system family.
type OS int

const (
	OSUnknown OS = iota
	Windows
	MacOS
	Linux
)

// Arch identifies a supported CPU architecture.
type Arch int

const (
	ArchUnknown Arch = iota
	X86
	X64
	Arm32
	Arm64
)

// Signature is the detected (OS, architecture) pair for a host. The zero
// value means both fields are unknown; detection never leaves a field
// absent, it yields the Unknown variant instead.
type Signature struct {
	OS   OS
	Arch Arch
}

func (o OS) String() string {
	switch o {
	case Windows:
		return "windows"
	case MacOS:
		return "macos"
	case Linux:
		return "linux"
	default:
		return "unknown"
	}
}

func (a Arch) String() string {
	switch a {
	case X86:
		return "x86"
	case X64:
		return "x64"
	case Arm32:
		return "arm32"
	case Arm64:
		return "arm64"
	default:
		return "unknown"
	}
}

func (s Signature) String() string {
	return fmt.Sprintf("%s/%s", s.OS, s.Arch)
}

var detect = sync.OnceValue(func() Signature {
	return FromGo(runtime.GOOS, runtime.GOARCH)
})

// Detect returns the signature of the running host. The result is computed
// once and shared; it is safe to call from any number of goroutines.
func Detect() Signature {
	return detect()
}

// FromGo maps Go's GOOS/GOARCH strings to a Signature. Unrecognized values
// map to the Unknown variants rather than failing.
func FromGo(goos, goarch string) Signature {
	sig := Signature{}
	switch goos {
	case "windows":
		sig.OS = Windows
	case "darwin":
		sig.OS = MacOS
	case "linux":
		sig.OS = Linux
	}
	switch goarch {
	case "386":
		sig.Arch = X86
	case "amd64":
		sig.Arch = X64
	case "arm":
		sig.Arch = Arm32
	case "arm64":
		sig.Arch = Arm64
	}
	return sig
}

// mojangManifestKeys is the closed key set of Mojang's java-runtime manifest.
// Combinations Mojang does not publish runtimes for are absent.
var mojangManifestKeys = map[Signature]string{
	{Windows, X64}:   "windows-x64",
	{Windows, X86}:   "windows-x86",
	{Windows, Arm64}: "windows-arm64",
	{MacOS, X64}:     "mac-os",
	{MacOS, Arm64}:   "mac-os-arm64",
	{Linux, X64}:     "linux",
	{Linux, Arm64}:   "linux-aarch64",
	{Linux, Arm32}:   "linux-arm",
}

// MojangManifestKey returns the Mojang runtime-manifest key for a signature,
// or "" when Mojang publishes no runtime for that combination. The caller
// decides whether an empty key is fatal.
func MojangManifestKey(sig Signature) string {
	return mojangManifestKeys[sig]
}

var adoptiumOSKeys = map[OS]string{
	Windows: "windows",
	MacOS:   "mac",
	Linux:   "linux",
}

var adoptiumArchKeys = map[Arch]string{
	X64:   "x64",
	X86:   "x86",
	Arm64: "aarch64",
	Arm32: "arm",
}

// AdoptiumOS returns the Adoptium API os parameter for an OS, or "" for
// Unknown.
func AdoptiumOS(os OS) string {
	return adoptiumOSKeys[os]
}

// AdoptiumArch returns the Adoptium API architecture parameter for an Arch,
// or "" for Unknown.
func AdoptiumArch(arch Arch) string {
	return adoptiumArchKeys[arch]
}

// RuleOSName returns the os.name value used by version-manifest rules
// ("windows", "osx", "linux"), or "" for Unknown. Note that the rule
// vocabulary differs from both runtime-source vocabularies.
func RuleOSName(os OS) string {
	switch os {
	case Windows:
		return "windows"
	case MacOS:
		return "osx"
	case Linux:
		return "linux"
	default:
		return ""
	}
}

// RuleArchName returns the os.arch value used by version-manifest rules
// ("x86", "x64", "arm", "arm64"), or "" for Unknown.
func RuleArchName(arch Arch) string {
	switch arch {
	case X86:
		return "x86"
	case X64:
		return "x64"
	case Arm32:
		return "arm"
	case Arm64:
		return "arm64"
	default:
		return ""
	}
}
