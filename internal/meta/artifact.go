package meta

import (
	"path"
	"strings"

	"github.com/lodestonemc/lodestone/internal/platform"
	"github.com/lodestonemc/lodestone/internal/rules"
)

// ArtifactKind classifies a downloadable artifact.
type ArtifactKind int

const (
	KindUnknown ArtifactKind = iota
	KindClient
	KindServer
	KindClientMappings
	KindServerMappings
	KindLibrary
	KindNative
	KindJavaRuntime
)

func (k ArtifactKind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindClientMappings:
		return "client_mappings"
	case KindServerMappings:
		return "server_mappings"
	case KindLibrary:
		return "library"
	case KindNative:
		return "native"
	case KindJavaRuntime:
		return "java_runtime"
	default:
		return "unknown"
	}
}

// ParseDownloadKind maps a version document downloads key to a kind.
// Unrecognized keys yield KindUnknown; the caller skips them rather than
// failing the whole version.
func ParseDownloadKind(key string) ArtifactKind {
	switch key {
	case "client":
		return KindClient
	case "server":
		return KindServer
	case "client_mappings":
		return KindClientMappings
	case "server_mappings":
		return KindServerMappings
	default:
		return KindUnknown
	}
}

// Artifact is one resolved downloadable file: where to get it, how to verify
// it, and where it lands relative to the installation root. Rules have
// already been applied by the time an Artifact exists.
type Artifact struct {
	Kind    ArtifactKind
	Name    string
	URL     string
	SHA1    string
	Size    int64
	Path    string // destination, relative to the installation root
	Extract *ExtractPolicy
}

// downloadFileNames maps a download kind to its on-disk name under
// versions/<id>/.
var downloadFileNames = map[ArtifactKind]string{
	KindClient:         "client.jar",
	KindServer:         "server.jar",
	KindClientMappings: "client.txt",
	KindServerMappings: "server.txt",
}

// Artifacts flattens the version's downloads and libraries into the list of
// artifacts applicable to host, in manifest order. Libraries whose rules
// deny the host are dropped; natives-bearing libraries contribute the
// classifier matching the host OS in addition to (or instead of) their main
// artifact.
func (v *Version) Artifacts(host rules.Host) []Artifact {
	var out []Artifact

	for _, key := range []string{"client", "server", "client_mappings", "server_mappings"} {
		dl, ok := v.Downloads[key]
		if !ok {
			continue
		}
		kind := ParseDownloadKind(key)
		out = append(out, Artifact{
			Kind: kind,
			Name: v.ID + "/" + key,
			URL:  dl.URL,
			SHA1: dl.SHA1,
			Size: dl.Size,
			Path: path.Join("versions", v.ID, downloadFileNames[kind]),
		})
	}

	for _, lib := range v.Libraries {
		if !rules.Evaluate(lib.Rules, host) {
			continue
		}
		if lib.Downloads == nil {
			continue
		}
		if a := lib.Downloads.Artifact; a != nil && a.URL != "" {
			out = append(out, Artifact{
				Kind: KindLibrary,
				Name: lib.Name,
				URL:  a.URL,
				SHA1: a.SHA1,
				Size: a.Size,
				Path: path.Join("libraries", a.Path),
			})
		}
		if native := lib.nativeArtifact(host.Signature); native != nil {
			out = append(out, Artifact{
				Kind:    KindNative,
				Name:    lib.Name + " (natives)",
				URL:     native.URL,
				SHA1:    native.SHA1,
				Size:    native.Size,
				Path:    path.Join("libraries", native.Path),
				Extract: lib.Extract,
			})
		}
	}

	return out
}

// nativeArtifact resolves the classifier for the host OS, substituting the
// ${arch} placeholder some classifiers carry.
func (l *Library) nativeArtifact(sig platform.Signature) *LibraryArtifact {
	if len(l.Natives) == 0 || l.Downloads == nil {
		return nil
	}
	classifier, ok := l.Natives[platform.RuleOSName(sig.OS)]
	if !ok {
		return nil
	}
	classifier = strings.ReplaceAll(classifier, "${arch}", archBits(sig.Arch))
	a, ok := l.Downloads.Classifiers[classifier]
	if !ok {
		return nil
	}
	return &a
}

func archBits(arch platform.Arch) string {
	switch arch {
	case platform.X86, platform.Arm32:
		return "32"
	default:
		return "64"
	}
}
