package meta

import "github.com/lodestonemc/lodestone/internal/rules"

// Version is a full version document. Only the fields the provisioning
// pipeline consumes are modeled.
type Version struct {
	ID                     string                  `json:"id"`
	Type                   string                  `json:"type"`
	MainClass              string                  `json:"mainClass,omitempty"`
	Assets                 string                  `json:"assets,omitempty"`
	AssetIndex             *AssetIndex             `json:"assetIndex,omitempty"`
	ComplianceLevel        int                     `json:"complianceLevel,omitempty"`
	Downloads              map[string]DownloadInfo `json:"downloads,omitempty"`
	JavaVersion            *JavaVersion            `json:"javaVersion,omitempty"`
	Libraries              []Library               `json:"libraries,omitempty"`
	MinimumLauncherVersion int                     `json:"minimumLauncherVersion,omitempty"`
	ReleaseTime            string                  `json:"releaseTime,omitempty"`
	Time                   string                  `json:"time,omitempty"`
}

// DownloadInfo locates one downloadable file and its integrity data.
type DownloadInfo struct {
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// AssetIndex references the asset index document for a version.
type AssetIndex struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize,omitempty"`
	URL       string `json:"url"`
}

// JavaVersion is the runtime requirement a version declares: a Mojang
// component name plus the major Java version. The major version alone is
// enough to query the Adoptium API directly.
type JavaVersion struct {
	Component    string `json:"component"`
	MajorVersion int    `json:"majorVersion"`
}

// Library is one dependency of a version: a main artifact, optional
// per-platform native classifiers, and the rules gating its inclusion.
type Library struct {
	Name      string            `json:"name"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Extract   *ExtractPolicy    `json:"extract,omitempty"`
	Rules     []rules.Rule      `json:"rules,omitempty"`
}

// LibraryDownloads carries the main artifact and the classifier map used by
// natives-bearing libraries.
type LibraryDownloads struct {
	Artifact    *LibraryArtifact           `json:"artifact,omitempty"`
	Classifiers map[string]LibraryArtifact `json:"classifiers,omitempty"`
}

// LibraryArtifact is a library file: repository-relative path, digest, size,
// and URL.
type LibraryArtifact struct {
	Path string `json:"path"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// ExtractPolicy lists entry prefixes excluded when a native bundle is
// unpacked (typically META-INF/).
type ExtractPolicy struct {
	Exclude []string `json:"exclude,omitempty"`
}

// Excluded reports whether a bundle entry path is excluded from extraction.
func (p *ExtractPolicy) Excluded(entryPath string) bool {
	if p == nil {
		return false
	}
	for _, prefix := range p.Exclude {
		if len(entryPath) >= len(prefix) && entryPath[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
