package meta

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestonemc/lodestone/internal/platform"
	"github.com/lodestonemc/lodestone/internal/rules"
	_ "github.com/lodestonemc/lodestone/internal/testhelper"
)

const versionDoc = `{
  "id": "1.20.4",
  "type": "release",
  "mainClass": "net.minecraft.client.main.Main",
  "complianceLevel": 1,
  "javaVersion": {"component": "java-runtime-gamma", "majorVersion": 17},
  "downloads": {
    "client": {"sha1": "aaa1", "size": 100, "url": "https://example.com/client.jar"},
    "server": {"sha1": "bbb2", "size": 200, "url": "https://example.com/server.jar"},
    "client_mappings": {"sha1": "ccc3", "size": 50, "url": "https://example.com/client.txt"}
  },
  "libraries": [
    {
      "name": "org.lwjgl:lwjgl:3.3.2",
      "downloads": {
        "artifact": {"path": "org/lwjgl/lwjgl/3.3.2/lwjgl-3.3.2.jar", "sha1": "ddd4", "size": 300, "url": "https://example.com/lwjgl.jar"}
      }
    },
    {
      "name": "org.lwjgl:lwjgl-glfw:3.3.2",
      "downloads": {
        "artifact": {"path": "org/lwjgl/lwjgl-glfw/3.3.2/glfw.jar", "sha1": "eee5", "size": 300, "url": "https://example.com/glfw.jar"},
        "classifiers": {
          "natives-linux": {"path": "org/lwjgl/lwjgl-glfw/3.3.2/glfw-natives-linux.jar", "sha1": "fff6", "size": 400, "url": "https://example.com/glfw-natives.jar"}
        }
      },
      "natives": {"linux": "natives-linux"},
      "extract": {"exclude": ["META-INF/"]}
    },
    {
      "name": "ca.weblite:java-objc-bridge:1.1",
      "downloads": {
        "artifact": {"path": "ca/weblite/java-objc-bridge/1.1/bridge.jar", "sha1": "0007", "size": 10, "url": "https://example.com/bridge.jar"}
      },
      "rules": [{"action": "allow", "os": {"name": "osx"}}]
    }
  ]
}`

func decodeVersion(t *testing.T) *Version {
	t.Helper()
	var v Version
	require.NoError(t, json.Unmarshal([]byte(versionDoc), &v))
	return &v
}

func TestVersionDecode(t *testing.T) {
	v := decodeVersion(t)

	assert.Equal(t, "1.20.4", v.ID)
	require.NotNil(t, v.JavaVersion)
	assert.Equal(t, "java-runtime-gamma", v.JavaVersion.Component)
	assert.Equal(t, 17, v.JavaVersion.MajorVersion)
	assert.Len(t, v.Libraries, 3)
	require.Len(t, v.Libraries[2].Rules, 1)
	assert.Equal(t, rules.Allow, v.Libraries[2].Rules[0].Action)
}

func TestArtifactsLinux(t *testing.T) {
	v := decodeVersion(t)
	host := rules.Host{Signature: platform.Signature{OS: platform.Linux, Arch: platform.X64}}

	arts := v.Artifacts(host)

	byName := map[string]Artifact{}
	for _, a := range arts {
		byName[a.Name] = a
	}

	// Downloads: client, server, client_mappings. Libraries: lwjgl, glfw
	// artifact + glfw natives. The osx-only bridge is filtered out.
	assert.Len(t, arts, 6)

	client := byName["1.20.4/client"]
	assert.Equal(t, KindClient, client.Kind)
	assert.Equal(t, "versions/1.20.4/client.jar", client.Path)
	assert.Equal(t, "aaa1", client.SHA1)

	native, ok := byName["org.lwjgl:lwjgl-glfw:3.3.2 (natives)"]
	require.True(t, ok, "natives classifier for linux must be collected")
	assert.Equal(t, KindNative, native.Kind)
	assert.Equal(t, "libraries/org/lwjgl/lwjgl-glfw/3.3.2/glfw-natives-linux.jar", native.Path)
	require.NotNil(t, native.Extract)
	assert.True(t, native.Extract.Excluded("META-INF/MANIFEST.MF"))
	assert.False(t, native.Extract.Excluded("libglfw.so"))

	_, ok = byName["ca.weblite:java-objc-bridge:1.1"]
	assert.False(t, ok, "osx-only library must not apply on linux")
}

func TestArtifactsMac(t *testing.T) {
	v := decodeVersion(t)
	host := rules.Host{Signature: platform.Signature{OS: platform.MacOS, Arch: platform.Arm64}}

	arts := v.Artifacts(host)

	var names []string
	for _, a := range arts {
		names = append(names, a.Name)
	}
	assert.Contains(t, names, "ca.weblite:java-objc-bridge:1.1")
	assert.NotContains(t, names, "org.lwjgl:lwjgl-glfw:3.3.2 (natives)",
		"no natives classifier declared for osx")
}

func TestNativeArchPlaceholder(t *testing.T) {
	lib := Library{
		Name:    "tv.twitch:twitch-platform:5.16",
		Natives: map[string]string{"windows": "natives-windows-${arch}"},
		Downloads: &LibraryDownloads{
			Classifiers: map[string]LibraryArtifact{
				"natives-windows-32": {Path: "p32.jar", URL: "u32"},
				"natives-windows-64": {Path: "p64.jar", URL: "u64"},
			},
		},
	}

	a32 := lib.nativeArtifact(platform.Signature{OS: platform.Windows, Arch: platform.X86})
	require.NotNil(t, a32)
	assert.Equal(t, "p32.jar", a32.Path)

	a64 := lib.nativeArtifact(platform.Signature{OS: platform.Windows, Arch: platform.X64})
	require.NotNil(t, a64)
	assert.Equal(t, "p64.jar", a64.Path)
}

func TestManifestFind(t *testing.T) {
	m := VersionManifest{Versions: []VersionMeta{
		{ID: "1.20.4", URL: "https://example.com/1.20.4.json", SHA1: "abc"},
	}}

	got, err := m.Find("1.20.4")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/1.20.4.json", got.URL)

	_, err = m.Find("1.0")
	assert.Error(t, err)
}

func TestParseDownloadKindUnknown(t *testing.T) {
	assert.Equal(t, KindUnknown, ParseDownloadKind("windows_server"))
	assert.Equal(t, KindClientMappings, ParseDownloadKind("client_mappings"))
}
