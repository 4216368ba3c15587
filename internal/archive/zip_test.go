package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/lodestonemc/lodestone/internal/testhelper"
)

type zipEntry struct {
	name string
	body string
	dir  bool
	// raw marks an entry written with a bogus compressed stream and CRC so
	// that reading it back fails.
	raw bool
}

func buildZip(t *testing.T, entries []zipEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	for _, e := range entries {
		switch {
		case e.dir:
			_, err := zw.Create(e.name + "/")
			require.NoError(t, err)
		case e.raw:
			w, err := zw.CreateRaw(&zip.FileHeader{
				Name:               e.name,
				Method:             zip.Deflate,
				CRC32:              0xdeadbeef,
				CompressedSize64:   4,
				UncompressedSize64: 4,
			})
			require.NoError(t, err)
			_, err = w.Write([]byte{0xff, 0xff, 0xff, 0xff})
			require.NoError(t, err)
		default:
			w, err := zw.Create(e.name)
			require.NoError(t, err)
			_, err = w.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpenMissingArchive(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.zip"))
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
}

func TestExtractAll(t *testing.T) {
	path := buildZip(t, []zipEntry{
		{name: "bin", dir: true},
		{name: "bin/java", body: "#!ELF"},
		{name: "release", body: "JAVA_VERSION=17"},
		{name: "lib/modules", body: "jimage"},
	})

	z, err := Open(path)
	require.NoError(t, err)
	defer z.Close()

	dest := t.TempDir()
	report, err := z.ExtractAll(dest)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 3, report.Extracted)

	data, err := os.ReadFile(filepath.Join(dest, "release"))
	require.NoError(t, err)
	assert.Equal(t, "JAVA_VERSION=17", string(data))

	_, err = os.Stat(filepath.Join(dest, "lib", "modules"))
	assert.NoError(t, err, "intermediate directories are created lazily")
}

func TestExtractRejectsTraversal(t *testing.T) {
	path := buildZip(t, []zipEntry{
		{name: "ok.txt", body: "fine"},
		{name: "../../etc/passwd", body: "root:x:0:0"},
		{name: "/abs.txt", body: "absolute"},
	})

	z, err := Open(path)
	require.NoError(t, err)
	defer z.Close()

	base := t.TempDir()
	dest := filepath.Join(base, "sandbox")
	report, err := z.ExtractAll(dest)
	require.NoError(t, err)

	assert.False(t, report.OK())
	require.Len(t, report.Failed, 2)
	assert.Equal(t, "../../etc/passwd", report.Failed[0].Entry)
	assert.Equal(t, "/abs.txt", report.Failed[1].Entry)

	_, statErr := os.Stat(filepath.Join(base, "etc", "passwd"))
	assert.True(t, os.IsNotExist(statErr), "nothing may be written outside the destination root")

	_, err = os.Stat(filepath.Join(dest, "ok.txt"))
	assert.NoError(t, err, "legitimate siblings still extract")
}

func TestExtractBestEffortOnCorruptEntry(t *testing.T) {
	path := buildZip(t, []zipEntry{
		{name: "a.txt", body: "a"},
		{name: "b.txt", body: "b"},
		{name: "broken.bin", raw: true},
		{name: "c.txt", body: "c"},
		{name: "d.txt", body: "d"},
	})

	z, err := Open(path)
	require.NoError(t, err)
	defer z.Close()

	dest := t.TempDir()
	report, err := z.ExtractAll(dest)
	require.NoError(t, err)

	assert.False(t, report.OK())
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "broken.bin", report.Failed[0].Entry)
	assert.Equal(t, 4, report.Extracted)

	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		_, err := os.Stat(filepath.Join(dest, name))
		assert.NoError(t, err, "%s must survive a corrupt sibling", name)
	}
}

func TestExtractFilter(t *testing.T) {
	path := buildZip(t, []zipEntry{
		{name: "META-INF/MANIFEST.MF", body: "Manifest-Version: 1.0"},
		{name: "libglfw.so", body: "\x7fELF"},
	})

	z, err := Open(path)
	require.NoError(t, err)
	defer z.Close()

	z.Filter = func(name string) bool {
		return name != "META-INF/MANIFEST.MF"
	}

	dest := t.TempDir()
	report, err := z.ExtractAll(dest)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Extracted)

	_, statErr := os.Stat(filepath.Join(dest, "META-INF"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadEntry(t *testing.T) {
	path := buildZip(t, []zipEntry{
		{name: "install_profile.json", body: `{"version": "forge-1.20.4"}`},
	})

	z, err := Open(path)
	require.NoError(t, err)
	defer z.Close()

	data, err := z.ReadEntry("install_profile.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": "forge-1.20.4"}`, string(data))

	_, err = z.ReadEntry("missing.json")
	var entryErr EntryError
	require.ErrorAs(t, err, &entryErr)
	assert.Equal(t, "missing.json", entryErr.Entry)
}

func TestCloseIsIdempotent(t *testing.T) {
	path := buildZip(t, []zipEntry{{name: "x", body: "y"}})

	z, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, z.Close())
	require.NoError(t, z.Close())

	_, err = z.ExtractAll(t.TempDir())
	var openErr *OpenError
	assert.ErrorAs(t, err, &openErr, "extraction after close must fail cleanly")
}
