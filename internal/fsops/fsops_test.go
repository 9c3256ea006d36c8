package fsops

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	fs := afero.NewMemMapFs()

	path := "/test/nested/dir"
	require.NoError(t, EnsureDir(fs, path, 0o755))
	assert.True(t, IsDir(fs, path))
}

func TestExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/test.txt", []byte("test"), 0o644))

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"existing file", "/test.txt", true},
		{"missing file", "/nope.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Exists(fs, tt.path))
		})
	}

	assert.False(t, IsDir(fs, "/test.txt"))
}

func TestCheckWritable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/data", 0o755))

	assert.NoError(t, CheckWritable(fs, "/data"))
	assert.False(t, Exists(fs, "/data/.write_test"))

	ro := afero.NewReadOnlyFs(fs)
	assert.Error(t, CheckWritable(ro, "/data"))
}

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, WriteFileAtomic(fs, "/out/plans/plan.json", []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(fs, "/out/plans/plan.json", []byte("two"), 0o644))

	data, err := afero.ReadFile(fs, "/out/plans/plan.json")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := afero.ReadDir(fs, "/out/plans")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteFileAtomic_ReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	assert.Error(t, WriteFileAtomic(fs, "/x/plan.json", []byte("{}"), 0o644))
}

func TestSHA256File(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.bin", []byte("abc"), 0o644))

	sum, err := SHA256File(fs, "/a.bin")
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)

	_, err = SHA256File(fs, "/missing.bin")
	assert.Error(t, err)
}

func TestListFilesWithExt(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"b.EXE", "a.msi", "notes.txt", "c.exe"} {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("/in", name), nil, 0o644))
	}
	require.NoError(t, fs.MkdirAll("/in/sub.exe", 0o755))

	files, err := ListFilesWithExt(fs, "/in", ".exe", ".msi")
	require.NoError(t, err)
	assert.Equal(t, []string{"/in/a.msi", "/in/b.EXE", "/in/c.exe"}, files)

	_, err = ListFilesWithExt(fs, "/missing", ".exe")
	assert.Error(t, err)
}
