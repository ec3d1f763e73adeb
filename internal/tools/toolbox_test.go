// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/minicode/internal/logging"
)

// fakeRenderer returns canned HTML and records what it was asked for.
type fakeRenderer struct {
	html  string
	err   error
	calls int
	url   string
	opts  RenderOptions
}

func (f *fakeRenderer) Render(_ context.Context, url string, opts RenderOptions) (string, error) {
	f.calls++
	f.url = url
	f.opts = opts
	return f.html, f.err
}

// denyFs refuses to open the listed paths.
type denyFs struct {
	afero.Fs
	denied map[string]bool
}

func (d *denyFs) Open(name string) (afero.File, error) {
	if d.denied[filepath.Clean(name)] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.Open(name)
}

// newTestToolbox returns a toolbox over an in-memory filesystem seeded
// with files (path -> content).
func newTestToolbox(t *testing.T, files map[string]string) (*Toolbox, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	tb := NewToolbox(
		WithFs(fs),
		WithRenderer(&fakeRenderer{}),
		WithNotifier(WriterNotifier(&bytes.Buffer{})),
		WithLogger(logging.Discard()),
	)
	return tb, fs
}

func readString(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func strPtr(s string) *string {
	return &s
}

func TestToolbox_BaseDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0o755))
	tb := NewToolbox(
		WithFs(fs),
		WithBaseDir("/work"),
		WithRenderer(&fakeRenderer{}),
		WithLogger(logging.Discard()),
	)
	assert.Equal(t, "/work", tb.BaseDir())

	created, err := tb.CreatePath(".", "out.txt", true, "hello")
	require.NoError(t, err)
	assert.Equal(t, "/work/out.txt", created)

	content, err := tb.ReadFile("out.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	found, err := tb.SearchInFiles(context.Background(), ".", `hello`, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/out.txt"}, found)

	n, err := tb.ReplaceInFile("out.txt", `hello`, "bye", "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	renamed, err := tb.EditPath("out.txt", "final.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "/work/final.txt", renamed)

	tree, err := tb.ListFileTree(".", DefaultTreeIndent)
	require.NoError(t, err)
	assert.Equal(t, "final.txt", tree)
	assert.Equal(t, "bye", readString(t, fs, "/work/final.txt"))
}

func TestToolbox_InDir(t *testing.T) {
	tb := NewToolbox(WithBaseDir("/work"), WithLogger(logging.Discard()))
	other := tb.InDir("/other")

	assert.Equal(t, "/other", other.BaseDir())
	assert.Equal(t, "/work", tb.BaseDir())
	assert.Equal(t, "/other/a.txt", other.resolve("a.txt"))
	assert.Equal(t, "/abs/a.txt", other.resolve("/abs/a.txt"))
}
