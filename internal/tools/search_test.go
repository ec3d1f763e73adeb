// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func searchFixture(t *testing.T) (*Toolbox, afero.Fs) {
	return newTestToolbox(t, map[string]string{
		"/proj/a.go":                "package a\nfunc foo() {}\nvar x = foo()\n",
		"/proj/b.txt":               "nothing here\n",
		"/proj/node_modules/x.js":   "foo()\n",
		"/proj/.idea/workspace.xml": "<foo/>\n",
		"/proj/sub/c.go":            "// calls xfoo",
		"/proj/sub/d.go":            "package sub\n",
	})
}

func TestSearchInFiles_DefaultExcludes(t *testing.T) {
	tb, _ := searchFixture(t)

	got, err := tb.SearchInFiles(context.Background(), "/proj", `foo`, "utf-8", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/a.go", "/proj/sub/c.go"}, got)
}

func TestSearchInFiles_FileReportedOnce(t *testing.T) {
	tb, _ := newTestToolbox(t, map[string]string{
		"/proj/many.txt": "hit\nhit\nhit\nhit\n",
	})

	got, err := tb.SearchInFiles(context.Background(), "/proj", `hit`, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/many.txt"}, got)
}

func TestSearchInFiles_LineEndAnchor(t *testing.T) {
	tb, _ := newTestToolbox(t, map[string]string{
		"/proj/a.go":    "package main\nfunc main() {\n}\n",
		"/proj/b.go":    "func main() {}\n",
		"/proj/crlf.go": "package main\r\nfunc main() {\r\n}\r\n",
		"/proj/last.go": "package main\nfunc main() {",
	})

	got, err := tb.SearchInFiles(context.Background(), "/proj", `^func main\(\) \{$`, "utf-8", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/a.go", "/proj/crlf.go", "/proj/last.go"}, got)
}

func TestSearchInFiles_CustomExcludes(t *testing.T) {
	tb, _ := searchFixture(t)

	got, err := tb.SearchInFiles(context.Background(), "/proj", `foo`, "utf-8", []string{"sub"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/proj/.idea/workspace.xml",
		"/proj/a.go",
		"/proj/node_modules/x.js",
	}, got)
}

func TestSearchInFiles_RootNeverExcluded(t *testing.T) {
	tb, _ := searchFixture(t)

	got, err := tb.SearchInFiles(context.Background(), "/proj/node_modules", `foo`, "utf-8", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/node_modules/x.js"}, got)
}

func TestSearchInFiles_NoMatches(t *testing.T) {
	tb, _ := searchFixture(t)

	got, err := tb.SearchInFiles(context.Background(), "/proj", `^zzz$`, "utf-8", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchInFiles_MalformedBytesTolerated(t *testing.T) {
	tb, fs := newTestToolbox(t, nil)
	require.NoError(t, fs.MkdirAll("/proj", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/proj/bin.dat", []byte("\xff\xfe needle \xff\n"), 0o644))

	got, err := tb.SearchInFiles(context.Background(), "/proj", `needle`, "utf-8", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/bin.dat"}, got)
}

func TestSearchInFiles_Latin1(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("café crème\n")
	require.NoError(t, err)
	tb, _ := newTestToolbox(t, map[string]string{"/proj/menu.txt": encoded})

	got, err := tb.SearchInFiles(context.Background(), "/proj", `café`, "latin1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/menu.txt"}, got)
}

func TestSearchInFiles_Failures(t *testing.T) {
	tb, _ := searchFixture(t)
	ctx := context.Background()

	_, err := tb.SearchInFiles(ctx, "/missing", `foo`, "utf-8", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tb.SearchInFiles(ctx, "/proj/a.go", `foo`, "utf-8", nil)
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = tb.SearchInFiles(ctx, "/proj", `(unclosed`, "utf-8", nil)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestSearchInFiles_Cancelled(t *testing.T) {
	tb, _ := searchFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tb.SearchInFiles(ctx, "/proj", `foo`, "utf-8", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
