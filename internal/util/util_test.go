// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	fs := afero.NewOsFs()
	path := filepath.Join(t.TempDir(), "test.txt")

	require.NoError(t, AtomicWriteFile(fs, path, []byte("hello, world!"), 0644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello, world!", string(content))
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/home/user/.mini-code-agent/config.yaml"

	require.NoError(t, AtomicWriteFile(fs, path, []byte("agent: {}"), 0600))

	info, err := fs.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	dirInfo, err := fs.Stat("/home/user/.mini-code-agent")
	require.NoError(t, err)
	assert.True(t, dirInfo.IsDir())
}

func TestAtomicWriteFile_Overwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/data/test.txt"

	require.NoError(t, AtomicWriteFile(fs, path, []byte("initial"), 0644))
	require.NoError(t, AtomicWriteFile(fs, path, []byte("updated"), 0644))

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "updated", string(content))
}

func TestAtomicWriteFile_NoTempLeftovers(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, AtomicWriteFile(fs, "/data/a.txt", []byte("x"), 0644))

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name())
}

func TestAtomicWriteFile_EmptyData(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, AtomicWriteFile(fs, "/empty.txt", nil, 0644))

	content, err := afero.ReadFile(fs, "/empty.txt")
	require.NoError(t, err)
	assert.Empty(t, content)
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"ellipsis", "hello world", 8, "hello..."},
		{"tiny limit", "hello", 2, "he"},
		{"zero", "hello", 0, ""},
		{"utf8", "你好世界你好世界", 5, "你好..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateRunes(tt.in, tt.max))
		})
	}
}

func TestStringWidth(t *testing.T) {
	assert.Equal(t, 5, StringWidth("hello"))
	assert.Equal(t, 4, StringWidth("你好"))
	assert.Equal(t, 0, StringWidth(""))
}

func TestTruncateWidth(t *testing.T) {
	assert.Equal(t, "hello", TruncateWidth("hello", 10))
	assert.Equal(t, "hel...", TruncateWidth("hello world", 6))
	assert.Equal(t, "", TruncateWidth("hello", 0))

	got := TruncateWidth("你好世界你好", 7)
	assert.LessOrEqual(t, StringWidth(got), 7)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "first", FirstLine("  first\nsecond"))
	assert.Equal(t, "only", FirstLine("only"))
	assert.Equal(t, "", FirstLine(""))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "  a\n\n  b", Indent("a\n\nb", "  "))
}
