// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultTreeIndent is the per-level indentation of list_file_tree.
const DefaultTreeIndent = "  "

// treeBranch prefixes every entry below the root level.
const treeBranch = "├─ "

// =============================================================================
// READ FILE
// =============================================================================

// ReadFile returns the full content of path decoded with the named encoding.
// Bytes that are invalid in the encoding fail with ErrDecode.
func (tb *Toolbox) ReadFile(path, encodingName string) (string, error) {
	path = tb.resolve(path)
	codec, err := lookupCodec(encodingName)
	if err != nil {
		return "", tb.fail("read_file", path, err)
	}

	info, err := tb.fs.Stat(path)
	if err != nil {
		return "", tb.fail("read_file", path, pathError(path, err))
	}
	if info.IsDir() {
		return "", tb.fail("read_file", path, fmt.Errorf("%w: %s", ErrNotFile, path))
	}

	data, err := afero.ReadFile(tb.fs, path)
	if err != nil {
		return "", tb.fail("read_file", path, pathError(path, err))
	}

	text, err := codec.decodeStrict(data)
	if err != nil {
		return "", tb.fail("read_file", path, fmt.Errorf("%s: %w", path, err))
	}

	tb.logger.Debug("file read", "path", path, "bytes", len(data), "encoding", codec.name)
	return text, nil
}

// =============================================================================
// LIST FILE TREE
// =============================================================================

// ListFileTree renders the tree under root, one entry per line, sorted per
// directory. Directories carry a trailing "/". Symlinks are listed, not
// followed. A subdirectory that cannot be read is reported in place and the
// walk continues.
func (tb *Toolbox) ListFileTree(root, indent string) (string, error) {
	root = tb.resolve(root)
	info, err := tb.fs.Stat(root)
	if err != nil {
		return "", tb.fail("list_file_tree", root, pathError(root, err))
	}
	if !info.IsDir() {
		return "", tb.fail("list_file_tree", root, fmt.Errorf("%w: %s", ErrNotDirectory, root))
	}

	entries, err := afero.ReadDir(tb.fs, root)
	if err != nil {
		return "", tb.fail("list_file_tree", root, pathError(root, err))
	}

	var lines []string
	tb.renderTree(&lines, root, entries, indent, 0)

	tb.logger.Debug("file tree listed", "root", root, "entries", len(lines))
	return strings.Join(lines, "\n"), nil
}

// renderTree appends the lines for entries (already sorted by afero.ReadDir).
func (tb *Toolbox) renderTree(lines *[]string, dir string, entries []os.FileInfo, indent string, level int) {
	prefix := ""
	if level > 0 {
		prefix = strings.Repeat(indent, level) + treeBranch
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			*lines = append(*lines, prefix+entry.Name())
			continue
		}

		*lines = append(*lines, prefix+entry.Name()+"/")

		sub := filepath.Join(dir, entry.Name())
		children, err := afero.ReadDir(tb.fs, sub)
		if err != nil {
			tb.logger.Warn("cannot read directory", "path", sub, "error", err)
			*lines = append(*lines, strings.Repeat(indent, level+1)+"[permission denied] "+sub)
			continue
		}
		tb.renderTree(lines, sub, children, indent, level+1)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// fail logs a tool failure and returns err unchanged.
func (tb *Toolbox) fail(tool, path string, err error) error {
	tb.logger.Warn("tool failed", "tool", tool, "path", path, "error", err)
	return err
}

// absPath makes an already resolved path absolute.
func absPath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
