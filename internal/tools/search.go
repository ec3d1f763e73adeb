// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// DefaultExcludeDirs are skipped by search_in_files unless the caller
// passes its own list.
var DefaultExcludeDirs = []string{".idea", "node_modules"}

// SearchInFiles returns the absolute path of every file under root with at
// least one line matching pattern, in walk order. Directories whose base
// name is in excludeDirs are not entered; a nil excludeDirs means
// DefaultExcludeDirs. Files that cannot be read are skipped.
func (tb *Toolbox) SearchInFiles(ctx context.Context, root, pattern, encodingName string, excludeDirs []string) ([]string, error) {
	root = tb.resolve(root)
	info, err := tb.fs.Stat(root)
	if err != nil {
		return nil, tb.fail("search_in_files", root, pathError(root, err))
	}
	if !info.IsDir() {
		return nil, tb.fail("search_in_files", root, fmt.Errorf("%w: %s", ErrNotDirectory, root))
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, tb.fail("search_in_files", root, fmt.Errorf("%w: %v", ErrInvalidPattern, err))
	}

	codec, err := lookupCodec(encodingName)
	if err != nil {
		return nil, tb.fail("search_in_files", root, err)
	}

	if excludeDirs == nil {
		excludeDirs = DefaultExcludeDirs
	}

	var matches []string
	rootClean := filepath.Clean(root)

	err = afero.Walk(tb.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if filepath.Clean(path) != rootClean && lo.Contains(excludeDirs, info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		found, err := tb.fileMatches(path, re, codec)
		if err != nil {
			tb.logger.Debug("skipping file", "path", path, "error", err)
			return nil
		}
		if found {
			matches = append(matches, absPath(path))
		}
		return nil
	})
	if err != nil {
		return nil, tb.fail("search_in_files", root, err)
	}

	tb.logger.Debug("search complete", "root", root, "pattern", pattern, "files", len(matches))
	return matches, nil
}

// fileMatches reports whether any line of path matches re. Malformed
// bytes are dropped rather than failing the file.
func (tb *Toolbox) fileMatches(path string, re *regexp.Regexp, codec *textCodec) (bool, error) {
	f, err := tb.fs.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	reader := bufio.NewReader(codec.reader(f))
	for {
		line, err := reader.ReadString('\n')
		if line != "" && lineMatches(re, strings.ToValidUTF8(line, "")) {
			return true, nil
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
}

// lineMatches tests a line with and without its line ending, so "$"
// matches at the end of every line and not only the last one.
func lineMatches(re *regexp.Regexp, line string) bool {
	if re.MatchString(line) {
		return true
	}
	bare := strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	return bare != line && re.MatchString(bare)
}
