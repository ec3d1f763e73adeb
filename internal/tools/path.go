// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/jeranaias/minicode/internal/util"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// CreatePath creates base (with parents) and then either a file named name
// holding content, overwriting any existing file, or a directory named
// name. Creating an existing directory is not an error. It returns the
// absolute path of the created entry.
func (tb *Toolbox) CreatePath(base, name string, isFile bool, content string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", tb.fail("create_path", base, &ValidationError{Param: "name", Message: "must not be empty"})
	}

	base = tb.resolve(base)
	if err := tb.fs.MkdirAll(base, dirPerm); err != nil {
		return "", tb.fail("create_path", base, pathError(base, err))
	}

	target := filepath.Join(base, name)
	if isFile {
		if err := tb.fs.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
			return "", tb.fail("create_path", target, pathError(target, err))
		}
		if err := util.AtomicWriteFile(tb.fs, target, []byte(content), filePerm); err != nil {
			return "", tb.fail("create_path", target, pathError(target, err))
		}
		tb.logger.Info("file created", "path", target, "bytes", len(content))
	} else {
		if err := tb.fs.MkdirAll(target, dirPerm); err != nil {
			return "", tb.fail("create_path", target, pathError(target, err))
		}
		tb.logger.Info("directory created", "path", target)
	}

	return absPath(target), nil
}

// EditPath optionally overwrites the content of a file and then optionally
// renames it within its directory. Directories can only be renamed;
// newContent is ignored for them. An empty newName and nil newContent leave
// the entry as is. A rename onto an existing entry fails before anything is
// written. It returns the absolute path of the entry after the edit.
func (tb *Toolbox) EditPath(path, newName string, newContent *string) (string, error) {
	path = tb.resolve(path)
	info, err := tb.fs.Stat(path)
	if err != nil {
		return "", tb.fail("edit_path", path, pathError(path, err))
	}

	current := filepath.Clean(path)
	target := current

	if newName != "" {
		if strings.ContainsRune(newName, filepath.Separator) || newName == "." || newName == ".." {
			return "", tb.fail("edit_path", path, &ValidationError{Param: "new_name", Message: "must be a plain name"})
		}
		target = filepath.Join(filepath.Dir(current), newName)
		if target != current {
			exists, err := afero.Exists(tb.fs, target)
			if err != nil {
				return "", tb.fail("edit_path", target, pathError(target, err))
			}
			if exists {
				return "", tb.fail("edit_path", target, fmt.Errorf("%w: %s", ErrExists, target))
			}
		}
	}

	if newContent != nil {
		if info.IsDir() {
			tb.logger.Debug("ignoring content for directory", "path", path)
		} else {
			if err := util.AtomicWriteFile(tb.fs, current, []byte(*newContent), info.Mode().Perm()); err != nil {
				return "", tb.fail("edit_path", path, pathError(path, err))
			}
			tb.logger.Info("file content replaced", "path", current, "bytes", len(*newContent))
		}
	}

	if target != current {
		if err := tb.fs.Rename(current, target); err != nil {
			return "", tb.fail("edit_path", path, pathError(path, err))
		}
		tb.logger.Info("path renamed", "from", current, "to", target)
	}

	return absPath(target), nil
}
