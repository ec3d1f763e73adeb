// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"errors"
	"fmt"
	"io/fs"
)

// Sentinel errors returned (wrapped) by the Toolbox methods.
var (
	// ErrNotFound indicates the path does not exist.
	ErrNotFound = errors.New("path does not exist")

	// ErrNotDirectory indicates a directory was required.
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotFile indicates a regular file was required.
	ErrNotFile = errors.New("not a regular file")

	// ErrPermission indicates the OS refused access.
	ErrPermission = errors.New("permission denied")

	// ErrDecode indicates the content is not valid in the requested encoding.
	ErrDecode = errors.New("cannot decode content")

	// ErrUnknownEncoding indicates an unsupported encoding name.
	ErrUnknownEncoding = errors.New("unknown encoding")

	// ErrInvalidPattern indicates the regular expression did not compile.
	ErrInvalidPattern = errors.New("invalid regular expression")

	// ErrNoMatch indicates a substitution matched nothing.
	ErrNoMatch = errors.New("pattern matched nothing")

	// ErrExists indicates the target of a rename already exists.
	ErrExists = errors.New("target already exists")

	// ErrUnsupportedEngine indicates a search engine other than bing.
	ErrUnsupportedEngine = errors.New("unsupported search engine")

	// ErrInvalidURL indicates a URL that is not absolute http(s).
	ErrInvalidURL = errors.New("invalid URL")

	// ErrEmptyMessage indicates tell_human_something got nothing to say.
	ErrEmptyMessage = errors.New("message is empty")
)

// ValidationError represents a parameter validation error.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid parameter '" + e.Param + "': " + e.Message
}

// pathError maps an afero/os error to a sentinel, keeping the cause.
func pathError(path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermission, path)
	default:
		return fmt.Errorf("%s: %w", path, err)
	}
}
