// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by minicode packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth: display-width truncation (CJK aware)
//   - StringWidth: terminal column count of a string
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing over an afero.Fs
//
// # Usage
//
//	// Truncate long tool output for a progress line
//	line := util.TruncateWidth(output, 60)
//
//	// Write the config file atomically
//	err := util.AtomicWriteFile(afero.NewOsFs(), path, data, 0600)
package util
