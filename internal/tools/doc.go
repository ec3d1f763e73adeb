// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the tool set the minicode agent reasons with.
//
// Every tool exists twice: as a typed method on Toolbox returning (value, error),
// and as a Tool definition whose ToolExecutor adapts loosely typed model
// arguments to that method and reports a Result. Failures are never swallowed:
// the method returns a wrapped sentinel error and the executor turns it into
// Result{Success: false}.
//
// # Key Types
//
//   - Toolbox: the tool implementations over an afero.Fs and a page Renderer
//   - Tool: name, description, parameter schema and executor
//   - Registry: the set of tools offered to the model
//   - Executor: validation, timeout, output truncation and history
//   - Result: outcome of one tool call
//
// # Available Tools
//
// File Tools:
//   - read_file: read a file with a given encoding
//   - list_file_tree: render a directory as an indented tree
//
// Search Tools:
//   - search_in_files: regex search, one absolute path per matching file
//
// Path Tools:
//   - create_path: create a file or directory
//   - edit_path: rewrite and/or rename a file or directory
//
// Edit Tools:
//   - replace_in_file: global regex substitution
//
// Web Tools:
//   - fetch_website_html: render a page in a browser and return its HTML
//   - use_search_engine: Bing search through a rendered results page
//
// Human I/O:
//   - tell_human_something: show a message to the person running the agent
package tools
