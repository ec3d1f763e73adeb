// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Tool names offered to the model.
const (
	ToolReadFile         = "read_file"
	ToolListFileTree     = "list_file_tree"
	ToolSearchInFiles    = "search_in_files"
	ToolCreatePath       = "create_path"
	ToolEditPath         = "edit_path"
	ToolReplaceInFile    = "replace_in_file"
	ToolFetchWebsiteHTML = "fetch_website_html"
	ToolUseSearchEngine  = "use_search_engine"
	ToolTellHuman        = "tell_human_something"
)

var encodingParam = Parameter{
	Name:        "encoding",
	Type:        "string",
	Description: "Text encoding of the file (WHATWG name, e.g. utf-8, gbk, latin1)",
	Default:     DefaultEncoding,
}

// Tools returns the tool definitions backed by tb, in the order they are
// presented to the model.
func (tb *Toolbox) Tools() []*Tool {
	return []*Tool{
		{
			Name:        ToolReadFile,
			Description: "Read the full content of a text file.\nFails if the file is missing, unreadable or not valid in the encoding.",
			Schema: Schema{Parameters: []Parameter{
				{Name: "path", Type: "string", Required: true, Description: "Path of the file to read"},
				encodingParam,
			}},
			RiskLevel: RiskLow,
			Executor: ExecutorFunc(func(_ context.Context, params map[string]interface{}) (Result, error) {
				text, err := tb.ReadFile(getStringParam(params, "path", ""), getStringParam(params, "encoding", DefaultEncoding))
				if err != nil {
					return Result{}, err
				}
				return okResult(text), nil
			}),
		},
		{
			Name:        ToolListFileTree,
			Description: "List a directory tree, one entry per line, sorted per level.\nDirectories end with '/'; nesting is shown by indentation.",
			Schema: Schema{Parameters: []Parameter{
				{Name: "root", Type: "string", Required: true, Description: "Directory to list"},
				{Name: "indent", Type: "string", Description: "Indentation per level", Default: DefaultTreeIndent},
			}},
			RiskLevel: RiskLow,
			Executor: ExecutorFunc(func(_ context.Context, params map[string]interface{}) (Result, error) {
				indent := DefaultTreeIndent
				if s := getOptionalString(params, "indent"); s != nil {
					indent = *s
				}
				tree, err := tb.ListFileTree(getStringParam(params, "root", ""), indent)
				if err != nil {
					return Result{}, err
				}
				return okResult(tree), nil
			}),
		},
		{
			Name:        ToolSearchInFiles,
			Description: "Find files under a directory containing a line that matches a regular expression.\nReturns absolute paths, one per line.",
			Schema: Schema{Parameters: []Parameter{
				{Name: "root", Type: "string", Required: true, Description: "Directory to search"},
				{Name: "pattern", Type: "string", Required: true, Description: "Regular expression matched against each line"},
				encodingParam,
				{Name: "exclude_dirs", Type: "array", Items: "string", Description: "Directory names to skip", Default: DefaultExcludeDirs},
			}},
			RiskLevel: RiskLow,
			Executor: ExecutorFunc(func(ctx context.Context, params map[string]interface{}) (Result, error) {
				paths, err := tb.SearchInFiles(ctx,
					getStringParam(params, "root", ""),
					getStringParam(params, "pattern", ""),
					getStringParam(params, "encoding", DefaultEncoding),
					getStringSliceParam(params, "exclude_dirs"),
				)
				if err != nil {
					return Result{}, err
				}
				result := okResult(strings.Join(paths, "\n"))
				if len(paths) == 0 {
					result.Output = "no files matched"
				}
				result.MatchCount = len(paths)
				return result, nil
			}),
		},
		{
			Name:        ToolCreatePath,
			Description: "Create a file or directory inside base, creating base as needed.\nAn existing file is overwritten; an existing directory is kept. Returns the absolute path.",
			Schema: Schema{Parameters: []Parameter{
				{Name: "base", Type: "string", Required: true, Description: "Parent directory"},
				{Name: "name", Type: "string", Required: true, Description: "Name of the new entry"},
				{Name: "is_file", Type: "boolean", Description: "Create a file (true) or a directory (false)", Default: true},
				{Name: "content", Type: "string", Description: "Initial file content", Default: ""},
			}},
			RiskLevel: RiskHigh,
			Executor: ExecutorFunc(func(_ context.Context, params map[string]interface{}) (Result, error) {
				abs, err := tb.CreatePath(
					getStringParam(params, "base", ""),
					getStringParam(params, "name", ""),
					getBoolParam(params, "is_file", true),
					getStringParam(params, "content", ""),
				)
				if err != nil {
					return Result{}, err
				}
				return okResult(abs), nil
			}),
		},
		{
			Name:        ToolEditPath,
			Description: "Overwrite a file's content and/or rename a file or directory in place.\nRenaming onto an existing entry fails. Returns the resulting absolute path.",
			Schema: Schema{Parameters: []Parameter{
				{Name: "path", Type: "string", Required: true, Description: "Existing file or directory"},
				{Name: "new_name", Type: "string", Description: "New base name; omit to keep the name"},
				{Name: "new_content", Type: "string", Description: "New file content; omit to keep the content"},
			}},
			RiskLevel: RiskHigh,
			Executor: ExecutorFunc(func(_ context.Context, params map[string]interface{}) (Result, error) {
				abs, err := tb.EditPath(
					getStringParam(params, "path", ""),
					getStringParam(params, "new_name", ""),
					getOptionalString(params, "new_content"),
				)
				if err != nil {
					return Result{}, err
				}
				return okResult(abs), nil
			}),
		},
		{
			Name:        ToolReplaceInFile,
			Description: "Replace every match of a regular expression in a file.\nGroups can be referenced as \\1, \\g<name> or ${name}. Fails when nothing matches.",
			Schema: Schema{Parameters: []Parameter{
				{Name: "path", Type: "string", Required: true, Description: "File to edit"},
				{Name: "pattern", Type: "string", Required: true, Description: "Regular expression"},
				{Name: "replacement", Type: "string", Required: true, Description: "Replacement text"},
				encodingParam,
			}},
			RiskLevel: RiskHigh,
			Executor: ExecutorFunc(func(_ context.Context, params map[string]interface{}) (Result, error) {
				path := getStringParam(params, "path", "")
				replacement, _ := params["replacement"].(string)
				count, err := tb.ReplaceInFile(path, getStringParam(params, "pattern", ""), replacement, getStringParam(params, "encoding", DefaultEncoding))
				if err != nil {
					return Result{}, err
				}
				result := okResult(fmt.Sprintf("replaced %d occurrence(s) in %s", count, path))
				result.MatchCount = count
				return result, nil
			}),
		},
		{
			Name:        ToolFetchWebsiteHTML,
			Description: "Load a web page in a headless browser and return its rendered HTML.\nWaits for the network to go idle, then for `wait` more seconds.",
			Schema: Schema{Parameters: []Parameter{
				{Name: "url", Type: "string", Required: true, Description: "Absolute http(s) URL"},
				{Name: "wait", Type: "number", Description: "Extra seconds to wait after network idle", Default: DefaultFetchWait.Seconds()},
			}},
			RiskLevel: RiskMedium,
			Async:     true,
			Executor: ExecutorFunc(func(ctx context.Context, params map[string]interface{}) (Result, error) {
				wait := time.Duration(getFloatParam(params, "wait", DefaultFetchWait.Seconds()) * float64(time.Second))
				html, err := tb.FetchWebsiteHTML(ctx, getStringParam(params, "url", ""), wait)
				if err != nil {
					return Result{}, err
				}
				return okResult(html), nil
			}),
		},
		{
			Name:        ToolUseSearchEngine,
			Description: "Search the web and return the results as a JSON array of {title, url, description}.\nOnly the bing engine is available.",
			Schema: Schema{Parameters: []Parameter{
				{Name: "question", Type: "string", Required: true, Description: "Search query"},
				{Name: "engine", Type: "string", Description: "Search engine", Default: DefaultSearchEngine},
			}},
			RiskLevel: RiskMedium,
			Async:     true,
			Executor: ExecutorFunc(func(ctx context.Context, params map[string]interface{}) (Result, error) {
				results, err := tb.UseSearchEngine(ctx, getStringParam(params, "question", ""), getStringParam(params, "engine", DefaultSearchEngine))
				if err != nil {
					return Result{}, err
				}
				data, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return Result{}, err
				}
				result := okResult(string(data))
				result.MatchCount = len(results)
				return result, nil
			}),
		},
		{
			Name:        ToolTellHuman,
			Description: "Show a message to the human running the agent.\nUse it for progress notes or questions that need no answer.",
			Schema: Schema{Parameters: []Parameter{
				{Name: "message", Type: "string", Required: true, Description: "Message text"},
			}},
			RiskLevel: RiskMedium,
			Executor: ExecutorFunc(func(_ context.Context, params map[string]interface{}) (Result, error) {
				ack, err := tb.TellHuman(getStringParam(params, "message", ""))
				if err != nil {
					return Result{}, err
				}
				return okResult(ack), nil
			}),
		},
	}
}

// DefaultRegistry registers the tools of tb. Browser-backed tools are left
// out unless includeAsync is set.
func DefaultRegistry(tb *Toolbox, includeAsync bool) *Registry {
	return NewRegistry(lo.Filter(tb.Tools(), func(t *Tool, _ int) bool {
		return includeAsync || !t.Async
	})...)
}
