// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent runs the reasoning loop that turns a requirement into a
// solution.
//
// Each iteration sends the conversation and the tool schemas to the model.
// Tool calls are executed in order and their results, failures included,
// are fed back as observations. The loop stops when the model answers
// without calling a tool, when it calls the finish tool, or when the
// iteration budget is spent. In the last two cases one more model call,
// without tools, extracts the solution from the trajectory.
package agent
