// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for minicode.
//
// # Key Types
//
//   - Command: enumeration of the available commands
//   - Args: parsed command-line arguments with global and command flags
//   - CommandError: failure of a command, mapped to an exit code
//
// # Usage
//
//	cmd, args, err := cli.Parse()
//	if err != nil {
//	    cli.HandleErrorAndExit(err, args.JSON)
//	}
//	cli.SetupLogging(args)
//	cli.HandleErrorAndExit(cli.Dispatch(cmd, args), args.JSON)
//
// # Commands Overview
//
//   - run / ask: solve one requirement with the agent
//   - chat: interactive loop, one requirement per line
//   - tools: list the tools the agent can call
//   - tool: invoke one tool directly
//   - config: show, locate, create and edit the config file
//   - version, help
//
// Progress and logs go to stderr; results go to stdout.
package cli
