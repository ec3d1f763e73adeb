// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output streams. Results go to stdout, progress and errors to stderr.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Command represents a CLI command.
type Command int

const (
	// CmdHelp shows usage.
	CmdHelp Command = iota
	// CmdRun solves one requirement.
	CmdRun
	// CmdChat starts the interactive loop.
	CmdChat
	// CmdTools lists the tools.
	CmdTools
	// CmdTool invokes one tool directly.
	CmdTool
	// CmdConfig manages the config file.
	CmdConfig
	// CmdVersion prints version information.
	CmdVersion
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdRun:
		return "run"
	case CmdChat:
		return "chat"
	case CmdTools:
		return "tools"
	case CmdTool:
		return "tool"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	NoColor bool
	Model   string
	Dir     string

	// MaxIters overrides agent.max_iters when > 0.
	MaxIters int

	// Query is the requirement for run.
	Query string

	// Subcommand is the config action (show, path, init, get, set).
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Force lets config init overwrite an existing file.
	Force bool

	// ToolName and ToolParams describe a direct tool invocation.
	ToolName   string
	ToolParams map[string]string

	// Raw holds the arguments after the command name.
	Raw []string
}

const usageText = `minicode - a small coding agent

USAGE:
  minicode <command> [flags]

COMMANDS:
  run <requirement>          Solve one requirement and print the solution
  ask <requirement>          Alias for run
  chat                       Interactive loop, one requirement per line
  tools                      List the tools the agent can call
  tool <name> [--param v]    Invoke one tool directly
  config show                Show the effective configuration
  config path                Show where the config was loaded from
  config init [--force]      Write a default config file
  config get <key>           Print one setting (e.g. dspy.model)
  config set <key> <value>   Change one setting and save
  version                    Print version information
  help                       Show this help

GLOBAL FLAGS:
  --model <provider/model>   Override dspy.model
  --dir <path>               Project directory (config and .env lookup)
  --max-iters <n>            Override agent.max_iters
  --json                     Machine-readable output
  --no-color                 Disable colors
  -v, --verbose              Debug logging
  -q, --quiet                Only warnings and errors

ENVIRONMENT:
  MINICODE_MODEL, MINICODE_API_KEY, MINICODE_API_BASE,
  MINICODE_MAX_ITERS, MINICODE_HEADLESS, NO_COLOR

EXAMPLES:
  minicode run "add a README to this project"
  minicode tool list_file_tree --root .
  minicode tool search_in_files --root . --pattern "func main"
  minicode config set dspy.model deepseek/deepseek-chat
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Fprint(stdout, usageText)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Fprintf(stdout, "minicode %s\n", Version)
	fmt.Fprintf(stdout, "  Commit: %s\n", GitCommit)
	fmt.Fprintf(stdout, "  Built:  %s\n", BuildDate)
	fmt.Fprintf(stdout, "  Go:     %s\n", runtime.Version())
}

// Parse parses os.Args.
func Parse() (Command, Args, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments (without the program name).
func ParseArgs(argv []string) (Command, Args, error) {
	remaining, parsed, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, parsed, err
	}

	if len(remaining) == 0 {
		return CmdHelp, parsed, nil
	}

	word := remaining[0]
	cmd := strings.ToLower(word)
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "run", "ask":
		parsed.Query = strings.TrimSpace(strings.Join(remaining, " "))
		if parsed.Query == "" {
			return CmdRun, parsed, ErrMissingArgument("requirement", `minicode run "<requirement>"`)
		}
		return CmdRun, parsed, nil

	case "chat":
		return CmdChat, parsed, nil

	case "tools":
		return CmdTools, parsed, nil

	case "tool":
		if err := parseToolArgs(&parsed, remaining); err != nil {
			return CmdTool, parsed, err
		}
		return CmdTool, parsed, nil

	case "config":
		if err := parseConfigArgs(&parsed, remaining); err != nil {
			return CmdConfig, parsed, err
		}
		return CmdConfig, parsed, nil

	case "version", "--version":
		return CmdVersion, parsed, nil

	case "help", "-h", "--help":
		return CmdHelp, parsed, nil

	default:
		// Anything else is taken as the requirement itself.
		parsed.Raw = append([]string{word}, remaining...)
		parsed.Query = strings.TrimSpace(strings.Join(parsed.Raw, " "))
		return CmdRun, parsed, nil
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Parsing stops at "--"; everything after it is passed through.
func parseGlobalFlags(args []string) ([]string, Args, error) {
	var remaining []string
	parsed := Args{ToolParams: make(map[string]string)}

	// value returns the flag's value from "--flag=v" or the next argument.
	value := func(i *int, name string) (string, error) {
		arg := args[*i]
		if idx := strings.Index(arg, "="); idx != -1 {
			return arg[idx+1:], nil
		}
		if *i+1 >= len(args) {
			return "", ErrMissingArgument(name, "--"+name+" <value>")
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name := arg
		if idx := strings.Index(arg, "="); idx != -1 && strings.HasPrefix(arg, "--") {
			name = arg[:idx]
		}

		switch name {
		case "--":
			remaining = append(remaining, args[i+1:]...)
			return remaining, parsed, nil
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--no-color":
			parsed.NoColor = true
		case "--model":
			v, err := value(&i, "model")
			if err != nil {
				return nil, parsed, err
			}
			parsed.Model = v
		case "--dir":
			v, err := value(&i, "dir")
			if err != nil {
				return nil, parsed, err
			}
			parsed.Dir = v
		case "--max-iters":
			v, err := value(&i, "max-iters")
			if err != nil {
				return nil, parsed, err
			}
			n, err := ParseIntWithValidation(v, "max-iters")
			if err != nil {
				return nil, parsed, err
			}
			parsed.MaxIters = n
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, parsed, nil
}

// parseToolArgs parses "tool <name> --param value ...".
func parseToolArgs(args *Args, remaining []string) error {
	parser := NewArgParser(remaining)
	args.ToolName = parser.Subcommand()
	if args.ToolName == "" {
		return ErrMissingArgument("tool name", "minicode tool <name> [--param value ...]")
	}
	if parser.PositionalCount() > 1 {
		return NewValidationError("argument", parser.Positional(1), "tool parameters must be given as --name value")
	}
	for name, v := range parser.Flags() {
		args.ToolParams[name] = v
	}
	for name, v := range parser.BoolFlags() {
		args.ToolParams[name] = strconv.FormatBool(v)
	}
	return nil
}

// parseConfigArgs parses "config <action> [key] [value]".
func parseConfigArgs(args *Args, remaining []string) error {
	parser := NewArgParser(remaining)
	args.Subcommand = strings.ToLower(parser.Subcommand())
	if args.Subcommand == "" {
		args.Subcommand = "show"
	}
	args.Force = parser.BoolFlag("force")
	args.ConfigKey = parser.Positional(1)
	args.ConfigVal = JoinPositionalArgs(parser, 2)

	switch args.Subcommand {
	case "show", "path", "init":
	case "get":
		if args.ConfigKey == "" {
			return ErrMissingArgument("key", "minicode config get <key>")
		}
	case "set":
		if args.ConfigKey == "" || parser.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "minicode config set <key> <value>")
		}
	default:
		return NewValidationErrorWithExample("config action", args.Subcommand,
			"unknown action", "minicode config show|path|init|get|set")
	}
	return nil
}

// Dispatch runs the handler for cmd.
func Dispatch(cmd Command, args Args) error {
	switch cmd {
	case CmdRun:
		return HandleRun(args)
	case CmdChat:
		return HandleChat(args)
	case CmdTools:
		return HandleTools(args)
	case CmdTool:
		return HandleTool(args)
	case CmdConfig:
		return HandleConfig(args)
	case CmdVersion:
		return HandleVersion(args)
	default:
		PrintUsage()
		return nil
	}
}

// VersionData is the JSON form of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
	}
	PrintVersion()
	return nil
}
