// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strconv"
	"strings"
)

// ArgParser splits command arguments into flags and positionals.
// It handles these flag formats:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//   - Positional arguments: arguments without flags
//   - Subcommands: first positional argument
type ArgParser struct {
	subcommand string            // First positional arg (e.g., "show", "read_file")
	flags      map[string]string // String flags (--key=value)
	boolFlags  map[string]bool   // Boolean flags (--force)
	positional []string          // All positional arguments including subcommand
}

// NewArgParser parses raw arguments.
//
// Example:
//
//	args := NewArgParser([]string{"read_file", "--path", "go.mod", "--encoding=utf-8"})
//	args.Subcommand()        // "read_file"
//	args.Flag("path")        // "go.mod"
//	args.Flag("encoding")    // "utf-8"
func NewArgParser(raw []string) *ArgParser {
	parser := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if !strings.HasPrefix(arg, "-") || arg == "-" {
			parser.positional = append(parser.positional, arg)
			continue
		}

		// --flag=value
		if idx := strings.Index(arg, "="); idx != -1 {
			parser.flags[strings.TrimLeft(arg[:idx], "-")] = arg[idx+1:]
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			parser.flags[name] = raw[i+1]
			i++
		} else {
			parser.boolFlags[name] = true
		}
	}

	if len(parser.positional) > 0 {
		parser.subcommand = parser.positional[0]
	}
	return parser
}

// Subcommand returns the first positional argument, or "".
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the value of a string flag, or "".
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// BoolFlag reports whether a boolean flag was given. "--flag=false" and
// "--flag false" count as false.
func (p *ArgParser) BoolFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	if p.boolFlags[name] {
		return true
	}
	if v, ok := p.flags[name]; ok {
		b, err := ParseBoolString(v)
		return err == nil && b
	}
	return false
}

// Flags returns a copy of the string flags.
func (p *ArgParser) Flags() map[string]string {
	out := make(map[string]string, len(p.flags))
	for k, v := range p.flags {
		out[k] = v
	}
	return out
}

// BoolFlags returns a copy of the flags given without a value.
func (p *ArgParser) BoolFlags() map[string]bool {
	out := make(map[string]bool, len(p.boolFlags))
	for k, v := range p.boolFlags {
		out[k] = v
	}
	return out
}

// Positional returns the positional argument at index, or "".
// Index 0 is the subcommand.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns the positional arguments starting at index.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// =============================================================================
// HELPER FUNCTIONS FOR COMMON ARG PATTERNS
// =============================================================================

// ParseIntWithValidation parses a positive integer.
func ParseIntWithValidation(s string, fieldName string) (int, error) {
	if s == "" {
		return 0, NewValidationError(fieldName, s, "is required")
	}
	val, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, NewValidationError(fieldName, s, "must be a valid integer")
	}
	if val <= 0 {
		return 0, NewValidationError(fieldName, s, "must be positive")
	}
	return val, nil
}

// ParseBoolString accepts true/false, yes/no, y/n, 1/0 and on/off.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	default:
		return false, NewValidationError("boolean", s, "expected true or false")
	}
}

// JoinPositionalArgs joins positional arguments from startIndex with spaces.
func JoinPositionalArgs(parser *ArgParser, startIndex int) string {
	return strings.Join(parser.PositionalFrom(startIndex), " ")
}
