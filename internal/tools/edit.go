// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/jeranaias/minicode/internal/util"
)

// eolGroup captures the final newline a trailing "$" stands before.
const eolGroup = "minicode_eol"

// multilineFlag matches an inline flag group that turns on (?m).
var multilineFlag = regexp.MustCompile(`\(\?[a-zA-Z]*m[a-zA-Z]*[:)]`)

// ReplaceInFile substitutes every match of pattern in path with replacement
// and returns the number of substitutions. Group references may be written
// as \1 or \g<name> as well as ${1} and ${name}. A trailing "$" also
// matches before a final newline. A pattern that matches nothing fails
// with ErrNoMatch and leaves the file untouched.
func (tb *Toolbox) ReplaceInFile(path, pattern, replacement, encodingName string) (int, error) {
	path = tb.resolve(path)
	info, err := tb.fs.Stat(path)
	if err != nil {
		return 0, tb.fail("replace_in_file", path, pathError(path, err))
	}
	if !info.Mode().IsRegular() {
		return 0, tb.fail("replace_in_file", path, fmt.Errorf("%w: %s", ErrNotFile, path))
	}

	expr, eol := anchorFinalNewline(pattern)
	re, err := regexp.Compile(expr)
	if err != nil {
		return 0, tb.fail("replace_in_file", path, fmt.Errorf("%w: %v", ErrInvalidPattern, err))
	}

	codec, err := lookupCodec(encodingName)
	if err != nil {
		return 0, tb.fail("replace_in_file", path, err)
	}

	data, err := afero.ReadFile(tb.fs, path)
	if err != nil {
		return 0, tb.fail("replace_in_file", path, pathError(path, err))
	}
	text := codec.decodeLenient(data)

	count := len(re.FindAllStringIndex(text, -1))
	if count == 0 {
		tb.logger.Warn("no match, file left untouched", "path", path, "pattern", pattern)
		return 0, fmt.Errorf("%w: %q in %s", ErrNoMatch, pattern, path)
	}

	updated := re.ReplaceAllString(text, translateReplacement(replacement)+eol)
	out, err := codec.encode(updated)
	if err != nil {
		return 0, tb.fail("replace_in_file", path, err)
	}
	if err := util.AtomicWriteFile(tb.fs, path, out, info.Mode().Perm()); err != nil {
		return 0, tb.fail("replace_in_file", path, pathError(path, err))
	}

	tb.logger.Info("replaced in file", "path", path, "count", count)
	return count, nil
}

// anchorFinalNewline rewrites a trailing unescaped "$" so it matches at
// the end of the text or before a newline that ends it. The newline is
// captured; the returned suffix puts it back after the replacement.
// Patterns in (?m) mode are left alone.
func anchorFinalNewline(pattern string) (string, string) {
	if !strings.HasSuffix(pattern, "$") || multilineFlag.MatchString(pattern) {
		return pattern, ""
	}
	backslashes := 0
	for i := len(pattern) - 2; i >= 0 && pattern[i] == '\\'; i-- {
		backslashes++
	}
	if backslashes%2 == 1 {
		return pattern, ""
	}
	return pattern[:len(pattern)-1] + `(?P<` + eolGroup + `>\n?\z)`, "${" + eolGroup + "}"
}

// translateReplacement rewrites backslash group references and escapes
// into regexp.Expand syntax. A "$" is literal unless it starts a ${...}
// reference.
func translateReplacement(repl string) string {
	var b strings.Builder
	b.Grow(len(repl))

	for i := 0; i < len(repl); i++ {
		c := repl[i]
		switch {
		case c == '$':
			if i+1 < len(repl) && repl[i+1] == '{' {
				b.WriteByte('$')
				continue
			}
			b.WriteString("$$")

		case c == '\\' && i+1 < len(repl):
			next := repl[i+1]
			switch {
			case next >= '0' && next <= '9':
				j := i + 1
				for j < len(repl) && j < i+3 && repl[j] >= '0' && repl[j] <= '9' {
					j++
				}
				b.WriteString("${" + repl[i+1:j] + "}")
				i = j - 1
			case next == 'g' && i+2 < len(repl) && repl[i+2] == '<':
				end := strings.IndexByte(repl[i+3:], '>')
				if end < 0 {
					b.WriteString(`\g`)
					i++
					continue
				}
				b.WriteString("${" + repl[i+3:i+3+end] + "}")
				i = i + 3 + end
			case next == 'n':
				b.WriteByte('\n')
				i++
			case next == 't':
				b.WriteByte('\t')
				i++
			case next == 'r':
				b.WriteByte('\r')
				i++
			case next == '\\':
				b.WriteByte('\\')
				i++
			default:
				b.WriteByte(c)
			}

		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
