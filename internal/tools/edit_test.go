// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestReplaceInFile_CountsSubstitutions(t *testing.T) {
	tb, fs := newTestToolbox(t, map[string]string{"/proj/a.txt": "a1 b2 c3"})

	count, err := tb.ReplaceInFile("/proj/a.txt", `([a-z])(\d)`, `\2\1`, "utf-8")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, "1a 2b 3c", readString(t, fs, "/proj/a.txt"))
}

func TestReplaceInFile_NoMatchLeavesFileIdentical(t *testing.T) {
	original := "nothing to see\n"
	tb, fs := newTestToolbox(t, map[string]string{"/proj/a.txt": original})

	count, err := tb.ReplaceInFile("/proj/a.txt", `zebra`, "horse", "utf-8")
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Zero(t, count)
	assert.Equal(t, original, readString(t, fs, "/proj/a.txt"))
}

func TestReplaceInFile_NamedGroups(t *testing.T) {
	tb, fs := newTestToolbox(t, map[string]string{"/proj/mail.txt": "alice@example bob@example"})

	count, err := tb.ReplaceInFile("/proj/mail.txt", `(?P<user>\w+)@example`, `\g<user> at ${user}`, "")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "alice at alice bob at bob", readString(t, fs, "/proj/mail.txt"))
}

func TestReplaceInFile_TrailingDollar(t *testing.T) {
	tests := []struct {
		name    string
		content string
		pattern string
		want    string
		count   int
	}{
		{"before final newline", "foo\nbar foo\n", `foo$`, "foo\nbar X\n", 1},
		{"no final newline", "bar foo", `foo$`, "bar X", 1},
		{"multiline mode", "foo\nbar foo\n", `(?m)foo$`, "X\nbar X\n", 2},
		{"escaped dollar", "cost foo$\n", `foo\$`, "cost X\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb, fs := newTestToolbox(t, map[string]string{"/proj/a.txt": tt.content})

			count, err := tb.ReplaceInFile("/proj/a.txt", tt.pattern, "X", "utf-8")
			require.NoError(t, err)
			assert.Equal(t, tt.count, count)
			assert.Equal(t, tt.want, readString(t, fs, "/proj/a.txt"))
		})
	}
}

func TestAnchorFinalNewline(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
		suffix  string
	}{
		{`foo$`, `foo(?P<minicode_eol>\n?\z)`, "${minicode_eol}"},
		{`foo\\$`, `foo\\(?P<minicode_eol>\n?\z)`, "${minicode_eol}"},
		{`foo\$`, `foo\$`, ""},
		{`(?m)foo$`, `(?m)foo$`, ""},
		{`(?im:foo)$`, `(?im:foo)$`, ""},
		{`foo`, `foo`, ""},
	}

	for _, tt := range tests {
		got, suffix := anchorFinalNewline(tt.pattern)
		assert.Equal(t, tt.want, got, tt.pattern)
		assert.Equal(t, tt.suffix, suffix, tt.pattern)
	}
}

func TestReplaceInFile_GBKRoundTrip(t *testing.T) {
	encoded, err := simplifiedchinese.GBK.NewEncoder().String("你好 world")
	require.NoError(t, err)
	tb, fs := newTestToolbox(t, map[string]string{"/proj/gbk.txt": encoded})

	_, err = tb.ReplaceInFile("/proj/gbk.txt", `world`, "世界", "gbk")
	require.NoError(t, err)

	want, err := simplifiedchinese.GBK.NewEncoder().String("你好 世界")
	require.NoError(t, err)
	assert.Equal(t, want, readString(t, fs, "/proj/gbk.txt"))
}

func TestReplaceInFile_Failures(t *testing.T) {
	tb, _ := newTestToolbox(t, map[string]string{"/proj/a.txt": "x"})

	_, err := tb.ReplaceInFile("/proj/missing.txt", `x`, "y", "utf-8")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tb.ReplaceInFile("/proj", `x`, "y", "utf-8")
	assert.ErrorIs(t, err, ErrNotFile)

	_, err = tb.ReplaceInFile("/proj/a.txt", `[`, "y", "utf-8")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestTranslateReplacement(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `plain`},
		{`\1`, `${1}`},
		{`\1\2`, `${1}${2}`},
		{`\10`, `${10}`},
		{`\g<name>`, `${name}`},
		{`\g<1>x`, `${1}x`},
		{`${keep}`, `${keep}`},
		{`cost $5`, `cost $$5`},
		{`a\nb`, "a\nb"},
		{`a\tb`, "a\tb"},
		{`back\\slash`, `back\slash`},
		{`\q`, `\q`},
		{`\g<open`, `\g<open`},
		{`trailing\`, `trailing\`},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, translateReplacement(tc.in))
		})
	}
}
