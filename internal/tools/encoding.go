// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when a tool call names none.
const DefaultEncoding = "utf-8"

// textCodec decodes and encodes file content in one named encoding.
type textCodec struct {
	name string
	enc  encoding.Encoding
}

// lookupCodec resolves a WHATWG encoding name or alias ("utf-8", "gbk",
// "latin1", "shift_jis", ...).
func lookupCodec(name string) (*textCodec, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = strings.ToLower(name)
	}
	return &textCodec{name: canonical, enc: enc}, nil
}

func (c *textCodec) isUTF8() bool {
	return c.name == "utf-8"
}

// decodeStrict rejects bytes that are invalid in the encoding.
func (c *textCodec) decodeStrict(data []byte) (string, error) {
	if c.isUTF8() {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: invalid utf-8", ErrDecode)
		}
		return string(data), nil
	}
	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return string(out), nil
}

// decodeLenient drops whatever does not decode.
func (c *textCodec) decodeLenient(data []byte) string {
	if !c.isUTF8() {
		if out, err := c.enc.NewDecoder().Bytes(data); err == nil {
			data = out
		}
	}
	return strings.ToValidUTF8(string(data), "")
}

// reader wraps r so it yields UTF-8.
func (c *textCodec) reader(r io.Reader) io.Reader {
	if c.isUTF8() {
		return r
	}
	return transform.NewReader(r, c.enc.NewDecoder())
}

// encode converts UTF-8 text back to the encoding.
func (c *textCodec) encode(s string) ([]byte, error) {
	if c.isUTF8() {
		return []byte(s), nil
	}
	out, err := c.enc.NewEncoder().String(s)
	if err != nil {
		return nil, fmt.Errorf("cannot encode as %s: %w", c.name, err)
	}
	return []byte(out), nil
}
