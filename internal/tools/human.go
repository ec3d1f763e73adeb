// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"
	"strings"
)

// Delivered is what tell_human_something reports back to the model.
const Delivered = "message delivered"

// TellHuman passes message to the person running the agent.
func (tb *Toolbox) TellHuman(message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", tb.fail("tell_human_something", "", ErrEmptyMessage)
	}
	if err := tb.notify(message); err != nil {
		return "", tb.fail("tell_human_something", "", fmt.Errorf("deliver message: %w", err))
	}
	tb.logger.Debug("message delivered", "chars", len(message))
	return Delivered, nil
}
