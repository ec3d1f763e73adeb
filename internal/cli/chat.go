// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"

	"github.com/jeranaias/minicode/internal/agent"
	"github.com/jeranaias/minicode/internal/config"
)

// chatPrompt is shown before each requirement.
const chatPrompt = "minicode> "

// historyFileName lives next to the config file in the home directory.
const historyFileName = "chat_history"

// =============================================================================
// LINE EDITING
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor; history is loaded from historyFile when
// it is non-empty.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// defaultHistoryFile returns ~/.mini-code-agent/chat_history, or "".
func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, config.DirName, historyFileName)
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line. Non-empty input is added to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes history to file (0600).
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// chatSession is the state of one chat command.
type chatSession struct {
	agent *agent.Agent
	out   io.Writer
	runs  int
}

// HandleChat handles the "chat" command: one requirement per line until
// /exit or EOF.
func HandleChat(args Args) error {
	logger := slog.Default()

	cfg, err := loadConfig(args, logger)
	if err != nil {
		return err
	}
	a, err := newAgent(cfg, args, logger)
	if err != nil {
		return err
	}

	session := &chatSession{agent: a, out: stdout}
	input := NewChatCLI(defaultHistoryFile())
	defer input.Close()

	// Piped input gets no banner.
	if IsTTY() {
		session.printWelcome()
	}

	for {
		line, err := input.ReadInput(chatPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				// Ctrl+C clears the line.
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(session.out)
				return nil
			}
			return NewCommandError("chat", "read", "cannot read input", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if exit := session.handleSlashCommand(line); exit {
				return nil
			}
			continue
		}

		session.solve(line)
	}
}

// solve runs one requirement. Failures are shown and the loop continues.
func (s *chatSession) solve(requirement string) {
	ctx, stop := signalContext()
	defer stop()

	result, err := s.agent.Run(ctx, requirement)
	if err != nil {
		DisplayError(err, false)
		return
	}
	s.runs++
	fmt.Fprintln(s.out)
	displaySolution(result.Solution)
	fmt.Fprintln(s.out)
}

// handleSlashCommand executes a /command and reports whether to exit.
func (s *chatSession) handleSlashCommand(line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/exit", "/quit", "/q":
		fmt.Fprintln(s.out, DimStyle.Render(fmt.Sprintf("%d requirement(s) solved", s.runs)))
		printStats(s.out, s.agent.Executor().Stats())
		return true
	case "/tools":
		printToolList(s.out, s.agent.Tools())
	case "/clear":
		s.agent.Executor().ClearHistory()
		if IsStdoutTTY() {
			termenv.NewOutput(os.Stdout).ClearScreen()
		}
		s.printWelcome()
	case "/help":
		printChatHelp(s.out)
	default:
		fmt.Fprintf(s.out, "%s unknown command %s, try /help\n", WarningStyle.Render("!"), fields[0])
	}
	return false
}

func (s *chatSession) printWelcome() {
	cfg := s.agent.Config()
	fmt.Fprintln(s.out, TitleStyle.Render("minicode chat"))
	fmt.Fprintf(s.out, "%s %s\n", RenderLabel("Model", 8), ValueStyle.Render(cfg.LM.Model))
	fmt.Fprintf(s.out, "%s %s\n", RenderLabel("Tools", 8), ValueStyle.Render(fmt.Sprint(len(s.agent.Tools()))))
	fmt.Fprintln(s.out, DimStyle.Render("Type a requirement, or /help for commands."))
	fmt.Fprintln(s.out)
}

func printChatHelp(w io.Writer) {
	fmt.Fprintln(w, TitleStyle.Render("Commands"))
	fmt.Fprintf(w, "  %s %s\n", padRight("/tools", 8), "list the tools")
	fmt.Fprintf(w, "  %s %s\n", padRight("/clear", 8), "clear the screen and tool history")
	fmt.Fprintf(w, "  %s %s\n", padRight("/exit", 8), "leave chat")
	fmt.Fprintf(w, "  %s %s\n", padRight("/help", 8), "show this help")
}
