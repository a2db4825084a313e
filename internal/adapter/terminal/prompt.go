// Package terminal implements the interactive prompt surface the services
// depend on: line input, no-echo secret entry and numbered option menus.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword. In tests it can be
// replaced with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

type Prompter struct {
	reader *bufio.Reader
	w      io.Writer
}

func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{reader: bufio.NewReader(r), w: w}
}

// ReadLine prints a prompt and reads a single line of input. The trailing
// newline is trimmed. If EOF occurs after some input was read, the partial
// line is returned.
func (p *Prompter) ReadLine(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret prints a prompt and reads a secret from the terminal without
// echo. The returned slice should be wiped by the caller when no longer
// needed.
func (p *Prompter) ReadSecret(prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(p.w, prompt+": "); err != nil {
		return nil, err
	}
	secret, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.w)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// Say prints an operator-facing message.
func (p *Prompter) Say(message string) {
	fmt.Fprintln(p.w, message)
}

// Choose prints a numbered option menu and reads a selection. Invalid
// selections re-prompt; empty input returns -1 so callers can treat it as a
// cancel.
func (p *Prompter) Choose(prompt string, options []string) (int, error) {
	for {
		if _, err := fmt.Fprintln(p.w, prompt); err != nil {
			return 0, err
		}
		for i, option := range options {
			if _, err := fmt.Fprintf(p.w, "  [%d] %s\n", i+1, option); err != nil {
				return 0, err
			}
		}
		line, err := p.ReadLine(fmt.Sprintf("Enter choice {1-%d}", len(options)))
		if err != nil {
			return 0, err
		}
		if line == "" {
			return -1, nil
		}
		choice, err := strconv.Atoi(line)
		if err != nil || choice < 1 || choice > len(options) {
			fmt.Fprintln(p.w, "Invalid choice!")
			continue
		}
		return choice - 1, nil
	}
}
