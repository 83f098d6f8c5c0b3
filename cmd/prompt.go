package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pnavk/gMusic/internal/shared"
)

// TerminalPrompter collects free-form input and OAuth authorization codes
// from an interactive terminal session.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter creates a [TerminalPrompter] reading from in and
// writing prompts to out.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

// Text prompts for a single line of input. An empty line falls back to the
// placeholder when one is given; otherwise the prompt counts as abandoned
// and [shared.ErrAuthAbandoned] is returned.
func (p *TerminalPrompter) Text(ctx context.Context, prompt, placeholder string) (string, error) {
	if placeholder != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, placeholder)
	} else {
		fmt.Fprintf(p.out, "%s: ", prompt)
	}

	line, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	if line == "" {
		if placeholder != "" {
			return placeholder, nil
		}
		return "", shared.ErrAuthAbandoned
	}

	return line, nil
}

// AuthCode opens authURL in the default browser (printing it as a fallback)
// and prompts for the authorization code handed back by the vendor.
func (p *TerminalPrompter) AuthCode(ctx context.Context, authURL string) (string, error) {
	fmt.Fprintf(p.out, "Opening browser for authorization:\n  %s\n", authURL)
	if err := shared.OpenBrowser(authURL); err != nil {
		fmt.Fprintln(p.out, "Could not open a browser, visit the URL above manually.")
	}
	fmt.Fprint(p.out, "Paste authorization code (empty to cancel): ")

	code, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", shared.ErrAuthAbandoned
	}

	return code, nil
}

// readLine reads one trimmed line. EOF counts as abandoning the prompt.
func (p *TerminalPrompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return "", shared.ErrAuthAbandoned
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}
