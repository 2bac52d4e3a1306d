// Package input asks the user for missing values on an interactive terminal.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Prompter reads answers from in and writes questions to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Prompter over the given streams.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Stdio is a Prompter on the process's terminal.
func Stdio() *Prompter {
	return New(os.Stdin, os.Stdout)
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Prompt asks for text input. Pressing Enter returns defaultValue.
//
//	name := p.Prompt("Component name", "")
//	// Displays: Component name: _
func (p *Prompter) Prompt(message, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprint(p.out, promptStyle.Render(message)+" "+
			hintStyle.Render(fmt.Sprintf("(%s)", defaultValue))+": ")
	} else {
		fmt.Fprint(p.out, promptStyle.Render(message)+": ")
	}

	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" || (err != nil && err != io.EOF) {
		return defaultValue
	}
	return line
}

// Confirm asks a yes/no question. Pressing Enter returns defaultYes.
//
//	if p.Confirm("Run npm install?", true) { ... }
//	// Displays: Run npm install? [Y/n]: _
func (p *Prompter) Confirm(message string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprint(p.out, promptStyle.Render(message)+" "+hintStyle.Render(hint)+": ")

	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	if line == "" || (err != nil && err != io.EOF) {
		return defaultYes
	}
	return line == "y" || line == "yes"
}
