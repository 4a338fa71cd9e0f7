// Package cliutil provides small terminal helpers for the netravend
// adhoc command: a no-echo password prompt with a plain-line fallback
// for non-terminal input.
package cliutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptPassword writes prompt to out and reads a password from in
// without echoing it, when in is a terminal. When in is not a terminal
// (piped input, tests), it falls back to reading a single line verbatim
// so scripted use still works.
func PromptPassword(out io.Writer, in *os.File, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(in)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}
