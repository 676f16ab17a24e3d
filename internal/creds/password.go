// Package creds resolves the password a tomb key is derived from.
package creds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrNoPassword means no password source was configured. Callers fall back to
// the key file.
var ErrNoPassword = errors.New("no password source configured")

// Prompter reads a password without echoing it.
type Prompter interface {
	ReadPassword(prompt string) (string, error)
}

// TerminalPrompter prompts on a terminal. Prompts go to Out, which defaults
// to stderr so stdout stays clean for command output.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalPrompter prompts on stdin and writes to stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// ReadPassword implements Prompter.
func (p *TerminalPrompter) ReadPassword(prompt string) (string, error) {
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot prompt for password: stdin is not a terminal")
	}
	fmt.Fprint(p.Out, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// Resolver picks the password source. Precedence: Ask, Password (flag or
// TOMB_PASSWORD), SecretID.
type Resolver struct {
	Password string
	Ask      bool
	SecretID string

	Prompter Prompter
	// Secrets is created lazily from the default AWS config when nil.
	Secrets SecretsAPI
}

// Resolve returns the password, or ErrNoPassword when nothing is configured.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	switch {
	case r.Ask:
		return r.prompt("Password: ")
	case r.Password != "":
		return r.Password, nil
	case r.SecretID != "":
		client := r.Secrets
		if client == nil {
			c, err := NewSecretsClient(ctx)
			if err != nil {
				return "", err
			}
			client = c
		}
		pw, err := LoadFromSecret(ctx, client, r.SecretID)
		if err != nil {
			return "", fmt.Errorf("load password from secret %s: %w", r.SecretID, err)
		}
		return pw, nil
	default:
		return "", ErrNoPassword
	}
}

// ResolveNew is Resolve for a password that is about to create a key: a
// prompted password must be typed twice.
func (r *Resolver) ResolveNew(ctx context.Context) (string, error) {
	if !r.Ask {
		return r.Resolve(ctx)
	}
	pw, err := r.prompt("New password: ")
	if err != nil {
		return "", err
	}
	confirm, err := r.prompt("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return pw, nil
}

func (r *Resolver) prompt(prompt string) (string, error) {
	p := r.Prompter
	if p == nil {
		p = NewTerminalPrompter()
	}
	pw, err := p.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", fmt.Errorf("password is empty")
	}
	return pw, nil
}
