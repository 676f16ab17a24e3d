// Package shell implements the line oriented interactive session behind
// "tomb ui".
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/TheMichaelB/tomb/internal/crypto"
	"github.com/TheMichaelB/tomb/internal/events"
	"github.com/TheMichaelB/tomb/internal/platform"
	"github.com/TheMichaelB/tomb/internal/services/totp"
	"github.com/TheMichaelB/tomb/internal/tomb"
)

// DefaultTickInterval is the minimum time between two reloads of the tomb file.
const DefaultTickInterval = 314 * time.Millisecond

const mask = "********"

// errQuit ends the session.
var errQuit = errors.New("quit")

type command struct {
	usage string
	help  string
	run   func(s *Shell, args []string, rest string) error
}

// Options configures a Shell.
type Options struct {
	Store     *tomb.Store
	Key       crypto.Key
	Clipboard platform.Clipboard
	TOTP      totp.Service
	Logger    *events.Logger

	// Accent color name, one of the config ui colors.
	Color        string
	TickInterval time.Duration
	Now          func() time.Time
}

// Shell is an interactive session over one tomb.
type Shell struct {
	term      *term.Terminal
	store     *tomb.Store
	key       crypto.Key
	clipboard platform.Clipboard
	totp      totp.Service
	logger    *events.Logger

	accent   *color.Color
	danger   *color.Color
	tick     time.Duration
	now      func() time.Time
	reloaded time.Time

	commands map[string]command
}

// New creates a shell reading commands from and writing output to rw.
func New(rw io.ReadWriter, opts Options) *Shell {
	s := &Shell{
		store:     opts.Store,
		key:       opts.Key,
		clipboard: opts.Clipboard,
		totp:      opts.TOTP,
		logger:    opts.Logger,
		accent:    color.New(accentColor(opts.Color)),
		danger:    color.New(color.FgRed, color.Bold),
		tick:      opts.TickInterval,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = events.Default()
	}
	s.logger = s.logger.WithField("component", "shell")
	if s.tick <= 0 {
		s.tick = DefaultTickInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.totp == nil {
		s.totp = totp.NewService()
	}

	s.term = term.NewTerminal(rw, s.accent.Sprint("tomb> "))
	s.term.AutoCompleteCallback = s.complete
	s.commands = commandTable()
	return s
}

func commandTable() map[string]command {
	table := map[string]command{
		"help":   {"help", "show this help", (*Shell).cmdHelp},
		"list":   {"list [pattern]", "list secrets matching a glob (default *)", (*Shell).cmdList},
		"show":   {"show <path>", "show a secret with its value masked", (*Shell).cmdShow},
		"reveal": {"reveal <path>", "print the decrypted value", (*Shell).cmdReveal},
		"copy":   {"copy <path>", "copy the decrypted value to the clipboard", (*Shell).cmdCopy},
		"set":    {"set <path> <value>", "store a secret and save the tomb", (*Shell).cmdSet},
		"delete": {"delete <path>", "delete a secret and save the tomb", (*Shell).cmdDelete},
		"totp":   {"totp <path>", "print the one-time code for a stored seed", (*Shell).cmdTOTP},
		"reload": {"reload", "re-read the tomb file", (*Shell).cmdReload},
		"quit":   {"quit", "leave the shell", (*Shell).cmdQuit},
	}
	table["exit"] = table["quit"]
	table["get"] = table["reveal"]
	return table
}

// Run reads and executes commands until quit, EOF or ctx is done. Command
// errors are printed and the session continues.
func (s *Shell) Run(ctx context.Context) error {
	s.printf("%s %d secrets, type %s for commands\n",
		s.accent.Sprint("tomb"), s.store.Len(), s.accent.Sprint("help"))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := s.term.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		if err := s.Exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			s.printError(err)
		}
	}
}

// Exec runs one command line.
func (s *Shell) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	cmd, ok := s.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, type help", name)
	}

	s.logger.WithField("command", name).Debug("Shell command")
	return cmd.run(s, strings.Fields(rest), rest)
}

// refresh reloads the tomb when the last reload is older than the tick
// interval, so edits from another process show up.
func (s *Shell) refresh() error {
	now := s.now()
	if !s.reloaded.IsZero() && now.Sub(s.reloaded) < s.tick {
		return nil
	}
	if err := s.store.Reload(); err != nil {
		return err
	}
	s.reloaded = now
	return nil
}

func (s *Shell) cmdHelp(_ []string, _ string) error {
	names := make([]string, 0, len(s.commands))
	for name, cmd := range s.commands {
		if strings.HasPrefix(cmd.usage, name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := s.commands[name]
		s.printf("  %-22s %s\n", s.accent.Sprint(cmd.usage), cmd.help)
	}
	return nil
}

func (s *Shell) cmdList(args []string, _ string) error {
	if err := s.refresh(); err != nil {
		return err
	}

	pattern := "*"
	if len(args) > 0 {
		pattern = args[0]
	}

	secrets, err := s.store.List(pattern)
	if err != nil {
		return err
	}
	for _, secret := range secrets {
		line := secret.Path
		if secret.Username != nil {
			line += " (" + *secret.Username + ")"
		}
		s.printf("%s\n", line)
	}
	s.printf("%s\n", s.accent.Sprintf("%d secret(s)", len(secrets)))
	return nil
}

func (s *Shell) cmdShow(args []string, _ string) error {
	path, err := onePath(args)
	if err != nil {
		return err
	}
	if err := s.refresh(); err != nil {
		return err
	}

	secret, err := s.store.Get(path)
	if err != nil {
		return err
	}

	field := func(name, value string) {
		s.printf("%s %s\n", s.accent.Sprintf("%-10s", name+":"), value)
	}
	field("path", secret.Path)
	field("id", secret.ID())
	field("value", mask)
	if secret.Username != nil {
		field("username", *secret.Username)
	}
	if secret.URL != nil {
		field("url", *secret.URL)
	}
	if secret.Notes != nil {
		field("notes", *secret.Notes)
	}
	names := make([]string, 0, len(secret.Attributes))
	for name := range secret.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		field(name, secret.Attributes[name])
	}
	field("created", secret.CreatedAt.Format(time.RFC3339))
	field("updated", secret.UpdatedAt.Format(time.RFC3339))
	return nil
}

func (s *Shell) cmdReveal(args []string, _ string) error {
	path, err := onePath(args)
	if err != nil {
		return err
	}
	if err := s.refresh(); err != nil {
		return err
	}

	value, err := s.store.GetString(path, s.key)
	if err != nil {
		return err
	}
	s.printf("%s\n", value)
	return nil
}

func (s *Shell) cmdCopy(args []string, _ string) error {
	path, err := onePath(args)
	if err != nil {
		return err
	}
	if s.clipboard == nil {
		return fmt.Errorf("clipboard is not available")
	}
	if err := s.refresh(); err != nil {
		return err
	}

	value, err := s.store.GetString(path, s.key)
	if err != nil {
		return err
	}
	if err := s.clipboard.WriteAll(value); err != nil {
		return err
	}
	s.printf("%s\n", s.accent.Sprintf("copied %s to the clipboard", path))
	return nil
}

func (s *Shell) cmdSet(args []string, rest string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set <path> <value>")
	}
	path := args[0]
	value := strings.TrimSpace(strings.TrimPrefix(rest, path))

	if err := s.refresh(); err != nil {
		return err
	}
	if err := s.store.AddSecret(path, value, s.key); err != nil {
		return err
	}
	if _, err := s.store.Save(); err != nil {
		return err
	}
	s.reloaded = s.now()
	s.printf("%s\n", s.accent.Sprintf("saved %s", path))
	return nil
}

func (s *Shell) cmdDelete(args []string, _ string) error {
	path, err := onePath(args)
	if err != nil {
		return err
	}
	if err := s.refresh(); err != nil {
		return err
	}
	if err := s.store.DeleteSecret(path); err != nil {
		return err
	}
	if _, err := s.store.Save(); err != nil {
		return err
	}
	s.reloaded = s.now()
	s.printf("%s\n", s.accent.Sprintf("deleted %s", path))
	return nil
}

func (s *Shell) cmdTOTP(args []string, _ string) error {
	path, err := onePath(args)
	if err != nil {
		return err
	}
	if err := s.refresh(); err != nil {
		return err
	}

	seed, err := s.store.GetString(path, s.key)
	if err != nil {
		return err
	}
	code, err := s.totp.CodeFor(seed, s.now())
	if err != nil {
		return err
	}
	s.printf("%s %s\n", code.Value, s.accent.Sprintf("(%ds left)", int(code.Remaining.Seconds())))
	return nil
}

func (s *Shell) cmdReload(_ []string, _ string) error {
	if err := s.store.Reload(); err != nil {
		return err
	}
	s.reloaded = s.now()
	s.printf("%s\n", s.accent.Sprintf("reloaded %d secret(s)", s.store.Len()))
	return nil
}

func (s *Shell) cmdQuit(_ []string, _ string) error {
	return errQuit
}

// complete expands the command name or the secret path under the cursor on tab.
func (s *Shell) complete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' || pos != len(line) {
		return "", 0, false
	}

	name, partial, hasArg := strings.Cut(line, " ")
	var candidates []string
	if !hasArg {
		for cmd := range s.commands {
			candidates = append(candidates, cmd)
		}
		partial = name
	} else {
		candidates = s.store.Paths()
	}

	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, partial) {
			matches = append(matches, c)
		}
	}
	if len(matches) != 1 {
		return "", 0, false
	}

	completed := matches[0]
	if hasArg {
		completed = name + " " + completed
	}
	return completed, len(completed), true
}

func (s *Shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.term, format, args...)
}

// printError shows a failed command without ending the session.
func (s *Shell) printError(err error) {
	s.logger.WithError(err).Debug("Shell command failed")
	s.printf("%s %s\n", s.danger.Sprint("error:"), err)
}

func onePath(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one path")
	}
	return args[0], nil
}

func accentColor(name string) color.Attribute {
	switch strings.ToLower(name) {
	case "black":
		return color.FgBlack
	case "red":
		return color.FgRed
	case "green":
		return color.FgGreen
	case "yellow":
		return color.FgYellow
	case "blue":
		return color.FgBlue
	case "magenta":
		return color.FgMagenta
	case "white":
		return color.FgWhite
	default:
		return color.FgCyan
	}
}
