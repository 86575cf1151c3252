// Package cli maps command-line invocations onto client pages. Every run
// checks the session first and applies the route guard of the page the
// command belongs to before doing anything else.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/isdelr/mantis-client/internal/services"
	"github.com/isdelr/mantis-client/internal/session"
	"github.com/isdelr/mantis-client/internal/views"
	"golang.org/x/term"
)

// ErrUsage is returned for malformed invocations.
var ErrUsage = errors.New("invalid usage")

// ErrNotLoggedIn is returned when a protected command runs without a session.
var ErrNotLoggedIn = errors.New("not logged in, run `mantis login` first")

const usage = `Usage: mantis <command> [flags] [args]

Commands:
  login       [-username name] [-password pw]
  register    -username name -password pw -confirm pw
  logout
  whoami
  dashboard
  issues      list|show|create|update|close|reopen|delete
  comments    add|edit|delete
  labels      list|create|update|delete
  milestones  list|create|update|delete
`

// App wires the session and domain services to the terminal.
type App struct {
	Session    *session.Coordinator
	Issues     services.IssueServiceProvider
	Labels     services.LabelServiceProvider
	Milestones services.MilestoneServiceProvider
	Prefs      *views.Preferences

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Now is used for overdue markers. Defaults to time.Now.
	Now func() time.Time
}

type handler func(ctx context.Context, args []string) error

type command struct {
	route string
	run   handler
}

// Run executes one command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(a.Out, usage)
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}

	cmd, rest, err := a.lookup(args)
	if err != nil {
		fmt.Fprint(a.Err, usage)
		return err
	}

	a.Session.Bootstrap(ctx)
	if cmd.route != "" {
		ok, err := a.guard(cmd.route)
		if !ok || err != nil {
			return err
		}
	}
	return cmd.run(ctx, rest)
}

// lookup resolves the command and the page it belongs to.
func (a *App) lookup(args []string) (command, []string, error) {
	name, rest := args[0], args[1:]
	switch name {
	case "login":
		return command{views.RouteLogin, a.login}, rest, nil
	case "register":
		return command{views.RouteRegister, a.register}, rest, nil
	case "logout":
		return command{"", a.logout}, rest, nil
	case "whoami":
		return command{"", a.whoami}, rest, nil
	case "dashboard":
		return command{views.RouteDashboard, a.dashboard}, rest, nil
	}

	if len(rest) == 0 {
		return command{}, nil, fmt.Errorf("%w: %s needs a subcommand", ErrUsage, name)
	}
	sub, rest := rest[0], rest[1:]

	var subs map[string]command
	switch name {
	case "issues":
		subs = map[string]command{
			"list":   {views.RouteIssues, a.issuesList},
			"show":   {views.RouteIssues + "/:id", a.issuesShow},
			"create": {views.RouteNewIssue, a.issuesCreate},
			"update": {views.RouteIssues + "/:id", a.issuesUpdate},
			"close":  {views.RouteIssues + "/:id", a.issuesSetStatus("closed")},
			"reopen": {views.RouteIssues + "/:id", a.issuesSetStatus("open")},
			"delete": {views.RouteIssues + "/:id", a.issuesDelete},
		}
	case "comments":
		subs = map[string]command{
			"add":    {views.RouteIssues + "/:id", a.commentsAdd},
			"edit":   {views.RouteIssues + "/:id", a.commentsEdit},
			"delete": {views.RouteIssues + "/:id", a.commentsDelete},
		}
	case "labels":
		subs = map[string]command{
			"list":   {views.RouteLabels, a.labelsList},
			"create": {views.RouteLabels, a.labelsCreate},
			"update": {views.RouteLabels, a.labelsUpdate},
			"delete": {views.RouteLabels, a.labelsDelete},
		}
	case "milestones":
		subs = map[string]command{
			"list":   {views.RouteMilestones, a.milestonesList},
			"create": {views.RouteMilestones, a.milestonesCreate},
			"update": {views.RouteMilestones, a.milestonesUpdate},
			"delete": {views.RouteMilestones, a.milestonesDelete},
		}
	default:
		return command{}, nil, fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}

	cmd, ok := subs[sub]
	if !ok {
		return command{}, nil, fmt.Errorf("%w: unknown %s subcommand %q", ErrUsage, name, sub)
	}
	return cmd, rest, nil
}

// guard applies the route guard for route. It reports whether the page may
// render; a false result with a nil error means the command was answered by
// the redirect.
func (a *App) guard(route string) (bool, error) {
	nav := views.NewNavigator(a.Session, route)
	defer nav.Close()

	switch d := nav.Decision(); {
	case d.Outcome == views.Render && nav.Current() == views.RouteLogin && route != views.RouteLogin:
		return false, ErrNotLoggedIn
	case d.Outcome == views.Render && nav.Current() == views.RouteDashboard && route != views.RouteDashboard:
		fmt.Fprintf(a.Out, "Already logged in as %s.\n", a.Session.State().User.DisplayName())
		return false, nil
	case d.Outcome == views.Render:
		return true, nil
	default:
		return false, fmt.Errorf("session check did not finish")
	}
}

// banner prints the session error, if any.
func (a *App) banner() {
	views.RenderBanner(a.Err, a.Session.State().Err)
}

func (a *App) header() {
	views.RenderHeader(a.Out, a.Session.State().User)
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// newFlagSet creates a flag set that reports to a.Err instead of exiting.
func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Err)
	return fs
}

// parseWithID parses args that carry one positional id, accepted either
// before or after the flags.
func parseWithID(fs *flag.FlagSet, args []string) (string, error) {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if id == "" {
		id = fs.Arg(0)
	}
	if id == "" {
		return "", fmt.Errorf("%w: %s needs an id", ErrUsage, fs.Name())
	}
	return id, nil
}

// flagsSet returns the names of the flags given on the command line.
func flagsSet(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// confirm stands in for the delete confirmation dialog.
func (a *App) confirm(yes bool, what string) bool {
	if !yes {
		fmt.Fprintf(a.Err, "Refusing to delete %s without -yes.\n", what)
	}
	return yes
}

// fieldErrors prints form validation errors and returns err unchanged.
func (a *App) fieldErrors(err error) error {
	var fe views.FieldErrors
	if errors.As(err, &fe) {
		for field, msg := range fe {
			fmt.Fprintf(a.Err, "  %s: %s\n", field, msg)
		}
	}
	return err
}

// readSecret prompts for a password. Typing is not echoed when input is a
// terminal; piped input is read as one line.
func (a *App) readSecret(prompt string) (string, error) {
	if a.In == nil {
		return "", nil
	}
	fmt.Fprint(a.Err, prompt)
	if f, ok := a.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.Err)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}
	line, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
