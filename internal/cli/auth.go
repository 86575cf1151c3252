package cli

import (
	"context"
	"fmt"

	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/views"
)

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.newFlagSet("login")
	username := fs.String("username", "", "Username")
	password := fs.String("password", "", "Password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if *password == "" {
		pw, err := a.readSecret("Password: ")
		if err != nil {
			return err
		}
		*password = pw
	}

	if err := views.ValidateLogin(*username, *password); err != nil {
		return a.fieldErrors(err)
	}

	a.Session.ClearError()
	resp, err := a.Session.Login(ctx, *username, *password)
	if err != nil {
		a.banner()
		return err
	}

	fmt.Fprintf(a.Out, "Logged in as %s.\n", resp.User.DisplayName())
	return nil
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := a.newFlagSet("register")
	var in models.RegisterInput
	fs.StringVar(&in.Username, "username", "", "Username (at least 3 characters)")
	fs.StringVar(&in.Password, "password", "", "Password (at least 6 characters)")
	fs.StringVar(&in.ConfirmPassword, "confirm", "", "Password confirmation")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if err := views.ValidateRegister(in); err != nil {
		return a.fieldErrors(err)
	}

	a.Session.ClearError()
	resp, err := a.Session.Register(ctx, in)
	if err != nil {
		a.banner()
		return err
	}

	fmt.Fprintf(a.Out, "Registered and logged in as %s.\n", resp.User.DisplayName())
	return nil
}

func (a *App) logout(ctx context.Context, args []string) error {
	a.Session.Logout(ctx)
	fmt.Fprintln(a.Out, "Logged out.")
	return nil
}

func (a *App) whoami(ctx context.Context, args []string) error {
	s := a.Session.State()
	if s.User == nil {
		fmt.Fprintln(a.Out, "Not logged in.")
		return nil
	}
	fmt.Fprintln(a.Out, s.User.DisplayName())
	return nil
}

func (a *App) dashboard(ctx context.Context, args []string) error {
	d, err := views.LoadDashboard(ctx, a.Issues, a.Labels, a.Milestones)
	if err != nil {
		views.RenderBanner(a.Err, err.Error())
		return err
	}
	a.header()
	views.RenderDashboard(a.Out, d)
	return nil
}
