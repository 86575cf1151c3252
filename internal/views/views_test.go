package views

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/mantis-client/internal/apierror"
	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/services"
	"github.com/isdelr/mantis-client/internal/session"
	"github.com/isdelr/mantis-client/internal/storage"
)

// --- Fakes ---

type fakeAuth struct {
	user *models.User
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*services.LoginResponse, error) {
	if password != "secret1" {
		return nil, apierror.FromResponse(http.StatusUnauthorized, []byte(`{"message":"Invalid credentials"}`))
	}
	f.user = &models.User{ID: "u1", Username: username}
	return &services.LoginResponse{User: f.user}, nil
}

func (f *fakeAuth) Register(ctx context.Context, input models.RegisterInput) (*services.RegisterResponse, error) {
	return &services.RegisterResponse{}, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.user = nil
	return nil
}

func (f *fakeAuth) CurrentUser(ctx context.Context) (*models.User, error) {
	if f.user == nil {
		return nil, apierror.FromResponse(http.StatusUnauthorized, nil)
	}
	return f.user, nil
}

type fakeIssues struct {
	services.IssueServiceProvider
	listFn func(ctx context.Context, f models.IssueFilters) ([]models.Issue, error)
}

func (f *fakeIssues) List(ctx context.Context, filters models.IssueFilters) ([]models.Issue, error) {
	return f.listFn(ctx, filters)
}

type fakeLabels struct {
	services.LabelServiceProvider
	labels []models.Label
	err    error
}

func (f *fakeLabels) List(ctx context.Context) ([]models.Label, error) {
	return f.labels, f.err
}

type fakeMilestones struct {
	services.MilestoneServiceProvider
	milestones []models.Milestone
}

func (f *fakeMilestones) List(ctx context.Context) ([]models.Milestone, error) {
	return f.milestones, nil
}

// --- Guards ---

func TestResolve(t *testing.T) {
	checking := session.Initial()
	anon := session.State{}
	authed := session.State{User: &models.User{Username: "bob"}}

	tests := []struct {
		name  string
		path  string
		state session.State
		want  Decision
	}{
		{"root always forwards", "/", anon, Decision{Outcome: Redirect, Target: RouteDashboard}},
		{"protected waits while checking", RouteIssues, checking, Decision{Outcome: Wait}},
		{"public waits while checking", RouteLogin, checking, Decision{Outcome: Wait}},
		{"protected sends anonymous to login", RouteDashboard, anon, Decision{Outcome: Redirect, Target: RouteLogin}},
		{"issue detail is protected", "/issues/42", anon, Decision{Outcome: Redirect, Target: RouteLogin}},
		{"protected renders for user", RouteMilestones, authed, Decision{Outcome: Render}},
		{"public sends user to dashboard", RouteRegister, authed, Decision{Outcome: Redirect, Target: RouteDashboard}},
		{"public renders for anonymous", RouteLogin, anon, Decision{Outcome: Render}},
		{"trailing slash", "/login/", anon, Decision{Outcome: Render}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.path, tt.state); got != tt.want {
				t.Fatalf("Resolve(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestNavigatorFollowsSession(t *testing.T) {
	auth := &fakeAuth{}
	c := session.NewCoordinator(auth, &storage.Artifacts{Local: storage.NewMemoryStore(), Session: storage.NewMemoryStore()})
	ctx := context.Background()

	nav := NewNavigator(c, RouteRoot)
	defer nav.Close()

	if nav.Current() != RouteDashboard || nav.Decision().Outcome != Wait {
		t.Fatalf("expected to wait on dashboard, got %s %+v", nav.Current(), nav.Decision())
	}

	c.Bootstrap(ctx)
	if nav.Current() != RouteLogin || nav.Decision().Outcome != Render {
		t.Fatalf("expected login page, got %s %+v", nav.Current(), nav.Decision())
	}

	if _, err := c.Login(ctx, "bob", "wrong1"); err == nil {
		t.Fatal("expected login failure")
	}
	if nav.Current() != RouteLogin {
		t.Fatalf("failed login must stay on login, got %s", nav.Current())
	}

	if _, err := c.Login(ctx, "bob", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if nav.Current() != RouteDashboard || nav.Decision().Outcome != Render {
		t.Fatalf("expected dashboard, got %s %+v", nav.Current(), nav.Decision())
	}

	nav.Navigate("/issues/7")
	c.Logout(ctx)
	if nav.Current() != RouteLogin {
		t.Fatalf("expected login after logout, got %s", nav.Current())
	}

	want := []string{RouteDashboard, RouteLogin, RouteDashboard, RouteLogin}
	got := nav.Redirects()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("redirects = %v, want %v", got, want)
	}
}

func TestNavigatorCloseStopsFollowing(t *testing.T) {
	c := session.NewCoordinator(&fakeAuth{}, nil)
	nav := NewNavigator(c, RouteIssues)
	nav.Close()

	c.Bootstrap(context.Background())

	if nav.Current() != RouteIssues {
		t.Fatalf("closed navigator moved to %s", nav.Current())
	}
}

// --- Forms ---

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	if err == nil {
		return FieldErrors{}
	}
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	return fe
}

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name  string
		input models.RegisterInput
		field string
		msg   string
	}{
		{"missing username", models.RegisterInput{Password: "secret1", ConfirmPassword: "secret1"}, "username", "Username is required"},
		{"short username", models.RegisterInput{Username: "bo", Password: "secret1", ConfirmPassword: "secret1"}, "username", "Username must be at least 3 characters"},
		{"short password", models.RegisterInput{Username: "bob", Password: "12345", ConfirmPassword: "12345"}, "password", "Password must be at least 6 characters"},
		{"missing confirmation", models.RegisterInput{Username: "bob", Password: "secret1"}, "confirmPassword", "Please confirm your password"},
		{"mismatch", models.RegisterInput{Username: "bob", Password: "secret1", ConfirmPassword: "secret2"}, "confirmPassword", "Passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := fieldErrors(t, ValidateRegister(tt.input))
			if fe[tt.field] != tt.msg {
				t.Fatalf("%s error = %q, want %q (all: %v)", tt.field, fe[tt.field], tt.msg, fe)
			}
		})
	}

	if err := ValidateRegister(models.RegisterInput{Username: "bob", Password: "secret1", ConfirmPassword: "secret1"}); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
}

func TestValidateLogin(t *testing.T) {
	fe := fieldErrors(t, ValidateLogin("", ""))
	if fe["username"] != "Username is required" || fe["password"] != "Password is required" {
		t.Fatalf("unexpected errors %v", fe)
	}
	if err := ValidateLogin("bob", "secret1"); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
}

func TestValidateIssueAndComment(t *testing.T) {
	fe := fieldErrors(t, ValidateIssue(models.IssueInput{Title: "ab", Priority: "whenever"}))
	if fe["title"] != "Title must be at least 3 characters" || fe["priority"] == "" {
		t.Fatalf("unexpected errors %v", fe)
	}
	if err := ValidateIssue(models.IssueInput{Title: "Crash on save"}); err != nil {
		t.Fatalf("valid issue rejected: %v", err)
	}

	closed := "done"
	if fe := fieldErrors(t, ValidateIssuePatch(models.IssuePatch{Status: &closed})); fe["status"] == "" {
		t.Fatal("invalid status accepted")
	}

	if fe := fieldErrors(t, ValidateComment("   ")); fe["content"] != "Content is required" {
		t.Fatalf("unexpected errors %v", fe)
	}
}

func TestValidateLabelAssignsColor(t *testing.T) {
	in := models.LabelInput{Name: "bug"}
	if err := ValidateLabel(&in); err != nil {
		t.Fatalf("ValidateLabel: %v", err)
	}
	if !colorPattern.MatchString(in.Color) {
		t.Fatalf("default color %q is not #rrggbb", in.Color)
	}

	bad := models.LabelInput{Name: "b", Color: "red"}
	fe := fieldErrors(t, ValidateLabel(&bad))
	if fe["name"] != "Name must be at least 2 characters" || fe["color"] == "" {
		t.Fatalf("unexpected errors %v", fe)
	}
}

func TestValidateMilestone(t *testing.T) {
	fe := fieldErrors(t, ValidateMilestone(models.MilestoneInput{Title: "v1", DueDate: "30/06/2024", Status: "paused"}))
	if fe["title"] == "" || fe["dueDate"] == "" || fe["status"] == "" {
		t.Fatalf("unexpected errors %v", fe)
	}
	if err := ValidateMilestone(models.MilestoneInput{Title: "v1.0", DueDate: "2024-06-30"}); err != nil {
		t.Fatalf("valid milestone rejected: %v", err)
	}
}

// --- Dashboard ---

func TestLoadDashboard(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var issues []models.Issue
	for i := 0; i < 7; i++ {
		status := models.StatusOpen
		if i%3 == 0 {
			status = models.StatusClosed
		}
		issues = append(issues, models.Issue{
			ID:        string(rune('a' + i)),
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	d, err := LoadDashboard(context.Background(),
		&fakeIssues{listFn: func(ctx context.Context, f models.IssueFilters) ([]models.Issue, error) { return issues, nil }},
		&fakeLabels{labels: []models.Label{{ID: "l1"}, {ID: "l2"}}},
		&fakeMilestones{milestones: []models.Milestone{{ID: "m1"}}},
	)
	if err != nil {
		t.Fatalf("LoadDashboard: %v", err)
	}

	want := DashboardStats{TotalIssues: 7, OpenIssues: 4, ClosedIssues: 3, TotalLabels: 2, TotalMilestones: 1}
	if d.Stats != want {
		t.Fatalf("stats = %+v, want %+v", d.Stats, want)
	}
	if len(d.RecentIssues) != 5 || d.RecentIssues[0].ID != "g" || d.RecentIssues[4].ID != "c" {
		t.Fatalf("unexpected recent issues %+v", d.RecentIssues)
	}
	if issues[0].ID != "a" {
		t.Fatal("input slice was reordered")
	}
}

func TestLoadDashboardFailure(t *testing.T) {
	_, err := LoadDashboard(context.Background(),
		&fakeIssues{listFn: func(ctx context.Context, f models.IssueFilters) ([]models.Issue, error) { return nil, nil }},
		&fakeLabels{err: apierror.NewTransport(errors.New("connection refused"))},
		&fakeMilestones{},
	)
	if err != ErrDashboard || err.Error() != "Failed to load dashboard data" {
		t.Fatalf("unexpected error %v", err)
	}
}

// --- Renderers ---

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 151)
	if got := Truncate(long, 150); got != strings.Repeat("x", 150)+"..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	exact := strings.Repeat("y", 150)
	if got := Truncate(exact, 150); got != exact {
		t.Fatal("string at the limit must be kept whole")
	}
}

func TestRenderMilestones(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	past := models.Date{Time: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)}

	var buf bytes.Buffer
	RenderMilestones(&buf, []models.Milestone{
		{ID: "m1", Title: "v1.0", Status: models.StatusOpen, DueDate: &past, OpenIssues: 1, ClosedIssues: 3},
		{ID: "m2", Title: "v2.0", Status: models.StatusOpen},
	}, now)

	out := buf.String()
	for _, want := range []string{"2024-06-30 (overdue)", "No due date", "75%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderHeader(t *testing.T) {
	var buf bytes.Buffer
	RenderHeader(&buf, &models.User{Email: "bob@example.com"})
	if !strings.Contains(buf.String(), "Welcome, bob@example.com") {
		t.Fatalf("unexpected header %q", buf.String())
	}
}

// --- Preferences ---

func TestPreferencesRoundTripAndWipe(t *testing.T) {
	local := storage.NewMemoryStore()
	prefs := NewPreferences(local)

	filters := models.IssueFilters{Status: "open", Label: "bug"}
	if err := prefs.SaveIssueFilters(filters); err != nil {
		t.Fatalf("SaveIssueFilters: %v", err)
	}

	got, err := prefs.IssueFilters()
	if err != nil || got != filters {
		t.Fatalf("IssueFilters = %+v, %v", got, err)
	}

	artifacts := &storage.Artifacts{Local: local, Session: storage.NewMemoryStore()}
	artifacts.ClearAll()

	got, err = prefs.IssueFilters()
	if err != nil || !got.IsZero() {
		t.Fatalf("expected no filters after wipe, got %+v, %v", got, err)
	}
}
