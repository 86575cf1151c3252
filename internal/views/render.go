package views

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/isdelr/mantis-client/internal/models"
)

// descriptionPreview is how much of a description the issue list shows.
const descriptionPreview = 150

// Truncate shortens s to n characters, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// FormatDueDate renders a milestone's due date.
func FormatDueDate(m models.Milestone) string {
	if m.DueDate == nil {
		return "No due date"
	}
	return m.DueDate.Format(models.DateLayout)
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(models.DateLayout)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// RenderHeader writes the navigation header for an authenticated user.
func RenderHeader(w io.Writer, user *models.User) {
	fmt.Fprintf(w, "Mantis Clone | Dashboard  Issues  Labels  Milestones | Welcome, %s\n\n", user.DisplayName())
}

// RenderBanner writes an error banner. Nothing is written for an empty
// message.
func RenderBanner(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(w, "! %s\n", msg)
}

// RenderDashboard writes the dashboard counters and recent issues.
func RenderDashboard(w io.Writer, d *Dashboard) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total issues\t%d\n", d.Stats.TotalIssues)
	fmt.Fprintf(tw, "Open issues\t%d\n", d.Stats.OpenIssues)
	fmt.Fprintf(tw, "Closed issues\t%d\n", d.Stats.ClosedIssues)
	fmt.Fprintf(tw, "Labels\t%d\n", d.Stats.TotalLabels)
	fmt.Fprintf(tw, "Milestones\t%d\n", d.Stats.TotalMilestones)
	tw.Flush()

	fmt.Fprintln(w, "\nRecent issues")
	if len(d.RecentIssues) == 0 {
		fmt.Fprintln(w, "No issues yet.")
		return
	}
	tw = newTable(w)
	for _, issue := range d.RecentIssues {
		fmt.Fprintf(tw, "#%s\t%s\t%s\tCreated %s\n", issue.ID, issue.Title, issue.Status, formatDay(issue.CreatedAt))
	}
	tw.Flush()
}

// RenderIssues writes the issue list.
func RenderIssues(w io.Writer, issues []models.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNEE\tLABELS\tCREATED")
	for _, issue := range issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			issue.ID, issue.Title, issue.Status, issue.Priority,
			orDash(issue.Assignee), labelNames(issue.Labels), formatDay(issue.CreatedAt))
		if issue.Description != "" {
			fmt.Fprintf(tw, "\t%s\t\t\t\t\t\n", Truncate(issue.Description, descriptionPreview))
		}
	}
	tw.Flush()
}

// RenderIssue writes an issue with its comments.
func RenderIssue(w io.Writer, issue models.Issue, comments []models.Comment) {
	fmt.Fprintf(w, "#%s %s\n", issue.ID, issue.Title)

	tw := newTable(w)
	fmt.Fprintf(tw, "Status\t%s\n", issue.Status)
	fmt.Fprintf(tw, "Priority\t%s\n", issue.Priority)
	fmt.Fprintf(tw, "Assignee\t%s\n", orDash(issue.Assignee))
	fmt.Fprintf(tw, "Creator\t%s\n", orDash(issue.Creator))
	if issue.Milestone != nil {
		fmt.Fprintf(tw, "Milestone\t%s\n", issue.Milestone.Title)
	}
	fmt.Fprintf(tw, "Labels\t%s\n", labelNames(issue.Labels))
	fmt.Fprintf(tw, "Created\t%s\n", formatDay(issue.CreatedAt))
	tw.Flush()

	if issue.Description != "" {
		fmt.Fprintf(w, "\n%s\n", issue.Description)
	}

	fmt.Fprintf(w, "\nComments (%d)\n", len(comments))
	for _, c := range comments {
		fmt.Fprintf(w, "  [%s] %s on %s\n    %s\n", c.ID, orDash(c.Author), formatDay(c.CreatedAt), c.Content)
	}
}

// RenderLabels writes the label list.
func RenderLabels(w io.Writer, labels []models.Label) {
	if len(labels) == 0 {
		fmt.Fprintln(w, "No labels yet.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tDESCRIPTION")
	for _, l := range labels {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.ID, l.Name, l.Color, l.Description)
	}
	tw.Flush()
}

// RenderMilestones writes the milestone list. Open milestones whose due date
// has passed are marked overdue.
func RenderMilestones(w io.Writer, milestones []models.Milestone, now time.Time) {
	if len(milestones) == 0 {
		fmt.Fprintln(w, "No milestones yet.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tDUE\tOPEN\tCLOSED\tPROGRESS")
	for _, m := range milestones {
		due := FormatDueDate(m)
		if m.Status != models.StatusClosed && m.IsOverdue(now) {
			due += " (overdue)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d%%\n",
			m.ID, m.Title, m.Status, due, m.OpenIssues, m.ClosedIssues, progress(m))
	}
	tw.Flush()
}

func progress(m models.Milestone) int {
	total := m.OpenIssues + m.ClosedIssues
	if total == 0 {
		return 0
	}
	return m.ClosedIssues * 100 / total
}

func labelNames(labels []models.Label) string {
	if len(labels) == 0 {
		return "-"
	}
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return strings.Join(names, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
