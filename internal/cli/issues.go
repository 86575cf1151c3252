package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/views"
	"github.com/rs/zerolog/log"
)

func (a *App) issuesList(ctx context.Context, args []string) error {
	fs := a.newFlagSet("issues list")
	var f models.IssueFilters
	fs.StringVar(&f.Status, "status", "", "open or closed")
	fs.StringVar(&f.Priority, "priority", "", "low, medium, high or urgent")
	fs.StringVar(&f.Label, "label", "", "Label name")
	fs.StringVar(&f.Milestone, "milestone", "", "Milestone title")
	fs.StringVar(&f.Search, "search", "", "Text search")
	reset := fs.Bool("reset", false, "Forget saved filters")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	set := flagsSet(fs)
	delete(set, "reset")
	if len(set) == 0 && !*reset {
		saved, err := a.Prefs.IssueFilters()
		if err != nil {
			log.Warn().Err(err).Msg("Ignoring saved issue filters")
		}
		f = saved
	}

	issues, err := a.Issues.List(ctx, f)
	if err != nil {
		views.RenderBanner(a.Err, "Failed to load issues")
		return err
	}
	if err := a.Prefs.SaveIssueFilters(f); err != nil {
		log.Warn().Err(err).Msg("Failed to save issue filters")
	}

	a.header()
	if !f.IsZero() {
		fmt.Fprintf(a.Out, "Filters: %s\n\n", describeFilters(f))
	}
	views.RenderIssues(a.Out, issues)
	return nil
}

func describeFilters(f models.IssueFilters) string {
	var parts []string
	for _, kv := range [][2]string{
		{"status", f.Status},
		{"priority", f.Priority},
		{"label", f.Label},
		{"milestone", f.Milestone},
		{"search", f.Search},
	} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	return strings.Join(parts, " ")
}

func (a *App) issuesShow(ctx context.Context, args []string) error {
	fs := a.newFlagSet("issues show")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	issue, err := a.Issues.Get(ctx, id)
	if err != nil {
		views.RenderBanner(a.Err, "Failed to load issue")
		return err
	}
	comments, err := a.Issues.Comments(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("issue_id", id).Msg("Comments error")
	}

	a.header()
	views.RenderIssue(a.Out, issue, comments)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (a *App) issuesCreate(ctx context.Context, args []string) error {
	fs := a.newFlagSet("issues create")
	var in models.IssueInput
	fs.StringVar(&in.Title, "title", "", "Title (at least 3 characters)")
	fs.StringVar(&in.Description, "description", "", "Description")
	fs.StringVar(&in.Status, "status", "", "open or closed (default open)")
	fs.StringVar(&in.Priority, "priority", "", "low, medium, high or urgent (default medium)")
	fs.StringVar(&in.Assignee, "assignee", "", "Assignee")
	fs.StringVar(&in.MilestoneID, "milestone", "", "Milestone id")
	labels := fs.String("labels", "", "Comma separated label ids")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	in.LabelIDs = splitList(*labels)

	if err := views.ValidateIssue(in); err != nil {
		return a.fieldErrors(err)
	}

	issue, err := a.Issues.Create(ctx, in)
	if err != nil {
		views.RenderBanner(a.Err, err.Error())
		return err
	}
	fmt.Fprintf(a.Out, "Created issue #%s.\n", issue.ID)
	return nil
}

func (a *App) issuesUpdate(ctx context.Context, args []string) error {
	fs := a.newFlagSet("issues update")
	title := fs.String("title", "", "Title")
	description := fs.String("description", "", "Description")
	status := fs.String("status", "", "open or closed")
	priority := fs.String("priority", "", "low, medium, high or urgent")
	assignee := fs.String("assignee", "", "Assignee")
	milestone := fs.String("milestone", "", "Milestone id")
	labels := fs.String("labels", "", "Comma separated label ids")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	var patch models.IssuePatch
	set := flagsSet(fs)
	for name, field := range map[string]struct {
		src *string
		dst **string
	}{
		"title":       {title, &patch.Title},
		"description": {description, &patch.Description},
		"status":      {status, &patch.Status},
		"priority":    {priority, &patch.Priority},
		"assignee":    {assignee, &patch.Assignee},
		"milestone":   {milestone, &patch.MilestoneID},
	} {
		if set[name] {
			*field.dst = field.src
		}
	}
	if set["labels"] {
		ids := splitList(*labels)
		if ids == nil {
			ids = []string{}
		}
		patch.LabelIDs = &ids
	}
	if patch == (models.IssuePatch{}) {
		return fmt.Errorf("%w: nothing to update", ErrUsage)
	}

	if err := views.ValidateIssuePatch(patch); err != nil {
		return a.fieldErrors(err)
	}
	return a.applyPatch(ctx, id, patch, "Failed to update issue")
}

func (a *App) issuesSetStatus(status string) handler {
	return func(ctx context.Context, args []string) error {
		fs := a.newFlagSet("issues " + status)
		id, err := parseWithID(fs, args)
		if err != nil {
			return err
		}
		return a.applyPatch(ctx, id, models.IssuePatch{Status: &status}, "Failed to update issue status")
	}
}

func (a *App) applyPatch(ctx context.Context, id string, patch models.IssuePatch, failure string) error {
	issue, err := a.Issues.Update(ctx, id, patch)
	if err != nil {
		views.RenderBanner(a.Err, failure)
		return err
	}
	fmt.Fprintf(a.Out, "Updated issue #%s (%s).\n", issue.ID, issue.Status)
	return nil
}

func (a *App) issuesDelete(ctx context.Context, args []string) error {
	fs := a.newFlagSet("issues delete")
	yes := fs.Bool("yes", false, "Confirm deletion")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if !a.confirm(*yes, "issue #"+id) {
		return nil
	}

	if err := a.Issues.Delete(ctx, id); err != nil {
		views.RenderBanner(a.Err, "Failed to delete issue")
		return err
	}
	fmt.Fprintf(a.Out, "Deleted issue #%s.\n", id)
	return nil
}

func (a *App) commentsAdd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("comments add")
	content := fs.String("content", "", "Comment text")
	issueID, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if err := views.ValidateComment(*content); err != nil {
		return a.fieldErrors(err)
	}

	c, err := a.Issues.AddComment(ctx, issueID, *content)
	if err != nil {
		views.RenderBanner(a.Err, "Failed to add comment")
		return err
	}
	fmt.Fprintf(a.Out, "Added comment %s to issue #%s.\n", c.ID, issueID)
	return nil
}

func (a *App) commentsEdit(ctx context.Context, args []string) error {
	fs := a.newFlagSet("comments edit")
	content := fs.String("content", "", "New comment text")
	commentID, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if err := views.ValidateComment(*content); err != nil {
		return a.fieldErrors(err)
	}

	if _, err := a.Issues.UpdateComment(ctx, commentID, *content); err != nil {
		views.RenderBanner(a.Err, "Failed to update comment")
		return err
	}
	fmt.Fprintf(a.Out, "Updated comment %s.\n", commentID)
	return nil
}

func (a *App) commentsDelete(ctx context.Context, args []string) error {
	fs := a.newFlagSet("comments delete")
	yes := fs.Bool("yes", false, "Confirm deletion")
	commentID, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if !a.confirm(*yes, "comment "+commentID) {
		return nil
	}

	if err := a.Issues.DeleteComment(ctx, commentID); err != nil {
		views.RenderBanner(a.Err, "Failed to delete comment")
		return err
	}
	fmt.Fprintf(a.Out, "Deleted comment %s.\n", commentID)
	return nil
}
