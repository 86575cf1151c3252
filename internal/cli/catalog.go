package cli

import (
	"context"
	"fmt"

	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/views"
)

func (a *App) labelsList(ctx context.Context, args []string) error {
	labels, err := a.Labels.List(ctx)
	if err != nil {
		views.RenderBanner(a.Err, "Failed to load labels")
		return err
	}
	a.header()
	views.RenderLabels(a.Out, labels)
	return nil
}

func (a *App) labelsCreate(ctx context.Context, args []string) error {
	fs := a.newFlagSet("labels create")
	var in models.LabelInput
	fs.StringVar(&in.Name, "name", "", "Name (at least 2 characters)")
	fs.StringVar(&in.Description, "description", "", "Description")
	fs.StringVar(&in.Color, "color", "", "Color as #rrggbb (random when empty)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := views.ValidateLabel(&in); err != nil {
		return a.fieldErrors(err)
	}

	label, err := a.Labels.Create(ctx, in)
	if err != nil {
		views.RenderBanner(a.Err, "Failed to create label")
		return err
	}
	fmt.Fprintf(a.Out, "Created label %s (%s).\n", label.Name, label.Color)
	return nil
}

// labelsUpdate edits a label. The backend replaces the whole label, so
// fields not given on the command line keep their current values.
func (a *App) labelsUpdate(ctx context.Context, args []string) error {
	fs := a.newFlagSet("labels update")
	name := fs.String("name", "", "Name")
	description := fs.String("description", "", "Description")
	color := fs.String("color", "", "Color as #rrggbb")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	labels, err := a.Labels.List(ctx)
	if err != nil {
		views.RenderBanner(a.Err, "Failed to load labels")
		return err
	}
	var current *models.Label
	for i := range labels {
		if labels[i].ID == id {
			current = &labels[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("label %s not found", id)
	}

	in := models.LabelInput{Name: current.Name, Description: current.Description, Color: current.Color}
	set := flagsSet(fs)
	if set["name"] {
		in.Name = *name
	}
	if set["description"] {
		in.Description = *description
	}
	if set["color"] {
		in.Color = *color
	}
	if err := views.ValidateLabel(&in); err != nil {
		return a.fieldErrors(err)
	}

	if _, err := a.Labels.Update(ctx, id, in); err != nil {
		views.RenderBanner(a.Err, "Failed to update label")
		return err
	}
	fmt.Fprintf(a.Out, "Updated label %s.\n", in.Name)
	return nil
}

func (a *App) labelsDelete(ctx context.Context, args []string) error {
	fs := a.newFlagSet("labels delete")
	yes := fs.Bool("yes", false, "Confirm deletion")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if !a.confirm(*yes, "label "+id) {
		return nil
	}

	if err := a.Labels.Delete(ctx, id); err != nil {
		views.RenderBanner(a.Err, "Failed to delete label")
		return err
	}
	fmt.Fprintf(a.Out, "Deleted label %s.\n", id)
	return nil
}

func (a *App) milestonesList(ctx context.Context, args []string) error {
	milestones, err := a.Milestones.List(ctx)
	if err != nil {
		views.RenderBanner(a.Err, "Failed to load milestones")
		return err
	}
	a.header()
	views.RenderMilestones(a.Out, milestones, a.now())
	return nil
}

func (a *App) milestonesCreate(ctx context.Context, args []string) error {
	fs := a.newFlagSet("milestones create")
	var in models.MilestoneInput
	fs.StringVar(&in.Title, "title", "", "Title (at least 3 characters)")
	fs.StringVar(&in.Description, "description", "", "Description")
	fs.StringVar(&in.DueDate, "due", "", "Due date as YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := views.ValidateMilestone(in); err != nil {
		return a.fieldErrors(err)
	}

	m, err := a.Milestones.Create(ctx, in)
	if err != nil {
		views.RenderBanner(a.Err, "Failed to create milestone")
		return err
	}
	fmt.Fprintf(a.Out, "Created milestone %s (due %s).\n", m.Title, views.FormatDueDate(m))
	return nil
}

// milestonesUpdate edits a milestone, keeping the current value of every
// field not given on the command line. An empty -due clears the due date.
func (a *App) milestonesUpdate(ctx context.Context, args []string) error {
	fs := a.newFlagSet("milestones update")
	title := fs.String("title", "", "Title")
	description := fs.String("description", "", "Description")
	due := fs.String("due", "", "Due date as YYYY-MM-DD, empty to clear")
	status := fs.String("status", "", "open or closed")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	milestones, err := a.Milestones.List(ctx)
	if err != nil {
		views.RenderBanner(a.Err, "Failed to load milestones")
		return err
	}
	var current *models.Milestone
	for i := range milestones {
		if milestones[i].ID == id {
			current = &milestones[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("milestone %s not found", id)
	}

	in := models.MilestoneInput{Title: current.Title, Description: current.Description, Status: current.Status}
	if current.DueDate != nil {
		in.DueDate = current.DueDate.Format(models.DateLayout)
	}
	set := flagsSet(fs)
	if set["title"] {
		in.Title = *title
	}
	if set["description"] {
		in.Description = *description
	}
	if set["due"] {
		in.DueDate = *due
	}
	if set["status"] {
		in.Status = *status
	}
	if err := views.ValidateMilestone(in); err != nil {
		return a.fieldErrors(err)
	}

	if _, err := a.Milestones.Update(ctx, id, in); err != nil {
		views.RenderBanner(a.Err, "Failed to update milestone")
		return err
	}
	fmt.Fprintf(a.Out, "Updated milestone %s.\n", in.Title)
	return nil
}

func (a *App) milestonesDelete(ctx context.Context, args []string) error {
	fs := a.newFlagSet("milestones delete")
	yes := fs.Bool("yes", false, "Confirm deletion")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if !a.confirm(*yes, "milestone "+id) {
		return nil
	}

	if err := a.Milestones.Delete(ctx, id); err != nil {
		views.RenderBanner(a.Err, "Failed to delete milestone")
		return err
	}
	fmt.Fprintf(a.Out, "Deleted milestone %s.\n", id)
	return nil
}
