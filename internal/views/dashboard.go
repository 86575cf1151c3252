package views

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/services"
	"github.com/rs/zerolog/log"
)

// ErrDashboard is returned when any of the dashboard's data fails to load.
var ErrDashboard = errors.New("Failed to load dashboard data")

const recentIssueCount = 5

// DashboardStats are the dashboard's counters.
type DashboardStats struct {
	TotalIssues     int
	OpenIssues      int
	ClosedIssues    int
	TotalLabels     int
	TotalMilestones int
}

// Dashboard is the dashboard page model.
type Dashboard struct {
	Stats        DashboardStats
	RecentIssues []models.Issue
}

// LoadDashboard fetches issues, labels and milestones concurrently and
// builds the page. Any failure yields ErrDashboard; the cause is logged.
func LoadDashboard(ctx context.Context, issues services.IssueServiceProvider, labels services.LabelServiceProvider, milestones services.MilestoneServiceProvider) (*Dashboard, error) {
	var (
		wg        sync.WaitGroup
		issueList []models.Issue
		labelList []models.Label
		msList    []models.Milestone
		errs      [3]error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		issueList, errs[0] = issues.List(ctx, models.IssueFilters{})
	}()
	go func() {
		defer wg.Done()
		labelList, errs[1] = labels.List(ctx)
	}()
	go func() {
		defer wg.Done()
		msList, errs[2] = milestones.List(ctx)
	}()
	wg.Wait()

	if err := errors.Join(errs[:]...); err != nil {
		log.Error().Err(err).Msg("Dashboard error")
		return nil, ErrDashboard
	}

	return &Dashboard{
		Stats:        summarize(issueList, len(labelList), len(msList)),
		RecentIssues: recentIssues(issueList, recentIssueCount),
	}, nil
}

func summarize(issues []models.Issue, labels, milestones int) DashboardStats {
	stats := DashboardStats{
		TotalIssues:     len(issues),
		TotalLabels:     labels,
		TotalMilestones: milestones,
	}
	for _, issue := range issues {
		switch issue.Status {
		case models.StatusOpen:
			stats.OpenIssues++
		case models.StatusClosed:
			stats.ClosedIssues++
		}
	}
	return stats
}

// recentIssues returns up to n issues, newest first. The input is not
// reordered.
func recentIssues(issues []models.Issue, n int) []models.Issue {
	sorted := append([]models.Issue(nil), issues...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
