package app

import (
	"context"

	"github.com/evanschultz/missionctl/internal/domain"
)

// Repository represents the read model backing the mission board.
type Repository interface {
	ListItems(context.Context) ([]domain.WorkItem, error)
	ListContributors(context.Context) ([]domain.Contributor, error)
	GetContributor(context.Context, string) (domain.Contributor, error)
	GetReviewerMetrics(context.Context) (domain.ReviewerMetrics, error)
	ListPulseEvents(context.Context, int) ([]domain.PulseEvent, error)
	Revision(context.Context) (uint64, error)
	ReplaceDataset(context.Context, Dataset) error
}

// Dataset is one complete replacement of the stored board data.
// A nil Metrics clears any stored reviewer metrics.
type Dataset struct {
	Items        []domain.WorkItem
	Contributors []domain.Contributor
	Metrics      *domain.ReviewerMetrics
	Events       []domain.PulseEvent
}
