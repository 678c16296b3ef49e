package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/evanschultz/missionctl/internal/board"
	"github.com/evanschultz/missionctl/internal/domain"
)

// DefaultEventLimit caps pulse history reads when no limit is configured.
const DefaultEventLimit = 50

// Logger is the subset of charm log used by the service.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(any, ...any) {}
func (nopLogger) Info(any, ...any)  {}
func (nopLogger) Warn(any, ...any)  {}

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Logger     Logger
	EventLimit int
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service answers board, metrics, and pulse queries over a Repository.
type Service struct {
	repo       Repository
	idGen      IDGenerator
	clock      Clock
	logger     Logger
	eventLimit int
	grouper    *board.Grouper
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	if cfg.EventLimit <= 0 {
		cfg.EventLimit = DefaultEventLimit
	}
	return &Service{
		repo:       repo,
		idGen:      idGen,
		clock:      clock,
		logger:     cfg.Logger,
		eventLimit: cfg.EventLimit,
		grouper:    board.NewGrouper(),
	}
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.clock()
}

// ListItems lists every stored work item in feed order.
func (s *Service) ListItems(ctx context.Context) ([]domain.WorkItem, error) {
	return s.repo.ListItems(ctx)
}

// Revision returns the stored dataset revision.
func (s *Service) Revision(ctx context.Context) (uint64, error) {
	return s.repo.Revision(ctx)
}

// Board filters and groups the stored items. Results are memoized per dataset revision.
func (s *Service) Board(ctx context.Context, state board.FilterState) (board.Board, error) {
	revision, err := s.repo.Revision(ctx)
	if err != nil {
		return board.Board{}, err
	}
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return board.Board{}, err
	}
	out := s.grouper.Build(revision, items, state)
	if len(out.Excluded) > 0 {
		s.logger.Warn("items with unrecognized status left off the board", "count", len(out.Excluded), "statuses", excludedStatuses(out.Excluded))
	}
	return out, nil
}

// FilterItems returns the flat filtered list used by the data grid.
func (s *Service) FilterItems(ctx context.Context, state board.FilterState) ([]domain.WorkItem, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return board.Filter(items, state), nil
}

// Stats counts headline statuses across every stored item.
func (s *Service) Stats(ctx context.Context) (domain.MissionStats, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return domain.MissionStats{}, err
	}
	return board.Stats(items), nil
}

// ReviewerMetrics returns stored metrics, or the neutral defaults when none were imported.
func (s *Service) ReviewerMetrics(ctx context.Context) (domain.ReviewerMetrics, error) {
	metrics, err := s.repo.GetReviewerMetrics(ctx)
	if errors.Is(err, ErrNotFound) {
		return domain.DefaultReviewerMetrics(), nil
	}
	if err != nil {
		return domain.ReviewerMetrics{}, err
	}
	return metrics, nil
}

// Contributor returns one contributor by login.
func (s *Service) Contributor(ctx context.Context, login string) (domain.Contributor, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return domain.Contributor{}, domain.ErrInvalidLogin
	}
	return s.repo.GetContributor(ctx, login)
}

// Contributors lists every stored contributor.
func (s *Service) Contributors(ctx context.Context) ([]domain.Contributor, error) {
	return s.repo.ListContributors(ctx)
}

// PulseEvents returns up to limit events, newest feed order first. A limit <= 0 uses the configured cap.
func (s *Service) PulseEvents(ctx context.Context, limit int) ([]domain.PulseEvent, error) {
	if limit <= 0 || limit > s.eventLimit {
		limit = s.eventLimit
	}
	return s.repo.ListPulseEvents(ctx, limit)
}

func excludedStatuses(items []domain.WorkItem) []string {
	seen := map[domain.Status]struct{}{}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Status]; ok {
			continue
		}
		seen[item.Status] = struct{}{}
		out = append(out, string(item.Status))
	}
	return out
}
