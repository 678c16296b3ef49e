package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/evanschultz/missionctl/internal/board"
	"github.com/evanschultz/missionctl/internal/domain"
)

// FeedVersion defines the supported feed snapshot version.
const FeedVersion = "missionctl.feed.v1"

// Feed is the JSON snapshot exchanged by import, export, and the live feed watcher.
// Stats is derived from Items on export and ignored on import.
type Feed struct {
	Version      string                  `json:"version,omitempty"`
	ExportedAt   time.Time               `json:"exported_at"`
	Items        []domain.WorkItem       `json:"items"`
	Stats        *domain.MissionStats    `json:"stats,omitempty"`
	Reviewers    *domain.ReviewerMetrics `json:"reviewers,omitempty"`
	Contributors []domain.Contributor    `json:"contributors,omitempty"`
	Events       []domain.PulseEvent     `json:"events,omitempty"`
}

// DecodeFeed reads one feed snapshot from r.
func DecodeFeed(r io.Reader) (Feed, error) {
	var feed Feed
	dec := json.NewDecoder(r)
	if err := dec.Decode(&feed); err != nil {
		return Feed{}, fmt.Errorf("%w: decode: %w", ErrInvalidFeed, err)
	}
	return feed, nil
}

// LoadFeedFile decodes the feed snapshot stored at path.
func LoadFeedFile(path string) (Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Feed{}, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()
	return DecodeFeed(f)
}

// Normalize validates every record and returns the dataset to store.
// Item failures are joined so one run reports every bad index.
func (f Feed) Normalize(idGen IDGenerator) (Dataset, error) {
	if f.Version != "" && f.Version != FeedVersion {
		return Dataset{}, fmt.Errorf("%w: unsupported version %q", ErrInvalidFeed, f.Version)
	}
	if idGen == nil {
		idGen = func() string { return "" }
	}

	var errs []error
	out := Dataset{
		Items:        make([]domain.WorkItem, 0, len(f.Items)),
		Contributors: make([]domain.Contributor, 0, len(f.Contributors)),
		Events:       make([]domain.PulseEvent, 0, len(f.Events)),
	}

	itemIDs := map[string]struct{}{}
	for i, raw := range f.Items {
		item, err := domain.NewWorkItem(domain.WorkItemInput{
			ID:           raw.ID,
			Number:       raw.Number,
			Kind:         raw.Kind,
			Title:        raw.Title,
			Status:       raw.Status,
			Priority:     raw.Priority,
			Domain:       raw.Domain,
			Assignee:     raw.Assignee,
			Labels:       raw.Labels,
			URL:          raw.URL,
			UpdatedAt:    raw.UpdatedAt,
			SourceBranch: raw.SourceBranch,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("items[%d]: %w", i, err))
			continue
		}
		if _, dup := itemIDs[item.ID]; dup {
			errs = append(errs, fmt.Errorf("items[%d]: duplicate id %q: %w", i, item.ID, domain.ErrInvalidID))
			continue
		}
		itemIDs[item.ID] = struct{}{}
		out.Items = append(out.Items, item)
	}

	logins := map[string]struct{}{}
	for i, raw := range f.Contributors {
		contributor, err := domain.NewContributor(raw.Login, raw.AvatarURL, raw.PRCount, raw.RecentPRs)
		if err != nil {
			errs = append(errs, fmt.Errorf("contributors[%d]: %w", i, err))
			continue
		}
		key := strings.ToLower(contributor.Login)
		if _, dup := logins[key]; dup {
			errs = append(errs, fmt.Errorf("contributors[%d]: duplicate login %q: %w", i, contributor.Login, domain.ErrInvalidLogin))
			continue
		}
		logins[key] = struct{}{}
		out.Contributors = append(out.Contributors, contributor)
	}

	if f.Reviewers != nil {
		metrics := *f.Reviewers
		if metrics.TopReviewers == nil {
			metrics.TopReviewers = []domain.Reviewer{}
		}
		if err := metrics.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("reviewers: %w", err))
		} else {
			out.Metrics = &metrics
		}
	}

	// Explicit ids are reserved up front so generated ones never take them.
	eventIDs := map[string]struct{}{}
	explicit := map[string]struct{}{}
	for _, event := range f.Events {
		if id := strings.TrimSpace(event.ID); id != "" {
			explicit[id] = struct{}{}
		}
	}
	for i, event := range f.Events {
		event.ID = strings.TrimSpace(event.ID)
		event.User = strings.TrimSpace(event.User)
		event.Action = strings.TrimSpace(event.Action)
		if event.User == "" {
			errs = append(errs, fmt.Errorf("events[%d]: %w", i, domain.ErrInvalidLogin))
			continue
		}
		if event.ID == "" {
			event.ID = nextEventID(i, idGen, explicit, eventIDs)
		} else if _, dup := eventIDs[event.ID]; dup {
			errs = append(errs, fmt.Errorf("events[%d]: duplicate id %q: %w", i, event.ID, domain.ErrInvalidID))
			continue
		}
		eventIDs[event.ID] = struct{}{}
		if event.Type == "" {
			event.Type = domain.EventSystem
		}
		out.Events = append(out.Events, event)
	}

	if len(errs) > 0 {
		return Dataset{}, fmt.Errorf("%w: %w", ErrInvalidFeed, errors.Join(errs...))
	}
	return out, nil
}

// nextEventID returns a generated id for events[i] that no other event holds.
func nextEventID(i int, idGen IDGenerator, reserved ...map[string]struct{}) string {
	taken := func(id string) bool {
		for _, ids := range reserved {
			if _, ok := ids[id]; ok {
				return true
			}
		}
		return false
	}
	if id := strings.TrimSpace(idGen()); id != "" && !taken(id) {
		return id
	}
	id := fmt.Sprintf("event-%d", i)
	for n := 1; taken(id); n++ {
		id = fmt.Sprintf("event-%d-%d", i, n)
	}
	return id
}

// ImportFeed validates feed and replaces the stored dataset with it.
func (s *Service) ImportFeed(ctx context.Context, feed Feed) (Dataset, error) {
	dataset, err := feed.Normalize(s.idGen)
	if err != nil {
		return Dataset{}, err
	}
	if err := s.repo.ReplaceDataset(ctx, dataset); err != nil {
		return Dataset{}, err
	}
	s.grouper.Invalidate()
	s.logger.Info("feed imported",
		"items", len(dataset.Items),
		"contributors", len(dataset.Contributors),
		"events", len(dataset.Events),
	)
	return dataset, nil
}

// ExportFeed returns the stored dataset as a feed snapshot.
func (s *Service) ExportFeed(ctx context.Context) (Feed, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return Feed{}, err
	}
	contributors, err := s.repo.ListContributors(ctx)
	if err != nil {
		return Feed{}, err
	}
	events, err := s.repo.ListPulseEvents(ctx, 0)
	if err != nil {
		return Feed{}, err
	}
	feed := Feed{
		Version:      FeedVersion,
		ExportedAt:   s.clock().UTC(),
		Items:        items,
		Contributors: contributors,
		Events:       events,
	}
	stats := board.Stats(items)
	feed.Stats = &stats
	metrics, err := s.repo.GetReviewerMetrics(ctx)
	switch {
	case err == nil:
		feed.Reviewers = &metrics
	case !errors.Is(err, ErrNotFound):
		return Feed{}, err
	}
	return feed, nil
}
