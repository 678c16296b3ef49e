package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/missionctl/internal/app"
	"github.com/evanschultz/missionctl/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores the mission board dataset in sqlite.
type Repository struct {
	db *sql.DB
}

// Open opens the requested operation.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS work_items (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			number INTEGER NOT NULL DEFAULT 0,
			kind TEXT NOT NULL DEFAULT 'issue',
			title TEXT NOT NULL,
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			domain TEXT NOT NULL DEFAULT '',
			assignee_login TEXT NOT NULL DEFAULT '',
			assignee_avatar TEXT NOT NULL DEFAULT '',
			labels_json TEXT NOT NULL DEFAULT '[]',
			url TEXT NOT NULL DEFAULT '',
			source_branch TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS contributors (
			login TEXT PRIMARY KEY COLLATE NOCASE,
			position INTEGER NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			pr_count INTEGER NOT NULL DEFAULT 0,
			recent_prs_json TEXT NOT NULL DEFAULT '[]'
		);`,
		// reviewer_metrics holds at most one row.
		`CREATE TABLE IF NOT EXISTS reviewer_metrics (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			top_reviewers_json TEXT NOT NULL DEFAULT '[]',
			community_happiness INTEGER NOT NULL,
			analyzed_comments INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS pulse_events (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			user_login TEXT NOT NULL,
			action TEXT NOT NULL DEFAULT '',
			time_raw TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'system',
			avatar TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS dataset_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			revision INTEGER NOT NULL DEFAULT 0,
			replaced_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_work_items_position ON work_items(position);`,
		`CREATE INDEX IF NOT EXISTS idx_pulse_events_position ON pulse_events(position);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// ListItems lists work items in feed order.
func (r *Repository) ListItems(ctx context.Context) ([]domain.WorkItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, number, kind, title, status, priority, domain, assignee_login, assignee_avatar, labels_json, url, source_branch, updated_at
		FROM work_items
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.WorkItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListContributors lists contributors in feed order.
func (r *Repository) ListContributors(ctx context.Context) ([]domain.Contributor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT login, avatar_url, pr_count, recent_prs_json
		FROM contributors
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Contributor{}
	for rows.Next() {
		contributor, err := scanContributor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, contributor)
	}
	return out, rows.Err()
}

// GetContributor returns one contributor; login matching ignores case.
func (r *Repository) GetContributor(ctx context.Context, login string) (domain.Contributor, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT login, avatar_url, pr_count, recent_prs_json
		FROM contributors
		WHERE login = ?
	`, strings.TrimSpace(login))
	return scanContributor(row)
}

// GetReviewerMetrics returns the stored metrics row.
func (r *Repository) GetReviewerMetrics(ctx context.Context) (domain.ReviewerMetrics, error) {
	var (
		metrics      domain.ReviewerMetrics
		reviewersRaw string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT top_reviewers_json, community_happiness, analyzed_comments
		FROM reviewer_metrics
		WHERE id = 1
	`).Scan(&reviewersRaw, &metrics.CommunityHappiness, &metrics.AnalyzedComments)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ReviewerMetrics{}, app.ErrNotFound
		}
		return domain.ReviewerMetrics{}, err
	}
	if err := decodeJSONColumn(reviewersRaw, &metrics.TopReviewers); err != nil {
		return domain.ReviewerMetrics{}, fmt.Errorf("decode top_reviewers_json: %w", err)
	}
	if metrics.TopReviewers == nil {
		metrics.TopReviewers = []domain.Reviewer{}
	}
	return metrics, nil
}

// ListPulseEvents lists up to limit events in feed order. A limit <= 0 returns every event.
func (r *Repository) ListPulseEvents(ctx context.Context, limit int) ([]domain.PulseEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_login, action, time_raw, type, avatar
		FROM pulse_events
		ORDER BY position ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PulseEvent{}
	for rows.Next() {
		var (
			event     domain.PulseEvent
			eventType string
		)
		if err := rows.Scan(&event.ID, &event.User, &event.Action, &event.Time, &eventType, &event.Avatar); err != nil {
			return nil, err
		}
		event.Type = domain.EventType(eventType)
		out = append(out, event)
	}
	return out, rows.Err()
}

// Revision returns the number of dataset replacements applied so far.
func (r *Repository) Revision(ctx context.Context) (uint64, error) {
	var revision int64
	err := r.db.QueryRowContext(ctx, `SELECT revision FROM dataset_meta WHERE id = 1`).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint64(revision), nil
}

// ReplaceDataset swaps every stored record for d in one transaction.
func (r *Repository) ReplaceDataset(ctx context.Context, d app.Dataset) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"work_items", "contributors", "reviewer_metrics", "pulse_events"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, item := range d.Items {
		if err = insertItem(ctx, tx, i, item); err != nil {
			return fmt.Errorf("insert item %q: %w", item.ID, err)
		}
	}
	for i, contributor := range d.Contributors {
		if err = insertContributor(ctx, tx, i, contributor); err != nil {
			return fmt.Errorf("insert contributor %q: %w", contributor.Login, err)
		}
	}
	if d.Metrics != nil {
		var reviewersJSON []byte
		reviewersJSON, err = json.Marshal(nonNilReviewers(d.Metrics.TopReviewers))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO reviewer_metrics(id, top_reviewers_json, community_happiness, analyzed_comments)
			VALUES (1, ?, ?, ?)
		`, string(reviewersJSON), d.Metrics.CommunityHappiness, d.Metrics.AnalyzedComments)
		if err != nil {
			return fmt.Errorf("insert reviewer metrics: %w", err)
		}
	}
	for i, event := range d.Events {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pulse_events(id, position, user_login, action, time_raw, type, avatar)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, event.ID, i, event.User, event.Action, event.Time, string(event.Type), event.Avatar)
		if err != nil {
			return fmt.Errorf("insert pulse event %q: %w", event.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dataset_meta(id, revision, replaced_at) VALUES (1, 1, ?)
		ON CONFLICT(id) DO UPDATE SET revision = revision + 1, replaced_at = excluded.replaced_at
	`, ts(time.Now()))
	if err != nil {
		return fmt.Errorf("bump dataset revision: %w", err)
	}

	err = tx.Commit()
	return err
}

// execerContext is satisfied by *sql.DB and *sql.Tx.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

func insertItem(ctx context.Context, execer execerContext, position int, item domain.WorkItem) error {
	labelsJSON, err := json.Marshal(nonNilStrings(item.Labels))
	if err != nil {
		return err
	}
	var login, avatar string
	if item.Assignee != nil {
		login = item.Assignee.Login
		avatar = item.Assignee.AvatarURL
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO work_items(
			id, position, number, kind, title, status, priority, domain, assignee_login, assignee_avatar, labels_json, url, source_branch, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID,
		position,
		item.Number,
		string(item.Kind),
		item.Title,
		string(item.Status),
		string(item.Priority),
		item.Domain,
		login,
		avatar,
		string(labelsJSON),
		item.URL,
		item.SourceBranch,
		ts(item.UpdatedAt),
	)
	return err
}

func insertContributor(ctx context.Context, execer execerContext, position int, contributor domain.Contributor) error {
	recent := contributor.RecentPRs
	if recent == nil {
		recent = []domain.PullRequestSummary{}
	}
	recentJSON, err := json.Marshal(recent)
	if err != nil {
		return err
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO contributors(login, position, avatar_url, pr_count, recent_prs_json)
		VALUES (?, ?, ?, ?, ?)
	`, contributor.Login, position, contributor.AvatarURL, contributor.PRCount, string(recentJSON))
	return err
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (domain.WorkItem, error) {
	var (
		item       domain.WorkItem
		kind       string
		status     string
		priority   string
		login      string
		avatar     string
		labelsRaw  string
		updatedRaw string
	)
	if err := s.Scan(
		&item.ID,
		&item.Number,
		&kind,
		&item.Title,
		&status,
		&priority,
		&item.Domain,
		&login,
		&avatar,
		&labelsRaw,
		&item.URL,
		&item.SourceBranch,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WorkItem{}, app.ErrNotFound
		}
		return domain.WorkItem{}, err
	}
	item.Kind = domain.ItemKind(kind)
	item.Status = domain.Status(status)
	item.Priority = domain.Priority(priority)
	if login != "" {
		item.Assignee = &domain.Assignee{Login: login, AvatarURL: avatar}
	}
	if err := decodeJSONColumn(labelsRaw, &item.Labels); err != nil {
		return domain.WorkItem{}, fmt.Errorf("decode labels_json: %w", err)
	}
	item.Labels = nonNilStrings(item.Labels)
	item.UpdatedAt = parseTS(updatedRaw)
	return item, nil
}

func scanContributor(s scanner) (domain.Contributor, error) {
	var (
		contributor domain.Contributor
		recentRaw   string
	)
	if err := s.Scan(&contributor.Login, &contributor.AvatarURL, &contributor.PRCount, &recentRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Contributor{}, app.ErrNotFound
		}
		return domain.Contributor{}, err
	}
	if err := decodeJSONColumn(recentRaw, &contributor.RecentPRs); err != nil {
		return domain.Contributor{}, fmt.Errorf("decode recent_prs_json: %w", err)
	}
	if contributor.RecentPRs == nil {
		contributor.RecentPRs = []domain.PullRequestSummary{}
	}
	return contributor, nil
}

func decodeJSONColumn(raw string, dst any) error {
	if strings.TrimSpace(raw) == "" {
		raw = "[]"
	}
	return json.Unmarshal([]byte(raw), dst)
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilReviewers(in []domain.Reviewer) []domain.Reviewer {
	if in == nil {
		return []domain.Reviewer{}
	}
	return in
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
