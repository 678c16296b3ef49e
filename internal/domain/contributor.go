package domain

import (
	"strings"
	"time"
)

type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	PRStateMerged PRState = "merged"
)

type PullRequestSummary struct {
	Title     string    `json:"title"`
	Number    int       `json:"number"`
	State     PRState   `json:"state"`
	URL       string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Contributor is the detail record shown in the contributor modal.
type Contributor struct {
	Login     string               `json:"login"`
	AvatarURL string               `json:"avatar_url,omitempty"`
	PRCount   int                  `json:"pr_count"`
	RecentPRs []PullRequestSummary `json:"recent_prs"`
}

func NewContributor(login, avatarURL string, prCount int, recent []PullRequestSummary) (Contributor, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return Contributor{}, ErrInvalidLogin
	}
	if prCount < 0 {
		prCount = 0
	}
	prs := make([]PullRequestSummary, 0, len(recent))
	for _, pr := range recent {
		pr.Title = strings.TrimSpace(pr.Title)
		if pr.State == "" {
			pr.State = PRStateOpen
		}
		pr.CreatedAt = pr.CreatedAt.UTC()
		prs = append(prs, pr)
	}
	return Contributor{
		Login:     login,
		AvatarURL: strings.TrimSpace(avatarURL),
		PRCount:   prCount,
		RecentPRs: prs,
	}, nil
}

// Reviewer is one ranked entry in the reviewer leaderboard.
type Reviewer struct {
	Name         string `json:"name"`
	Avatar       string `json:"avatar,omitempty"`
	Count        int    `json:"count"`
	IsMaintainer bool   `json:"is_maintainer,omitempty"`
}

// ReviewerMetrics summarizes peer-review activity and community sentiment.
type ReviewerMetrics struct {
	TopReviewers       []Reviewer `json:"top_reviewers"`
	CommunityHappiness int        `json:"community_happiness"`
	AnalyzedComments   int        `json:"analyzed_comments"`
}

// DefaultCommunityHappiness is reported when no sentiment data has been collected.
const DefaultCommunityHappiness = 50

// DefaultReviewerMetrics returns the metrics shown before any data arrives.
func DefaultReviewerMetrics() ReviewerMetrics {
	return ReviewerMetrics{
		TopReviewers:       []Reviewer{},
		CommunityHappiness: DefaultCommunityHappiness,
	}
}

// Validate checks score bounds and reviewer names.
func (m ReviewerMetrics) Validate() error {
	if m.CommunityHappiness < 0 || m.CommunityHappiness > 100 {
		return ErrInvalidScore
	}
	if m.AnalyzedComments < 0 {
		return ErrInvalidScore
	}
	for _, reviewer := range m.TopReviewers {
		if strings.TrimSpace(reviewer.Name) == "" {
			return ErrInvalidLogin
		}
	}
	return nil
}

// Sentiment is the human label for a community happiness score.
type Sentiment string

const (
	SentimentThriving Sentiment = "Thriving"
	SentimentHealthy  Sentiment = "Healthy"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentTense    Sentiment = "Tense"
	SentimentToxic    Sentiment = "Toxic"
)

// SentimentFor maps a 0-100 happiness score to its label.
func SentimentFor(score int) Sentiment {
	switch {
	case score >= 80:
		return SentimentThriving
	case score >= 60:
		return SentimentHealthy
	case score >= 40:
		return SentimentNeutral
	case score >= 20:
		return SentimentTense
	default:
		return SentimentToxic
	}
}

// MissionStats counts items by headline status.
type MissionStats struct {
	Total      int `json:"total"`
	Backlog    int `json:"backlog"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}
