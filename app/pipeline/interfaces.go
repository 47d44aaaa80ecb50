package pipeline

import (
	"context"
	"time"

	"forum-sentinel/app/forum"
)

// ForumAPI is the subset of the forum client the pipeline depends on.
type ForumAPI interface {
	ListQuestions(ctx context.Context, page int, sort string) ([]forum.Activity, error)
	ListAnswers(ctx context.Context, page int, sort string) ([]forum.Activity, error)
	ListComments(ctx context.Context, page int, sort string) ([]forum.Activity, error)
	ListArticles(ctx context.Context, page int, sort string) ([]forum.Activity, error)
	GetQuestion(ctx context.Context, id int64) (forum.Activity, error)
	GetArticle(ctx context.Context, id int64) (forum.Activity, error)
}

var _ ForumAPI = (*forum.Client)(nil)

// Notifier delivers a formatted notification to a chat channel. Delivery
// failures are the gateway's concern; the pipeline only logs them.
type Notifier interface {
	SendActivity(ctx context.Context, channel string, note Notification) error
}

// Scanner receives every piece of observed forum text for credential
// scanning.
type Scanner interface {
	FindKey(ctx context.Context, reportedBy, text, location string, postedAt time.Time) bool
}
