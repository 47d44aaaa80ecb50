package forum

type ActivityType string

const (
	TypeQuestion ActivityType = "question"
	TypeAnswer   ActivityType = "answer"
	TypeComment  ActivityType = "comment"
	TypeArticle  ActivityType = "kbentry"
)

// Author is the forum account that posted an activity. Username may embed a
// parenthesized region code, e.g. "Foo (NA)"; see SplitDisplayName.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Activity is a single node fetched from the forum: a question, answer,
// comment or knowledge-base article.
type Activity struct {
	ID               int64        `json:"id"`
	Type             ActivityType `json:"type"`
	Title            string       `json:"title"`
	Body             string       `json:"body"`
	CreationDate     int64        `json:"creationDate"`
	Author           Author       `json:"author"`
	OriginalParentID int64        `json:"originalParentId"`
	Slug             string       `json:"slug"`
}

// Page is one page of a paginated collection, newest-first.
type Page struct {
	List []Activity `json:"list"`
}
