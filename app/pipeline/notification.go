package pipeline

import "time"

// Field is one titled section of a notification. Answers carry two (the
// parent question body and the answer body), comments one.
type Field struct {
	Name  string
	Value string
}

// Notification is a formatted forum activity ready for delivery to a chat
// channel. The gateway decides how to render it (Discord uses an embed).
type Notification struct {
	Title         string
	URL           string
	Description   string
	Fields        []Field
	AuthorName    string
	AuthorIconURL string
	Timestamp     time.Time
}
