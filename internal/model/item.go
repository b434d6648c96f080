package model

// Item is the domain model for a todo entry.
// The JSON shape is the persisted layout; do not rename the tags.
type Item struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}
