package models

// Article represents one row of the Hacker News "newest" listing
type Article struct {
	ID           string `json:"id"`
	Index        int    `json:"index"` // Position in the collected sequence, starting at 0
	Title        string `json:"title"`
	Timestamp    string `json:"timestamp"` // Raw title attribute of the age indicator
	RelativeTime string `json:"relativeTime"`
}
