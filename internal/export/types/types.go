package types

// PostRecord is one cached post flattened for export.
type PostRecord struct {
	ID          string
	Author      string
	Kind        string
	URI         string
	Content     string
	IndexedAt   int64
	Attachments string // JSON array
	Mentioned   string // JSON array
	Replied     string
	Reposted    string
	Tags        int64
	UniqueTags  int64
	Replies     int64
	Reposts     int64
}

// TagRecord is one tagging: a user who applied a label to a post or user.
type TagRecord struct {
	Subject string
	Label   string
	Tagger  string
}

// UserRecord is one user's counters.
type UserRecord struct {
	ID         string
	Tagged     int64
	Tags       int64
	UniqueTags int64
	Posts      int64
	Replies    int64
	Following  int64
	Followers  int64
	Friends    int64
	Bookmarks  int64
}

// Records holds everything written by one export.
type Records struct {
	Posts    []*PostRecord
	PostTags []*TagRecord
	Users    []*UserRecord
	UserTags []*TagRecord
}
