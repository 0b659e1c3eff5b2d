package types

import (
	"github.com/uptrace/bun"
)

// UserCounts holds the per-user counters shown on profiles.
type UserCounts struct {
	bun.BaseModel `bun:"table:user_counts,alias:uc" json:"-"`

	ID         string `bun:",pk"                json:"id"`
	Tagged     int64  `bun:",notnull,default:0" json:"tagged"` // Tags this user applied
	Tags       int64  `bun:",notnull,default:0" json:"tags"`   // Tags applied to this user
	UniqueTags int64  `bun:",notnull,default:0" json:"unique_tags"`
	Posts      int64  `bun:",notnull,default:0" json:"posts"`
	Replies    int64  `bun:",notnull,default:0" json:"replies"`
	Following  int64  `bun:",notnull,default:0" json:"following"`
	Followers  int64  `bun:",notnull,default:0" json:"followers"`
	Friends    int64  `bun:",notnull,default:0" json:"friends"`
	Bookmarks  int64  `bun:",notnull,default:0" json:"bookmarks"`
}

// UserCountsDelta is a combined change to a user's counters.
type UserCountsDelta struct {
	Tagged    int64
	Posts     int64
	Replies   int64
	Following int64
	Followers int64
	Friends   int64
	Bookmarks int64
}

// IsZero reports whether the delta changes nothing.
func (d UserCountsDelta) IsZero() bool {
	return d == UserCountsDelta{}
}

// Apply adds the delta to the counters. Every field is clamped at zero.
func (c *UserCounts) Apply(delta UserCountsDelta) {
	c.Tagged = clampAdd(c.Tagged, delta.Tagged)
	c.Posts = clampAdd(c.Posts, delta.Posts)
	c.Replies = clampAdd(c.Replies, delta.Replies)
	c.Following = clampAdd(c.Following, delta.Following)
	c.Followers = clampAdd(c.Followers, delta.Followers)
	c.Friends = clampAdd(c.Friends, delta.Friends)
	c.Bookmarks = clampAdd(c.Bookmarks, delta.Bookmarks)
}

// SyncTags recomputes the received-tag counters from the user's tag collection.
func (c *UserCounts) SyncTags(tags TagCollection) {
	c.Tags, c.UniqueTags = tags.Totals()
}

// UserTags holds the tag collection applied to a user profile.
type UserTags struct {
	bun.BaseModel `bun:"table:user_tags,alias:ut" json:"-"`

	ID   string        `bun:",pk"      json:"id"`
	Tags TagCollection `bun:",notnull" json:"tags"`
}
