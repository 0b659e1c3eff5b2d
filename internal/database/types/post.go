package types

import (
	"slices"

	"github.com/uptrace/bun"
)

// PostKind is the content kind of a post.
type PostKind string

const (
	PostKindShort PostKind = "short"
	PostKindLong  PostKind = "long"
)

// Valid reports whether the kind is one the cache stores.
func (k PostKind) Valid() bool {
	return k == PostKindShort || k == PostKindLong
}

// PostDetails holds the immutable content of a post.
type PostDetails struct {
	bun.BaseModel `bun:"table:post_details,alias:pd" json:"-"`

	ID          PostID   `bun:",pk"       json:"id"`
	Content     string   `bun:",notnull"  json:"content"`
	IndexedAt   int64    `bun:",notnull"  json:"indexed_at"` // Unix milliseconds
	Kind        PostKind `bun:",notnull"  json:"kind"`
	URI         string   `bun:"uri,notnull" json:"uri"`
	Attachments []string `bun:",nullzero" json:"attachments"`
}

// PostCounts holds the derived counters of a post.
type PostCounts struct {
	bun.BaseModel `bun:"table:post_counts,alias:pc" json:"-"`

	ID         PostID `bun:",pk"                json:"id"`
	Tags       int64  `bun:",notnull,default:0" json:"tags"`
	UniqueTags int64  `bun:",notnull,default:0" json:"unique_tags"`
	Replies    int64  `bun:",notnull,default:0" json:"replies"`
	Reposts    int64  `bun:",notnull,default:0" json:"reposts"`
}

// PostRelationships links a post to the post it replies to or reposts.
type PostRelationships struct {
	bun.BaseModel `bun:"table:post_relationships,alias:pr" json:"-"`

	ID        PostID   `bun:",pk"       json:"id"`
	Replied   *string  `bun:",nullzero" json:"replied"`  // Parent post URI
	Reposted  *string  `bun:",nullzero" json:"reposted"` // Original post URI
	Mentioned []string `bun:",notnull"  json:"mentioned"`
}

// IsReply reports whether the post replies to another post.
func (r *PostRelationships) IsReply() bool {
	return r != nil && r.Replied != nil && *r.Replied != ""
}

// IsRepost reports whether the post reposts another post.
func (r *PostRelationships) IsRepost() bool {
	return r != nil && r.Reposted != nil && *r.Reposted != ""
}

// PostTags holds the tag collection applied to a post.
type PostTags struct {
	bun.BaseModel `bun:"table:post_tags,alias:pt" json:"-"`

	ID   PostID        `bun:",pk"      json:"id"`
	Tags TagCollection `bun:",notnull" json:"tags"`
}

// PostView assembles the four rows of one logical post for reading.
type PostView struct {
	Details       *PostDetails       `json:"details"`
	Counts        *PostCounts        `json:"counts"`
	Relationships *PostRelationships `json:"relationships"`
	Tags          *PostTags          `json:"tags"`
}

// ForViewer returns a copy of the view with tag relationships projected for the viewer.
// The copy shares no rows with the receiver.
func (v *PostView) ForViewer(viewerID string) *PostView {
	if v == nil {
		return nil
	}

	out := v.Clone()
	if out.Tags != nil {
		out.Tags.Tags = out.Tags.Tags.ProjectFor(viewerID)
	}
	return out
}

// Clone returns a deep copy of the view.
func (v *PostView) Clone() *PostView {
	if v == nil {
		return nil
	}

	out := &PostView{}
	if v.Details != nil {
		details := *v.Details
		details.Attachments = slices.Clone(v.Details.Attachments)
		out.Details = &details
	}
	if v.Counts != nil {
		counts := *v.Counts
		out.Counts = &counts
	}
	if v.Relationships != nil {
		rel := *v.Relationships
		rel.Mentioned = slices.Clone(v.Relationships.Mentioned)
		out.Relationships = &rel
	}
	if v.Tags != nil {
		tags := *v.Tags
		tags.Tags = v.Tags.Tags.Clone()
		out.Tags = &tags
	}
	return out
}

// NewPostCounts returns a zeroed counts row.
func NewPostCounts(id PostID) *PostCounts {
	return &PostCounts{ID: id}
}

// NewPostTags returns an empty tags row.
func NewPostTags(id PostID) *PostTags {
	return &PostTags{ID: id, Tags: TagCollection{}}
}
