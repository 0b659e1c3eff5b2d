package types

import (
	"github.com/samber/lo"
)

// Totals derives the aggregate counters of a tag collection: the total number of
// taggings and the number of labels that still have at least one tagger.
func (c TagCollection) Totals() (tags int64, uniqueTags int64) {
	tags = lo.SumBy(c, func(entry TagEntry) int64 {
		return entry.TaggersCount
	})
	uniqueTags = int64(lo.CountBy(c, func(entry TagEntry) bool {
		return entry.TaggersCount > 0
	}))
	return tags, uniqueTags
}

// clampAdd adds delta to value without going below zero.
func clampAdd(value, delta int64) int64 {
	return max(value+delta, 0)
}

// SyncTags recomputes the tag counters from the collection, leaving the other fields untouched.
func (c *PostCounts) SyncTags(tags TagCollection) {
	c.Tags, c.UniqueTags = tags.Totals()
}

// AddReplies adjusts the reply counter, clamped at zero.
func (c *PostCounts) AddReplies(delta int64) {
	c.Replies = clampAdd(c.Replies, delta)
}

// AddReposts adjusts the repost counter, clamped at zero.
func (c *PostCounts) AddReposts(delta int64) {
	c.Reposts = clampAdd(c.Reposts, delta)
}

// RelationshipEffect describes the counter changes implied by creating or deleting a post.
type RelationshipEffect struct {
	// Parent is the replied-to post, if the post is a reply.
	Parent *PostID
	// Original is the reposted post, if the post is a repost.
	Original *PostID
	// ReplyDelta applies to the parent's replies counter.
	ReplyDelta int64
	// RepostDelta applies to the original's reposts counter.
	RepostDelta int64
	// User applies to the author's counters.
	User UserCountsDelta
}

// RelationshipDelta computes the bookkeeping for a post with the given relationships.
// Sign is +1 for creation and -1 for deletion. Targets whose URI does not resolve are
// left nil so the caller skips them.
func RelationshipDelta(rel *PostRelationships, sign int64) RelationshipEffect {
	effect := RelationshipEffect{
		User: UserCountsDelta{Posts: sign},
	}

	if rel.IsReply() {
		effect.User.Replies = sign
		if parent, ok := ResolvePostURI(*rel.Replied); ok {
			effect.Parent = &parent
			effect.ReplyDelta = sign
		}
	}

	if rel.IsRepost() {
		if original, ok := ResolvePostURI(*rel.Reposted); ok {
			effect.Original = &original
			effect.RepostDelta = sign
		}
	}

	return effect
}
