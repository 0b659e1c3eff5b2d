package types

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"
)

// TagEntry is one label applied to a subject and the users who applied it.
type TagEntry struct {
	Label        string   `json:"label"`
	Taggers      []string `json:"taggers"`
	TaggersCount int64    `json:"taggers_count"`
	// Relationship mirrors whether the acting user is among the taggers.
	// It is refreshed on every write and recomputed per viewer on read.
	Relationship bool `json:"relationship"`
}

// HasTagger reports whether the user applied this label.
func (e *TagEntry) HasTagger(taggerID string) bool {
	return lo.Contains(e.Taggers, taggerID)
}

// TagCollection is the ordered list of tag entries for one post or user.
type TagCollection []TagEntry

// NormalizeLabel trims and lower-cases a tag label. Compatibility forms are folded
// so visually identical labels share one entry.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(label)))
}

// FindByLabel returns the entry for a label or nil if none exists.
// The pointer stays valid until the collection is appended to or pruned.
func (c TagCollection) FindByLabel(label string) *TagEntry {
	label = NormalizeLabel(label)
	for i := range c {
		if c[i].Label == label {
			return &c[i]
		}
	}
	return nil
}

// AddTagger adds a tagger to a label, creating the entry when missing.
// Returns false if the tagger was already present.
func (c *TagCollection) AddTagger(label, taggerID string) bool {
	label = NormalizeLabel(label)

	entry := c.FindByLabel(label)
	if entry == nil {
		*c = append(*c, TagEntry{Label: label, Taggers: []string{}})
		entry = &(*c)[len(*c)-1]
	}

	if entry.HasTagger(taggerID) {
		return false
	}

	entry.Taggers = append(entry.Taggers, taggerID)
	entry.TaggersCount = int64(len(entry.Taggers))
	return true
}

// RemoveTagger removes a tagger from a label. Empty entries are left in place
// for the caller to prune. Returns false if nothing was removed.
func (c TagCollection) RemoveTagger(label, taggerID string) bool {
	entry := c.FindByLabel(label)
	if entry == nil || !entry.HasTagger(taggerID) {
		return false
	}

	entry.Taggers = lo.Without(entry.Taggers, taggerID)
	entry.TaggersCount = int64(len(entry.Taggers))
	return true
}

// Prune drops entries that have no taggers left.
func (c *TagCollection) Prune() {
	*c = lo.Filter(*c, func(entry TagEntry, _ int) bool {
		return entry.TaggersCount > 0
	})
}

// SaveTag applies a label for the acting user.
func (c *TagCollection) SaveTag(label, actorID string) error {
	label = NormalizeLabel(label)
	if label == "" {
		return ErrInvalidLabel
	}

	if entry := c.FindByLabel(label); entry != nil && entry.HasTagger(actorID) {
		return ErrAlreadyTagged
	}

	c.AddTagger(label, actorID)
	c.FindByLabel(label).Relationship = true
	return nil
}

// RemoveTag withdraws a label applied by the acting user and prunes the entry
// when no taggers remain.
func (c *TagCollection) RemoveTag(label, actorID string) error {
	label = NormalizeLabel(label)
	if label == "" {
		return ErrInvalidLabel
	}

	entry := c.FindByLabel(label)
	if entry == nil {
		return ErrTagNotFound
	}
	if !entry.HasTagger(actorID) {
		return ErrNotTagged
	}

	c.RemoveTagger(label, actorID)
	entry.Relationship = false
	c.Prune()
	return nil
}

// ProjectFor returns a copy of the collection with Relationship computed for the viewer.
// An empty viewer clears every relationship flag.
func (c TagCollection) ProjectFor(viewerID string) TagCollection {
	out := make(TagCollection, len(c))
	for i, entry := range c {
		entry.Taggers = append([]string(nil), entry.Taggers...)
		entry.Relationship = viewerID != "" && lo.Contains(entry.Taggers, viewerID)
		out[i] = entry
	}
	return out
}

// Labels returns the labels in collection order.
func (c TagCollection) Labels() []string {
	return lo.Map(c, func(entry TagEntry, _ int) string {
		return entry.Label
	})
}

// Clone returns a deep copy of the collection.
func (c TagCollection) Clone() TagCollection {
	if c == nil {
		return nil
	}

	out := make(TagCollection, len(c))
	for i, entry := range c {
		entry.Taggers = append([]string(nil), entry.Taggers...)
		out[i] = entry
	}
	return out
}
