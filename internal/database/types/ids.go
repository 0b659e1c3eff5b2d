package types

import (
	"strings"
	"unicode"
)

const (
	// URIScheme prefixes every homeserver resource URI.
	URIScheme = "pubky://"
	// postPathSegment sits between the author and the local post id in a post URI.
	postPathSegment = "/pub/pubky.app/posts/"
)

// PostID is the composite "<authorPubky>:<localPostId>" key shared by all per-post tables.
type PostID string

// NewPostID joins an author and a local post id into a composite id.
func NewPostID(author, localID string) PostID {
	return PostID(author + ":" + localID)
}

// Split returns the author and local id parts.
// ok is false when the id is not in "<author>:<local>" form. Neither part may be
// empty or carry a separator, a path slash or whitespace.
func (id PostID) Split() (author, localID string, ok bool) {
	author, localID, found := strings.Cut(string(id), ":")
	if !found || !validIDPart(author) || !validIDPart(localID) {
		return "", "", false
	}
	return author, localID, true
}

func validIDPart(part string) bool {
	return part != "" && !strings.ContainsFunc(part, func(r rune) bool {
		return r == ':' || r == '/' || unicode.IsSpace(r)
	})
}

// Valid reports whether the id is a well-formed composite id.
func (id PostID) Valid() bool {
	_, _, ok := id.Split()
	return ok
}

// Author returns the author part, or an empty string for malformed ids.
func (id PostID) Author() string {
	author, _, _ := id.Split()
	return author
}

// LocalID returns the local post id part, or an empty string for malformed ids.
func (id PostID) LocalID() string {
	_, localID, _ := id.Split()
	return localID
}

// URI returns the homeserver URI of the post.
func (id PostID) URI() string {
	author, localID, ok := id.Split()
	if !ok {
		return ""
	}
	return PostURI(author, localID)
}

// String implements fmt.Stringer.
func (id PostID) String() string {
	return string(id)
}

// PostURI builds the homeserver URI for a post.
func PostURI(author, localID string) string {
	return URIScheme + author + postPathSegment + localID
}

// ResolvePostURI resolves a post URI to the composite id used as the local key.
// Composite ids are accepted as-is. It never fails loudly: anything that does not
// resolve returns false.
func ResolvePostURI(uri string) (PostID, bool) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", false
	}

	rest, hasScheme := strings.CutPrefix(uri, URIScheme)
	if !hasScheme {
		// Foreign URIs such as https://host/path never name a cached post
		if strings.Contains(uri, "://") {
			return "", false
		}
		id := PostID(uri)
		return id, id.Valid()
	}

	author, localID, found := strings.Cut(rest, postPathSegment)
	if !found || author == "" || strings.Contains(author, "/") {
		return "", false
	}

	// Drop any query or fragment the caller carried along
	if idx := strings.IndexAny(localID, "?#"); idx >= 0 {
		localID = localID[:idx]
	}
	localID = strings.TrimSuffix(localID, "/")

	if localID == "" || strings.Contains(localID, "/") {
		return "", false
	}

	id := NewPostID(author, localID)
	return id, id.Valid()
}
