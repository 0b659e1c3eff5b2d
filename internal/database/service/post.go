package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pubky/franky/internal/database/dbretry"
	"github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/events"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

const (
	// readBatchSize bounds the IDs bound into one IN clause.
	readBatchSize = 250
	// readConcurrency bounds the batches loaded at once.
	readConcurrency = 4
)

// CreatePostParams describes a post to add to the cache.
type CreatePostParams struct {
	PostID      types.PostID
	Content     string
	Kind        types.PostKind // Defaults to short
	AuthorID    string         // Defaults to the author part of PostID
	ParentURI   string         // Set for replies
	EmbedURI    string         // Set for reposts
	Attachments []string
	Mentioned   []string
}

// PostService handles the lifecycle of cached posts.
type PostService struct {
	db       *bun.DB
	tables   Tables
	observer *observer
	logger   *zap.Logger
}

// NewPost creates a new post service.
func NewPost(db *bun.DB, tables Tables, observers Observers, logger *zap.Logger) *PostService {
	logger = logger.Named("post_service")

	return &PostService{
		db:       db,
		tables:   tables,
		observer: newObserver(observers, logger),
		logger:   logger,
	}
}

// Create writes the four rows of a new post and updates reply and repost bookkeeping
// in one transaction. A parent or original that is not cached is skipped.
func (s *PostService) Create(ctx context.Context, params CreatePostParams) (*types.PostView, error) {
	authorID := params.AuthorID
	if authorID == "" {
		authorID = params.PostID.Author()
	}

	errCtx := map[string]any{"postId": params.PostID.String(), "authorId": authorID}
	logFields := []zap.Field{zap.String("postID", params.PostID.String()), zap.String("authorID", authorID)}

	view, err := newPostView(params, time.Now())
	if err != nil {
		return nil, toDatabaseError(s.logger, types.ErrorKindSaveFailed, "create post", err, errCtx, logFields...)
	}

	authorID = view.Details.ID.Author()

	var effect types.RelationshipEffect
	err = dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		id := view.Details.ID.String()

		if err := s.tables.Details.Insert(ctx, tx, view.Details); err != nil {
			return err
		}
		if err := s.tables.Relationships.Insert(ctx, tx, view.Relationships); err != nil {
			return err
		}

		// Tag activity can reach a post before the post itself is cached
		counts, err := getOptional(ctx, tx, s.tables.Counts, id)
		if err != nil {
			return err
		}
		if counts != nil {
			view.Counts = counts
		} else {
			view.Counts = types.NewPostCounts(view.Details.ID)
			if err := s.tables.Counts.Insert(ctx, tx, view.Counts); err != nil {
				return err
			}
		}

		tags, err := getOptional(ctx, tx, s.tables.Tags, id)
		if err != nil {
			return err
		}
		if tags != nil {
			view.Tags = tags
		} else {
			view.Tags = types.NewPostTags(view.Details.ID)
			if err := s.tables.Tags.Insert(ctx, tx, view.Tags); err != nil {
				return err
			}
		}

		effect = types.RelationshipDelta(view.Relationships, 1)
		if err := s.applyEffect(ctx, tx, effect); err != nil {
			return err
		}

		return adjustUserCounts(ctx, tx, s.tables.UserCounts, authorID, effect.User)
	})
	if err != nil {
		return nil, toDatabaseError(s.logger, types.ErrorKindSaveFailed, "create post", err, errCtx, logFields...)
	}

	event := events.NewChangeEvent(events.KindPostCreated, view.Details.ID.String(), authorID)
	s.observer.committed(ctx, withAffected(event, effect), affectedPosts(view.Details.ID, effect)...)

	s.logger.Debug("Created post", logFields...)

	return view, nil
}

// Reply creates a post replying to the given parent.
func (s *PostService) Reply(ctx context.Context, parentID types.PostID, params CreatePostParams) (*types.PostView, error) {
	if !parentID.Valid() {
		errCtx := map[string]any{"postId": params.PostID.String(), "parentId": parentID.String()}
		return nil, toDatabaseError(s.logger, types.ErrorKindSaveFailed, "create reply",
			fmt.Errorf("parent %q: %w", parentID, types.ErrInvalidPostID), errCtx)
	}

	params.ParentURI = parentID.URI()
	return s.Create(ctx, params)
}

// Repost creates a post reposting the given original.
func (s *PostService) Repost(ctx context.Context, originalID types.PostID, params CreatePostParams) (*types.PostView, error) {
	if !originalID.Valid() {
		errCtx := map[string]any{"postId": params.PostID.String(), "originalId": originalID.String()}
		return nil, toDatabaseError(s.logger, types.ErrorKindSaveFailed, "create repost",
			fmt.Errorf("original %q: %w", originalID, types.ErrInvalidPostID), errCtx)
	}

	params.EmbedURI = originalID.URI()
	return s.Create(ctx, params)
}

// Delete removes the four rows of a post and reverses its reply and repost bookkeeping
// in one transaction. Deleting a post that is not cached does nothing.
// An empty deleterID charges the post's author.
func (s *PostService) Delete(ctx context.Context, postID types.PostID, deleterID string) error {
	if deleterID == "" {
		deleterID = postID.Author()
	}

	errCtx := map[string]any{"postId": postID.String(), "deleterId": deleterID}
	logFields := []zap.Field{zap.String("postID", postID.String()), zap.String("deleterID", deleterID)}

	if !postID.Valid() {
		return toDatabaseError(s.logger, types.ErrorKindDeleteFailed, "delete post",
			fmt.Errorf("%q: %w", postID, types.ErrInvalidPostID), errCtx, logFields...)
	}

	var (
		effect types.RelationshipEffect
		found  bool
	)
	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		id := postID.String()
		found = false

		details, err := getOptional(ctx, tx, s.tables.Details, id)
		if err != nil {
			return err
		}
		rel, err := getOptional(ctx, tx, s.tables.Relationships, id)
		if err != nil {
			return err
		}
		if details == nil && rel == nil {
			return nil
		}
		found = true

		if rel == nil {
			rel = &types.PostRelationships{ID: postID}
		}

		effect = types.RelationshipDelta(rel, -1)
		if err := s.applyEffect(ctx, tx, effect); err != nil {
			return err
		}

		if _, err := s.tables.Details.Delete(ctx, tx, id); err != nil {
			return err
		}
		if _, err := s.tables.Counts.Delete(ctx, tx, id); err != nil {
			return err
		}
		if _, err := s.tables.Relationships.Delete(ctx, tx, id); err != nil {
			return err
		}
		if _, err := s.tables.Tags.Delete(ctx, tx, id); err != nil {
			return err
		}

		return adjustUserCounts(ctx, tx, s.tables.UserCounts, deleterID, effect.User)
	})
	if err != nil {
		return toDatabaseError(s.logger, types.ErrorKindDeleteFailed, "delete post", err, errCtx, logFields...)
	}

	if !found {
		s.logger.Debug("Post not cached, nothing to delete", logFields...)
		return nil
	}

	event := events.NewChangeEvent(events.KindPostDeleted, postID.String(), deleterID)
	s.observer.committed(ctx, withAffected(event, effect), affectedPosts(postID, effect)...)

	s.logger.Debug("Deleted post", logFields...)

	return nil
}

// Get returns one post projected for the viewer.
func (s *PostService) Get(ctx context.Context, postID types.PostID, viewerID string) (*types.PostView, error) {
	views, err := s.GetMany(ctx, []types.PostID{postID}, viewerID)
	if err != nil {
		return nil, err
	}

	if len(views) == 0 {
		return nil, types.NewDatabaseError(types.ErrorKindQueryFailed, "failed to get post",
			fmt.Errorf("post %s: %w", postID, types.ErrRowNotFound), map[string]any{"postId": postID.String()})
	}

	return views[0], nil
}

// GetMany returns the cached posts among ids in request order, projected for the viewer.
// IDs that are not cached are left out.
func (s *PostService) GetMany(ctx context.Context, ids []types.PostID, viewerID string) ([]*types.PostView, error) {
	ids = lo.Uniq(ids)
	found := make(map[types.PostID]*types.PostView, len(ids))

	var missing []string
	for _, id := range ids {
		if view, ok := s.observer.views.Get(ctx, id); ok {
			found[id] = view
			continue
		}
		missing = append(missing, id.String())
	}

	if len(missing) > 0 {
		epoch := s.observer.views.Epoch()

		loaded, err := s.load(ctx, missing)
		if err != nil {
			s.logger.Error("Failed to load posts", zap.Int("count", len(missing)), zap.Error(err))
			return nil, types.NewDatabaseError(types.ErrorKindQueryFailed, "failed to get posts", err,
				map[string]any{"count": len(missing)})
		}

		for _, view := range loaded {
			found[view.Details.ID] = view
			s.observer.views.Set(ctx, view, epoch)
		}
	}

	result := make([]*types.PostView, 0, len(ids))
	for _, id := range ids {
		if view, ok := found[id]; ok {
			result = append(result, view.ForViewer(viewerID))
		}
	}

	return result, nil
}

// ListReplies returns the cached replies to a post ordered by ID.
func (s *PostService) ListReplies(ctx context.Context, parentID types.PostID, viewerID string) ([]*types.PostView, error) {
	return s.listByTarget(ctx, parentID, viewerID, "list replies", s.tables.Relationships.ReplyIDs)
}

// ListReposts returns the cached reposts of a post ordered by ID.
func (s *PostService) ListReposts(ctx context.Context, originalID types.PostID, viewerID string) ([]*types.PostView, error) {
	return s.listByTarget(ctx, originalID, viewerID, "list reposts", s.tables.Relationships.RepostIDs)
}

func (s *PostService) listByTarget(
	ctx context.Context, target types.PostID, viewerID, op string,
	lookup func(ctx context.Context, idb bun.IDB, uri string) ([]string, error),
) ([]*types.PostView, error) {
	errCtx := map[string]any{"postId": target.String()}

	if !target.Valid() {
		return nil, toDatabaseError(s.logger, types.ErrorKindQueryFailed, op,
			fmt.Errorf("%q: %w", target, types.ErrInvalidPostID), errCtx)
	}

	ids, err := dbretry.Operation(ctx, func(ctx context.Context) ([]string, error) {
		return lookup(ctx, s.db, target.URI())
	})
	if err != nil {
		return nil, toDatabaseError(s.logger, types.ErrorKindQueryFailed, op, err, errCtx,
			zap.String("postID", target.String()))
	}

	return s.GetMany(ctx, lo.Map(ids, func(id string, _ int) types.PostID {
		return types.PostID(id)
	}), viewerID)
}

// load reads the rows of the given posts in batches. Each batch is read in one
// transaction so a post is never assembled from rows of different commits.
func (s *PostService) load(ctx context.Context, ids []string) ([]*types.PostView, error) {
	p := pool.NewWithResults[[]*types.PostView]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(readConcurrency)

	for _, batch := range lo.Chunk(ids, readBatchSize) {
		p.Go(func(ctx context.Context) ([]*types.PostView, error) {
			return s.loadBatch(ctx, batch)
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	return lo.Flatten(results), nil
}

func (s *PostService) loadBatch(ctx context.Context, ids []string) ([]*types.PostView, error) {
	var views []*types.PostView

	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		details, err := s.tables.Details.FindByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(details) == 0 {
			views = nil
			return nil
		}

		found := lo.Map(details, func(d *types.PostDetails, _ int) string {
			return d.ID.String()
		})

		counts, err := s.tables.Counts.FindByIDs(ctx, tx, found)
		if err != nil {
			return err
		}
		relationships, err := s.tables.Relationships.FindByIDs(ctx, tx, found)
		if err != nil {
			return err
		}
		tags, err := s.tables.Tags.FindByIDs(ctx, tx, found)
		if err != nil {
			return err
		}

		countsByID := lo.KeyBy(counts, func(c *types.PostCounts) types.PostID { return c.ID })
		relByID := lo.KeyBy(relationships, func(r *types.PostRelationships) types.PostID { return r.ID })
		tagsByID := lo.KeyBy(tags, func(t *types.PostTags) types.PostID { return t.ID })

		views = lo.Map(details, func(d *types.PostDetails, _ int) *types.PostView {
			view := &types.PostView{
				Details:       d,
				Counts:        countsByID[d.ID],
				Relationships: relByID[d.ID],
				Tags:          tagsByID[d.ID],
			}
			if view.Counts == nil {
				view.Counts = types.NewPostCounts(d.ID)
			}
			if view.Relationships == nil {
				view.Relationships = &types.PostRelationships{ID: d.ID, Mentioned: []string{}}
			}
			if view.Tags == nil {
				view.Tags = types.NewPostTags(d.ID)
			}
			return view
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return views, nil
}

// applyEffect updates the reply and repost counters of the targets of a post.
func (s *PostService) applyEffect(ctx context.Context, tx bun.Tx, effect types.RelationshipEffect) error {
	if effect.Parent != nil {
		ok, err := adjustPostCounts(ctx, tx, s.tables.Counts, *effect.Parent, func(c *types.PostCounts) {
			c.AddReplies(effect.ReplyDelta)
		})
		if err != nil {
			return fmt.Errorf("failed to update parent %s: %w", *effect.Parent, err)
		}
		if !ok {
			s.logger.Debug("Parent post not cached, skipping reply count",
				zap.String("parentID", effect.Parent.String()))
		}
	}

	if effect.Original != nil {
		ok, err := adjustPostCounts(ctx, tx, s.tables.Counts, *effect.Original, func(c *types.PostCounts) {
			c.AddReposts(effect.RepostDelta)
		})
		if err != nil {
			return fmt.Errorf("failed to update original %s: %w", *effect.Original, err)
		}
		if !ok {
			s.logger.Debug("Original post not cached, skipping repost count",
				zap.String("originalID", effect.Original.String()))
		}
	}

	return nil
}

// newPostView validates the params and builds the rows of a new post.
func newPostView(params CreatePostParams, now time.Time) (*types.PostView, error) {
	if !params.PostID.Valid() {
		return nil, fmt.Errorf("%q: %w", params.PostID, types.ErrInvalidPostID)
	}

	if params.AuthorID != "" && params.AuthorID != params.PostID.Author() {
		return nil, fmt.Errorf("author %q does not own %q: %w", params.AuthorID, params.PostID, types.ErrInvalidPostID)
	}

	kind := params.Kind
	if kind == "" {
		kind = types.PostKindShort
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%q: %w", kind, types.ErrInvalidKind)
	}

	mentioned := params.Mentioned
	if mentioned == nil {
		mentioned = []string{}
	}

	return &types.PostView{
		Details: &types.PostDetails{
			ID:          params.PostID,
			Content:     params.Content,
			IndexedAt:   now.UnixMilli(),
			Kind:        kind,
			URI:         params.PostID.URI(),
			Attachments: params.Attachments,
		},
		Relationships: &types.PostRelationships{
			ID:        params.PostID,
			Replied:   canonicalURI(params.ParentURI),
			Reposted:  canonicalURI(params.EmbedURI),
			Mentioned: mentioned,
		},
	}, nil
}

// canonicalURI returns nil for an empty URI and the canonical form of a resolvable one.
// Unresolvable URIs are kept verbatim.
func canonicalURI(uri string) *string {
	if uri == "" {
		return nil
	}
	if id, ok := types.ResolvePostURI(uri); ok {
		uri = id.URI()
	}
	return &uri
}

// affectedPosts lists the post itself and every target whose counters the change touched.
func affectedPosts(id types.PostID, effect types.RelationshipEffect) []types.PostID {
	posts := []types.PostID{id}
	if effect.Parent != nil {
		posts = append(posts, *effect.Parent)
	}
	if effect.Original != nil {
		posts = append(posts, *effect.Original)
	}
	return posts
}

func withAffected(event *events.ChangeEvent, effect types.RelationshipEffect) *events.ChangeEvent {
	if effect.Parent != nil {
		event.Affected = append(event.Affected, effect.Parent.String())
	}
	if effect.Original != nil {
		event.Affected = append(event.Affected, effect.Original.String())
	}
	return event
}
