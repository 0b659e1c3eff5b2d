package models

import (
	"context"
	"fmt"

	"github.com/pubky/franky/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// RelationshipModel handles database operations for post relationships.
type RelationshipModel struct {
	*TableModel[types.PostRelationships]
}

// NewRelationship creates a new relationship model.
func NewRelationship(logger *zap.Logger) *RelationshipModel {
	return &RelationshipModel{
		TableModel: NewTable[types.PostRelationships]("post_relationships", logger),
	}
}

// ReplyIDs returns the IDs of cached posts that reply to the given post URI.
func (r *RelationshipModel) ReplyIDs(ctx context.Context, idb bun.IDB, parentURI string) ([]string, error) {
	return r.idsWhere(ctx, idb, "replied", parentURI)
}

// RepostIDs returns the IDs of cached posts that repost the given post URI.
func (r *RelationshipModel) RepostIDs(ctx context.Context, idb bun.IDB, originalURI string) ([]string, error) {
	return r.idsWhere(ctx, idb, "reposted", originalURI)
}

func (r *RelationshipModel) idsWhere(ctx context.Context, idb bun.IDB, column, uri string) ([]string, error) {
	var ids []string
	err := idb.NewSelect().
		Model((*types.PostRelationships)(nil)).
		Column("id").
		Where("? = ?", bun.Ident(column), uri).
		Order("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find posts by %s: %w", column, err)
	}

	return ids, nil
}
