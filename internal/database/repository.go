package database

import (
	"github.com/pubky/franky/internal/database/models"
	"github.com/pubky/franky/internal/database/service"
	"github.com/pubky/franky/internal/database/types"
	"go.uber.org/zap"
)

// Repository provides access to all table models.
type Repository struct {
	details       *models.TableModel[types.PostDetails]
	counts        *models.TableModel[types.PostCounts]
	relationships *models.RelationshipModel
	tags          *models.TableModel[types.PostTags]
	userCounts    *models.TableModel[types.UserCounts]
	userTags      *models.TableModel[types.UserTags]
}

// NewRepository creates a new repository with all table models.
func NewRepository(logger *zap.Logger) *Repository {
	return &Repository{
		details:       models.NewTable[types.PostDetails]("post_details", logger),
		counts:        models.NewTable[types.PostCounts]("post_counts", logger),
		relationships: models.NewRelationship(logger),
		tags:          models.NewTable[types.PostTags]("post_tags", logger),
		userCounts:    models.NewTable[types.UserCounts]("user_counts", logger),
		userTags:      models.NewTable[types.UserTags]("user_tags", logger),
	}
}

// Details returns the post details model.
func (r *Repository) Details() *models.TableModel[types.PostDetails] {
	return r.details
}

// Counts returns the post counts model.
func (r *Repository) Counts() *models.TableModel[types.PostCounts] {
	return r.counts
}

// Relationships returns the post relationships model.
func (r *Repository) Relationships() *models.RelationshipModel {
	return r.relationships
}

// Tags returns the post tags model.
func (r *Repository) Tags() *models.TableModel[types.PostTags] {
	return r.tags
}

// UserCounts returns the user counts model.
func (r *Repository) UserCounts() *models.TableModel[types.UserCounts] {
	return r.userCounts
}

// UserTags returns the user tags model.
func (r *Repository) UserTags() *models.TableModel[types.UserTags] {
	return r.userTags
}

// Tables returns the models as the table set the services write through.
func (r *Repository) Tables() service.Tables {
	return service.Tables{
		Details:       r.details,
		Counts:        r.counts,
		Relationships: r.relationships,
		Tags:          r.tags,
		UserCounts:    r.userCounts,
		UserTags:      r.userTags,
	}
}
