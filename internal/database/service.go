package database

import (
	"github.com/pubky/franky/internal/database/service"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	post     *service.PostService
	tag      *service.TagService
	userTag  *service.UserTagService
	user     *service.UserService
	snapshot *service.SnapshotService
}

// NewService creates a new service instance with all services.
func NewService(db *bun.DB, repository *Repository, observers service.Observers, logger *zap.Logger) *Service {
	tables := repository.Tables()

	return &Service{
		post:     service.NewPost(db, tables, observers, logger),
		tag:      service.NewTag(db, tables, observers, logger),
		userTag:  service.NewUserTag(db, tables, observers, logger),
		user:     service.NewUser(db, tables, logger),
		snapshot: service.NewSnapshot(db, tables, logger),
	}
}

// Post returns the post service.
func (s *Service) Post() *service.PostService {
	return s.post
}

// Tag returns the post tag service.
func (s *Service) Tag() *service.TagService {
	return s.tag
}

// UserTag returns the user tag service.
func (s *Service) UserTag() *service.UserTagService {
	return s.userTag
}

// User returns the user service.
func (s *Service) User() *service.UserService {
	return s.user
}

// Snapshot returns the snapshot service.
func (s *Service) Snapshot() *service.SnapshotService {
	return s.snapshot
}
