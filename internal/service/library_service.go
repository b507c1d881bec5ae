package service

import (
	"context"

	"ghostwriter-server/internal/models"
	"ghostwriter-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoryWithContents — история вместе с ее эпизодами в порядке повествования.
type StoryWithContents struct {
	Story    models.Story          `json:"story"`
	Contents []models.StoryContent `json:"contents"`
}

// LibraryService обслуживает библиотеку историй: списки, чтение, видимость,
// удаление. Чужие истории доступны на чтение только при is_public.
type LibraryService struct {
	storyRepo   repository.StoryRepository
	contentRepo repository.StoryContentRepository
	logger      *zap.Logger
}

func NewLibraryService(storyRepo repository.StoryRepository, contentRepo repository.StoryContentRepository, logger *zap.Logger) *LibraryService {
	return &LibraryService{
		storyRepo:   storyRepo,
		contentRepo: contentRepo,
		logger:      logger.Named("LibraryService"),
	}
}

// ListStories возвращает истории пользователя, новые первыми.
func (s *LibraryService) ListStories(ctx context.Context, userID uuid.UUID) ([]models.Story, error) {
	return s.storyRepo.ListByUser(ctx, userID)
}

// GetStory возвращает историю с эпизодами. Непубличная история доступна
// только владельцу.
func (s *LibraryService) GetStory(ctx context.Context, storyID, requesterID uuid.UUID) (*StoryWithContents, error) {
	story, err := s.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if !story.IsPublic && story.UserID != requesterID {
		return nil, models.ErrForbidden
	}
	contents, err := s.contentRepo.ListByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	return &StoryWithContents{Story: *story, Contents: contents}, nil
}

// SetVisibility переключает публичность истории владельца.
func (s *LibraryService) SetVisibility(ctx context.Context, storyID, userID uuid.UUID, isPublic bool) error {
	return s.storyRepo.SetPublic(ctx, storyID, userID, isPublic)
}

// DeleteStory удаляет историю владельца вместе со всеми эпизодами.
func (s *LibraryService) DeleteStory(ctx context.Context, storyID, userID uuid.UUID) error {
	err := s.storyRepo.Delete(ctx, storyID, userID)
	if err == nil {
		s.logger.Info("Story deleted", zap.String("storyID", storyID.String()), zap.String("userID", userID.String()))
	}
	return err
}
