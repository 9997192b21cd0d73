package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/store"
	"github.com/aussiebroadwan/yarnhub/pkg/idx"
)

const (
	maxStoryTitleLength = 200
	maxStoryBodyLength  = 100_000

	// DefaultPageSize bounds list queries when the client doesn't say.
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// StoryService handles the stories themselves plus likes. Edits and deletes
// are author-only; likes toggle atomically.
type StoryService struct {
	Store store.Store
}

func (s *StoryService) Create(ctx context.Context, author domain.User, title, body string) (domain.Story, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if err := validateStory(title, body); err != nil {
		return domain.Story{}, err
	}

	story := domain.Story{
		ID:             idx.New().String(),
		AuthorUsername: author.Username,
		Title:          title,
		Body:           body,
	}
	if err := s.Store.Stories().CreateStory(ctx, story); err != nil {
		return domain.Story{}, err
	}

	return s.Store.Stories().GetStoryByID(ctx, story.ID)
}

func (s *StoryService) Get(ctx context.Context, id string) (domain.Story, error) {
	return s.Store.Stories().GetStoryByID(ctx, id)
}

func (s *StoryService) List(ctx context.Context, offset, limit int) (domain.StoryPage, error) {
	offset, limit = clampPage(offset, limit)
	stories, total, err := s.Store.Stories().ListStories(ctx, offset, limit)
	if err != nil {
		return domain.StoryPage{}, err
	}
	return domain.StoryPage{Stories: stories, Total: total, Offset: offset, Limit: limit}, nil
}

func (s *StoryService) Search(ctx context.Context, query string, offset, limit int) (domain.StoryPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, offset, limit)
	}

	offset, limit = clampPage(offset, limit)
	stories, total, err := s.Store.Stories().SearchStories(ctx, query, offset, limit)
	if err != nil {
		return domain.StoryPage{}, err
	}
	return domain.StoryPage{Stories: stories, Total: total, Offset: offset, Limit: limit}, nil
}

func (s *StoryService) ListByAuthor(ctx context.Context, author string, offset, limit int) (domain.StoryPage, error) {
	offset, limit = clampPage(offset, limit)
	stories, total, err := s.Store.Stories().ListStoriesByAuthor(ctx, author, offset, limit)
	if err != nil {
		return domain.StoryPage{}, err
	}
	return domain.StoryPage{Stories: stories, Total: total, Offset: offset, Limit: limit}, nil
}

// ListLikedBy pages through the stories a user has liked, most recent
// like first.
func (s *StoryService) ListLikedBy(ctx context.Context, username string, offset, limit int) (domain.StoryPage, error) {
	offset, limit = clampPage(offset, limit)
	stories, total, err := s.Store.Stories().ListStoriesLikedBy(ctx, username, offset, limit)
	if err != nil {
		return domain.StoryPage{}, err
	}
	return domain.StoryPage{Stories: stories, Total: total, Offset: offset, Limit: limit}, nil
}

// Update replaces a story's title and body. Only the author may edit.
func (s *StoryService) Update(ctx context.Context, actor domain.User, id, title, body string) (domain.Story, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if err := validateStory(title, body); err != nil {
		return domain.Story{}, err
	}

	story, err := s.Store.Stories().GetStoryByID(ctx, id)
	if err != nil {
		return domain.Story{}, err
	}
	if story.AuthorUsername != actor.Username {
		return domain.Story{}, ErrNotStoryAuthor
	}

	if err := s.Store.Stories().UpdateStory(ctx, id, title, body); err != nil {
		return domain.Story{}, err
	}
	return s.Store.Stories().GetStoryByID(ctx, id)
}

// Delete removes a story. Only the author may delete.
func (s *StoryService) Delete(ctx context.Context, actor domain.User, id string) error {
	story, err := s.Store.Stories().GetStoryByID(ctx, id)
	if err != nil {
		return err
	}
	if story.AuthorUsername != actor.Username {
		return ErrNotStoryAuthor
	}
	return s.Store.Stories().DeleteStory(ctx, id)
}

// ToggleLike flips the actor's like on a story inside one transaction and
// returns the new state plus the derived count.
func (s *StoryService) ToggleLike(ctx context.Context, actor domain.User, storyID string) (liked bool, likes int, err error) {
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Stories().GetStoryByID(ctx, storyID); err != nil {
			return err
		}

		has, err := tx.Stories().HasLike(ctx, storyID, actor.Username)
		if err != nil {
			return err
		}

		if has {
			if err := tx.Stories().RemoveLike(ctx, storyID, actor.Username); err != nil {
				return err
			}
			liked = false
		} else {
			if err := tx.Stories().AddLike(ctx, storyID, actor.Username); err != nil {
				return err
			}
			liked = true
		}

		likes, err = tx.Stories().CountLikes(ctx, storyID)
		return err
	})
	return liked, likes, err
}

func validateStory(title, body string) error {
	if title == "" {
		return fmt.Errorf("%w: story title must not be empty", ErrValidation)
	}
	if len(title) > maxStoryTitleLength {
		return fmt.Errorf("%w: story title exceeds %d characters", ErrValidation, maxStoryTitleLength)
	}
	if body == "" {
		return fmt.Errorf("%w: story body must not be empty", ErrValidation)
	}
	if len(body) > maxStoryBodyLength {
		return fmt.Errorf("%w: story body exceeds %d characters", ErrValidation, maxStoryBodyLength)
	}
	return nil
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return offset, limit
}
