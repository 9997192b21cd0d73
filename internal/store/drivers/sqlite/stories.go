package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/store"
)

type storiesRepo struct {
	db dbtx
}

// storyColumns selects the story row plus the likes count derived from the
// story_likes table. Likes are never stored on the story row itself.
const storyColumns = `
	s.id, s.author_username, s.title, s.body, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM story_likes l WHERE l.story_id = s.id) AS likes_count`

func scanStory(row interface{ Scan(...any) error }) (domain.Story, error) {
	var s domain.Story
	err := row.Scan(
		&s.ID,
		&s.AuthorUsername,
		&s.Title,
		&s.Body,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.LikesCount,
	)
	return s, err
}

func (r *storiesRepo) CreateStory(ctx context.Context, s domain.Story) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stories (id, author_username, title, body, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.AuthorUsername, s.Title, s.Body, now, now)
	return err
}

func (r *storiesRepo) GetStoryByID(ctx context.Context, id string) (domain.Story, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+storyColumns+` FROM stories s WHERE s.id = ?`, id)

	s, err := scanStory(row)
	if err != nil {
		return domain.Story{}, mapNotFound(err)
	}
	return s, nil
}

func (r *storiesRepo) ListStories(ctx context.Context, offset, limit int) ([]domain.Story, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storyColumns+` FROM stories s
		 ORDER BY s.created_at DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	stories, err := collectStories(rows)
	return stories, total, err
}

func (r *storiesRepo) SearchStories(ctx context.Context, query string, offset, limit int) ([]domain.Story, int, error) {
	pattern := "%" + query + "%"

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stories WHERE title LIKE ?1 OR body LIKE ?1`,
		pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storyColumns+` FROM stories s
		 WHERE s.title LIKE ?1 OR s.body LIKE ?1
		 ORDER BY s.created_at DESC
		 LIMIT ?2 OFFSET ?3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	stories, err := collectStories(rows)
	return stories, total, err
}

func (r *storiesRepo) ListStoriesByAuthor(ctx context.Context, author string, offset, limit int) ([]domain.Story, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stories WHERE author_username = ?`,
		author).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storyColumns+` FROM stories s
		 WHERE s.author_username = ?
		 ORDER BY s.created_at DESC
		 LIMIT ? OFFSET ?`, author, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	stories, err := collectStories(rows)
	return stories, total, err
}

func (r *storiesRepo) ListStoriesLikedBy(ctx context.Context, username string, offset, limit int) ([]domain.Story, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM story_likes WHERE username = ?`,
		username).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storyColumns+` FROM stories s
		 JOIN story_likes sl ON sl.story_id = s.id
		 WHERE sl.username = ?
		 ORDER BY sl.created_at DESC
		 LIMIT ? OFFSET ?`, username, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	stories, err := collectStories(rows)
	return stories, total, err
}

func (r *storiesRepo) UpdateStory(ctx context.Context, id, title, body string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stories SET title = ?, body = ?, updated_at = ? WHERE id = ?`,
		title, body, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *storiesRepo) DeleteStory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *storiesRepo) HasLike(ctx context.Context, storyID, username string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM story_likes WHERE story_id = ? AND username = ?`,
		storyID, username).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *storiesRepo) AddLike(ctx context.Context, storyID, username string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO story_likes (story_id, username, created_at) VALUES (?, ?, ?)`,
		storyID, username, time.Now().UTC())
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *storiesRepo) RemoveLike(ctx context.Context, storyID, username string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM story_likes WHERE story_id = ? AND username = ?`,
		storyID, username)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *storiesRepo) CountLikes(ctx context.Context, storyID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM story_likes WHERE story_id = ?`, storyID).Scan(&count)
	return count, err
}

func collectStories(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]domain.Story, error) {
	var stories []domain.Story
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}
