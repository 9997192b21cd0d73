package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable, and to actively stop people from accidentally doing
// transactions within transactions.
type Store interface {
	Users() Users
	Credentials() Credentials
	Stories() Stories

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., consuming
	// a one-time code). The caller MUST call Commit() or Rollback() on the
	// returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByUsername is used on every authenticated request.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail is used during registration conflict checks and the
	// forgot-password flow.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByUsernameOrEmail resolves a login identifier that may be
	// either field.
	GetUserByUsernameOrEmail(ctx context.Context, identifier string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists if the username or email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// SetEmailVerified flips is_email_verified and bumps updated_at.
	SetEmailVerified(ctx context.Context, username string, verified bool) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, username string, newHash string) error

	// UpdateBio replaces the profile bio and bumps updated_at.
	UpdateBio(ctx context.Context, username string, bio string) error

	// SetActive blocks or unblocks a user.
	SetActive(ctx context.Context, username string, active bool) error

	// SetRole changes the moderation tier of a user.
	SetRole(ctx context.Context, username string, role domain.Role) error

	// ListByActive returns users filtered by active state, newest first.
	ListByActive(ctx context.Context, active bool, offset, limit int) ([]domain.User, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Credentials interface {
	// CreateCredential inserts the per-user code row. Called at registration.
	CreateCredential(ctx context.Context, username string) error

	// SetEmailVerificationCode overwrites the email verification code and
	// its expiry for a user.
	SetEmailVerificationCode(ctx context.Context, username, code string, expiresAt time.Time) error

	// SetPasswordResetCode overwrites the password reset code and its expiry.
	SetPasswordResetCode(ctx context.Context, username, code string, expiresAt time.Time) error

	// GetCredential returns the code row for a user.
	GetCredential(ctx context.Context, username string) (domain.Credential, error)

	// ConsumeEmailVerificationCode atomically clears the code if it matches
	// and has not expired. Returns false if no row matched.
	ConsumeEmailVerificationCode(ctx context.Context, username, code string, now time.Time) (bool, error)

	// ConsumePasswordResetCode atomically clears the code if it matches and
	// has not expired. Returns false if no row matched.
	ConsumePasswordResetCode(ctx context.Context, username, code string, now time.Time) (bool, error)

	// PurgeExpiredCodes nulls out any codes past their expiry (housekeeping).
	PurgeExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

type Stories interface {
	// CreateStory inserts a new story (id is ULID).
	CreateStory(ctx context.Context, s domain.Story) error

	// GetStoryByID returns a story with its derived likes count.
	GetStoryByID(ctx context.Context, id string) (domain.Story, error)

	// ListStories returns stories newest first with derived likes counts.
	ListStories(ctx context.Context, offset, limit int) ([]domain.Story, int, error)

	// SearchStories matches title or body against the query, newest first.
	SearchStories(ctx context.Context, query string, offset, limit int) ([]domain.Story, int, error)

	// ListStoriesByAuthor returns one author's stories, newest first.
	ListStoriesByAuthor(ctx context.Context, author string, offset, limit int) ([]domain.Story, int, error)

	// ListStoriesLikedBy returns the stories a user has liked, most recently
	// liked first.
	ListStoriesLikedBy(ctx context.Context, username string, offset, limit int) ([]domain.Story, int, error)

	// UpdateStory replaces title and body, bumps updated_at.
	UpdateStory(ctx context.Context, id, title, body string) error

	// DeleteStory removes a story. Likes cascade per schema.
	DeleteStory(ctx context.Context, id string) error

	// HasLike reports whether the user has liked the story.
	HasLike(ctx context.Context, storyID, username string) (bool, error)

	// AddLike records a like. Returns ErrAlreadyExists on double-like.
	AddLike(ctx context.Context, storyID, username string) error

	// RemoveLike deletes a like. Returns ErrNotFound if absent.
	RemoveLike(ctx context.Context, storyID, username string) error

	// CountLikes returns the number of likes on a story.
	CountLikes(ctx context.Context, storyID string) (int, error)
}
