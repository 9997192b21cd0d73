package sqlite_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/store"
	"github.com/aussiebroadwan/yarnhub/internal/store/drivers/sqlite"
	"github.com/aussiebroadwan/yarnhub/pkg/idx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())

	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s store.Store, username string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	require.NoError(t, s.Credentials().CreateCredential(context.Background(), username))
	return u
}

func TestUsersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	seedUser(t, s, "alice")

	got, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, domain.RoleUser, got.Role)
	require.True(t, got.IsActive)
	require.False(t, got.IsEmailVerified)

	byEmail, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, got.ID, byEmail.ID)

	byEither, err := s.Users().GetUserByUsernameOrEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, got.ID, byEither.ID)

	_, err = s.Users().GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")

	dup := domain.User{
		ID:           idx.New().String(),
		Username:     "alice",
		Email:        "other@example.com",
		PasswordHash: "x",
		Role:         domain.RoleUser,
	}
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

	dup = domain.User{
		ID:           idx.New().String(),
		Username:     "alice2",
		Email:        "alice@example.com",
		PasswordHash: "x",
		Role:         domain.RoleUser,
	}
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
}

func TestUserStateMutations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")

	require.NoError(t, s.Users().SetEmailVerified(ctx, "alice", true))
	require.NoError(t, s.Users().SetActive(ctx, "alice", false))
	require.NoError(t, s.Users().SetRole(ctx, "alice", domain.RoleAdmin))

	got, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, got.IsEmailVerified)
	require.False(t, got.IsActive)
	require.Equal(t, domain.RoleAdmin, got.Role)

	require.ErrorIs(t, s.Users().SetActive(ctx, "nobody", true), store.ErrNotFound)
}

func TestListByActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")
	seedUser(t, s, "bob")
	seedUser(t, s, "carol")
	require.NoError(t, s.Users().SetActive(ctx, "bob", false))

	active, err := s.Users().ListByActive(ctx, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, active, 2)

	inactive, err := s.Users().ListByActive(ctx, false, 0, 10)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	require.Equal(t, "bob", inactive[0].Username)
}

func TestConsumeEmailVerificationCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "alice")
	require.NoError(t, s.Credentials().SetEmailVerificationCode(ctx, "alice", "123456", now.Add(10*time.Minute)))

	t.Run("wrong code does not consume", func(t *testing.T) {
		ok, err := s.Credentials().ConsumeEmailVerificationCode(ctx, "alice", "999999", now)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("correct code consumes exactly once", func(t *testing.T) {
		ok, err := s.Credentials().ConsumeEmailVerificationCode(ctx, "alice", "123456", now)
		require.NoError(t, err)
		require.True(t, ok)

		// Second attempt with the same code must fail.
		ok, err = s.Credentials().ConsumeEmailVerificationCode(ctx, "alice", "123456", now)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestConsumeExpiredCodeFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "alice")
	require.NoError(t, s.Credentials().SetPasswordResetCode(ctx, "alice", "654321", now.Add(10*time.Minute)))

	// Judged eleven minutes later, the code has expired.
	ok, err := s.Credentials().ConsumePasswordResetCode(ctx, "alice", "654321", now.Add(11*time.Minute))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOverwritingCodeInvalidatesPrevious(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "alice")
	require.NoError(t, s.Credentials().SetEmailVerificationCode(ctx, "alice", "111111", now.Add(10*time.Minute)))
	require.NoError(t, s.Credentials().SetEmailVerificationCode(ctx, "alice", "222222", now.Add(10*time.Minute)))

	ok, err := s.Credentials().ConsumeEmailVerificationCode(ctx, "alice", "111111", now)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.Credentials().ConsumeEmailVerificationCode(ctx, "alice", "222222", now)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPurgeExpiredCodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "alice")
	seedUser(t, s, "bob")
	require.NoError(t, s.Credentials().SetEmailVerificationCode(ctx, "alice", "111111", now.Add(-time.Minute)))
	require.NoError(t, s.Credentials().SetPasswordResetCode(ctx, "bob", "222222", now.Add(10*time.Minute)))

	purged, err := s.Credentials().PurgeExpiredCodes(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)

	cred, err := s.Credentials().GetCredential(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, cred.EmailVerificationCode)

	cred, err = s.Credentials().GetCredential(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, cred.PasswordResetCode)
}

func TestStoriesCRUDAndLikes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")
	seedUser(t, s, "bob")

	story := domain.Story{
		ID:             idx.New().String(),
		AuthorUsername: "alice",
		Title:          "The Long Paddock",
		Body:           "Once upon a time out past Dubbo...",
	}
	require.NoError(t, s.Stories().CreateStory(ctx, story))

	got, err := s.Stories().GetStoryByID(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, "The Long Paddock", got.Title)
	require.Zero(t, got.LikesCount)

	// Likes are derived from the likes table, not a stored counter.
	require.NoError(t, s.Stories().AddLike(ctx, story.ID, "bob"))
	require.ErrorIs(t, s.Stories().AddLike(ctx, story.ID, "bob"), store.ErrAlreadyExists)

	got, err = s.Stories().GetStoryByID(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.LikesCount)

	liked, err := s.Stories().HasLike(ctx, story.ID, "bob")
	require.NoError(t, err)
	require.True(t, liked)

	require.NoError(t, s.Stories().RemoveLike(ctx, story.ID, "bob"))
	require.ErrorIs(t, s.Stories().RemoveLike(ctx, story.ID, "bob"), store.ErrNotFound)

	count, err := s.Stories().CountLikes(ctx, story.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, s.Stories().UpdateStory(ctx, story.ID, "New Title", "New body."))
	got, err = s.Stories().GetStoryByID(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, "New Title", got.Title)

	require.NoError(t, s.Stories().DeleteStory(ctx, story.ID))
	_, err = s.Stories().GetStoryByID(ctx, story.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSearchStories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")

	titles := []string{"The Drover's Wife", "The Loaded Dog", "On Our Selection"}
	for _, title := range titles {
		require.NoError(t, s.Stories().CreateStory(ctx, domain.Story{
			ID:             idx.New().String(),
			AuthorUsername: "alice",
			Title:          title,
			Body:           "body",
		}))
	}

	results, total, err := s.Stories().SearchStories(ctx, "Dog", 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, results, 1)
	require.Equal(t, "The Loaded Dog", results[0].Title)

	all, total, err := s.Stories().ListStories(ctx, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, all, 2)

	byAuthor, total, err := s.Stories().ListStoriesByAuthor(ctx, "alice", 0, 10)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, byAuthor, 3)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetRole(ctx, "alice", domain.RoleAdmin); err != nil {
			return err
		}
		return context.Canceled // force a rollback
	})
	require.Error(t, err)

	got, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, got.Role)
}

func TestDeletingUserCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// No DeleteUser in the repo interface; exercise the FK cascade through
	// story deletion instead.
	seedUser(t, s, "alice")
	seedUser(t, s, "bob")

	story := domain.Story{
		ID:             idx.New().String(),
		AuthorUsername: "alice",
		Title:          "t",
		Body:           "b",
	}
	require.NoError(t, s.Stories().CreateStory(ctx, story))
	require.NoError(t, s.Stories().AddLike(ctx, story.ID, "bob"))

	require.NoError(t, s.Stories().DeleteStory(ctx, story.ID))

	count, err := s.Stories().CountLikes(ctx, story.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestUpdateBio(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")

	require.NoError(t, s.Users().UpdateBio(ctx, "alice", "Spinning yarns since 2021."))

	got, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Spinning yarns since 2021.", got.Bio)

	require.ErrorIs(t, s.Users().UpdateBio(ctx, "nobody", "x"), store.ErrNotFound)
}

func TestListStoriesLikedBy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")
	seedUser(t, s, "bob")

	var ids []string
	for _, title := range []string{"First", "Second", "Third"} {
		st := domain.Story{
			ID:             idx.New().String(),
			AuthorUsername: "alice",
			Title:          title,
			Body:           "body",
		}
		require.NoError(t, s.Stories().CreateStory(ctx, st))
		ids = append(ids, st.ID)
	}

	// Like in a different order than creation; the listing follows like
	// time, newest first.
	for _, id := range []string{ids[1], ids[0], ids[2]} {
		require.NoError(t, s.Stories().AddLike(ctx, id, "bob"))
		time.Sleep(5 * time.Millisecond)
	}

	liked, total, err := s.Stories().ListStoriesLikedBy(ctx, "bob", 0, 10)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, liked, 3)
	require.Equal(t, "Third", liked[0].Title)
	require.Equal(t, "First", liked[1].Title)
	require.Equal(t, "Second", liked[2].Title)

	page, total, err := s.Stories().ListStoriesLikedBy(ctx, "bob", 1, 1)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, page, 1)
	require.Equal(t, "First", page[0].Title)

	none, total, err := s.Stories().ListStoriesLikedBy(ctx, "alice", 0, 10)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, none)
}

func TestConcurrentCodeConsumptionSpendsOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "alice")
	require.NoError(t, s.Credentials().SetEmailVerificationCode(ctx, "alice", "123456", now.Add(10*time.Minute)))

	const attempts = 16
	results := make(chan bool, attempts)
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Credentials().ConsumeEmailVerificationCode(ctx, "alice", "123456", now)
			results <- ok
			errs <- err
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	spent := 0
	for ok := range results {
		if ok {
			spent++
		}
	}
	require.Equal(t, 1, spent)
}

func TestConcurrentLikesMatchJoinRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")
	story := domain.Story{
		ID:             idx.New().String(),
		AuthorUsername: "alice",
		Title:          "t",
		Body:           "b",
	}
	require.NoError(t, s.Stories().CreateStory(ctx, story))

	const fans = 12
	usernames := make([]string, fans)
	for i := range usernames {
		usernames[i] = fmt.Sprintf("fan%02d", i)
		seedUser(t, s, usernames[i])
	}

	var wg sync.WaitGroup
	errs := make(chan error, fans*2)
	for _, name := range usernames {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Stories().AddLike(ctx, story.ID, name)
		}()
	}
	wg.Wait()

	count, err := s.Stories().CountLikes(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, fans, count)

	for _, name := range usernames {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Stories().RemoveLike(ctx, story.ID, name)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err = s.Stories().CountLikes(ctx, story.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}
