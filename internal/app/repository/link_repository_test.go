package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/sifan077/ShortURL/config"
	"github.com/sifan077/ShortURL/internal/app/model"
	"github.com/sifan077/ShortURL/internal/infra/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestRepository(t *testing.T) LinkRepository {
	t.Helper()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "links.db")
	db, _, err := database.Open(ctx, config.DatabaseConfig{URL: "sqlite:" + path}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.AutoMigrate(ctx, db, &model.ShortLink{}))
	return NewLinkRepository(db)
}

func newLink(code, user string, createdAt time.Time) *model.ShortLink {
	return &model.ShortLink{
		LongURL:   "https://example.com/" + code,
		ShortCode: code,
		CreatedAt: createdAt,
		UserID:    user,
	}
}

func TestLinkRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	expires := now.Add(time.Hour)

	link := newLink("abc123", "u1", now)
	link.ExpiresAt = &expires
	require.NoError(t, repo.Create(ctx, link))
	assert.NotZero(t, link.ID)

	got, err := repo.GetByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
	assert.Equal(t, "https://example.com/abc123", got.LongURL)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, now.Equal(got.CreatedAt))
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, expires.Equal(*got.ExpiresAt))
}

func TestLinkRepository_GetByCode_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetByCode(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestLinkRepository_GetByCode_CaseSensitive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newLink("AbC", "u1", time.Now().UTC())))

	_, err := repo.GetByCode(ctx, "abc")
	assert.ErrorIs(t, err, ErrLinkNotFound)

	exists, err := repo.ExistsByCode(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLinkRepository_Create_DuplicateCode(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newLink("dup", "u1", time.Now().UTC())))
	err := repo.Create(ctx, newLink("dup", "u2", time.Now().UTC()))
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestLinkRepository_Create_ConcurrentSameCode(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, newLink("race", fmt.Sprintf("u%d", i), time.Now().UTC()))
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateCode):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dup)
}

func TestLinkRepository_ExistsByCode(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newLink("here", "u1", time.Now().UTC())))

	exists, err := repo.ExistsByCode(ctx, "here")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByCode(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLinkRepository_ListByUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expired := base.Add(-time.Hour)

	first := newLink("t1", "alice", base)
	first.ExpiresAt = &expired
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, newLink("t2", "alice", base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newLink("t3", "alice", base.Add(2*time.Minute))))
	require.NoError(t, repo.Create(ctx, newLink("b1", "bob", base.Add(3*time.Minute))))

	links, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "t3", links[0].ShortCode)
	assert.Equal(t, "t2", links[1].ShortCode)
	assert.Equal(t, "t1", links[2].ShortCode, "expired links stay listed")
}

func TestLinkRepository_ListByUser_Empty(t *testing.T) {
	repo := newTestRepository(t)

	links, err := repo.ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)
}

func TestLinkRepository_DeleteByIDAndUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	link := newLink("mine", "bob", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, link))

	_, err := repo.DeleteByIDAndUser(ctx, link.ID, "alice")
	assert.ErrorIs(t, err, ErrLinkNotFound, "wrong owner")

	_, err = repo.DeleteByIDAndUser(ctx, link.ID+100, "bob")
	assert.ErrorIs(t, err, ErrLinkNotFound, "wrong id")

	_, err = repo.GetByCode(ctx, "mine")
	require.NoError(t, err)

	deleted, err := repo.DeleteByIDAndUser(ctx, link.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, link.ID, deleted.ID)
	assert.Equal(t, "mine", deleted.ShortCode)
	assert.Equal(t, "https://example.com/mine", deleted.LongURL)

	_, err = repo.GetByCode(ctx, "mine")
	assert.ErrorIs(t, err, ErrLinkNotFound)

	_, err = repo.DeleteByIDAndUser(ctx, link.ID, "bob")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"postgres unique", &pgconn.PgError{Code: "23505"}, true},
		{"postgres other", &pgconn.PgError{Code: "23502"}, false},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"sqlite not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
