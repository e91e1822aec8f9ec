package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/store"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleSnapshot() store.Snapshot {
	villa := &model.Villa{ID: "v1", Title: "Cliff House", Price: 250}
	return store.Snapshot{
		Auth: store.AuthState{
			User:            &model.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Role: model.RoleHost},
			IsAuthenticated: true,
			Cookies:         []store.Cookie{{Name: "token", Value: "abc"}},
		},
		Cart: store.CartState{
			Items:  []model.CartItem{{ID: "c1", Villa: model.Ref(villa), Guests: 2, Price: 500}},
			Status: store.CartSucceeded,
		},
	}
}

func TestRedisSessionRepo(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(t *testing.T, mr *miniredis.Miniredis, repo *RedisSessionRepo)
	}{
		{
			name: "save then load",
			run: func(t *testing.T, mr *miniredis.Miniredis, repo *RedisSessionRepo) {
				require.NoError(t, repo.Save(ctx, "s1", sampleSnapshot()))
				assert.True(t, mr.Exists("villa:session:s1"))
				assert.Equal(t, time.Hour, mr.TTL("villa:session:s1"))

				got, err := repo.Load(ctx, "s1")
				require.NoError(t, err)
				require.NotNil(t, got.Auth.User)
				assert.Equal(t, model.RoleHost, got.Auth.User.Role)
				assert.Equal(t, "abc", got.Auth.Cookies[0].Value)
				require.Len(t, got.Cart.Items, 1)
				assert.False(t, got.Cart.Items[0].Villa.Orphaned())
			},
		},
		{
			name: "missing key",
			run: func(t *testing.T, _ *miniredis.Miniredis, repo *RedisSessionRepo) {
				_, err := repo.Load(ctx, "nope")
				assert.ErrorIs(t, err, ErrSessionNotFound)
			},
		},
		{
			name: "expired key",
			run: func(t *testing.T, mr *miniredis.Miniredis, repo *RedisSessionRepo) {
				require.NoError(t, repo.Save(ctx, "s2", sampleSnapshot()))
				mr.FastForward(2 * time.Hour)
				_, err := repo.Load(ctx, "s2")
				assert.ErrorIs(t, err, ErrSessionNotFound)
			},
		},
		{
			name: "corrupt payload",
			run: func(t *testing.T, mr *miniredis.Miniredis, repo *RedisSessionRepo) {
				require.NoError(t, mr.Set("villa:session:bad", "{"))
				_, err := repo.Load(ctx, "bad")
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrSessionNotFound)
			},
		},
		{
			name: "delete",
			run: func(t *testing.T, mr *miniredis.Miniredis, repo *RedisSessionRepo) {
				require.NoError(t, repo.Save(ctx, "s3", sampleSnapshot()))
				require.NoError(t, repo.Delete(ctx, "s3"))
				assert.False(t, mr.Exists("villa:session:s3"))
				assert.NoError(t, repo.Delete(ctx, "s3"))
			},
		},
		{
			name: "empty id",
			run: func(t *testing.T, _ *miniredis.Miniredis, repo *RedisSessionRepo) {
				assert.ErrorIs(t, repo.Save(ctx, "", store.Snapshot{}), ErrInvalidSessionID)
				_, err := repo.Load(ctx, "")
				assert.ErrorIs(t, err, ErrInvalidSessionID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, client := setupTestRedis(t)
			tt.run(t, mr, NewRedisSessionRepo(client, time.Hour))
		})
	}
}

func TestMySQLSessionRepo_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLSessionRepo(db, time.Hour)

	payload, err := json.Marshal(sampleSnapshot())
	require.NoError(t, err)
	q := regexp.QuoteMeta("SELECT payload FROM browser_sessions WHERE id=? AND expires_at > ?")

	mock.ExpectQuery(q).WithArgs("s1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))
	got, err := repo.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Auth.User.Name)

	mock.ExpectQuery(q).WithArgs("gone", sqlmock.AnyArg()).WillReturnError(sql.ErrNoRows)
	_, err = repo.Load(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLSessionRepo_SaveDeleteExpire(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLSessionRepo(db, time.Hour)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS browser_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO browser_sessions (id, payload, expires_at, updated_at)")).
		WithArgs("s1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM browser_sessions WHERE id=?")).
		WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM browser_sessions WHERE expires_at <= ?")).
		WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.Save(ctx, "s1", sampleSnapshot()))
	require.NoError(t, repo.Delete(ctx, "s1"))
	n, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	assert.ErrorIs(t, repo.Save(ctx, "", store.Snapshot{}), ErrInvalidSessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorySessionRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepo(time.Minute)
	now := time.Now()
	repo.now = func() time.Time { return now }

	snap := sampleSnapshot()
	require.NoError(t, repo.Save(ctx, "s1", snap))
	snap.Cart.Items[0].Price = 1

	got, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, got.Cart.Items[0].Price, "stored copy is independent")

	now = now.Add(2 * time.Minute)
	_, err = repo.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, repo.Save(ctx, "s2", snap))
	require.NoError(t, repo.Delete(ctx, "s2"))
	_, err = repo.Load(ctx, "s2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
