package kvstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"complaintdesk/internal/db"
	"complaintdesk/internal/kvstore"
)

// StoreSuite runs the same contract against every backend.
type StoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) kvstore.Store
	store    kvstore.Store
	ctx      context.Context
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore(s.T())
}

func (s *StoreSuite) TestGetMissingKey() {
	_, err := s.store.Get(s.ctx, "complaints")
	s.ErrorIs(err, kvstore.ErrNotFound)
}

func (s *StoreSuite) TestSetThenGet() {
	s.Require().NoError(s.store.Set(s.ctx, "user", []byte(`{"id":"u1"}`)))

	got, err := s.store.Get(s.ctx, "user")
	s.Require().NoError(err)
	s.Equal(`{"id":"u1"}`, string(got))
}

func (s *StoreSuite) TestSetOverwrites() {
	s.Require().NoError(s.store.Set(s.ctx, "complaints", []byte(`[]`)))
	s.Require().NoError(s.store.Set(s.ctx, "complaints", []byte(`[{"id":"1"}]`)))

	got, err := s.store.Get(s.ctx, "complaints")
	s.Require().NoError(err)
	s.Equal(`[{"id":"1"}]`, string(got))
}

func (s *StoreSuite) TestDelete() {
	s.Require().NoError(s.store.Set(s.ctx, "user", []byte(`{}`)))
	s.Require().NoError(s.store.Delete(s.ctx, "user"))

	_, err := s.store.Get(s.ctx, "user")
	s.ErrorIs(err, kvstore.ErrNotFound)

	s.NoError(s.store.Delete(s.ctx, "user"), "deleting a missing key is not an error")
}

func (s *StoreSuite) TestKeysAreIndependent() {
	s.Require().NoError(s.store.Set(s.ctx, "user", []byte(`a`)))
	s.Require().NoError(s.store.Set(s.ctx, "complaints", []byte(`b`)))
	s.Require().NoError(s.store.Delete(s.ctx, "user"))

	got, err := s.store.Get(s.ctx, "complaints")
	s.Require().NoError(err)
	s.Equal("b", string(got))
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(t *testing.T) kvstore.Store {
		return kvstore.NewMemory()
	}})
}

func TestGormSQLiteStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(t *testing.T) kvstore.Store {
		gormDB, err := db.NewSQLite(":memory:")
		require.NoError(t, err)
		sqlDB, err := gormDB.DB()
		require.NoError(t, err)
		t.Cleanup(func() { _ = sqlDB.Close() })

		store := kvstore.NewGorm(gormDB)
		require.NoError(t, store.Migrate())
		return store
	}})
}

func TestGormMigrateIsIdempotent(t *testing.T) {
	gormDB, err := db.NewSQLite(":memory:")
	require.NoError(t, err)
	store := kvstore.NewGorm(gormDB)
	require.NoError(t, store.Migrate())
	require.NoError(t, store.Set(context.Background(), "user", []byte("kept")))

	require.NoError(t, store.Migrate())

	got, err := store.Get(context.Background(), "user")
	require.NoError(t, err)
	require.Equal(t, "kept", string(got))
}

func TestRedisStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(t *testing.T) kvstore.Store {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return kvstore.NewRedis(client)
	}})
}

func TestPrefixedStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(t *testing.T) kvstore.Store {
		return kvstore.WithPrefix(kvstore.NewMemory(), "tenant-a:")
	}})
}

func TestWithPrefixNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	base := kvstore.NewMemory()
	a := kvstore.WithPrefix(base, "a:")
	b := kvstore.WithPrefix(base, "b:")

	require.NoError(t, a.Set(ctx, "user", []byte("alice")))

	_, err := b.Get(ctx, "user")
	require.ErrorIs(t, err, kvstore.ErrNotFound)

	raw, err := base.Get(ctx, "a:user")
	require.NoError(t, err)
	require.Equal(t, "alice", string(raw))

	require.Same(t, base, kvstore.WithPrefix(base, "").(*kvstore.Memory))
}

func TestDialRedisFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := kvstore.DialRedis(context.Background(), addr, "", 0)
	require.Error(t, err)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := kvstore.NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'z'

	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(again))
}
