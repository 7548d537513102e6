package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"complaintdesk/internal/kvstore"
	"complaintdesk/internal/model"
)

type failingStore struct{ kvstore.Store }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("backend down")
}

func TestLoadWithoutSession(t *testing.T) {
	s, err := Load(context.Background(), kvstore.NewMemory(), zap.NewNop())
	require.NoError(t, err)

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestLoadReadsPersistedUser(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	require.NoError(t, kv.Set(ctx, Key, []byte(`{"id":"u1","name":"Ada","email":"ada@example.com"}`)))

	s, err := Load(ctx, kv, zap.NewNop())
	require.NoError(t, err)

	user, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, &model.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}, user)
}

func TestLoadToleratesMalformedData(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":   `{"id":`,
		"wrong type": `["u1"]`,
		"missing id": `{"name":"Ada"}`,
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			kv := kvstore.NewMemory()
			require.NoError(t, kv.Set(ctx, Key, []byte(raw)))

			s, err := Load(ctx, kv, zap.NewNop())
			require.NoError(t, err)

			_, ok := s.CurrentUser(ctx)
			assert.False(t, ok)
		})
	}
}

func TestLoadReturnsBackendErrors(t *testing.T) {
	_, err := Load(context.Background(), failingStore{}, zap.NewNop())
	assert.Error(t, err)
}

func TestBeginAndEnd(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s, err := Load(ctx, kv, zap.NewNop())
	require.NoError(t, err)

	user := &model.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, s.Begin(ctx, user))

	got, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, user, got)

	reloaded, err := Load(ctx, kv, zap.NewNop())
	require.NoError(t, err)
	got, ok = reloaded.Current()
	require.True(t, ok)
	assert.Equal(t, "u1", got.ID)

	require.NoError(t, s.End(ctx))
	_, ok = s.Current()
	assert.False(t, ok)

	_, err = kv.Get(ctx, Key)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestCurrentIsCachedAfterLoad(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s, err := Load(ctx, kv, zap.NewNop())
	require.NoError(t, err)

	// A write that bypasses the store, e.g. another tab, is not observed.
	require.NoError(t, kv.Set(ctx, Key, []byte(`{"id":"u2"}`)))

	_, ok := s.Current()
	assert.False(t, ok)
}
