package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/postfeed/config"
)

func exerciseStorage(t *testing.T, st Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Set(ctx, "codeleap-post-likes", []byte(`{"42":["bo"]}`)))
	got, err := st.Get(ctx, "codeleap-post-likes")
	require.NoError(t, err)
	assert.Equal(t, `{"42":["bo"]}`, string(got))

	require.NoError(t, st.Set(ctx, "codeleap-post-likes", []byte(`{}`)))
	got, err = st.Get(ctx, "codeleap-post-likes")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))

	require.NoError(t, st.Remove(ctx, "codeleap-post-likes"))
	_, err = st.Get(ctx, "codeleap-post-likes")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Set(ctx, "a", []byte("1")))
	require.NoError(t, st.Set(ctx, "b", []byte("2")))
	require.NoError(t, st.Clear(ctx))
	_, err = st.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemory())
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	exerciseStorage(t, NewRedis(rc, "profile-a"))
}

func TestRedisClearKeepsOtherNamespaces(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	a := NewRedis(rc, "profile-a")
	b := NewRedis(rc, "profile-b")
	require.NoError(t, a.Set(ctx, "codeleap-username", []byte("ana")))
	require.NoError(t, b.Set(ctx, "codeleap-username", []byte("bo")))

	assert.True(t, mr.Exists("profile-a:codeleap-username"))

	require.NoError(t, a.Clear(ctx))
	_, err := a.Get(ctx, "codeleap-username")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := b.Get(ctx, "codeleap-username")
	require.NoError(t, err)
	assert.Equal(t, "bo", string(got))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `post\_feed:`, escapeLike("post_feed:"))
	assert.Equal(t, `100\%`, escapeLike("100%"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(configWithDriver("sqlite"))
	assert.Error(t, err)

	st, err := Open(configWithDriver("memory"))
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)
}

func configWithDriver(driver string) config.AppConfig {
	return config.AppConfig{StorageDriver: driver, StorageNamespace: "test"}
}
