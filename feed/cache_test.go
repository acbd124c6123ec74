package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/postfeed/feedclient"
	"github.com/cppla/postfeed/models"
)

// versionedRemote serves a single post whose title is the current version.
type versionedRemote struct {
	fakeRemote
	version atomic.Int64
	onFetch func()
}

func (v *versionedRemote) FetchPosts(_ context.Context, _ string) (models.Page, error) {
	title := strconv.FormatInt(v.version.Load(), 10)
	if v.onFetch != nil {
		v.onFetch()
	}
	return models.Page{Count: 1, Results: []models.Post{{ID: 1, Title: title}}}, nil
}

func TestInvalidateDuringLoadIsNotCached(t *testing.T) {
	remote := &versionedRemote{}
	s, _ := newSync(t, remote, Options{})
	remote.onFetch = func() {
		remote.onFetch = nil
		remote.version.Add(1)
		s.Invalidate()
	}

	posts, err := s.Posts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0", posts[0].Title)

	posts, err = s.Posts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", posts[0].Title)
}

func TestConcurrentReadsNeverKeepStaleCollection(t *testing.T) {
	remote := &versionedRemote{}
	s, _ := newSync(t, remote, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := s.Posts(ctx)
				assert.NoError(t, err)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				remote.version.Add(1)
				s.Invalidate()
			}
		}()
	}
	wg.Wait()

	posts, err := s.Posts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "200", posts[0].Title)
}

func TestLoadAllRefusesForeignNextCursor(t *testing.T) {
	var otherHits atomic.Int32
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		otherHits.Add(1)
		_ = json.NewEncoder(w).Encode(models.Page{})
	}))
	defer other.Close()

	next := other.URL + "/internal/?offset=1"
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.Page{Count: 2, Next: &next, Results: []models.Post{{ID: 1}}})
	}))
	defer remote.Close()

	s, _ := newSync(t, feedclient.New(remote.URL, remote.Client(), 0, nil), Options{})
	posts, err := s.Posts(context.Background())
	assert.ErrorIs(t, err, ErrBadNextCursor)
	assert.Nil(t, posts)
	assert.Zero(t, otherHits.Load())
}
