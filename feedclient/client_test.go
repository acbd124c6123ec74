package feedclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureTrailingSlash(t *testing.T) {
	assert.Equal(t, "https://x/careers/", ensureTrailingSlash("https://x/careers"))
	assert.Equal(t, "https://x/careers/", ensureTrailingSlash("https://x/careers/"))
	assert.Equal(t, "https://x/careers/?limit=10&offset=10", ensureTrailingSlash("https://x/careers?limit=10&offset=10"))
	assert.Equal(t, "https://x/careers/?offset=10", ensureTrailingSlash("https://x/careers/?offset=10"))
}

func TestNewDefaultsBaseURL(t *testing.T) {
	c := New("", nil, 0, nil)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c = New("http://example.test/careers", nil, 0, nil)
	assert.Equal(t, "http://example.test/careers/", c.BaseURL())
}

func TestFetchPostsFollowsNormalizedCursor(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "no-store", r.Header.Get("Cache-Control"))
		_, _ = io.WriteString(w, `{"count":1,"next":null,"previous":null,"results":[{"id":7,"username":"ana","title":"t","content":"c","created_datetime":"2024-01-01T00:00:00Z"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/careers/", srv.Client(), 0, nil)
	page, err := c.FetchPosts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, "", page.NextCursor())
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(7), page.Results[0].ID)

	_, err = c.FetchPosts(context.Background(), srv.URL+"/careers?limit=10&offset=10")
	require.NoError(t, err)
	_, err = c.FetchPosts(context.Background(), srv.URL+"/careers/page2")
	require.NoError(t, err)

	assert.Equal(t, []string{"/careers/", "/careers/?limit=10&offset=10", "/careers/page2/"}, paths)
}

func TestFetchPostsRefusesForeignCursor(t *testing.T) {
	var hits, otherHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = io.WriteString(w, `{"count":0,"next":null,"previous":null,"results":[]}`)
	}))
	defer srv.Close()
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		otherHits++
		_, _ = io.WriteString(w, `{"count":1,"next":null,"previous":null,"results":[{"id":7}]}`)
	}))
	defer other.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	c := New(srv.URL+"/careers/", srv.Client(), 0, nil)
	for _, cursor := range []string{
		other.URL + "/careers/?offset=2",
		srv.URL + "/admin/metadata",
		srv.URL + "/careers/../admin/",
		srv.URL + "/careers/%2e%2e/admin/",
		"https://" + host + "/careers/?offset=2",
		"http://user:pw@" + host + "/careers/?offset=2",
		"/careers/?offset=2",
		"file:///etc/passwd",
		"::not a url",
	} {
		_, err := c.FetchPosts(context.Background(), cursor)
		assert.ErrorIs(t, err, ErrForeignCursor, cursor)
	}
	assert.Zero(t, hits)
	assert.Zero(t, otherHits)

	_, err := c.FetchPosts(context.Background(), strings.ToUpper("http://")+host+"/careers/?offset=2")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestFetchPostsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client(), 0, nil).FetchPosts(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch posts", err.Error())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestCreatePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"username": "ana", "title": "Hi", "content": "Body"}, body)

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":101,"username":"ana","title":"Hi","content":"Body","created_datetime":"2024-05-01T10:00:00Z"}`)
	}))
	defer srv.Close()

	post, err := New(srv.URL, srv.Client(), 0, nil).CreatePost(context.Background(), "ana", "Hi", "Body")
	require.NoError(t, err)
	assert.Equal(t, int64(101), post.ID)
	assert.Equal(t, "2024-05-01T10:00:00Z", post.CreatedDatetime)
}

func TestCreatePostSurfacesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Title too long"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client(), 0, nil).CreatePost(context.Background(), "ana", "Hi", "Body")
	require.Error(t, err)
	assert.Equal(t, "Title too long", err.Error())
}

func TestCreatePostGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html>bad gateway</html>`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client(), 0, nil).CreatePost(context.Background(), "ana", "Hi", "Body")
	require.Error(t, err)
	assert.Equal(t, "Failed to create post", err.Error())
}

func TestUpdateAndDelete(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPatch:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]string{"title": "New", "content": "Text"}, body)
			_, _ = io.WriteString(w, `{"id":5,"username":"ana","title":"New","content":"Text","created_datetime":"2024-01-01T00:00:00Z"}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), 0, nil)
	post, err := c.UpdatePost(context.Background(), 5, "New", "Text")
	require.NoError(t, err)
	assert.Equal(t, "New", post.Title)

	require.NoError(t, c.DeletePost(context.Background(), 5))
	assert.Equal(t, []string{"PATCH /5/", "DELETE /5/"}, seen)
}

func TestUpdateAndDeleteFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Not found."}`)
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), 0, nil)
	_, err := c.UpdatePost(context.Background(), 5, "a", "b")
	assert.EqualError(t, err, "Failed to update post")

	err = c.DeletePost(context.Background(), 5)
	assert.EqualError(t, err, "Failed to delete post")
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, nil, 0, nil).FetchPosts(context.Background(), "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, "Failed to fetch posts", err.Error())
}
