package genius

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/earworm-scheduler/internal/earworm"
)

func TestResolveFirstHit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Artist A Title B", r.URL.Query().Get("q"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"hits":[
			{"result":{"url":"http://genius.example/a-b","title":"Title B"}},
			{"result":{"url":"http://genius.example/other","title":"Other"}}
		]}}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL("tok", srv.URL)
	url, err := c.Resolve(context.Background(), "Artist A", "Title B")
	require.NoError(t, err)
	assert.Equal(t, "http://genius.example/a-b", url)
}

func TestResolveNoHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"hits":[]}}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL("tok", srv.URL)
	_, err := c.Resolve(context.Background(), "Nobody", "Nothing")
	assert.ErrorIs(t, err, earworm.ErrReferenceNotFound)
}

func TestResolveProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewWithBaseURL("tok", srv.URL)
	_, err := c.Resolve(context.Background(), "Artist", "Title")
	assert.ErrorIs(t, err, earworm.ErrReferenceNotFound)
}
