// Package genius resolves (artist, title) to a lyrics page URL via the
// Genius search API.
package genius

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/earworm-scheduler/internal/earworm"
)

const defaultBaseURL = "https://api.genius.com"

type Client struct {
	hc    *http.Client
	token string
	base  string
}

func New(token string) *Client {
	return &Client{
		hc:    &http.Client{Timeout: 10 * time.Second},
		token: token,
		base:  defaultBaseURL,
	}
}

// NewWithBaseURL points the client at a non-default API host (tests).
func NewWithBaseURL(token, base string) *Client {
	c := New(token)
	c.base = strings.TrimRight(base, "/")
	return c
}

type searchResponse struct {
	Response struct {
		Hits []struct {
			Result struct {
				URL   string `json:"url"`
				Title string `json:"title"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// Resolve searches Genius for the song and returns the first hit's URL.
// No hits, and any provider-side trouble, surface as the reference not
// being found; the pipeline treats this stage's errors uniformly.
func (c *Client) Resolve(ctx context.Context, artist, title string) (string, error) {
	q := url.Values{}
	q.Set("q", artist+" "+title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/search?"+q.Encode(), nil)
	if err != nil {
		return "", errors.WithSecondaryError(earworm.ErrReferenceNotFound, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.hc.Do(req)
	if err != nil {
		return "", errors.WithSecondaryError(earworm.ErrReferenceNotFound, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.WithSecondaryError(earworm.ErrReferenceNotFound, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", errors.Wrapf(earworm.ErrReferenceNotFound, "genius search returned status %d", res.StatusCode)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", errors.WithSecondaryError(earworm.ErrReferenceNotFound, err)
	}
	if len(sr.Response.Hits) == 0 || sr.Response.Hits[0].Result.URL == "" {
		return "", errors.Wrapf(earworm.ErrReferenceNotFound, "no genius match for %s - %q", artist, title)
	}
	return sr.Response.Hits[0].Result.URL, nil
}
