// Package bitly shortens lyrics links through the Bitly v4 API.
package bitly

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/earworm-scheduler/internal/earworm"
)

const defaultBaseURL = "https://api-ssl.bitly.com"

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

type shortenRequest struct {
	LongURL string `json:"long_url"`
}

type shortenResponse struct {
	Link string `json:"link"`
}

func (c *Client) Shorten(ctx context.Context, longURL string) (string, error) {
	payload, err := json.Marshal(shortenRequest{LongURL: longURL})
	if err != nil {
		return "", errors.WithSecondaryError(earworm.ErrShorteningFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v4/shorten", bytes.NewReader(payload))
	if err != nil {
		return "", errors.WithSecondaryError(earworm.ErrShorteningFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return "", errors.WithSecondaryError(earworm.ErrShorteningFailed, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.WithSecondaryError(earworm.ErrShorteningFailed, err)
	}
	// bitly returns 200 for existing links and 201 for fresh ones
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return "", errors.Wrapf(earworm.ErrShorteningFailed, "bitly returned status %d", res.StatusCode)
	}

	var sr shortenResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", errors.WithSecondaryError(earworm.ErrShorteningFailed, err)
	}
	if sr.Link == "" {
		return "", errors.Wrap(earworm.ErrShorteningFailed, "bitly response missing link")
	}
	return sr.Link, nil
}
