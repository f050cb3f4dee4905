// Package twilio sends SMS through the Twilio Messages API and reads back
// delivery status.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/earworm-scheduler/internal/earworm"
)

const defaultBaseURL = "https://api.twilio.com"

type Credentials struct {
	AccountSID string
	AuthToken  string
	// From is the provisioned sending number, E.164.
	From string
}

type Client struct {
	hc    *http.Client
	creds Credentials
	base  string
}

func New(creds Credentials) *Client {
	return &Client{
		hc:    &http.Client{Timeout: 10 * time.Second},
		creds: creds,
		base:  defaultBaseURL,
	}
}

// NewWithBaseURL points the client at a non-default API host (tests).
func NewWithBaseURL(creds Credentials, base string) *Client {
	c := New(creds)
	c.base = strings.TrimRight(base, "/")
	return c
}

type messageResponse struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int    `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
	Message      string  `json:"message"` // error payloads use this
}

// Send submits the message for delivery and returns the provider handle.
// A rejected submission is a delivery failure; anything after acceptance
// is the caller's business via FetchStatus.
func (c *Client) Send(ctx context.Context, recipient, body string) (earworm.MessageHandle, error) {
	form := url.Values{}
	form.Set("To", recipient)
	form.Set("From", c.creds.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.base, c.creds.AccountSID)
	mr, err := c.do(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	if mr.SID == "" {
		return "", errors.Wrap(earworm.ErrDeliveryFailed, "twilio response missing message sid")
	}
	return earworm.MessageHandle(mr.SID), nil
}

// FetchStatus reads the provider-side state of a previously submitted
// message.
func (c *Client) FetchStatus(ctx context.Context, handle earworm.MessageHandle) (earworm.DeliveryStatus, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages/%s.json", c.base, c.creds.AccountSID, string(handle))
	mr, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return earworm.DeliveryStatus{}, err
	}

	st := earworm.DeliveryStatus{Status: mr.Status}
	if mr.ErrorCode != nil {
		st.ErrorCode = fmt.Sprintf("%d", *mr.ErrorCode)
	}
	if mr.ErrorMessage != nil {
		st.ErrorMessage = *mr.ErrorMessage
	}
	return st, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (*messageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.WithSecondaryError(earworm.ErrDeliveryFailed, err)
	}
	req.SetBasicAuth(c.creds.AccountSID, c.creds.AuthToken)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.WithSecondaryError(earworm.ErrDeliveryFailed, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.WithSecondaryError(earworm.ErrDeliveryFailed, err)
	}

	var mr messageResponse
	if res.StatusCode >= 400 {
		_ = json.Unmarshal(b, &mr)
		if mr.Message != "" {
			return nil, errors.Wrapf(earworm.ErrDeliveryFailed, "twilio: %s (status=%d)", mr.Message, res.StatusCode)
		}
		return nil, errors.Wrapf(earworm.ErrDeliveryFailed, "twilio returned status %d", res.StatusCode)
	}
	if err := json.Unmarshal(b, &mr); err != nil {
		return nil, errors.WithSecondaryError(earworm.ErrDeliveryFailed, err)
	}
	return &mr, nil
}
