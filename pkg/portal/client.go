package portal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ogulcanaydogan/balchk/pkg/model"
)

// maxBodySize caps how much of the account page is read.
const maxBodySize = 4 << 20

// Client logs into the portal and reads the account balance.
type Client struct {
	profile Profile
	client  *http.Client

	// Now stamps observations. Defaults to time.Now.
	Now func() time.Time
}

// NewClient creates a portal client. A zero timeout leaves the request bound
// only by the context.
func NewClient(profile Profile, timeout time.Duration) *Client {
	return &Client{
		profile: profile.WithDefaults(),
		client:  &http.Client{Timeout: timeout},
		Now:     time.Now,
	}
}

// Profile returns the profile the client was built with, defaults applied.
func (c *Client) Profile() Profile { return c.profile }

// Fetch posts the credentials to the portal and returns the balance it
// reports. It makes exactly one request and never retries.
func (c *Client) Fetch(ctx context.Context, creds model.Credentials) (model.Observation, error) {
	form := url.Values{}
	form.Set(c.profile.LoginField, creds.Login)
	form.Set(c.profile.PasswordField, creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.profile.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return model.Observation{}, transportError("create request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.profile.UserAgent != "" {
		req.Header.Set("User-Agent", c.profile.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Observation{}, transportError("post credentials", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return model.Observation{}, transportError("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Observation{}, &Error{
			Kind:    ErrTransport,
			Op:      "post credentials",
			Snippet: snippet(string(body)),
			Err:     fmt.Errorf("portal returned status %d", resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.Observation{}, parseError("parse html", string(body), err)
	}

	value, err := ExtractBalance(doc, c.profile)
	if err != nil {
		return model.Observation{}, err
	}

	return model.Observation{
		Value:      value,
		ObservedAt: model.TruncateMillis(c.Now()),
	}, nil
}
