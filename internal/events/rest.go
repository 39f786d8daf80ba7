package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trainingcal/internal/datemath"
	appLog "trainingcal/internal/log"
	"trainingcal/internal/model"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	Location *time.Location
}

// Client talks to the REST event service. It implements both Service and
// Mutator.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
	loc     *time.Location
}

// NewClient builds a Client. A zero timeout defaults to 15s.
func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		loc:     loc,
	}
}

// Events implements Service: GET /calendar/events?startDate=&endDate=.
func (c *Client) Events(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error) {
	q := url.Values{}
	q.Set("startDate", datemath.DateKey(start))
	q.Set("endDate", datemath.DateKey(end))

	var raw []RawEvent
	if err := c.do(ctx, http.MethodGet, "/calendar/events?"+q.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch events %s..%s: %w", q.Get("startDate"), q.Get("endDate"), err)
	}

	appLog.Debug("events fetched", "count", len(raw), "start", q.Get("startDate"), "end", q.Get("endDate"))
	return MapEvents(raw, c.loc), nil
}

func (c *Client) Create(ctx context.Context, m Mutation) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/calendar/events", m, &created); err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	return created.ID, nil
}

func (c *Client) Update(ctx context.Context, id string, m Mutation) error {
	if err := c.do(ctx, http.MethodPut, "/calendar/events/"+url.PathEscape(id), m, nil); err != nil {
		return fmt.Errorf("update event %s: %w", id, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/calendar/events/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

func (c *Client) Complete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/calendar/events/"+url.PathEscape(id)+"/complete", nil, nil); err != nil {
		return fmt.Errorf("complete event %s: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.baseURL == "" {
		return ErrNoService
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
