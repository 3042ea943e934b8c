// Package jenkins talks to the JSON API of a Jenkins server.
package jenkins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/s22625/ciwatch/internal/jobs"
	"github.com/s22625/ciwatch/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	jobsPath       = "/api/json?tree=jobs[name,color]"
)

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected HTTP status")

// Client is an HTTP client for one Jenkins server.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a client for server. A host without a scheme is
// assumed to be http.
func NewClient(server model.Server, httpClient *http.Client) (*Client, error) {
	host := strings.TrimSpace(server.Host)
	if host == "" {
		return nil, fmt.Errorf("jenkins host not specified")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(host, "/"),
		username:   server.Username,
		password:   server.Password,
		httpClient: httpClient,
	}, nil
}

// jobsResponse is the body of /api/json?tree=jobs[name,color]
type jobsResponse struct {
	Jobs []jobEntry `json:"jobs"`
}

type jobEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ListJobs implements jobs.Client.
func (c *Client) ListJobs() ([]model.Job, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return c.ListJobsContext(ctx)
}

// ListJobsContext fetches the job list, honouring ctx.
func (c *Client) ListJobsContext(ctx context.Context) ([]model.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+jobsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("creating jobs request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting jobs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed jobsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding jobs: %w", err)
	}

	out := make([]model.Job, 0, len(parsed.Jobs))
	for _, j := range parsed.Jobs {
		out = append(out, model.NewJob(j.Name, model.ParseColor(j.Color)))
	}
	return out, nil
}

// Factory creates Jenkins clients, or a FakeClient for the "FAKE" host.
type Factory struct {
	HTTPClient *http.Client
}

// Create implements jobs.Factory.
func (f Factory) Create(server model.Server) (jobs.Client, error) {
	if server.IsFake() {
		return NewFakeClient(), nil
	}
	return NewClient(server, f.HTTPClient)
}
