package hue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/setanarut/huepalette"
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrAmbiguousGroup = errors.New("group name is not unique")
)

// Client talks to a Hue bridge over the v1 REST API.
type Client struct {
	address    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the bridge at address (host or host:port, or
// a full http:// URL). rateLimitRPS bounds light-state requests per second.
func NewClient(address, token string, timeout time.Duration, rateLimitRPS float64) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if rateLimitRPS <= 0 {
		rateLimitRPS = 10
	}
	return &Client{
		address:    address,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rateLimitRPS), max(1, int(rateLimitRPS))),
	}
}

// Close closes idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) url(path string) string {
	base := c.address
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return fmt.Sprintf("%s/api/%s/%s", base, c.token, path)
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// GetGroups returns all groups known to the bridge.
func (c *Client) GetGroups(ctx context.Context) ([]Group, error) {
	resp, err := c.request(ctx, http.MethodGet, "groups", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var raw map[string]Group
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	groups := make([]Group, 0, len(raw))
	for id, group := range raw {
		group.ID = id
		groups = append(groups, group)
	}
	// Bridge IDs are decimal strings; shorter IDs sort first.
	slices.SortFunc(groups, func(a, b Group) int {
		if len(a.ID) != len(b.ID) {
			return len(a.ID) - len(b.ID)
		}
		return strings.Compare(a.ID, b.ID)
	})
	return groups, nil
}

// FindGroupByName returns the group with the given name. Names shared by
// several groups are rejected with ErrAmbiguousGroup.
func (c *Client) FindGroupByName(ctx context.Context, name string) (*Group, error) {
	groups, err := c.GetGroups(ctx)
	if err != nil {
		return nil, err
	}
	var found *Group
	var ids []string
	for i := range groups {
		if groups[i].Name != name {
			continue
		}
		if found == nil {
			found = &groups[i]
		}
		ids = append(ids, groups[i].ID)
	}
	switch {
	case found == nil:
		return nil, fmt.Errorf("%w: %q", ErrGroupNotFound, name)
	case len(ids) > 1:
		return nil, fmt.Errorf("%w: %q matches groups %s", ErrAmbiguousGroup, name, strings.Join(ids, ", "))
	}
	return found, nil
}

// SetLightState sends cmd to a single light.
func (c *Client) SetLightState(ctx context.Context, lightID string, cmd huepalette.DeviceCommand) error {
	bodyBytes, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	resp, err := c.request(ctx, http.MethodPut, fmt.Sprintf("lights/%s/state", lightID), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to set light %s state: %s", lightID, string(body))
	}

	// The v1 API reports per-field failures with a 200 status.
	var results []Result
	if err := json.NewDecoder(resp.Body).Decode(&results); err == nil {
		for _, r := range results {
			if r.Error != nil {
				return fmt.Errorf("failed to set light %s state: %s (%s)", lightID, r.Error.Description, r.Error.Address)
			}
		}
	}

	log.Debug().
		Str("light", lightID).
		RawJSON("state", bodyBytes).
		Msg("Light state set")
	return nil
}

// Apply sends cmds[i] to lights[i], in order and rate limited. It stops at the
// first failure.
func (c *Client) Apply(ctx context.Context, lights []string, cmds []huepalette.DeviceCommand) error {
	if len(lights) != len(cmds) {
		return fmt.Errorf("%d lights but %d commands", len(lights), len(cmds))
	}
	for i, id := range lights {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := c.SetLightState(ctx, id, cmds[i]); err != nil {
			return err
		}
	}
	return nil
}

// Address returns the bridge address
func (c *Client) Address() string {
	return c.address
}
