// Package hetzner adapts the Hetzner Cloud API to the cloud.Provider
// surface using the official hcloud client.
//
// Hetzner has no tag concept; the request tags become labels on the
// server so console filtering still works.
package hetzner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
)

const (
	providerName = "hetzner"
	image        = "ubuntu-22.04"
)

// Client implements cloud.Provider for Hetzner Cloud servers.
type Client struct {
	hc       *hcloud.Client
	timeouts *config.Timeouts
}

// New returns an adapter authenticated with the given API token.
func New(token string, timeouts *config.Timeouts) *Client {
	return &Client{
		hc:       hcloud.NewClient(hcloud.WithToken(token)),
		timeouts: timeouts,
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) ListRegions(ctx context.Context) ([]cloud.Region, error) {
	locations, err := c.hc.Location.All(ctx)
	if err != nil {
		return nil, classify(err)
	}

	out := make([]cloud.Region, 0, len(locations))
	for _, loc := range locations {
		out = append(out, cloud.Region{
			Slug: loc.Name,
			Name: fmt.Sprintf("%s, %s", loc.City, loc.Country),
		})
	}
	return out, nil
}

func (c *Client) RecommendedSizes() []cloud.SizeOption {
	return []cloud.SizeOption{
		{Key: "small", Slug: "cpx21", Label: "3 vCPU, 4 GB RAM"},
		{Key: "medium", Slug: "cpx31", Label: "4 vCPU, 8 GB RAM"},
		{Key: "large", Slug: "cpx41", Label: "8 vCPU, 16 GB RAM"},
		{Key: "xlarge", Slug: "cpx51", Label: "16 vCPU, 32 GB RAM"},
	}
}

func (c *Client) EnsureSSHKey(ctx context.Context, name, publicKey string) (string, error) {
	keys, err := c.hc.SSHKey.All(ctx)
	if err != nil {
		return "", classify(err)
	}

	material := keyMaterial(publicKey)
	for _, k := range keys {
		if keyMaterial(k.PublicKey) == material {
			return strconv.FormatInt(k.ID, 10), nil
		}
	}

	created, _, err := c.hc.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      name,
		PublicKey: publicKey,
		Labels:    map[string]string{"managed-by": "srcdsctl"},
	})
	if err != nil {
		return "", classify(err)
	}
	return strconv.FormatInt(created.ID, 10), nil
}

func (c *Client) CreateServer(ctx context.Context, req cloud.CreateRequest) (*cloud.Server, error) {
	keyID, err := strconv.ParseInt(req.SSHKeyID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ssh key id %q: %w", req.SSHKeyID, err)
	}

	var result hcloud.ServerCreateResult
	err = cloud.RetryTransient(ctx, func() error {
		res, _, err := c.hc.Server.Create(ctx, hcloud.ServerCreateOpts{
			Name:       req.Name,
			ServerType: &hcloud.ServerType{Name: req.Size},
			Image:      &hcloud.Image{Name: image},
			Location:   &hcloud.Location{Name: req.Region},
			SSHKeys:    []*hcloud.SSHKey{{ID: keyID}},
			Labels:     labelsFor(req),
		})
		if err != nil {
			return classify(err)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return serverToServer(result.Server), nil
}

func (c *Client) WaitForActiveIP(ctx context.Context, id string) (string, error) {
	serverID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid server id %q: %w", id, err)
	}

	return cloud.Poll(ctx, c.timeouts.Address, c.timeouts.AddressPoll, "waiting for server address",
		func(ctx context.Context) (string, bool, error) {
			server, _, err := c.hc.Server.GetByID(ctx, serverID)
			if err != nil {
				return "", false, classify(err)
			}
			if server == nil {
				return "", false, fmt.Errorf("server %s vanished while waiting: %w", id, cloud.ErrNotFound)
			}
			ip, ok := activeIP(server)
			return ip, ok, nil
		})
}

func (c *Client) DeleteServer(ctx context.Context, id string) error {
	serverID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid server id %q: %w", id, err)
	}

	if _, _, err := c.hc.Server.DeleteWithResult(ctx, &hcloud.Server{ID: serverID}); err != nil {
		cerr := classify(err)
		if cloud.IsNotFound(cerr) {
			return nil
		}
		return cerr
	}
	return nil
}

// CapacityRemaining is unknown for Hetzner; server limits are only
// visible through support.
func (c *Client) CapacityRemaining(_ context.Context) (cloud.Capacity, error) {
	return cloud.Capacity{}, nil
}

// activeIP reports the public IPv4 once the server is running.
func activeIP(s *hcloud.Server) (string, bool) {
	if s.Status != hcloud.ServerStatusRunning {
		return "", false
	}
	ip := s.PublicNet.IPv4.IP
	if ip == nil || ip.IsUnspecified() {
		return "", false
	}
	return ip.String(), true
}

func labelsFor(req cloud.CreateRequest) map[string]string {
	labels := map[string]string{"managed-by": "srcdsctl"}
	for _, tag := range req.Tags {
		labels[tag] = "true"
	}
	return labels
}

func serverToServer(s *hcloud.Server) *cloud.Server {
	region := ""
	if s.Datacenter != nil && s.Datacenter.Location != nil {
		region = s.Datacenter.Location.Name
	}
	size := ""
	if s.ServerType != nil {
		size = s.ServerType.Name
	}
	ip, _ := activeIP(s)

	tags := make([]string, 0, len(s.Labels))
	for k := range s.Labels {
		if k == "managed-by" {
			continue
		}
		tags = append(tags, k)
	}

	return &cloud.Server{
		ID:        strconv.FormatInt(s.ID, 10),
		Name:      s.Name,
		Region:    region,
		Size:      size,
		PublicIP:  ip,
		Status:    string(s.Status),
		CreatedAt: s.Created,
		Tags:      tags,
	}
}

func keyMaterial(s string) string {
	fields := strings.Fields(s)
	if len(fields) >= 2 {
		return fields[0] + " " + fields[1]
	}
	return strings.TrimSpace(s)
}

// classify translates hcloud errors into the shared taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var herr hcloud.Error
	if errors.As(err, &herr) {
		switch herr.Code {
		case hcloud.ErrorCodeNotFound:
			return fmt.Errorf("%s: %w", herr.Message, cloud.ErrNotFound)
		case hcloud.ErrorCodeUnauthorized, hcloud.ErrorCodeForbidden:
			return fmt.Errorf("%s: %w", herr.Message, cloud.ErrAuthenticationFailed)
		case hcloud.ErrorCodeResourceLimitExceeded:
			return &cloud.QuotaError{Provider: providerName, Detail: herr.Message}
		case hcloud.ErrorCodeRateLimitExceeded,
			hcloud.ErrorCodeConflict,
			hcloud.ErrorCodeLocked,
			hcloud.ErrorCodeResourceUnavailable:
			return &cloud.UnavailableError{Provider: providerName, Detail: herr.Message}
		default:
			return &cloud.RejectedError{Provider: providerName, Detail: herr.Message}
		}
	}
	return &cloud.UnavailableError{Provider: providerName, Detail: err.Error()}
}
