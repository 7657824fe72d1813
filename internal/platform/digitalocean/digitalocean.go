// Package digitalocean adapts the DigitalOcean API to the cloud.Provider
// surface using the official godo client.
package digitalocean

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/digitalocean/godo"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
)

const (
	providerName = "digitalocean"
	image        = "ubuntu-22-04-x64"
)

// Client implements cloud.Provider for DigitalOcean droplets.
type Client struct {
	do       *godo.Client
	timeouts *config.Timeouts
}

// New returns an adapter authenticated with the given API token.
func New(token string, timeouts *config.Timeouts) *Client {
	return &Client{
		do:       godo.NewFromToken(token),
		timeouts: timeouts,
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) ListRegions(ctx context.Context) ([]cloud.Region, error) {
	var out []cloud.Region

	opt := &godo.ListOptions{PerPage: 200}
	for {
		regions, resp, err := c.do.Regions.List(ctx, opt)
		if err != nil {
			return nil, classify(err)
		}
		for _, r := range regions {
			if !r.Available {
				continue
			}
			out = append(out, cloud.Region{Slug: r.Slug, Name: r.Name})
		}
		if resp.Links == nil || resp.Links.IsLastPage() {
			break
		}
		page, err := resp.Links.CurrentPage()
		if err != nil {
			return nil, fmt.Errorf("failed to page regions: %w", err)
		}
		opt.Page = page + 1
	}
	return out, nil
}

func (c *Client) RecommendedSizes() []cloud.SizeOption {
	return []cloud.SizeOption{
		{Key: "small", Slug: "s-2vcpu-2gb", Label: "2 vCPU, 2 GB RAM"},
		{Key: "medium", Slug: "s-2vcpu-4gb", Label: "2 vCPU, 4 GB RAM"},
		{Key: "large", Slug: "s-4vcpu-8gb", Label: "4 vCPU, 8 GB RAM"},
		{Key: "xlarge", Slug: "s-8vcpu-16gb", Label: "8 vCPU, 16 GB RAM"},
	}
}

func (c *Client) EnsureSSHKey(ctx context.Context, name, publicKey string) (string, error) {
	keys, _, err := c.do.Keys.List(ctx, &godo.ListOptions{PerPage: 200})
	if err != nil {
		return "", classify(err)
	}

	material := keyMaterial(publicKey)
	for _, k := range keys {
		if keyMaterial(k.PublicKey) == material {
			return strconv.Itoa(k.ID), nil
		}
	}

	created, _, err := c.do.Keys.Create(ctx, &godo.KeyCreateRequest{
		Name:      name,
		PublicKey: publicKey,
	})
	if err != nil {
		return "", classify(err)
	}
	return strconv.Itoa(created.ID), nil
}

func (c *Client) CreateServer(ctx context.Context, req cloud.CreateRequest) (*cloud.Server, error) {
	keyID, err := strconv.Atoi(req.SSHKeyID)
	if err != nil {
		return nil, fmt.Errorf("invalid ssh key id %q: %w", req.SSHKeyID, err)
	}

	droplet, _, err := c.do.Droplets.Create(ctx, &godo.DropletCreateRequest{
		Name:    req.Name,
		Region:  req.Region,
		Size:    req.Size,
		Image:   godo.DropletCreateImage{Slug: image},
		SSHKeys: []godo.DropletCreateSSHKey{{ID: keyID}},
		IPv6:    true,
		Tags:    req.Tags,
	})
	if err != nil {
		return nil, classify(err)
	}
	return dropletToServer(droplet), nil
}

func (c *Client) WaitForActiveIP(ctx context.Context, id string) (string, error) {
	dropletID, err := strconv.Atoi(id)
	if err != nil {
		return "", fmt.Errorf("invalid droplet id %q: %w", id, err)
	}

	return cloud.Poll(ctx, c.timeouts.Address, c.timeouts.AddressPoll, "waiting for droplet address",
		func(ctx context.Context) (string, bool, error) {
			droplet, _, err := c.do.Droplets.Get(ctx, dropletID)
			if err != nil {
				return "", false, classify(err)
			}
			ip, ok := activeIP(droplet)
			return ip, ok, nil
		})
}

func (c *Client) DeleteServer(ctx context.Context, id string) error {
	dropletID, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid droplet id %q: %w", id, err)
	}

	if _, err := c.do.Droplets.Delete(ctx, dropletID); err != nil {
		cerr := classify(err)
		if cloud.IsNotFound(cerr) {
			return nil
		}
		return cerr
	}
	return nil
}

// CapacityRemaining derives free capacity from the account droplet limit
// minus the droplets currently in the account.
func (c *Client) CapacityRemaining(ctx context.Context) (cloud.Capacity, error) {
	account, _, err := c.do.Account.Get(ctx)
	if err != nil {
		return cloud.Capacity{}, classify(err)
	}

	count := 0
	opt := &godo.ListOptions{PerPage: 200}
	for {
		droplets, resp, err := c.do.Droplets.List(ctx, opt)
		if err != nil {
			return cloud.Capacity{}, classify(err)
		}
		count += len(droplets)
		if resp.Links == nil || resp.Links.IsLastPage() {
			break
		}
		page, err := resp.Links.CurrentPage()
		if err != nil {
			return cloud.Capacity{}, fmt.Errorf("failed to page droplets: %w", err)
		}
		opt.Page = page + 1
	}

	remaining := max(account.DropletLimit-count, 0)
	return cloud.Capacity{Remaining: remaining, Known: true}, nil
}

// activeIP reports the public IPv4 once the droplet has booted and
// networking is visible.
func activeIP(d *godo.Droplet) (string, bool) {
	if d.Status != "active" {
		return "", false
	}
	ip, err := d.PublicIPv4()
	if err != nil || ip == "" {
		return "", false
	}
	return ip, true
}

func dropletToServer(d *godo.Droplet) *cloud.Server {
	created, _ := time.Parse(time.RFC3339, d.Created)
	region := ""
	if d.Region != nil {
		region = d.Region.Slug
	}
	ip, _ := activeIP(d)

	return &cloud.Server{
		ID:        strconv.Itoa(d.ID),
		Name:      d.Name,
		Region:    region,
		Size:      d.SizeSlug,
		PublicIP:  ip,
		Status:    d.Status,
		CreatedAt: created,
		Tags:      d.Tags,
	}
}

// keyMaterial reduces an authorized_keys line to its type and base64
// fields so comment differences do not defeat the match.
func keyMaterial(s string) string {
	fields := strings.Fields(s)
	if len(fields) >= 2 {
		return fields[0] + " " + fields[1]
	}
	return strings.TrimSpace(s)
}

// classify translates godo errors into the shared taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var er *godo.ErrorResponse
	if errors.As(err, &er) {
		status := 0
		if er.Response != nil {
			status = er.Response.StatusCode
		}
		return cloud.ClassifyHTTP(providerName, status, er.Message)
	}
	return &cloud.UnavailableError{Provider: providerName, Detail: err.Error()}
}
