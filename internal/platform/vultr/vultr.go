// Package vultr adapts the Vultr API to the cloud.Provider surface using
// the official govultr client.
package vultr

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vultr/govultr/v3"
	"golang.org/x/oauth2"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
)

const (
	providerName = "vultr"
	// osID selects Ubuntu 24.04 LTS x64 from Vultr's OS catalog.
	osID = 2284
)

// Client implements cloud.Provider for Vultr instances.
type Client struct {
	vultr    *govultr.Client
	timeouts *config.Timeouts
}

// New returns an adapter authenticated with the given API key.
func New(apiKey string, timeouts *config.Timeouts) *Client {
	cfg := &oauth2.Config{}
	ts := cfg.TokenSource(context.Background(), &oauth2.Token{AccessToken: apiKey})
	return &Client{
		vultr:    govultr.NewClient(oauth2.NewClient(context.Background(), ts)),
		timeouts: timeouts,
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) ListRegions(ctx context.Context) ([]cloud.Region, error) {
	var out []cloud.Region

	opts := &govultr.ListOptions{PerPage: 100}
	for {
		regions, meta, resp, err := c.vultr.Region.List(ctx, opts)
		if err != nil {
			return nil, classify(resp, err)
		}
		for _, r := range regions {
			out = append(out, cloud.Region{
				Slug: r.ID,
				Name: fmt.Sprintf("%s, %s", r.City, r.Country),
			})
		}
		if meta == nil || meta.Links == nil || meta.Links.Next == "" {
			break
		}
		opts.Cursor = meta.Links.Next
	}
	return out, nil
}

func (c *Client) RecommendedSizes() []cloud.SizeOption {
	return []cloud.SizeOption{
		{Key: "small", Slug: "vc2-1c-2gb", Label: "1 vCPU, 2 GB RAM"},
		{Key: "medium", Slug: "vc2-2c-4gb", Label: "2 vCPU, 4 GB RAM"},
		{Key: "large", Slug: "vc2-4c-8gb", Label: "4 vCPU, 8 GB RAM"},
	}
}

func (c *Client) EnsureSSHKey(ctx context.Context, name, publicKey string) (string, error) {
	material := keyMaterial(publicKey)

	opts := &govultr.ListOptions{PerPage: 100}
	for {
		keys, meta, resp, err := c.vultr.SSHKey.List(ctx, opts)
		if err != nil {
			return "", classify(resp, err)
		}
		for _, k := range keys {
			if keyMaterial(k.SSHKey) == material {
				return k.ID, nil
			}
		}
		if meta == nil || meta.Links == nil || meta.Links.Next == "" {
			break
		}
		opts.Cursor = meta.Links.Next
	}

	created, resp, err := c.vultr.SSHKey.Create(ctx, &govultr.SSHKeyReq{
		Name:   name,
		SSHKey: strings.TrimSpace(publicKey),
	})
	if err != nil {
		return "", classify(resp, err)
	}
	return created.ID, nil
}

func (c *Client) CreateServer(ctx context.Context, req cloud.CreateRequest) (*cloud.Server, error) {
	instance, resp, err := c.vultr.Instance.Create(ctx, &govultr.InstanceCreateReq{
		Region:     req.Region,
		Plan:       req.Size,
		Label:      req.Name,
		Hostname:   req.Name,
		OsID:       osID,
		SSHKeys:    []string{req.SSHKeyID},
		EnableIPv6: govultr.BoolToBoolPtr(true),
		Backups:    "disabled",
		Tags:       req.Tags,
	})
	if err != nil {
		return nil, classify(resp, err)
	}
	return instanceToServer(instance), nil
}

func (c *Client) WaitForActiveIP(ctx context.Context, id string) (string, error) {
	return cloud.Poll(ctx, c.timeouts.Address, c.timeouts.AddressPoll, "waiting for instance address",
		func(ctx context.Context) (string, bool, error) {
			instance, resp, err := c.vultr.Instance.Get(ctx, id)
			if err != nil {
				return "", false, classify(resp, err)
			}
			ip, ok := activeIP(instance)
			return ip, ok, nil
		})
}

func (c *Client) DeleteServer(ctx context.Context, id string) error {
	if err := c.vultr.Instance.Delete(ctx, id); err != nil {
		if isMissingInstance(err) {
			return nil
		}
		return classify(nil, err)
	}
	return nil
}

// CapacityRemaining is unknown for Vultr; the API exposes no plain
// instance limit.
func (c *Client) CapacityRemaining(_ context.Context) (cloud.Capacity, error) {
	return cloud.Capacity{}, nil
}

// activeIP reports the main address once the instance is active. Vultr
// publishes "0.0.0.0" until the real address is assigned.
func activeIP(i *govultr.Instance) (string, bool) {
	if i.Status != "active" {
		return "", false
	}
	if i.MainIP == "" || i.MainIP == "0.0.0.0" {
		return "", false
	}
	return i.MainIP, true
}

func instanceToServer(i *govultr.Instance) *cloud.Server {
	created, _ := time.Parse(time.RFC3339, i.DateCreated)
	ip, _ := activeIP(i)

	return &cloud.Server{
		ID:        i.ID,
		Name:      i.Label,
		Region:    i.Region,
		Size:      i.Plan,
		PublicIP:  ip,
		Status:    i.Status,
		CreatedAt: created,
		Tags:      i.Tags,
	}
}

func keyMaterial(s string) string {
	fields := strings.Fields(s)
	if len(fields) >= 2 {
		return fields[0] + " " + fields[1]
	}
	return strings.TrimSpace(s)
}

// isMissingInstance matches delete failures for instances Vultr no
// longer knows about. The SDK's delete path surfaces no status code, so
// the message is all there is to go on.
func isMissingInstance(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "invalid instance")
}

// classify translates govultr errors into the shared taxonomy. The SDK
// returns API failures as plain errors; the status comes from the
// response when one was received.
func classify(resp *http.Response, err error) error {
	if err == nil {
		return nil
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	return cloud.ClassifyHTTP(providerName, status, err.Error())
}
