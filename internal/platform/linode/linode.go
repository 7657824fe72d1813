// Package linode adapts the Linode API to the cloud.Provider surface
// using the official linodego client.
package linode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/linode/linodego"
	"golang.org/x/oauth2"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
)

const (
	providerName = "linode"
	image        = "linode/ubuntu22.04"
)

// Client implements cloud.Provider for Linode instances.
type Client struct {
	ln       *linodego.Client
	timeouts *config.Timeouts
}

// New returns an adapter authenticated with the given API token.
func New(token string, timeouts *config.Timeouts) *Client {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	oc := &http.Client{
		Transport: &oauth2.Transport{Source: tokenSource},
		Timeout:   time.Minute,
	}
	ln := linodego.NewClient(oc)
	return &Client{
		ln:       &ln,
		timeouts: timeouts,
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) ListRegions(ctx context.Context) ([]cloud.Region, error) {
	regions, err := c.ln.ListRegions(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}

	out := make([]cloud.Region, 0, len(regions))
	for _, r := range regions {
		label := r.Label
		if label == "" {
			label = r.Country
		}
		out = append(out, cloud.Region{Slug: r.ID, Name: label})
	}
	return out, nil
}

func (c *Client) RecommendedSizes() []cloud.SizeOption {
	return []cloud.SizeOption{
		{Key: "small", Slug: "g6-standard-1", Label: "1 vCPU, 2 GB RAM"},
		{Key: "medium", Slug: "g6-standard-2", Label: "2 vCPU, 4 GB RAM"},
		{Key: "large", Slug: "g6-standard-4", Label: "4 vCPU, 8 GB RAM"},
		{Key: "xlarge", Slug: "g6-standard-8", Label: "8 vCPU, 16 GB RAM"},
	}
}

func (c *Client) EnsureSSHKey(ctx context.Context, name, publicKey string) (string, error) {
	keys, err := c.ln.ListSSHKeys(ctx, nil)
	if err != nil {
		return "", classify(err)
	}

	material := keyMaterial(publicKey)
	for _, k := range keys {
		if keyMaterial(k.SSHKey) == material {
			return strconv.Itoa(k.ID), nil
		}
	}

	created, err := c.ln.CreateSSHKey(ctx, linodego.SSHKeyCreateOptions{
		Label:  name,
		SSHKey: strings.TrimSpace(publicKey),
	})
	if err != nil {
		return "", classify(err)
	}
	return strconv.Itoa(created.ID), nil
}

// CreateServer boots an instance from the Ubuntu image. Linode requires a
// root password on creation; a throwaway one is generated and dropped
// since all later access is by SSH key.
func (c *Client) CreateServer(ctx context.Context, req cloud.CreateRequest) (*cloud.Server, error) {
	rootPass, err := randomRootPass()
	if err != nil {
		return nil, err
	}

	booted := true
	instance, err := c.ln.CreateInstance(ctx, linodego.InstanceCreateOptions{
		Region:         req.Region,
		Type:           req.Size,
		Label:          req.Name,
		Image:          image,
		RootPass:       rootPass,
		AuthorizedKeys: []string{strings.TrimSpace(req.PublicKey)},
		Tags:           req.Tags,
		Booted:         &booted,
	})
	if err != nil {
		return nil, classify(err)
	}
	return instanceToServer(instance), nil
}

func (c *Client) WaitForActiveIP(ctx context.Context, id string) (string, error) {
	linodeID, err := strconv.Atoi(id)
	if err != nil {
		return "", fmt.Errorf("invalid linode id %q: %w", id, err)
	}

	return cloud.Poll(ctx, c.timeouts.Address, c.timeouts.AddressPoll, "waiting for linode address",
		func(ctx context.Context) (string, bool, error) {
			instance, err := c.ln.GetInstance(ctx, linodeID)
			if err != nil {
				return "", false, classify(err)
			}
			ip, ok := activeIP(instance)
			return ip, ok, nil
		})
}

func (c *Client) DeleteServer(ctx context.Context, id string) error {
	linodeID, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid linode id %q: %w", id, err)
	}

	if err := c.ln.DeleteInstance(ctx, linodeID); err != nil {
		cerr := classify(err)
		if cloud.IsNotFound(cerr) {
			return nil
		}
		return cerr
	}
	return nil
}

// CapacityRemaining is unknown for Linode; the API exposes no plain
// instance limit.
func (c *Client) CapacityRemaining(_ context.Context) (cloud.Capacity, error) {
	return cloud.Capacity{}, nil
}

// activeIP reports the first public IPv4 once the instance is running.
func activeIP(i *linodego.Instance) (string, bool) {
	if i.Status != linodego.InstanceRunning {
		return "", false
	}
	for _, ip := range i.IPv4 {
		if ip == nil || ip.IsPrivate() {
			continue
		}
		return ip.String(), true
	}
	return "", false
}

func instanceToServer(i *linodego.Instance) *cloud.Server {
	var created time.Time
	if i.Created != nil {
		created = *i.Created
	}
	ip, _ := activeIP(i)

	return &cloud.Server{
		ID:        strconv.Itoa(i.ID),
		Name:      i.Label,
		Region:    i.Region,
		Size:      i.Type,
		PublicIP:  ip,
		Status:    string(i.Status),
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

const passAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

// randomRootPass draws 32 characters for the mandatory root password.
func randomRootPass() (string, error) {
	buf := make([]byte, 32)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate root password: %w", err)
		}
		buf[i] = passAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// classify translates linodego errors into the shared taxonomy. The SDK
// carries the HTTP status in Error.Code.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var lerr *linodego.Error
	if errors.As(err, &lerr) {
		return cloud.ClassifyHTTP(providerName, lerr.Code, lerr.Message)
	}
	return &cloud.UnavailableError{Provider: providerName, Detail: err.Error()}
}
