package connectivity

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DefaultTargets are independent, highly available hosts probed when no
// targets are configured.
var DefaultTargets = []string{
	"https://www.google.com",
	"https://www.cloudflare.com",
	"https://www.apple.com",
}

// Probe checks one reachability target. A nil error means reachable.
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

// HTTPHeadProbe sends HEAD to URL. Any HTTP response counts as reachable.
type HTTPHeadProbe struct {
	URL    string
	Client *http.Client
}

func NewHTTPHeadProbe(url string) *HTTPHeadProbe {
	return &HTTPHeadProbe{URL: url, Client: &http.Client{}}
}

func (p *HTTPHeadProbe) Name() string { return p.URL }

func (p *HTTPHeadProbe) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return err
	}
	c := p.Client
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// GRPCHealthProbe asks a server's grpc.health.v1 service whether Service is
// SERVING. An empty Service checks the server as a whole.
type GRPCHealthProbe struct {
	Target  string
	Service string
	opts    []grpc.DialOption
}

// NewGRPCHealthProbe dials target with opts, or with insecure transport
// credentials when opts is empty.
func NewGRPCHealthProbe(target string, opts ...grpc.DialOption) *GRPCHealthProbe {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &GRPCHealthProbe{Target: target, opts: opts}
}

func (p *GRPCHealthProbe) Name() string { return "grpc://" + p.Target }

func (p *GRPCHealthProbe) Check(ctx context.Context) error {
	conn, err := grpc.NewClient(p.Target, p.opts...)
	if err != nil {
		return fmt.Errorf("failed to create grpc client: %w", err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: p.Service})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("health status %s", resp.GetStatus())
	}
	return nil
}

// ProbesFromTargets builds probes from URLs: grpc:// targets use the health
// protocol, http:// and https:// use HEAD. An empty list yields the
// DefaultTargets probes.
func ProbesFromTargets(targets []string) ([]Probe, error) {
	if len(targets) == 0 {
		targets = DefaultTargets
	}
	probes := make([]Probe, 0, len(targets))
	for _, t := range targets {
		t = strings.TrimSpace(t)
		switch {
		case strings.HasPrefix(t, "grpc://"):
			probes = append(probes, NewGRPCHealthProbe(strings.TrimPrefix(t, "grpc://")))
		case strings.HasPrefix(t, "http://"), strings.HasPrefix(t, "https://"):
			probes = append(probes, NewHTTPHeadProbe(t))
		default:
			return nil, fmt.Errorf("unsupported probe target %q", t)
		}
	}
	return probes, nil
}
