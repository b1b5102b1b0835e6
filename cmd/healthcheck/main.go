// Command healthcheck exits 0 when a local graphdesk server reports itself
// healthy. It is the container HEALTHCHECK and needs no shell or curl.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
)

const defaultAddr = "127.0.0.1:8080"

const maxHealthBody = 4 << 10

var errUnhealthy = errors.New("unhealthy")

func main() {
	os.Exit(run(os.Args[1:], os.Getenv, os.Stderr))
}

func run(args []string, getenv func(string) string, stderr io.Writer) int {
	fs := pflag.NewFlagSet("healthcheck", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", getenv("GRAPHDESK_LISTEN_ADDR"), "server listen address")
	path := fs.String("path", "/api/v1/health", "health endpoint path")
	timeout := fs.Duration("timeout", 2*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	url := "http://" + loopbackAddr(*addr) + *path
	if err := checkHealth(ctx, http.DefaultClient, url); err != nil {
		_, _ = fmt.Fprintf(stderr, "healthcheck: %v\n", err)
		return 1
	}
	return 0
}

// checkHealth requires a 200 whose JSON body reports status "ok".
func checkHealth(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", errUnhealthy, resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxHealthBody)).Decode(&body); err != nil {
		return fmt.Errorf("%w: decode body: %v", errUnhealthy, err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("%w: status %q", errUnhealthy, body.Status)
	}
	return nil
}

// loopbackAddr rewrites a wildcard bind address to loopback, since the check
// runs inside the server's own container.
func loopbackAddr(raw string) string {
	host, port, err := net.SplitHostPort(raw)
	if err != nil || port == "" {
		return defaultAddr
	}

	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
