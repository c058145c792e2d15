package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"upload-service/internal/models"
)

// Result is the outcome of one check
type Result struct {
	Name   string
	OK     bool
	Detail string
}

// HealthChecker queries a gRPC health endpoint and returns the reported status
type HealthChecker func(ctx context.Context, addr string) (string, error)

// Pinger checks that a dependency at addr answers
type Pinger func(ctx context.Context, addr string) error

// Options controls which checks Run performs
type Options struct {
	Root    string
	Folders []string
	// Fix creates missing folders instead of only reporting them
	Fix bool
	// HealthURL is the full URL of the HTTP health endpoint; empty skips the check
	HealthURL string
	// GRPCAddr is the gRPC health address; empty skips the check
	GRPCAddr    string
	GRPCChecker HealthChecker
	// RedisAddr is the event broker address; empty skips the check
	RedisAddr  string
	RedisPing  Pinger
	HTTPClient *http.Client
}

// Run executes all configured checks in order and returns their results
func Run(ctx context.Context, opts Options) []Result {
	results := []Result{checkRoot(opts.Root)}
	for _, folder := range opts.Folders {
		results = append(results, checkFolder(opts.Root, folder, opts.Fix))
	}
	if opts.HealthURL != "" {
		client := opts.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: 5 * time.Second}
		}
		results = append(results, checkHTTP(ctx, client, opts.HealthURL))
	}
	if opts.GRPCAddr != "" && opts.GRPCChecker != nil {
		results = append(results, checkGRPC(ctx, opts.GRPCChecker, opts.GRPCAddr))
	}
	if opts.RedisAddr != "" && opts.RedisPing != nil {
		results = append(results, checkRedis(ctx, opts.RedisPing, opts.RedisAddr))
	}
	return results
}

// Passed reports whether every result is OK
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.OK {
			return false
		}
	}
	return true
}

// Print writes one line per result
func Print(w io.Writer, results []Result) {
	for _, r := range results {
		mark := "ok  "
		if !r.OK {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %-28s %s\n", mark, r.Name, r.Detail)
	}
}

func checkRoot(root string) Result {
	res := Result{Name: "upload root writable"}
	info, err := os.Stat(root)
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	if !info.IsDir() {
		res.Detail = fmt.Sprintf("%s is not a directory", root)
		return res
	}

	probe, err := os.CreateTemp(root, ".uploadcheck-*")
	if err != nil {
		res.Detail = fmt.Sprintf("cannot write: %v", err)
		return res
	}
	probe.Close()
	os.Remove(probe.Name())

	res.OK = true
	res.Detail = root
	return res
}

func checkFolder(root, folder string, fix bool) Result {
	res := Result{Name: "folder " + folder}
	dir := filepath.Join(root, filepath.FromSlash(folder))

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		res.OK = true
		res.Detail = "present"
	case err == nil:
		res.Detail = "exists but is not a directory"
	case errors.Is(err, fs.ErrNotExist) && fix:
		if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
			res.Detail = fmt.Sprintf("create failed: %v", mkErr)
		} else {
			res.OK = true
			res.Detail = "created"
		}
	case errors.Is(err, fs.ErrNotExist):
		res.Detail = "missing (run with -fix to create)"
	default:
		res.Detail = err.Error()
	}
	return res
}

func checkHTTP(ctx context.Context, client *http.Client, url string) Result {
	res := Result{Name: "http health"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Detail = err.Error()
		return res
	}

	resp, err := client.Do(req)
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Detail = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return res
	}

	var health models.HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&health); err != nil {
		res.Detail = fmt.Sprintf("invalid body: %v", err)
		return res
	}
	if !strings.EqualFold(health.Status, "OK") {
		res.Detail = fmt.Sprintf("status %q", health.Status)
		return res
	}

	res.OK = true
	res.Detail = health.Message
	return res
}

func checkGRPC(ctx context.Context, check HealthChecker, addr string) Result {
	res := Result{Name: "grpc health"}
	status, err := check(ctx, addr)
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	res.Detail = status
	res.OK = status == "SERVING"
	return res
}

func checkRedis(ctx context.Context, ping Pinger, addr string) Result {
	res := Result{Name: "redis events"}
	if err := ping(ctx, addr); err != nil {
		res.Detail = err.Error()
		return res
	}
	res.OK = true
	res.Detail = addr
	return res
}
