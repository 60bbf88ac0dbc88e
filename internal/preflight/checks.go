package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sys/unix"

	"festmail/internal/config"
)

// CheckBrevoKey reports whether an API key is configured. Roster commands
// work without one, so a missing key is optional.
func CheckBrevoKey(cfg *config.Config) Result {
	const name = "Brevo API key"
	if err := cfg.RequireBrevoKey(); err != nil {
		return Result{Name: name, Detail: "missing (set BREVO_API_KEY or brevo.api_key)", Optional: true}
	}
	return Result{Name: name, Passed: true, Detail: "set"}
}

// CheckBrevo verifies that Brevo accepts the API key. sendURL is the
// configured transactional endpoint; the account endpoint is derived from it.
func CheckBrevo(ctx context.Context, sendURL, apiKey string) Result {
	const name = "Brevo API"

	accountURL := brevoAccountURL(sendURL)
	if accountURL == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := resty.New().
		SetTimeout(5*time.Second).
		SetRetryCount(0).
		R().
		SetContext(checkCtx).
		SetHeader("api-key", strings.TrimSpace(apiKey)).
		SetHeader("Accept", "application/json").
		Get(accountURL)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode())}
	}
}

func brevoAccountURL(sendURL string) string {
	base := strings.TrimRight(strings.TrimSpace(sendURL), "/")
	if base == "" {
		return ""
	}
	if trimmed, ok := strings.CutSuffix(base, "/smtp/email"); ok {
		return trimmed + "/account"
	}
	return base + "/account"
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFileReadable verifies that path is a regular file the process can read.
func CheckFileReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}
