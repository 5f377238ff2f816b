// bootnotify forwards a host lifecycle action to a running alarmd.
//
// Hosts call it from their boot or package-replaced hooks, e.g.
//
//	bootnotify -action android.intent.action.BOOT_COMPLETED
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/danmuck/timeweaver/internal/observability"
	"github.com/danmuck/timeweaver/internal/retry"
	"github.com/rs/zerolog/log"
)

const EnvHostToken = "TIMEWEAVER_HOST_TOKEN"

type notifyResult struct {
	Signal  string `json:"signal"`
	Handled bool   `json:"handled"`
}

func main() {
	addr := flag.String("addr", "http://127.0.0.1:7420", "alarmd base URL")
	action := flag.String("action", "", "host lifecycle action (or first argument)")
	token := flag.String("token", "", "host token (defaults to $"+EnvHostToken+")")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout including retries")
	attempts := flag.Int("attempts", 8, "delivery attempts while alarmd is starting")
	flag.Parse()

	observability.InitLogger("bootnotify")

	act := strings.TrimSpace(*action)
	if act == "" && flag.NArg() > 0 {
		act = strings.TrimSpace(flag.Arg(0))
	}
	if act == "" {
		fmt.Fprintln(os.Stderr, "bootnotify: action is required")
		os.Exit(2)
	}
	tok := strings.TrimSpace(*token)
	if tok == "" {
		tok = strings.TrimSpace(os.Getenv(EnvHostToken))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var res notifyResult
	err := retry.Do(ctx, retry.DefaultBackoff(), *attempts, func(attempt int) error {
		var err error
		res, err = notify(ctx, http.DefaultClient, *addr, act, tok)
		if err != nil {
			log.Warn().Int("attempt", attempt).Err(err).Msg("lifecycle delivery failed")
		}
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootnotify: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("action", act).Str("signal", res.Signal).Bool("handled", res.Handled).Msg("lifecycle action delivered")
}

func notify(ctx context.Context, client *http.Client, baseURL, action, token string) (notifyResult, error) {
	body, err := json.Marshal(map[string]string{"action": action})
	if err != nil {
		return notifyResult{}, err
	}
	url := strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/lifecycle"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return notifyResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return notifyResult{}, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return notifyResult{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		err := fmt.Errorf("unexpected status=%d body=%q", resp.StatusCode, strings.TrimSpace(string(raw)))
		if resp.StatusCode < http.StatusInternalServerError {
			return notifyResult{}, retry.Permanent(err)
		}
		return notifyResult{}, err
	}
	var out notifyResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return notifyResult{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
