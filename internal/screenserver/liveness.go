package screenserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// livenessTimeout bounds the ping probe; a screen that cannot answer within
// a few seconds is treated as unreachable rather than blocking the caller.
const livenessTimeout = 3 * time.Second

var livenessClient = &http.Client{Timeout: livenessTimeout}

// CheckLiveness probes GET http://host:port/ping. It returns false on
// timeout, non-2xx, or any network error instead of surfacing an error;
// ambiguity degrades to "not alive".
func CheckLiveness(ctx context.Context, host string, port int) bool {
	ctx, cancel := context.WithTimeout(ctx, livenessTimeout)
	defer cancel()

	url := fmt.Sprintf("http://%s:%d/ping", host, port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := livenessClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("liveness probe failed")
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
