package ai

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/postscout/internal/model"
)

const maxErrorBody = 512

// newHTTPError builds a model.HTTPError from a non-2xx response.
func newHTTPError(resp *http.Response, body []byte) *model.HTTPError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &model.HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		Body:       string(body),
	}
}

// parseRetryAfter accepts both delay-seconds and HTTP-date forms. Returns zero
// if absent, unparseable or already in the past.
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

func truncateBody(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}

func readBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, 1<<20))
}
