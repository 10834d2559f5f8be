package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/metrics"
)

const maxBodyBytes = 8 << 20

// upstream performs rate-limited GET requests against one source.
type upstream struct {
	source  Source
	client  *http.Client
	limiter *rate.Limiter
}

func (u *upstream) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint, err := u.endpoint(path, query)
	if err != nil {
		return nil, fmt.Errorf("%s: build url: %w", u.source.Name, err)
	}

	if u.limiter != nil {
		if err := u.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limit wait: %w", u.source.Name, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: new request: %w", u.source.Name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		metrics.RecordUpstream(u.source.Name, "error")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: request was cancelled: %w", u.source.Name, ctx.Err())
		default:
			return nil, fmt.Errorf("%s: do request: %w", u.source.Name, err)
		}
	}
	defer resp.Body.Close()

	metrics.RecordUpstream(u.source.Name, metrics.StatusOutcome(resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: %s %s answered %d", domain.ErrUpstreamStatus, u.source.Name, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", u.source.Name, err)
	}
	return body, nil
}

func (u *upstream) endpoint(path string, query url.Values) (string, error) {
	full := u.source.BaseURL
	if path != "" {
		var err error
		full, err = url.JoinPath(u.source.BaseURL, path)
		if err != nil {
			return "", err
		}
	}
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full, nil
}

func listQuery(pageSize int) url.Values {
	if pageSize <= 0 {
		return nil
	}
	return url.Values{"limit": []string{strconv.Itoa(pageSize)}}
}
