package geo

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	acceptEncoding     = "gzip"
	maxErrorBody       = 512
)

// httpClient is the JSON-over-HTTP plumbing shared by the providers.
type httpClient struct {
	HTTPClient *http.Client
	UserAgent  string
	logger     *zap.Logger
}

func newHTTPClient(userAgent string, log *zap.Logger) httpClient {
	return httpClient{
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
		UserAgent:  userAgent,
		logger:     log,
	}
}

// getJSON performs a GET request and decodes a 200 response into target.
func (c httpClient) getJSON(ctx context.Context, endpoint string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", acceptEncoding)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	c.logger.Debug("make request", zap.String("host", req.URL.Host), zap.String("path", req.URL.Path))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		body := string(data)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return fmt.Errorf("bad status: %s: %s", resp.Status, body)
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}
