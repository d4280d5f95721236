package adsb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/yegors/adsb-proxy/pkg/logger"
)

// maxRemoteBody caps how much of the remote response is read
const maxRemoteBody = 32 << 20

// errNullSnapshot is returned when the local file holds a bare JSON null
var errNullSnapshot = errors.New("local snapshot is null")

// Client reads the local aircraft.json and queries the remote API
type Client struct {
	httpClient *http.Client
	localPath  string
	remoteURL  string
	userAgent  string
	logger     *logger.Logger
}

// NewClient creates a new ADS-B client. timeout bounds every remote request.
func NewClient(
	localPath string,
	remoteURL string,
	timeout time.Duration,
	logger *logger.Logger,
) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: timeout,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Client{
		localPath: localPath,
		remoteURL: remoteURL,
		userAgent: "adsb-proxy/1.0",
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger.Named("adsb-client"),
	}
}

// ReadLocal reads and parses the local snapshot file
func (c *Client) ReadLocal() (*LocalSnapshot, error) {
	data, err := os.ReadFile(c.localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read local snapshot: %w", err)
	}

	snapshot, err := parseLocal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse local snapshot %s: %w", c.localPath, err)
	}

	c.logger.Debug("Read local ADS-B data",
		logger.String("path", c.localPath),
		logger.Int("aircraft_count", snapshot.aircraftCount),
		logger.Int("bytes", len(data)),
	)

	return snapshot, nil
}

// parseLocal validates the document and counts its aircraft without decoding them
func parseLocal(data []byte) (*LocalSnapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, errNullSnapshot
	}

	var envelope struct {
		Aircraft []json.RawMessage `json:"aircraft"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}

	return &LocalSnapshot{
		raw:           json.RawMessage(trimmed),
		aircraftCount: len(envelope.Aircraft),
	}, nil
}

// FetchRemote performs one request against the remote API. There are no retries.
func (c *Client) FetchRemote(ctx context.Context) (*RemoteResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.remoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("Fetching remote ADS-B data", logger.String("url", c.remoteURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, errors.New("failed to parse JSON: null response")
	}

	var data RemoteResponse
	if err := json.Unmarshal(body, &data); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.Debug("Response body preview", logger.String("body", bodyPreview))
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	c.logger.Debug("Successfully fetched remote ADS-B data",
		logger.Int("aircraft_count", len(data.AC)),
		logger.Int("total", data.Total),
	)

	return &data, nil
}
