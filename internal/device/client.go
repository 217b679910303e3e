package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// Device endpoint paths
const (
	PathMap      = "/api/map_ex"
	PathSet      = "/api/map_ex_set"
	PathDownload = "/api/map_ex_download"
	PathUpload   = "/api/map_ex_upload"
	PathReset    = "/api/map_ex_reset"
	PathPing     = "/api/ping"
	PathMonitor  = "/ws/scancodes"
)

const (
	// maxResponseSize bounds how much of a response body is read into memory
	maxResponseSize = 1 << 20
	// maxErrorExcerpt bounds the body text carried in a TransportError
	maxErrorExcerpt = 200
)

// Result describes one completed device request
type Result struct {
	Op       Op
	Method   string
	Path     string
	USB      int // usage code for save requests, -1 otherwise
	Status   int
	Duration time.Duration
	Err      error
}

// Observer is notified after every device request
type Observer func(Result)

// Options configures a Client
type Options struct {
	// Timeout applies to each request; zero leaves requests unbounded
	Timeout time.Duration
	// Observer, if set, receives every request result
	Observer Observer
	// HTTPClient overrides the client built from Timeout
	HTTPClient *http.Client
}

// Client talks to the keymap endpoints of one device. Every operation is a
// single request: nothing is retried and nothing is cached.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	observer Observer
}

// NewClient creates a client for the device at rawURL. A bare host is
// treated as http://host.
func NewClient(rawURL string, opts Options) (*Client, error) {
	base, err := ParseDeviceURL(rawURL)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		}
	}

	return &Client{
		baseURL:  base,
		http:     httpClient,
		observer: opts.Observer,
	}, nil
}

// ParseDeviceURL normalizes a device address into a base URL
func ParseDeviceURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("device URL is empty")
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid device URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid device URL %q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid device URL %q: missing host", rawURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// BaseURL returns the device base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	return u.String()
}

// Load fetches the full table
func (c *Client) Load(ctx context.Context) (keymap.Table, error) {
	status, body, err := c.do(ctx, OpLoad, http.MethodGet, PathMap, nil, -1)
	if err != nil {
		return keymap.Table{}, err
	}
	table, err := keymap.DecodeTable(body, false)
	if err != nil {
		return keymap.Table{}, &TransportError{Op: OpLoad, Status: status, Err: err}
	}
	return table, nil
}

// SaveEntry submits one entry
func (c *Client) SaveEntry(ctx context.Context, e keymap.Entry) error {
	if !keymap.ValidUSB(e.USB) {
		return fmt.Errorf("%w: usb %d out of range", keymap.ErrInvalidEntry, e.USB)
	}
	payload, err := keymap.EncodeEntry(e)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}
	_, _, err = c.do(ctx, OpSave, http.MethodPost, PathSet, payload, e.USB)
	return err
}

// UploadAll submits a whole table. raw must be an array of exactly 256
// entry-shaped objects; otherwise a *keymap.ShapeError is returned and no
// request is sent. Callers reload afterwards to observe the device's result.
func (c *Client) UploadAll(ctx context.Context, raw []byte) error {
	payload, err := keymap.CheckShape(raw)
	if err != nil {
		return err
	}
	_, _, err = c.do(ctx, OpUpload, http.MethodPost, PathUpload, payload, -1)
	return err
}

// DownloadURL returns the export endpoint a browser navigates to
func (c *Client) DownloadURL() string {
	return c.endpoint(PathDownload)
}

// Download streams the export attachment into w
func (c *Client) Download(ctx context.Context, w io.Writer) (int64, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(PathDownload), nil)
	if err != nil {
		return 0, &TransportError{Op: OpDownload, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		terr := &TransportError{Op: OpDownload, Err: err}
		c.notify(Result{Op: OpDownload, Method: http.MethodGet, Path: PathDownload, USB: -1, Duration: time.Since(start), Err: terr})
		return 0, terr
	}
	defer resp.Body.Close()

	if !IsSuccessStatus(resp.StatusCode) {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorExcerpt))
		terr := &TransportError{Op: OpDownload, Status: resp.StatusCode, Message: strings.TrimSpace(string(excerpt))}
		c.notify(Result{Op: OpDownload, Method: http.MethodGet, Path: PathDownload, USB: -1, Status: resp.StatusCode, Duration: time.Since(start), Err: terr})
		return 0, terr
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		err = &TransportError{Op: OpDownload, Status: resp.StatusCode, Err: err}
	}
	c.notify(Result{Op: OpDownload, Method: http.MethodGet, Path: PathDownload, USB: -1, Status: resp.StatusCode, Duration: time.Since(start), Err: err})
	return n, err
}

// Reset asks the device to restore its default table. Callers reload afterwards.
func (c *Client) Reset(ctx context.Context) error {
	_, _, err := c.do(ctx, OpReset, http.MethodPost, PathReset, nil, -1)
	return err
}

// Ping checks that the device answers and returns the round trip time
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, _, err := c.do(ctx, OpPing, http.MethodGet, PathPing, nil, -1)
	return time.Since(start), err
}

// do performs one request and returns the status and body of a 2xx response
func (c *Client) do(ctx context.Context, op Op, method, path string, payload []byte, usb int) (int, []byte, error) {
	start := time.Now()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), bodyReader)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		terr := &TransportError{Op: op, Err: err}
		c.notify(Result{Op: op, Method: method, Path: path, USB: usb, Duration: time.Since(start), Err: terr})
		return 0, nil, terr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		terr := &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
		c.notify(Result{Op: op, Method: method, Path: path, USB: usb, Status: resp.StatusCode, Duration: time.Since(start), Err: terr})
		return resp.StatusCode, nil, terr
	}

	if !IsSuccessStatus(resp.StatusCode) {
		terr := &TransportError{Op: op, Status: resp.StatusCode, Message: excerpt(body)}
		c.notify(Result{Op: op, Method: method, Path: path, USB: usb, Status: resp.StatusCode, Duration: time.Since(start), Err: terr})
		return resp.StatusCode, nil, terr
	}

	c.notify(Result{Op: op, Method: method, Path: path, USB: usb, Status: resp.StatusCode, Duration: time.Since(start)})
	return resp.StatusCode, body, nil
}

func (c *Client) notify(r Result) {
	ev := log.Debug()
	if r.Err != nil {
		ev = log.Warn().Err(r.Err)
	}
	ev.Str("op", string(r.Op)).
		Str("method", r.Method).
		Str("path", r.Path).
		Int("status", r.Status).
		Dur("duration", r.Duration).
		Msg("device request")

	if c.observer != nil {
		c.observer(r)
	}
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorExcerpt {
		s = s[:maxErrorExcerpt-3] + "..."
	}
	return s
}
