/*
Package rpcclient implements a GlowSphere node JSON-RPC client. Client works
over HTTP, WSClient adds event subscriptions on top of a websocket
connection.
*/
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/glowsphere/glowsphere/pkg/sphererpc"
	"github.com/glowsphere/glowsphere/pkg/sphererpc/result"
	"go.uber.org/atomic"
)

const (
	defaultDialTimeout    = 4 * time.Second
	defaultRequestTimeout = 4 * time.Second
)

// Client represents the middleman for executing JSON RPC calls
// to remote GlowSphere nodes. Client is thread-safe and can be used from
// multiple goroutines.
type Client struct {
	cli       *http.Client
	endpoint  *url.URL
	ctx       context.Context
	ctxCancel context.CancelFunc
	opts      Options
	requestF  func(*sphererpc.Request) (*sphererpc.Response, error)

	cacheLock sync.RWMutex
	// cache stores RPC node related information the client is bound to.
	// cache is filled in during Init.
	cache cache

	latestReqID *atomic.Uint64
	// getNextRequestID returns an ID to be used for the subsequent request creation.
	getNextRequestID func() uint64
}

// Options defines options for the RPC client.
// All values are optional. If any duration is not specified,
// a default of 4 seconds will be used.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// Limit total number of connections per host. No limit by default.
	MaxConnsPerHost int
}

// cache stores cache values for the RPC client methods.
type cache struct {
	initDone bool
	version  result.Version
}

var errNotInitialized = errors.New("RPC client is not initialized")

// New returns a new Client ready to use. Call Init to fetch node parameters
// needed by CalculateValidUntilBlock.
func New(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	cl := new(Client)
	err := initClient(ctx, cl, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

func initClient(ctx context.Context, cl *Client, endpoint string, opts Options) error {
	url, err := url.Parse(endpoint)
	if err != nil {
		return err
	}

	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: opts.DialTimeout,
			}).DialContext,
			MaxConnsPerHost: opts.MaxConnsPerHost,
		},
		Timeout: opts.RequestTimeout,
	}

	cl.ctx, cl.ctxCancel = context.WithCancel(ctx)
	cl.cli = httpClient
	cl.endpoint = url
	cl.latestReqID = atomic.NewUint64(0)
	cl.getNextRequestID = (cl).getRequestID
	cl.opts = opts
	cl.requestF = cl.makeHTTPRequest
	return nil
}

func (c *Client) getRequestID() uint64 {
	return c.latestReqID.Inc()
}

// Init fetches the node version and protocol settings. It should be called
// before CalculateValidUntilBlock.
func (c *Client) Init() error {
	version, err := c.GetVersion()
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	c.cache.version = *version
	c.cache.initDone = true
	return nil
}

// Endpoint returns the client endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Close closes unused underlying networks connections.
func (c *Client) Close() {
	c.ctxCancel()
	c.cli.CloseIdleConnections()
}

func (c *Client) performRequest(method string, p []any, v any) error {
	if p == nil {
		p = []any{}
	}
	var r = sphererpc.Request{
		JSONRPC: sphererpc.JSONRPCVersion,
		Method:  method,
		Params:  p,
		ID:      c.getNextRequestID(),
	}

	raw, err := c.requestF(&r)

	if raw != nil && raw.Error != nil {
		return raw.Error
	} else if err != nil {
		return err
	} else if raw == nil || raw.Result == nil {
		return errors.New("no result returned")
	}
	return json.Unmarshal(raw.Result, v)
}

func (c *Client) makeHTTPRequest(r *sphererpc.Request) (*sphererpc.Response, error) {
	var (
		buf = new(bytes.Buffer)
		raw = new(sphererpc.Response)
	)

	if err := json.NewEncoder(buf).Encode(r); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.endpoint.String(), buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The node might send us a proper JSON anyway, so look there first and if
	// it parses, it has more relevant data than HTTP error code.
	err = json.NewDecoder(resp.Body).Decode(raw)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("HTTP %d/%s", resp.StatusCode, http.StatusText(resp.StatusCode))
		} else {
			err = fmt.Errorf("JSON decoding: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Ping attempts to create a connection to the endpoint
// and returns an error if there is any.
func (c *Client) Ping() error {
	conn, err := net.DialTimeout("tcp", c.endpoint.Host, defaultDialTimeout)
	if err != nil {
		return err
	}
	_ = conn.Close()
	return nil
}
