package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/mempoolevent"
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/sphererpc"
	"github.com/glowsphere/glowsphere/pkg/sphererpc/rpcevent"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
)

// WSClient is a websocket-enabled RPC client that can be used with appropriate
// servers. It's supposed to be faster than Client because it has persistent
// connection to the server and it also supports event-based subscriptions.
// Any RPC method from Client can be used via WSClient.
//
// Subscriptions deliver events to the channels passed to Receive* methods.
// Receiver channels must be drained regularly, a blocked receiver blocks
// the whole connection. When the server reports a missed event all receiver
// channels are closed and subscriptions are dropped.
type WSClient struct {
	Client
	ws       *websocket.Conn
	wsOpts   WSOptions
	done     chan struct{}
	requests chan *sphererpc.Request
	shutdown chan struct{}

	closeCalled atomic.Bool

	closeErrLock sync.RWMutex
	closeErr     error

	subscriptionsLock sync.RWMutex
	receivers         map[string]notificationReceiver

	respLock     sync.RWMutex
	respChannels map[uint64]chan *sphererpc.Response
}

// WSOptions defines options for the web-socket RPC client. It contains a
// set of options for the underlying standard RPC client.
type WSOptions struct {
	Options
	// CloseNotificationChannelIfFull allows WSClient to close a subscriber
	// channel in case the channel is full instead of blocking.
	CloseNotificationChannelIfFull bool
}

// notificationReceiver is a subscription channel with its filter. The
// server sends an event once per connection if any of its feeds matches,
// so every receiver checks its own filter again.
type notificationReceiver interface {
	rpcevent.Comparator
	// TrySend decodes the payload and sends it to the receiver channel if it
	// passes the filter. It returns false if the channel is full and
	// nonBlocking is set.
	TrySend(payload json.RawMessage, nonBlocking bool) (bool, error)
	Close()
}

// feed is the event type and the optional filter of a receiver.
type feed struct {
	event  sphererpc.EventID
	filter any
}

func (f feed) EventID() sphererpc.EventID { return f.event }

func (f feed) Filter() any { return f.filter }

func (f feed) matches(payload any) bool {
	return rpcevent.Matches(f, &sphererpc.Notification{Event: f.event, Payload: []any{payload}})
}

type blockReceiver struct {
	feed
	ch chan<- *block.Block
}

func (r *blockReceiver) TrySend(payload json.RawMessage, nonBlocking bool) (bool, error) {
	b := new(block.Block)
	if err := json.Unmarshal(payload, b); err != nil {
		return false, err
	}
	if !r.matches(b) {
		return true, nil
	}
	return trySend(r.ch, b, nonBlocking), nil
}

func (r *blockReceiver) Close() { close(r.ch) }

type executionReceiver struct {
	feed
	ch chan<- *state.Receipt
}

func (r *executionReceiver) TrySend(payload json.RawMessage, nonBlocking bool) (bool, error) {
	receipt := new(state.Receipt)
	if err := json.Unmarshal(payload, receipt); err != nil {
		return false, err
	}
	if !r.matches(receipt) {
		return true, nil
	}
	return trySend(r.ch, receipt, nonBlocking), nil
}

func (r *executionReceiver) Close() { close(r.ch) }

type mempoolReceiver struct {
	feed
	ch chan<- *mempoolevent.Event
}

func (r *mempoolReceiver) TrySend(payload json.RawMessage, nonBlocking bool) (bool, error) {
	e := new(mempoolevent.Event)
	if err := json.Unmarshal(payload, e); err != nil {
		return false, err
	}
	if !r.matches(e) {
		return true, nil
	}
	return trySend(r.ch, e, nonBlocking), nil
}

func (r *mempoolReceiver) Close() { close(r.ch) }

func trySend[T any](ch chan<- T, v T, nonBlocking bool) bool {
	if !nonBlocking {
		ch <- v
		return true
	}
	select {
	case ch <- v:
		return true
	default:
		return false
	}
}

const (
	// Message limit for receiving side.
	wsReadLimit = 10 * 1024 * 1024

	// Disconnection timeout.
	wsPongLimit = 60 * time.Second

	// Ping period for connection liveness check.
	wsPingPeriod = wsPongLimit / 2

	// Write deadline.
	wsWriteLimit = wsPingPeriod / 2
)

// wsResponse is either a response to a request or a server notification.
type wsResponse struct {
	sphererpc.Response
	Method    string            `json:"method"`
	RawParams []json.RawMessage `json:"params"`
}

func strconvUint64(raw json.RawMessage) (uint64, error) {
	var id uint64
	err := json.Unmarshal(raw, &id)
	return id, err
}

// ErrNilNotificationReceiver is returned when notification receiver channel is nil.
var ErrNilNotificationReceiver = errors.New("nil notification receiver")

// ErrWSConnLost is a WSClient-specific error that will be returned for any
// requests after disconnection (including intentional ones via
// (*WSClient).Close).
var ErrWSConnLost = errors.New("connection lost")

// NewWS returns a new WSClient ready to use (with established websocket
// connection). You need to use websocket URL for it like `ws://1.2.3.4/ws`.
func NewWS(ctx context.Context, endpoint string, opts WSOptions) (*WSClient, error) {
	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil { // Can be non-nil even with error returned.
		defer resp.Body.Close() // Not exactly required by websocket, but let's do this for bodyclose checker.
	}
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			err = fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, err
	}
	wsc := &WSClient{
		Client:       Client{},
		ws:           ws,
		wsOpts:       opts,
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
		requests:     make(chan *sphererpc.Request),
		receivers:    make(map[string]notificationReceiver),
		respChannels: make(map[uint64]chan *sphererpc.Response),
	}

	err = initClient(ctx, &wsc.Client, endpoint, opts.Options)
	if err != nil {
		ws.Close()
		return nil, err
	}
	wsc.Client.requestF = wsc.makeWsRequest
	go wsc.wsReader()
	go wsc.wsWriter()
	return wsc, nil
}

// Close closes connection to the remote side rendering this client instance
// unusable.
func (c *WSClient) Close() {
	if c.closeCalled.CompareAndSwap(false, true) {
		c.setCloseErr(errors.New("connection lost: client closed"))
		// Closing shutdown channel sends a signal to wsWriter to break out of the
		// loop. In doing so it does ws.Close() closing the network connection
		// which in turn makes wsReader receive an err from ws.ReadJSON() and also
		// break out of the loop closing c.done channel in its shutdown sequence.
		close(c.shutdown)
		// Call to cancel will send signal to all users of Context().
		c.Client.ctxCancel()
	}
	<-c.done
}

func (c *WSClient) wsReader() {
	c.ws.SetReadLimit(wsReadLimit)
	c.ws.SetPongHandler(func(string) error {
		err := c.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
		if err != nil {
			c.setCloseErr(fmt.Errorf("failed to set pong read deadline: %w", err))
		}
		return err
	})
	var connCloseErr error
readloop:
	for {
		rr := new(wsResponse)
		err := c.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
		if err != nil {
			connCloseErr = fmt.Errorf("failed to set response read deadline: %w", err)
			break readloop
		}
		err = c.ws.ReadJSON(rr)
		if err != nil {
			// Malformed response or connection closed.
			connCloseErr = fmt.Errorf("failed to read JSON response (timeout/connection loss/malformed response): %w", err)
			break readloop
		}
		if rr.ID == nil && rr.Method != "" {
			event, err := sphererpc.GetEventIDFromString(rr.Method)
			if err != nil {
				// Bad event received.
				connCloseErr = fmt.Errorf("failed to parse event ID from string %s: %w", rr.Method, err)
				break readloop
			}
			if event != sphererpc.MissedEventID && len(rr.RawParams) != 1 {
				// Bad event received.
				connCloseErr = fmt.Errorf("bad event received: %s / %d", event, len(rr.RawParams))
				break readloop
			}
			if event == sphererpc.MissedEventID {
				c.dropSubscriptions()
				continue readloop
			}
			if err := c.notifySubscribers(event, rr.RawParams[0]); err != nil {
				connCloseErr = err
				break readloop
			}
		} else if rr.ID != nil && (rr.Error != nil || rr.Result != nil) {
			id, err := strconvUint64(rr.ID)
			if err != nil {
				connCloseErr = fmt.Errorf("failed to retrieve response ID: %w", err)
				break readloop
			}
			c.respLock.RLock()
			ch, ok := c.respChannels[id]
			c.respLock.RUnlock()
			if ok {
				ch <- &rr.Response
			} // else received response for non-existing request: unexpected.
		} else {
			// Malformed response, neither valid request, nor valid response.
			connCloseErr = fmt.Errorf("malformed response")
			break readloop
		}
	}
	if connCloseErr != nil {
		c.setCloseErr(connCloseErr)
	}
	close(c.done)
	c.respLock.Lock()
	for _, ch := range c.respChannels {
		close(ch)
	}
	c.respChannels = nil
	c.respLock.Unlock()
	c.dropSubscriptions()
	c.Client.ctxCancel()
}

// notifySubscribers delivers the event to every receiver subscribed to it
// whose filter passes.
func (c *WSClient) notifySubscribers(event sphererpc.EventID, payload json.RawMessage) error {
	c.subscriptionsLock.Lock()
	defer c.subscriptionsLock.Unlock()
	for id, rcvr := range c.receivers {
		if rcvr.EventID() != event {
			continue
		}
		ok, err := rcvr.TrySend(payload, c.wsOpts.CloseNotificationChannelIfFull)
		if err != nil {
			return fmt.Errorf("failed to decode %s event: %w", event, err)
		}
		if !ok {
			rcvr.Close()
			delete(c.receivers, id)
		}
	}
	return nil
}

// dropSubscriptions closes all receiver channels.
func (c *WSClient) dropSubscriptions() {
	c.subscriptionsLock.Lock()
	defer c.subscriptionsLock.Unlock()
	for id, rcvr := range c.receivers {
		rcvr.Close()
		delete(c.receivers, id)
	}
}

func (c *WSClient) wsWriter() {
	pingTicker := time.NewTicker(wsPingPeriod)
	defer c.ws.Close()
	defer pingTicker.Stop()
	for {
		select {
		case <-c.shutdown:
			return
		case <-c.done:
			return
		case req, ok := <-c.requests:
			if !ok {
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				c.setCloseErr(fmt.Errorf("failed to set request write deadline: %w", err))
				return
			}
			if err := c.ws.WriteJSON(req); err != nil {
				c.setCloseErr(fmt.Errorf("failed to write JSON request (%s, %d parameters): %w", req.Method, len(req.Params), err))
				return
			}
		case <-pingTicker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				c.setCloseErr(fmt.Errorf("failed to set ping write deadline: %w", err))
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				c.setCloseErr(fmt.Errorf("failed to write ping message: %w", err))
				return
			}
		}
	}
}

func (c *WSClient) unregisterRespChannel(id uint64) {
	c.respLock.Lock()
	defer c.respLock.Unlock()
	if ch, ok := c.respChannels[id]; ok {
		delete(c.respChannels, id)
		close(ch)
	}
}

func (c *WSClient) getResponseChannel(id uint64) chan *sphererpc.Response {
	c.respLock.Lock()
	defer c.respLock.Unlock()
	if c.respChannels == nil {
		return nil
	}
	ch := make(chan *sphererpc.Response)
	c.respChannels[id] = ch
	return ch
}

func (c *WSClient) makeWsRequest(r *sphererpc.Request) (*sphererpc.Response, error) {
	ch := c.getResponseChannel(r.ID)
	if ch == nil {
		return nil, c.getCloseErr()
	}
	defer c.unregisterRespChannel(r.ID)

	select {
	case <-c.done:
		return nil, c.getCloseErr()
	case c.requests <- r:
	}

	select {
	case <-c.done:
		return nil, c.getCloseErr()
	case resp, ok := <-ch:
		if !ok {
			return nil, c.getCloseErr()
		}
		return resp, nil
	}
}

func (c *WSClient) performSubscription(params []any, rcvr notificationReceiver) (string, error) {
	var resp string

	if err := c.performRequest("subscribe", params, &resp); err != nil {
		return "", err
	}

	c.subscriptionsLock.Lock()
	defer c.subscriptionsLock.Unlock()

	c.receivers[resp] = rcvr
	return resp, nil
}

// ReceiveBlocks registers provided channel as a receiver for new blocks.
// The filter limits the range of block indexes, it's optional.
func (c *WSClient) ReceiveBlocks(flt *sphererpc.BlockFilter, rcvr chan<- *block.Block) (string, error) {
	if rcvr == nil {
		return "", ErrNilNotificationReceiver
	}
	params := []any{"block_added"}
	r := &blockReceiver{feed: feed{event: sphererpc.BlockEventID}, ch: rcvr}
	if flt != nil {
		params = append(params, *flt)
		r.filter = *flt
	}
	return c.performSubscription(params, r)
}

// ReceiveExecutions registers provided channel as a receiver for transaction
// receipts. The filter matches the sender, the method and the outcome
// (ok, err or fault), it's optional.
func (c *WSClient) ReceiveExecutions(flt *sphererpc.ExecutionFilter, rcvr chan<- *state.Receipt) (string, error) {
	if rcvr == nil {
		return "", ErrNilNotificationReceiver
	}
	params := []any{"transaction_executed"}
	r := &executionReceiver{feed: feed{event: sphererpc.ExecutionEventID}, ch: rcvr}
	if flt != nil {
		params = append(params, *flt)
		r.filter = *flt
	}
	return c.performSubscription(params, r)
}

// ReceiveMempoolEvents registers provided channel as a receiver for mempool
// events. The filter matches the sender and the event type, it's optional.
func (c *WSClient) ReceiveMempoolEvents(flt *sphererpc.MempoolEventFilter, rcvr chan<- *mempoolevent.Event) (string, error) {
	if rcvr == nil {
		return "", ErrNilNotificationReceiver
	}
	params := []any{"mempool_event"}
	r := &mempoolReceiver{feed: feed{event: sphererpc.MempoolEventID}, ch: rcvr}
	if flt != nil {
		params = append(params, *flt)
		r.filter = *flt
	}
	return c.performSubscription(params, r)
}

// Unsubscribe removes subscription for the given event stream. It will
// close the receiver channel.
func (c *WSClient) Unsubscribe(id string) error {
	c.subscriptionsLock.Lock()
	rcvr, ok := c.receivers[id]
	c.subscriptionsLock.Unlock()
	if !ok {
		return errors.New("no subscription with this ID")
	}
	var resp bool
	if err := c.performRequest("unsubscribe", []any{id}, &resp); err != nil {
		return err
	}
	if !resp {
		return errors.New("unsubscribe method returned false result")
	}
	c.subscriptionsLock.Lock()
	if _, ok := c.receivers[id]; ok {
		rcvr.Close()
		delete(c.receivers, id)
	}
	c.subscriptionsLock.Unlock()
	return nil
}

// UnsubscribeAll removes all active subscriptions of the current client.
func (c *WSClient) UnsubscribeAll() error {
	c.subscriptionsLock.Lock()
	ids := make([]string, 0, len(c.receivers))
	for id := range c.receivers {
		ids = append(ids, id)
	}
	c.subscriptionsLock.Unlock()

	var errs []error
	for _, id := range ids {
		if err := c.Unsubscribe(id); err != nil {
			errs = append(errs, fmt.Errorf("failed to unsubscribe from feed %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// setCloseErr is a thread-safe way to set closeErr in case if it's not yet set.
func (c *WSClient) setCloseErr(err error) {
	c.closeErrLock.Lock()
	defer c.closeErrLock.Unlock()
	if c.closeErr == nil {
		c.closeErr = err
	}
}

// GetError returns the reason of WS connection closing. It returns nil in case if connection
// was closed by the use via Close() method calling.
func (c *WSClient) GetError() error {
	c.closeErrLock.RLock()
	defer c.closeErrLock.RUnlock()

	if c.closeErr != nil && strings.Contains(c.closeErr.Error(), "client closed") {
		return nil
	}
	return c.closeErr
}

// getCloseErr is a thread-safe way to get closeErr wrapped with ErrWSConnLost.
func (c *WSClient) getCloseErr() error {
	c.closeErrLock.RLock()
	defer c.closeErrLock.RUnlock()
	if c.closeErr != nil {
		return fmt.Errorf("%w: %w", ErrWSConnLost, c.closeErr)
	}
	return ErrWSConnLost
}

// Context returns WSClient Cancel context that will be terminated on
// Client shutdown.
func (c *WSClient) Context() context.Context {
	return c.Client.ctx
}
