package rpcsrv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/glowsphere/glowsphere/pkg/config"
	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/glowsphere"
	"github.com/glowsphere/glowsphere/pkg/core/mempool"
	"github.com/glowsphere/glowsphere/pkg/core/mempoolevent"
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/core/storage"
	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"github.com/glowsphere/glowsphere/pkg/encoding/address"
	"github.com/glowsphere/glowsphere/pkg/services/rpcsrv/params"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/smartcontract/manifest"
	"github.com/glowsphere/glowsphere/pkg/sphererpc"
	"github.com/glowsphere/glowsphere/pkg/sphererpc/result"
	"github.com/glowsphere/glowsphere/pkg/sphererpc/rpcevent"
	"github.com/glowsphere/glowsphere/pkg/util"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type (
	// Ledger abstracts away the Blockchain as used by the RPC server.
	Ledger interface {
		BlockHeight() uint32
		CallReadOnly(caller util.Uint160, method string, args ...smartcontract.Parameter) (*state.Receipt, error)
		CurrentBlockHash() util.Uint256
		GetBlock(hash util.Uint256) (*block.Block, error)
		GetBlockByIndex(index uint32) (*block.Block, error)
		GetConfig() config.ProtocolConfiguration
		GetManifest() *manifest.Manifest
		GetMemPool() *mempool.Pool
		GetReceipt(hash util.Uint256) (*state.Receipt, error)
		PoolTx(tx *transaction.Transaction) error
		SubscribeForBlocks(ch chan<- *block.Block)
		SubscribeForExecutions(ch chan<- *state.Receipt)
		UnsubscribeFromBlocks(ch chan<- *block.Block)
		UnsubscribeFromExecutions(ch chan<- *state.Receipt)
	}

	// Server represents the JSON-RPC 2.0 server.
	Server struct {
		http []*http.Server

		chain     Ledger
		config    config.RPC
		userAgent string
		// wsReadLimit represents web-socket message limit for a receiving side.
		wsReadLimit int64
		upgrader    websocket.Upgrader
		log         *zap.Logger
		shutdown    chan struct{}
		started     atomic.Bool
		errChan     chan<- error

		subsLock    sync.RWMutex
		subscribers map[*subscriber]bool

		subsCounterLock sync.RWMutex
		blockSubs       int
		executionSubs   int
		mempoolSubs     int

		blockCh     chan *block.Block
		executionCh chan *state.Receipt
		mempoolCh   chan mempoolevent.Event
	}
)

const (
	// Disconnection timeout.
	wsPongLimit = 60 * time.Second

	// Ping period for connection liveness check.
	wsPingPeriod = wsPongLimit / 2

	// Write deadline.
	wsWriteLimit = wsPingPeriod / 2

	// readHeaderTimeout limits the time a client has to send request headers.
	readHeaderTimeout = 10 * time.Second
)

var rpcHandlers = map[string]func(*Server, params.Params) (any, *sphererpc.Error){
	"getbestblockhash":  (*Server).getBestBlockHash,
	"getblock":          (*Server).getBlock,
	"getblockcount":     (*Server).getBlockCount,
	"getmanifest":       (*Server).getManifest,
	"getprogressrecord": (*Server).getProgressRecord,
	"getreceipt":        (*Server).getReceipt,
	"getroutine":        (*Server).getRoutine,
	"getuserstats":      (*Server).getUserStats,
	"getversion":        (*Server).getVersion,
	"hasliked":          (*Server).hasLiked,
	"invokefunction":    (*Server).invokeFunction,
	"isfollowing":       (*Server).isFollowing,
	"sendtransaction":   (*Server).sendTransaction,
	"validateaddress":   (*Server).validateAddress,
}

var rpcWsHandlers = map[string]func(*Server, params.Params, *subscriber) (any, *sphererpc.Error){
	"subscribe":   (*Server).subscribe,
	"unsubscribe": (*Server).unsubscribe,
}

// New creates a new Server struct. Errors of the listeners are sent to
// errChan.
func New(chain Ledger, conf config.RPC, userAgent string, log *zap.Logger, errChan chan<- error) *Server {
	addrs := conf.GetAddresses()
	httpServers := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		httpServers[i] = &http.Server{
			Addr:              addr,
			MaxHeaderBytes:    conf.MaxRequestHeaderBytes,
			ReadHeaderTimeout: readHeaderTimeout,
		}
	}

	if conf.MaxWebSocketClients == 0 {
		conf.MaxWebSocketClients = config.DefaultMaxWebSocketClients
		log.Info("MaxWebSocketClients is not set or wrong, setting default value", zap.Int("MaxWebSocketClients", config.DefaultMaxWebSocketClients))
	}
	if conf.MaxBatchSize == 0 {
		conf.MaxBatchSize = config.DefaultMaxBatchSize
	}
	if conf.MaxRequestBodyBytes == 0 {
		conf.MaxRequestBodyBytes = config.DefaultMaxRequestBodyBytes
	}
	var wsOriginChecker func(*http.Request) bool
	if conf.EnableCORSWorkaround {
		wsOriginChecker = func(_ *http.Request) bool { return true }
	}
	return &Server{
		http:        httpServers,
		chain:       chain,
		config:      conf,
		userAgent:   userAgent,
		wsReadLimit: int64(transaction.MaxTransactionSize*4)/3 + 1024, // Enough for a base64-encoded transaction.
		upgrader:    websocket.Upgrader{CheckOrigin: wsOriginChecker},
		log:         log.With(zap.String("service", "rpc")),
		shutdown:    make(chan struct{}),
		errChan:     errChan,

		subscribers: make(map[*subscriber]bool),
		// These are NOT buffered to preserve original order of events.
		blockCh:     make(chan *block.Block),
		executionCh: make(chan *state.Receipt),
		mempoolCh:   make(chan mempoolevent.Event),
	}
}

// Name returns service name.
func (s *Server) Name() string {
	return "rpc"
}

// Addresses returns the list of addresses the server listens on, the actual
// ones after Start.
func (s *Server) Addresses() []string {
	res := make([]string, len(s.http))
	for i, srv := range s.http {
		res[i] = srv.Addr
	}
	return res
}

// Start creates a new JSON-RPC server listening on the configured addresses.
// It creates goroutines needed internally and it returns its errors via
// errChan passed to New(). The Server only starts once, subsequent calls to
// Start are no-op.
func (s *Server) Start() {
	if !s.config.Enabled {
		s.log.Info("RPC server is not enabled")
		return
	}
	if !s.started.CompareAndSwap(false, true) {
		s.log.Info("RPC server already started")
		return
	}

	go s.handleSubEvents()
	for _, srv := range s.http {
		srv.Handler = http.HandlerFunc(s.handleHTTPRequest)
		s.log.Info("starting rpc-server", zap.String("endpoint", srv.Addr))

		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			s.errChan <- fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
			return
		}
		srv.Addr = ln.Addr().String() // set Addr to the actual address
		go func(srv *http.Server) {
			err := srv.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("failed to start RPC server", zap.Error(err))
				s.errChan <- err
			}
		}(srv)
	}
}

// Shutdown stops the RPC server if it's running. It can only be called once,
// subsequent calls to Shutdown on the same instance are no-op. The instance
// that was stopped can not be started again by calling Start (use a new
// instance if needed).
func (s *Server) Shutdown() {
	if !s.started.CompareAndSwap(true, false) {
		return
	}
	// Signal to websocket writer routines and handleSubEvents.
	close(s.shutdown)

	for _, srv := range s.http {
		s.log.Info("shutting down RPC server", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			s.log.Warn("error during RPC (http) server shutdown", zap.Error(err))
		}
	}

	// Wait for handleSubEvents to finish.
	<-s.executionCh
}

func (s *Server) handleHTTPRequest(w http.ResponseWriter, httpRequest *http.Request) {
	req := params.NewRequest()

	if httpRequest.URL.Path == "/ws" && httpRequest.Method == http.MethodGet {
		// Technically there is a race between this check and
		// s.subscribers modification below, but it's tiny and not really
		// critical to bother with it.
		s.subsLock.RLock()
		numOfSubs := len(s.subscribers)
		s.subsLock.RUnlock()
		if numOfSubs >= s.config.MaxWebSocketClients {
			s.writeHTTPErrorResponse(
				params.NewIn(),
				w,
				sphererpc.NewInternalServerError("websocket users limit reached"),
			)
			return
		}
		ws, err := s.upgrader.Upgrade(w, httpRequest, nil)
		if err != nil {
			s.log.Info("websocket connection upgrade failed", zap.Error(err))
			return
		}
		resChan := make(chan abstractResult) // response.abstract or response.abstractBatch
		subChan := make(chan *websocket.PreparedMessage, notificationBufSize)
		subscr := &subscriber{writer: subChan, ws: ws}
		s.subsLock.Lock()
		s.subscribers[subscr] = true
		s.subsLock.Unlock()
		go s.handleWsWrites(ws, resChan, subChan)
		s.handleWsReads(ws, resChan, subscr)
		return
	}

	if httpRequest.Method == http.MethodOptions && s.config.EnableCORSWorkaround { // Preflight CORS.
		setCORSOriginHeaders(w.Header())
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST") // GET for websockets.
		w.Header().Set("Access-Control-Max-Age", "21600")           // 6 hours.
		return
	}

	if httpRequest.Method != http.MethodPost {
		s.writeHTTPErrorResponse(
			params.NewIn(),
			w,
			sphererpc.NewInvalidRequestError(fmt.Sprintf("invalid method '%s', please retry with 'POST'", httpRequest.Method)),
		)
		return
	}

	body := http.MaxBytesReader(w, httpRequest.Body, int64(s.config.MaxRequestBodyBytes))
	err := req.DecodeData(body)
	if err != nil {
		s.writeHTTPErrorResponse(params.NewIn(), w, sphererpc.NewParseError(err.Error()))
		return
	}

	resp := s.handleRequest(req, nil)
	s.writeHTTPServerResponse(req, w, resp)
}

func (s *Server) handleRequest(req *params.Request, sub *subscriber) abstractResult {
	if req.In != nil {
		req.In.Method = escapeForLog(req.In.Method) // No valid method name will be changed by it.
		return s.handleIn(req.In, sub)
	}
	if len(req.Batch) > s.config.MaxBatchSize {
		return s.packResponse(params.NewIn(), nil, sphererpc.NewInvalidRequestError(
			fmt.Sprintf("the number of requests in batch shouldn't exceed %d", s.config.MaxBatchSize)))
	}
	resp := make(abstractBatch, len(req.Batch))
	for i, in := range req.Batch {
		in.Method = escapeForLog(in.Method) // No valid method name will be changed by it.
		resp[i] = s.handleIn(&in, sub)
	}
	return resp
}

func (s *Server) handleIn(req *params.In, sub *subscriber) abstract {
	var res any
	var resErr *sphererpc.Error
	if req.JSONRPC != sphererpc.JSONRPCVersion {
		return s.packResponse(req, nil, sphererpc.NewInvalidRequestError(fmt.Sprintf("problem parsing JSON: invalid version, expected 2.0 got '%s'", req.JSONRPC)))
	}

	reqParams := params.Params(req.RawParams)

	s.log.Debug("processing rpc request",
		zap.String("method", req.Method),
		zap.Stringer("params", reqParams))

	start := time.Now()
	defer func() { addReqTimeMetric(req.Method, time.Since(start)) }()

	resErr = sphererpc.NewMethodNotFoundError(fmt.Sprintf("method %q not supported", req.Method))
	handler, ok := rpcHandlers[req.Method]
	if ok {
		res, resErr = handler(s, reqParams)
	} else if sub != nil {
		handler, ok := rpcWsHandlers[req.Method]
		if ok {
			res, resErr = handler(s, reqParams, sub)
		}
	}
	return s.packResponse(req, res, resErr)
}

func (s *Server) handleWsWrites(ws *websocket.Conn, resChan <-chan abstractResult, subChan <-chan *websocket.PreparedMessage) {
	pingTicker := time.NewTicker(wsPingPeriod)
eventloop:
	for {
		select {
		case <-s.shutdown:
			break eventloop
		case event, ok := <-subChan:
			if !ok {
				break eventloop
			}
			if err := ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				break eventloop
			}
			if err := ws.WritePreparedMessage(event); err != nil {
				break eventloop
			}
		case res, ok := <-resChan:
			if !ok {
				break eventloop
			}
			if err := ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				break eventloop
			}
			if err := ws.WriteJSON(res); err != nil {
				break eventloop
			}
		case <-pingTicker.C:
			if err := ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				break eventloop
			}
			if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				break eventloop
			}
		}
	}
	ws.Close()
	pingTicker.Stop()
	// Drain notification channel as there might be some goroutines blocked
	// on it.
drainloop:
	for {
		select {
		case _, ok := <-subChan:
			if !ok {
				break drainloop
			}
		default:
			break drainloop
		}
	}
}

func (s *Server) handleWsReads(ws *websocket.Conn, resChan chan<- abstractResult, subscr *subscriber) {
	ws.SetReadLimit(s.wsReadLimit)
	err := ws.SetReadDeadline(time.Now().Add(wsPongLimit))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(wsPongLimit)) })
requestloop:
	for err == nil {
		req := params.NewRequest()
		err := ws.ReadJSON(req)
		if err != nil {
			break
		}
		res := s.handleRequest(req, subscr)
		res.RunForErrors(func(jsonErr *sphererpc.Error) {
			s.logRequestError(req, jsonErr)
		})
		select {
		case <-s.shutdown:
			break requestloop
		case resChan <- res:
		}
	}

	s.subsLock.Lock()
	delete(s.subscribers, subscr)
	s.subsLock.Unlock()
	s.subsCounterLock.Lock()
	for _, e := range subscr.feeds {
		if e.event != sphererpc.InvalidEventID {
			s.unsubscribeFromChannel(e.event)
		}
	}
	s.subsCounterLock.Unlock()
	close(resChan)
	ws.Close()
}

func (s *Server) getBestBlockHash(_ params.Params) (any, *sphererpc.Error) {
	return s.chain.CurrentBlockHash(), nil
}

func (s *Server) getBlockCount(_ params.Params) (any, *sphererpc.Error) {
	return s.chain.BlockHeight() + 1, nil
}

func (s *Server) blockFromParam(param *params.Param) (*block.Block, *sphererpc.Error) {
	if param == nil {
		return nil, sphererpc.ErrInvalidParams
	}
	var (
		b   *block.Block
		err error
	)
	if hash, hashErr := param.GetUint256(); hashErr == nil {
		b, err = s.chain.GetBlock(hash)
	} else {
		num, respErr := s.blockHeightFromParam(param)
		if respErr != nil {
			return nil, respErr
		}
		b, err = s.chain.GetBlockByIndex(num)
	}
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, sphererpc.ErrUnknownBlock
		}
		return nil, sphererpc.NewInternalServerError(err.Error())
	}
	return b, nil
}

func (s *Server) fillBlockMetadata(b *block.Block, size int) result.BlockMetadata {
	res := result.BlockMetadata{
		Size:          size,
		Confirmations: s.chain.BlockHeight() - b.Index + 1,
	}
	if next, err := s.chain.GetBlockByIndex(b.Index + 1); err == nil {
		hash := next.Hash()
		res.NextBlockHash = &hash
	}
	return res
}

func (s *Server) getBlock(reqParams params.Params) (any, *sphererpc.Error) {
	b, respErr := s.blockFromParam(reqParams.Value(0))
	if respErr != nil {
		return nil, respErr
	}
	raw, err := b.Bytes()
	if err != nil {
		return nil, sphererpc.NewInternalServerError(err.Error())
	}
	if v, _ := reqParams.Value(1).GetBoolean(); v {
		return result.Block{
			Block:         *b,
			BlockMetadata: s.fillBlockMetadata(b, len(raw)),
		}, nil
	}
	return raw, nil
}

func (s *Server) getVersion(_ params.Params) (any, *sphererpc.Error) {
	cfg := s.chain.GetConfig()
	return &result.Version{
		UserAgent: s.userAgent,
		Contract:  s.chain.GetManifest().Name,
		Protocol: result.Protocol{
			AddressVersion:              address.Prefix,
			MillisecondsPerBlock:        int(cfg.TimePerBlock / time.Millisecond),
			MaxValidUntilBlockIncrement: cfg.MaxValidUntilBlockIncrement,
			MaxTransactionsPerBlock:     cfg.MaxTransactionsPerBlock,
			MemoryPoolMaxTransactions:   cfg.MemPoolSize,
		},
		RPC: result.RPC{
			MaxWebSocketClients: s.config.MaxWebSocketClients,
			MaxBatchSize:        s.config.MaxBatchSize,
		},
	}, nil
}

func (s *Server) getManifest(_ params.Params) (any, *sphererpc.Error) {
	return s.chain.GetManifest(), nil
}

func (s *Server) validateAddress(reqParams params.Params) (any, *sphererpc.Error) {
	param, err := reqParams.Value(0).GetString()
	if err != nil {
		return nil, sphererpc.ErrInvalidParams
	}

	return result.ValidateAddress{
		Address: reqParams.Value(0),
		IsValid: validateAddress(param),
	}, nil
}

func (s *Server) getReceipt(reqParams params.Params) (any, *sphererpc.Error) {
	hash, err := reqParams.Value(0).GetUint256()
	if err != nil {
		return nil, sphererpc.WrapErrorWithData(sphererpc.ErrInvalidParams, err.Error())
	}
	r, err := s.chain.GetReceipt(hash)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, sphererpc.WrapErrorWithData(sphererpc.ErrUnknownReceipt, hash.String())
		}
		return nil, sphererpc.NewInternalServerError(err.Error())
	}
	return r, nil
}

func (s *Server) sendTransaction(reqParams params.Params) (any, *sphererpc.Error) {
	if len(reqParams) < 1 {
		return nil, sphererpc.NewInvalidParamsError("not enough parameters")
	}
	byteTx, err := reqParams[0].GetBytesBase64()
	if err != nil {
		return nil, sphererpc.NewInvalidParamsError(fmt.Sprintf("not a base64: %s", err))
	}
	tx, err := transaction.NewTransactionFromBytes(byteTx)
	if err != nil {
		return nil, sphererpc.NewInvalidParamsError(fmt.Sprintf("can't decode transaction: %s", err))
	}
	if err := s.chain.PoolTx(tx); err != nil {
		return nil, submissionError(err)
	}
	return result.RelayResult{Hash: tx.Hash()}, nil
}

// invokeFunction evaluates the contract method on the latest state without
// persisting anything. Parameters: method name, array of typed arguments and
// an optional caller address.
func (s *Server) invokeFunction(reqParams params.Params) (any, *sphererpc.Error) {
	method, err := reqParams.Value(0).GetString()
	if err != nil {
		return nil, sphererpc.WrapErrorWithData(sphererpc.ErrInvalidParams, "method name is missing")
	}
	args, err := reqParams.Value(1).GetParameters()
	if err != nil {
		return nil, sphererpc.WrapErrorWithData(sphererpc.ErrInvalidParams, err.Error())
	}
	caller, respErr := optionalPrincipal(reqParams.Value(2))
	if respErr != nil {
		return nil, respErr
	}
	r, err := s.chain.CallReadOnly(caller, method, args...)
	if err != nil {
		return nil, invocationError(err)
	}
	return result.NewInvoke(r), nil
}

// callSafe evaluates a read-only contract method and returns its result value.
func (s *Server) callSafe(caller util.Uint160, method string, args ...smartcontract.Parameter) (any, *sphererpc.Error) {
	r, err := s.chain.CallReadOnly(caller, method, args...)
	if err != nil {
		return nil, invocationError(err)
	}
	return r.Response.Value, nil
}

func (s *Server) getRoutine(reqParams params.Params) (any, *sphererpc.Error) {
	id, err := reqParams.Value(0).GetUint64()
	if err != nil {
		return nil, sphererpc.WrapErrorWithData(sphererpc.ErrInvalidParams, "bad routine id")
	}
	caller, respErr := optionalPrincipal(reqParams.Value(1))
	if respErr != nil {
		return nil, respErr
	}
	return s.callSafe(caller, glowsphere.MethodGetRoutine, smartcontract.NewInteger(id))
}

func (s *Server) isFollowing(reqParams params.Params) (any, *sphererpc.Error) {
	follower, respErr := principalFromParam(reqParams.Value(0))
	if respErr != nil {
		return nil, respErr
	}
	followee, respErr := principalFromParam(reqParams.Value(1))
	if respErr != nil {
		return nil, respErr
	}
	return s.callSafe(follower, glowsphere.MethodIsFollowing,
		smartcontract.NewHash160(follower), smartcontract.NewHash160(followee))
}

func (s *Server) hasLiked(reqParams params.Params) (any, *sphererpc.Error) {
	user, respErr := principalFromParam(reqParams.Value(0))
	if respErr != nil {
		return nil, respErr
	}
	id, err := reqParams.Value(1).GetUint64()
	if err != nil {
		return nil, sphererpc.WrapErrorWithData(sphererpc.ErrInvalidParams, "bad routine id")
	}
	return s.callSafe(user, glowsphere.MethodHasLikedRoutine,
		smartcontract.NewHash160(user), smartcontract.NewInteger(id))
}

func (s *Server) getProgressRecord(reqParams params.Params) (any, *sphererpc.Error) {
	user, respErr := principalFromParam(reqParams.Value(0))
	if respErr != nil {
		return nil, respErr
	}
	id, err := reqParams.Value(1).GetUint64()
	if err != nil {
		return nil, sphererpc.WrapErrorWithData(sphererpc.ErrInvalidParams, "bad record id")
	}
	// Records are only visible to their owner, so an anonymous caller
	// gets none.
	caller, respErr := optionalPrincipal(reqParams.Value(2))
	if respErr != nil {
		return nil, respErr
	}
	return s.callSafe(caller, glowsphere.MethodGetProgressRecord,
		smartcontract.NewHash160(user), smartcontract.NewInteger(id))
}

func (s *Server) getUserStats(reqParams params.Params) (any, *sphererpc.Error) {
	user, respErr := principalFromParam(reqParams.Value(0))
	if respErr != nil {
		return nil, respErr
	}
	return s.callSafe(user, glowsphere.MethodGetUserStats, smartcontract.NewHash160(user))
}

// subscribe handles subscription requests from websocket clients.
func (s *Server) subscribe(reqParams params.Params, sub *subscriber) (any, *sphererpc.Error) {
	streamName, err := reqParams.Value(0).GetString()
	if err != nil {
		return nil, sphererpc.ErrInvalidParams
	}
	event, err := sphererpc.GetEventIDFromString(streamName)
	if err != nil || event == sphererpc.MissedEventID {
		return nil, sphererpc.ErrInvalidParams
	}
	// Optional filter.
	var filter any
	if p := reqParams.Value(1); p != nil {
		param := *p
		jd := json.NewDecoder(bytes.NewReader(param.RawMessage))
		jd.DisallowUnknownFields()
		switch event {
		case sphererpc.BlockEventID:
			flt := new(sphererpc.BlockFilter)
			err = jd.Decode(flt)
			filter = *flt
		case sphererpc.ExecutionEventID:
			flt := new(sphererpc.ExecutionFilter)
			err = jd.Decode(flt)
			if err == nil && (flt.State == nil || *flt.State == sphererpc.ExecutionOK ||
				*flt.State == sphererpc.ExecutionErr || *flt.State == sphererpc.ExecutionFault) {
				filter = *flt
			} else if err == nil {
				err = errors.New("invalid state")
			}
		case sphererpc.MempoolEventID:
			flt := new(sphererpc.MempoolEventFilter)
			err = jd.Decode(flt)
			if err == nil && flt.Type != nil {
				_, err = mempoolevent.ParseType(*flt.Type)
			}
			filter = *flt
		}
		if err != nil {
			return nil, sphererpc.WrapErrorWithData(sphererpc.ErrInvalidParams, err.Error())
		}
	}

	s.subsLock.Lock()
	var id int
	for ; id < len(sub.feeds); id++ {
		if sub.feeds[id].event == sphererpc.InvalidEventID {
			break
		}
	}
	if id == len(sub.feeds) {
		s.subsLock.Unlock()
		return nil, sphererpc.NewInternalServerError("maximum number of subscriptions is reached")
	}
	subID := uuid.New()
	sub.feeds[id].id = subID
	sub.feeds[id].event = event
	sub.feeds[id].filter = filter
	s.subsLock.Unlock()

	s.subsCounterLock.Lock()
	select {
	case <-s.shutdown:
		s.subsCounterLock.Unlock()
		return nil, sphererpc.NewInternalServerError("server is shutting down")
	default:
	}
	s.subscribeToChannel(event)
	s.subsCounterLock.Unlock()
	return subID.String(), nil
}

// subscribeToChannel subscribes RPC server to appropriate chain events if
// it's not yet subscribed for them. It's supposed to be called with s.subsCounterLock
// taken by the caller.
func (s *Server) subscribeToChannel(event sphererpc.EventID) {
	switch event {
	case sphererpc.BlockEventID:
		if s.blockSubs == 0 {
			s.chain.SubscribeForBlocks(s.blockCh)
		}
		s.blockSubs++
	case sphererpc.ExecutionEventID:
		if s.executionSubs == 0 {
			s.chain.SubscribeForExecutions(s.executionCh)
		}
		s.executionSubs++
	case sphererpc.MempoolEventID:
		if s.mempoolSubs == 0 {
			s.chain.GetMemPool().SubscribeForTransactions(s.mempoolCh)
		}
		s.mempoolSubs++
	}
}

// unsubscribe handles unsubscription requests from websocket clients.
func (s *Server) unsubscribe(reqParams params.Params, sub *subscriber) (any, *sphererpc.Error) {
	subID, err := reqParams.Value(0).GetUUID()
	if err != nil {
		return nil, sphererpc.WrapErrorWithData(sphererpc.ErrInvalidParams, err.Error())
	}
	s.subsLock.Lock()
	id := -1
	for i := range sub.feeds {
		if sub.feeds[i].event != sphererpc.InvalidEventID && sub.feeds[i].id == subID {
			id = i
			break
		}
	}
	if id < 0 {
		s.subsLock.Unlock()
		return nil, sphererpc.WrapErrorWithData(sphererpc.ErrInvalidParams, "unknown subscription")
	}
	event := sub.feeds[id].event
	sub.feeds[id] = feed{}
	s.subsLock.Unlock()

	s.subsCounterLock.Lock()
	s.unsubscribeFromChannel(event)
	s.subsCounterLock.Unlock()
	return true, nil
}

// unsubscribeFromChannel unsubscribes RPC server from appropriate chain events
// if there are no other subscribers for it. It must be called with s.subsCounterLock
// held by the caller.
func (s *Server) unsubscribeFromChannel(event sphererpc.EventID) {
	switch event {
	case sphererpc.BlockEventID:
		s.blockSubs--
		if s.blockSubs == 0 {
			s.chain.UnsubscribeFromBlocks(s.blockCh)
		}
	case sphererpc.ExecutionEventID:
		s.executionSubs--
		if s.executionSubs == 0 {
			s.chain.UnsubscribeFromExecutions(s.executionCh)
		}
	case sphererpc.MempoolEventID:
		s.mempoolSubs--
		if s.mempoolSubs == 0 {
			s.chain.GetMemPool().UnsubscribeFromTransactions(s.mempoolCh)
		}
	}
}

func (s *Server) handleSubEvents() {
	b, err := json.Marshal(sphererpc.Notification{
		JSONRPC: sphererpc.JSONRPCVersion,
		Event:   sphererpc.MissedEventID,
		Payload: make([]any, 0),
	})
	if err != nil {
		s.log.Error("fatal: failed to marshal overflow event", zap.Error(err))
		return
	}
	overflowMsg, err := websocket.NewPreparedMessage(websocket.TextMessage, b)
	if err != nil {
		s.log.Error("fatal: failed to prepare overflow message", zap.Error(err))
		return
	}
chloop:
	for {
		var resp = sphererpc.Notification{
			JSONRPC: sphererpc.JSONRPCVersion,
			Payload: make([]any, 1),
		}
		var msg *websocket.PreparedMessage
		select {
		case <-s.shutdown:
			break chloop
		case b := <-s.blockCh:
			resp.Event = sphererpc.BlockEventID
			resp.Payload[0] = b
		case execution := <-s.executionCh:
			resp.Event = sphererpc.ExecutionEventID
			resp.Payload[0] = execution
		case e := <-s.mempoolCh:
			resp.Event = sphererpc.MempoolEventID
			resp.Payload[0] = &e
		}
		s.subsLock.RLock()
	subloop:
		for sub := range s.subscribers {
			if sub.overflown.Load() {
				continue
			}
			for i := range sub.feeds {
				if rpcevent.Matches(sub.feeds[i], &resp) {
					if msg == nil {
						b, err = json.Marshal(resp)
						if err != nil {
							s.log.Error("failed to marshal notification",
								zap.Error(err),
								zap.Stringer("type", resp.Event))
							break subloop
						}
						msg, err = websocket.NewPreparedMessage(websocket.TextMessage, b)
						if err != nil {
							s.log.Error("failed to prepare notification message",
								zap.Error(err),
								zap.Stringer("type", resp.Event))
							break subloop
						}
					}
					select {
					case sub.writer <- msg:
					default:
						sub.overflown.Store(true)
						// MissedEvent is to be delivered eventually.
						go func(sub *subscriber) {
							sub.writer <- overflowMsg
							sub.overflown.Store(false)
						}(sub)
					}
					// The message is sent only once per subscriber.
					break
				}
			}
		}
		s.subsLock.RUnlock()
	}
	// It's important to do it with subsCounterLock held because no subscription routine
	// should be running concurrently to this one. And even if one is to run
	// after unlock, it'll see closed s.shutdown and won't subscribe.
	s.subsCounterLock.Lock()
	// There might be no subscription in reality, but it's not a problem as
	// the chain allows unsubscribing non-subscribed channels.
	s.chain.UnsubscribeFromBlocks(s.blockCh)
	s.chain.UnsubscribeFromExecutions(s.executionCh)
	s.chain.GetMemPool().UnsubscribeFromTransactions(s.mempoolCh)
	s.subsCounterLock.Unlock()
drainloop:
	for {
		select {
		case <-s.blockCh:
		case <-s.executionCh:
		case <-s.mempoolCh:
		default:
			break drainloop
		}
	}
	// It's not required closing these, but since they're drained already
	// this is safe and it also allows to give a signal to Shutdown routine.
	close(s.blockCh)
	close(s.executionCh)
	close(s.mempoolCh)
}

func (s *Server) blockHeightFromParam(param *params.Param) (uint32, *sphererpc.Error) {
	num, err := param.GetInt()
	if err != nil {
		return 0, sphererpc.ErrInvalidParams
	}

	if num < 0 || num > int(s.chain.BlockHeight()) {
		return 0, sphererpc.WrapErrorWithData(sphererpc.ErrUnknownBlock,
			fmt.Sprintf("block index should be between 0 and current height %d, got: %d", s.chain.BlockHeight(), num))
	}
	return uint32(num), nil
}

func (s *Server) packResponse(r *params.In, result any, respErr *sphererpc.Error) abstract {
	resp := abstract{
		Header: sphererpc.Header{
			JSONRPC: r.JSONRPC,
			ID:      r.RawID,
		},
	}
	if respErr != nil {
		resp.Error = respErr
	} else {
		resp.Result = result
	}
	return resp
}

// logRequestError is a request error logger.
func (s *Server) logRequestError(r *params.Request, jsonErr *sphererpc.Error) {
	logFields := []zap.Field{
		zap.Int64("code", jsonErr.Code),
	}
	if len(jsonErr.Data) != 0 {
		logFields = append(logFields, zap.String("cause", jsonErr.Data))
	}

	if r.In != nil {
		logFields = append(logFields, zap.String("method", r.In.Method))
		params := params.Params(r.In.RawParams)
		logFields = append(logFields, zap.Any("params", params))
	}

	logText := "Error encountered with rpc request"
	switch jsonErr.Code {
	case sphererpc.InternalServerErrorCode:
		s.log.Error(logText, logFields...)
	default:
		s.log.Info(logText, logFields...)
	}
}

// writeHTTPErrorResponse writes an error response to the ResponseWriter.
func (s *Server) writeHTTPErrorResponse(r *params.In, w http.ResponseWriter, jsonErr *sphererpc.Error) {
	resp := s.packResponse(r, nil, jsonErr)
	s.writeHTTPServerResponse(&params.Request{In: r}, w, resp)
}

func setCORSOriginHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Access-Control-Allow-Headers, Authorization, X-Requested-With")
}

func (s *Server) writeHTTPServerResponse(r *params.Request, w http.ResponseWriter, resp abstractResult) {
	// Errors can happen in many places and we can only catch ALL of them here.
	resp.RunForErrors(func(jsonErr *sphererpc.Error) {
		s.logRequestError(r, jsonErr)
	})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if s.config.EnableCORSWorkaround {
		setCORSOriginHeaders(w.Header())
	}
	if r.In != nil {
		if single, ok := resp.(abstract); ok && single.Error != nil {
			w.WriteHeader(getHTTPCodeForError(single.Error))
		}
	}

	encoder := json.NewEncoder(w)
	err := encoder.Encode(resp)

	if err != nil {
		switch {
		case r.In != nil:
			s.log.Error("Error encountered while encoding response",
				zap.String("err", err.Error()),
				zap.String("method", r.In.Method))
		case r.Batch != nil:
			s.log.Error("Error encountered while encoding batch response",
				zap.String("err", err.Error()))
		}
	}
}

// principalFromParam parses the address or hex-encoded principal.
func principalFromParam(p *params.Param) (util.Uint160, *sphererpc.Error) {
	u, err := p.GetUint160FromAddressOrHex()
	if err != nil {
		return util.Uint160{}, sphererpc.WrapErrorWithData(sphererpc.ErrInvalidParams, fmt.Sprintf("bad principal: %s", err))
	}
	return u, nil
}

// optionalPrincipal is principalFromParam returning the zero principal for
// a missing parameter.
func optionalPrincipal(p *params.Param) (util.Uint160, *sphererpc.Error) {
	if p == nil || p.IsNull() {
		return util.Uint160{}, nil
	}
	return principalFromParam(p)
}

// validateAddress verifies that the address is a correct GlowSphere address.
func validateAddress(addr any) bool {
	if addr, ok := addr.(string); ok {
		_, err := address.StringToUint160(addr)
		return err == nil
	}
	return false
}

func escapeForLog(in string) string {
	return strings.Map(func(c rune) rune {
		if !strconv.IsGraphic(c) {
			return -1
		}
		return c
	}, in)
}
