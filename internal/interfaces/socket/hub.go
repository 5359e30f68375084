package socket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/logger"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/network"
	"go.uber.org/zap"
)

// Defaults for HubConfig
const (
	DefaultPushInterval   = 2500 * time.Millisecond
	DefaultResultWait     = 90 * time.Second
	DefaultMaxMessageSize = 32 << 20
)

var errConnClosed = errors.New("socket closed by peer")

// HubConfig holds event socket settings
type HubConfig struct {
	// PushInterval is the period of the localIP push. Zero disables it.
	PushInterval time.Duration
	// ResultWait bounds how long printData waits for its job
	ResultWait time.Duration
	// MaxMessageSize caps a single inbound frame in bytes
	MaxMessageSize int64
}

// DefaultHubConfig returns the default socket settings
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PushInterval:   DefaultPushInterval,
		ResultWait:     DefaultResultWait,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

// HubOption is a functional option for Hub
type HubOption func(*Hub)

// WithLocalIP overrides the address source of the localIP push
func WithLocalIP(fn func() string) HubOption {
	return func(h *Hub) {
		h.localIP = fn
	}
}

// WithLogger sets the hub logger
func WithLogger(l *zap.Logger) HubOption {
	return func(h *Hub) {
		h.logger = l
	}
}

// Hub accepts socket connections and routes their events to the print
// service. Each connection is served by its own read loop; every inbound
// event is handled on its own goroutine so a long print never blocks
// printer queries on the same connection.
type Hub struct {
	printService *app.PrintService
	cfg          HubConfig
	validate     *validator.Validate
	localIP      func() string
	logger       *zap.Logger

	mu     sync.Mutex
	conns  map[*conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewHub creates a new Hub
func NewHub(printService *app.PrintService, cfg HubConfig, opts ...HubOption) *Hub {
	if cfg.ResultWait <= 0 {
		cfg.ResultWait = DefaultResultWait
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}
	h := &Hub{
		printService: printService,
		cfg:          cfg,
		validate:     newValidator(),
		localIP:      network.LocalIP,
		logger:       zap.NewNop(),
		conns:        make(map[*conn]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle upgrades a gin request to a socket connection
func (h *Hub) Handle(c *gin.Context) {
	h.ServeHTTP(c.Writer, c.Request)
}

// ServeHTTP upgrades the request and serves the connection until the
// peer disconnects or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	netConn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		h.logger.Warn("socket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	c := &conn{
		id:     uuid.NewString(),
		Conn:   netConn,
		cancel: cancel,
	}
	ctx, log := logger.WithRequestID(ctx, h.logger, c.id)

	if !h.track(c) {
		cancel()
		_ = netConn.Close()
		return
	}

	log.Info("socket connected", zap.String("remote_addr", r.RemoteAddr))

	go func() {
		defer h.wg.Done()
		defer h.untrack(c)
		h.serve(ctx, c)
		log.Info("socket disconnected")
	}()
}

// Connections returns the number of open connections
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every client and waits for their handlers to return
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	for c := range h.conns {
		c.close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) track(c *conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[c] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Hub) untrack(c *conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) serve(ctx context.Context, c *conn) {
	var handlers sync.WaitGroup
	defer handlers.Wait()
	defer c.close()

	if h.cfg.PushInterval > 0 {
		handlers.Add(1)
		go func() {
			defer handlers.Done()
			h.pushLocalIP(ctx, c)
		}()
	}

	rd := &wsutil.Reader{
		Source:         c,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		MaxFrameSize:   h.cfg.MaxMessageSize,
		OnIntermediate: c.handleControl,
	}

	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			if !isDisconnect(err) {
				logger.L(ctx).Warn("socket read failed", zap.Error(err))
			}
			return
		}

		if hdr.OpCode.IsControl() {
			if err := c.handleControl(hdr, rd); err != nil {
				return
			}
			continue
		}

		if hdr.OpCode != ws.OpText {
			if err := rd.Discard(); err != nil {
				return
			}
			continue
		}

		payload, err := io.ReadAll(rd)
		if err != nil {
			logger.L(ctx).Warn("socket frame read failed", zap.Error(err))
			return
		}

		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil || frame.Event == "" {
			_ = c.emit(ctx, outbound{Event: EventError, Data: Reply{StatusCode: http.StatusBadRequest, Message: "Invalid frame"}})
			continue
		}

		handlers.Add(1)
		go func() {
			defer handlers.Done()
			h.dispatch(ctx, c, frame)
		}()
	}
}

func (h *Hub) dispatch(ctx context.Context, c *conn, frame Frame) {
	log := logger.L(ctx).With(zap.String("event", frame.Event))
	defer func() {
		if r := recover(); r != nil {
			log.Error("socket handler panicked", zap.Any("panic", r))
			c.reply(ctx, frame, Reply{StatusCode: http.StatusInternalServerError, Message: "Internal Server Error"})
		}
	}()

	var reply Reply
	switch frame.Event {
	case EventGetPrinter:
		reply = h.getPrinter(ctx)
	case EventCheckPrinter:
		reply = h.checkPrinter(ctx, frame.Data)
	case EventPrintData:
		reply = h.printData(ctx, frame.Data)
	default:
		log.Debug("unknown socket event")
		reply = Reply{StatusCode: http.StatusNotFound, Message: "Unknown event"}
	}

	log.Debug("socket event handled", zap.Int("status_code", reply.StatusCode))
	c.reply(ctx, frame, reply)
}

func (h *Hub) pushLocalIP(ctx context.Context, c *conn) {
	ticker := time.NewTicker(h.cfg.PushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.emit(ctx, outbound{Event: EventLocalIP, Data: h.localIP()}); err != nil {
				return
			}
		}
	}
}

// conn is one client connection. Writes from the read loop, the push
// ticker and event handlers are serialized by wmu.
type conn struct {
	net.Conn
	id     string
	cancel context.CancelFunc

	wmu       sync.Mutex
	closeOnce sync.Once
}

func (c *conn) write(op ws.OpCode, payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return wsutil.WriteServerMessage(c.Conn, op, payload)
}

func (c *conn) emit(ctx context.Context, msg outbound) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.L(ctx).Error("failed to encode socket frame", zap.String("event", msg.Event), zap.Error(err))
		return err
	}
	if err := c.write(ws.OpText, payload); err != nil {
		logger.L(ctx).Debug("socket write failed", zap.String("event", msg.Event), zap.Error(err))
		c.close()
		return err
	}
	return nil
}

// reply acknowledges frame. Events sent without an ack id get no reply.
func (c *conn) reply(ctx context.Context, frame Frame, reply Reply) {
	if frame.Ack == 0 {
		return
	}
	_ = c.emit(ctx, outbound{Event: frame.Event, Ack: frame.Ack, Data: reply})
}

func (c *conn) handleControl(hdr ws.Header, r io.Reader) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	switch hdr.OpCode {
	case ws.OpPing:
		return c.write(ws.OpPong, payload)
	case ws.OpClose:
		_ = c.write(ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
		return errConnClosed
	}
	return nil
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.Conn.Close()
	})
}

func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, errConnClosed)
}
