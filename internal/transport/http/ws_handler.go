package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"strconv"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/recipechat-server/internal/config"
	"github.com/vovakirdan/recipechat-server/internal/core"
	"github.com/vovakirdan/recipechat-server/internal/metrics"
)

// wsPeer adapts a websocket connection to core.Peer.
type wsPeer struct {
	id   string
	conn *websocket.Conn
}

func newWSPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{id: uuid.NewString(), conn: conn}
}

func (p *wsPeer) ID() string { return p.id }

func (p *wsPeer) Send(ctx context.Context, msg *core.Message) error {
	return wsjson.Write(ctx, p.conn, chatMessageFromCore(msg))
}

// Close drops the connection without a close handshake; evicted peers are
// usually the ones that stopped reading.
func (p *wsPeer) Close(string) error {
	return p.conn.CloseNow()
}

func (p *wsPeer) notify(ctx context.Context, v any) error {
	return wsjson.Write(ctx, p.conn, v)
}

// WSHandler authenticates websocket connections and runs their receive loop.
type WSHandler struct {
	registry *core.Registry
	bridge   *core.Bridge
	verifier core.IdentityVerifier
	cfg      *config.Config
	log      *zerolog.Logger

	// base is cancelled by Shutdown, which closes every open connection.
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(registry *core.Registry, bridge *core.Bridge, verifier core.IdentityVerifier, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	base, cancel := context.WithCancel(context.Background())
	return &WSHandler{
		registry: registry,
		bridge:   bridge,
		verifier: verifier,
		cfg:      cfg,
		log:      logger,
		base:     base,
		cancel:   cancel,
	}
}

// Shutdown closes every open connection with 1001 (going away) and waits
// until their handlers have returned, or until ctx is done. Call it after
// the HTTP server has stopped accepting requests.
func (h *WSHandler) Shutdown(ctx context.Context) error {
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for websocket handlers: %w", ctx.Err())
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	h.wg.Add(1)
	defer h.wg.Done()

	ctx := r.Context()
	token := r.URL.Query().Get("token")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: len(h.cfg.AllowedOrigins) == 0,
		OriginPatterns:     h.cfg.AllowedOrigins,
	})
	if err != nil {
		recordUpgrade(stdhttp.StatusBadRequest)
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	recordUpgrade(stdhttp.StatusSwitchingProtocols)
	defer conn.CloseNow()

	if h.base.Err() != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	stop := context.AfterFunc(h.base, func() {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	})
	defer stop()

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	identity, err := h.verifier.Verify(token)
	if err != nil {
		metrics.ConnectionsRejected.WithLabelValues(core.ErrCodeAuth).Inc()
		h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("ws auth rejected")
		conn.Close(websocket.StatusPolicyViolation, "authentication failed")
		return
	}

	peer := newWSPeer(conn)
	if err := h.registry.Register(peer, identity); err != nil {
		metrics.ConnectionsRejected.WithLabelValues(core.ErrorCode(err)).Inc()
		h.log.Warn().Err(err).Str("email", identity.Email).Msg("ws registration refused")
		conn.Close(websocket.StatusTryAgainLater, "server at capacity")
		return
	}
	defer h.registry.Remove(peer)

	logger := h.log.With().Str("peer_id", peer.ID()).Str("email", identity.Email).Logger()
	logger.Info().Int("connections", h.registry.Len()).Msg("ws connection open")

	if h.cfg.WelcomeMessage {
		if err := peer.notify(ctx, welcomeNotice(identity)); err != nil {
			logger.Debug().Err(err).Msg("send welcome")
			return
		}
	}

	err = h.readLoop(ctx, peer, identity, &logger)
	h.registry.Remove(peer)

	status, reason := closeStatus(ctx, err)
	if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
		logger.Warn().Err(err).Int("status", int(status)).Msg("ws connection closed with error")
	} else {
		logger.Info().Int("connections", h.registry.Len()).Msg("ws connection closed")
	}
	conn.Close(status, reason)
}

// readLoop handles inbound frames strictly in order. Per-message failures are
// reported to this peer only and the loop keeps reading; it returns only when
// the connection itself fails.
func (h *WSHandler) readLoop(ctx context.Context, peer *wsPeer, identity core.Identity, logger *zerolog.Logger) error {
	limiter := newRateLimiter(h.cfg.RateLimitPerMinute)

	for {
		typ, data, err := peer.conn.Read(ctx)
		if err != nil {
			return err
		}

		var msgErr error
		switch {
		case typ != websocket.MessageText:
			msgErr = fmt.Errorf("%w: binary frames are not supported", core.ErrMalformedMessage)
		case !limiter.allow():
			metrics.MessagesRejected.WithLabelValues(core.ErrCodeRateLimited).Inc()
			msgErr = fmt.Errorf("%w: slow down", core.ErrRateLimited)
		default:
			_, msgErr = h.bridge.PersistAndBroadcast(ctx, data, identity)
		}
		if msgErr == nil {
			continue
		}

		if errors.Is(msgErr, core.ErrPersistence) {
			logger.Error().Err(msgErr).Msg("persist message")
		} else {
			logger.Debug().Err(msgErr).Msg("inbound message rejected")
		}
		if err := peer.notify(ctx, errorNotice(msgErr)); err != nil {
			return err
		}
	}
}

func closeStatus(ctx context.Context, err error) (websocket.StatusCode, string) {
	if err == nil || errors.Is(err, io.EOF) {
		return websocket.StatusNormalClosure, ""
	}
	if ctx.Err() != nil {
		return websocket.StatusGoingAway, "server shutting down"
	}
	switch s := websocket.CloseStatus(err); s {
	case -1:
		return websocket.StatusInternalError, "internal error"
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return websocket.StatusNormalClosure, ""
	case websocket.StatusMessageTooBig:
		return websocket.StatusMessageTooBig, "message too big"
	default:
		return s, ""
	}
}

// recordUpgrade counts the upgrade request, which bypasses gin's metrics
// middleware.
func recordUpgrade(status int) {
	metrics.HTTPRequestsTotal.WithLabelValues(stdhttp.MethodGet, "/ws/chat", strconv.Itoa(status)).Inc()
}
