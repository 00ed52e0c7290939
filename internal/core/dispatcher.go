package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/recipechat-server/internal/metrics"
)

// DispatchResult summarizes one broadcast pass.
type DispatchResult struct {
	Delivered int
	Failed    int
}

// Dispatcher fans a message out to every registered peer.
type Dispatcher struct {
	registry    *Registry
	sendTimeout time.Duration
	fanout      int
	log         *zerolog.Logger
}

// NewDispatcher builds a dispatcher over registry. sendTimeout bounds each
// individual send (0 disables it); fanout caps concurrent sends (0 = one
// goroutine per peer).
func NewDispatcher(registry *Registry, sendTimeout time.Duration, fanout int, logger *zerolog.Logger) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{
		registry:    registry,
		sendTimeout: sendTimeout,
		fanout:      fanout,
		log:         logger,
	}
}

// Dispatch delivers msg to the peers registered at the moment of the call.
// A failed send never stops delivery to the others; failed peers are removed
// from the registry and closed after the pass, each exactly once.
//
// Sends are detached from ctx cancellation so a sender that disconnects
// mid-broadcast does not fail everyone else's delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) DispatchResult {
	entries := d.registry.Snapshot()
	if len(entries) == 0 {
		return DispatchResult{}
	}

	sendCtx := context.WithoutCancel(ctx)

	var (
		mu     sync.Mutex
		failed []Entry
		g      errgroup.Group
	)
	if d.fanout > 0 {
		g.SetLimit(d.fanout)
	}

	for _, entry := range entries {
		g.Go(func() error {
			if err := d.send(sendCtx, entry.Peer, msg); err != nil {
				d.log.Warn().Err(err).
					Str("peer_id", entry.Peer.ID()).
					Str("email", entry.Identity.Email).
					Int64("message_id", msg.ID).
					Msg("broadcast send failed")
				mu.Lock()
				failed = append(failed, entry)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, entry := range failed {
		if d.registry.Remove(entry.Peer) {
			metrics.DeliveryFailures.Inc()
			if err := entry.Peer.Close("delivery failed"); err != nil {
				d.log.Debug().Err(err).Str("peer_id", entry.Peer.ID()).Msg("close failed peer")
			}
		}
	}

	result := DispatchResult{Delivered: len(entries) - len(failed), Failed: len(failed)}
	metrics.MessagesDelivered.Add(float64(result.Delivered))
	return result
}

func (d *Dispatcher) send(ctx context.Context, peer Peer, msg *Message) (err error) {
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDelivery, r)
		}
	}()

	if sendErr := peer.Send(ctx, msg); sendErr != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, sendErr)
	}
	return nil
}
