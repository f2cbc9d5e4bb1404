/*
Package presence tracks which identities currently hold a live connection and
fans out the online set whenever it changes.

This file holds the Broadcaster, the goroutine that turns registry change
signals into online-users-changed events on every live connection.
*/
package presence

import (
	"sync"

	"github.com/rs/zerolog"

	"mingle/internal/pkg/logx"
)

// EncodeFunc builds the wire payload for an online-set broadcast. The event
// format lives with the chat protocol; the broadcaster only needs bytes.
type EncodeFunc func(online []string) ([]byte, error)

// Broadcaster delivers the current online set to every registered handle
// whenever the registry changes. Delivery is best-effort per handle: a full
// outbound queue drops this snapshot for that client, and the next change
// catches it up.
type Broadcaster struct {
	registry *Registry
	encode   EncodeFunc

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger zerolog.Logger
}

// NewBroadcaster wires a broadcaster to the registry. Call Run to start it.
func NewBroadcaster(registry *Registry, encode EncodeFunc) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		encode:   encode,
		stop:     make(chan struct{}),
		logger:   logx.Logger().With().Str("component", "PresenceBroadcaster").Logger(),
	}
}

// Run starts the fan-out goroutine. It returns immediately.
func (b *Broadcaster) Run() {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		b.logger.Info().Msg("Presence broadcaster started.")

		for {
			select {
			case <-b.stop:
				b.logger.Info().Msg("Presence broadcaster stopped.")
				return
			case <-b.registry.Changes():
				b.broadcastSnapshot()
			}
		}
	}()
}

// Shutdown stops the fan-out goroutine and waits for it to exit.
func (b *Broadcaster) Shutdown() {
	b.stopOnce.Do(func() {
		close(b.stop)
	})
	b.wg.Wait()
}

// broadcastSnapshot takes the current online set and enqueues it to every
// registered handle. The snapshot is taken after the wakeup, so it reflects
// the registry state at or after the last change in a coalesced burst.
func (b *Broadcaster) broadcastSnapshot() {
	online := b.registry.Snapshot()

	payload, err := b.encode(online)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to encode online-users payload.")
		return
	}

	for _, handle := range b.registry.Handles() {
		if err := handle.Deliver(payload); err != nil {
			// Presence is coalescible; the client converges on the next change.
			b.logger.Warn().Err(err).Msg("Dropped presence snapshot for slow client.")
		}
	}
}
