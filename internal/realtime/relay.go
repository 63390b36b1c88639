package realtime

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Relay consumes the remote push channel over a websocket and republishes
// each frame onto the bus. It reconnects with backoff until the context is
// cancelled.
type Relay struct {
	url   string
	token string
	bus   *Bus
}

func NewRelay(url, token string, bus *Bus) *Relay {
	return &Relay{url: url, token: token, bus: bus}
}

func (r *Relay) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if err := r.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[realtime] relay disconnected: %v, retrying in %s", err, backoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (r *Relay) consume(ctx context.Context) error {
	header := http.Header{}
	if r.token != "" {
		header.Set("Authorization", "Bearer "+r.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[realtime] relay connected to %s", r.url)

	// Unblock ReadJSON when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var evt Event
		if err := conn.ReadJSON(&evt); err != nil {
			return err
		}
		if evt.Type == "" {
			continue
		}
		r.bus.Publish(evt)
	}
}
