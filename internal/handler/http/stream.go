package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/shopease/shopease-backend/internal/realtime"
)

// streamEvents writes hub events for topic to the client as server-sent
// events. The hub subscription is released when the request context ends, so
// a torn-down client never leaks a listener.
func streamEvents(w http.ResponseWriter, r *http.Request, feed *realtime.Hub, topic string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Buffered so a slow client drops events instead of blocking publishers.
	events := make(chan realtime.Event, 16)
	unsubscribe := feed.Subscribe(topic, func(ev realtime.Event) {
		select {
		case events <- ev:
		default:
			log.Warn().Str("topic", topic).Msg("dropping event for slow stream consumer")
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Str("topic", topic).Msg("failed to marshal stream event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
			flusher.Flush()
		}
	}
}
