package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// sseWriteTimeout bounds a single SSE write so a stalled client cannot
// pin the handler goroutine past shutdown.
const sseWriteTimeout = 5 * time.Second

// handleUpdatesStream streams update events as Server-Sent Events, one
// JSON payload per message. The subscription lives for the duration of
// the request; disconnecting unsubscribes.
func (s *Server) handleUpdatesStream(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn().Err(err).Msg("SSE write deadlines not supported")
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}

		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	id, events := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(id)

	s.logger.Debug().Str("subscriber_id", id).Msg("SSE stream opened")

	for {
		select {
		case event, ok := <-events:
			if !ok {
				// Disconnected by the broadcaster (overflow or close).
				s.logger.Debug().Str("subscriber_id", id).Msg("SSE stream closed by broadcaster")
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				s.logger.Error().Err(err).Msg("Failed to encode update event")
				continue
			}

			if err := writeAndFlush(data); err != nil {
				s.logger.Debug().Str("subscriber_id", id).Err(err).Msg("SSE stream write failed")
				return
			}
		case <-r.Context().Done():
			s.logger.Debug().Str("subscriber_id", id).Msg("SSE stream closed")
			return
		}
	}
}
