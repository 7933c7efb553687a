package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lealre/ratebeer-backend/internal/logx"
	"github.com/lealre/ratebeer-backend/internal/services/observer"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchSession pushes the session as JSON frames over a websocket: the
// current state first, then one frame per change. The last frame of a
// session that ended is {"value":null,"gone":true}.
func (api *API) WatchSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(logx.WithScope(r.Context(), "watch"))
	defer cancel()
	logger := logx.FromContext(ctx)

	stream, err := api.Observer.ObserveSession(ctx, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}
	defer stream.Close()

	serveStream(ctx, cancel, w, r, stream)
}

// WatchGroupRating pushes the group rating of an item. Frames carry
// {"value":null} until the first rating is submitted.
func (api *API) WatchGroupRating(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(logx.WithScope(r.Context(), "watch"))
	defer cancel()
	logger := logx.FromContext(ctx)

	itemId, err := pathItemId(r)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	stream, err := api.Observer.ObserveGroupRating(ctx, r.PathValue("id"), itemId)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}
	defer stream.Close()

	serveStream(ctx, cancel, w, r, stream)
}

// serveStream upgrades the connection and forwards every event until the
// stream ends or the client goes away. Incoming messages are discarded.
func serveStream[T any](
	ctx context.Context,
	cancel context.CancelFunc,
	w http.ResponseWriter,
	r *http.Request,
	stream *observer.Stream[T],
) {
	logger := logx.FromContext(ctx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client.
		logger.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for ev := range stream.Events() {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			logger.Printf("websocket write deadline error: %v", err)
			return
		}
		if err := conn.WriteJSON(ev); err != nil {
			logger.Printf("websocket write error: %v", err)
			return
		}
	}

	closeCode, reason := websocket.CloseNormalClosure, ""
	if err := stream.Err(); err != nil {
		closeCode, reason = websocket.CloseTryAgainLater, "subscription lost, please reconnect"
	}
	err = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(closeCode, reason),
		time.Now().Add(writeWait),
	)
	if err != nil {
		logger.Printf("websocket close error: %v", err)
	}
}
