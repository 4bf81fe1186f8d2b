package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/butteredsaltedtoast/blitztactoe/internal/game"
	"github.com/butteredsaltedtoast/blitztactoe/internal/metrics"
	"github.com/butteredsaltedtoast/blitztactoe/internal/protocol"
	"github.com/butteredsaltedtoast/blitztactoe/internal/room"
)

// Handler upgrades game connections and runs their read loops.
type Handler struct {
	coord    *room.Coordinator
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the WebSocket handler for the given coordinator.
func NewHandler(coord *room.Coordinator, log zerolog.Logger) *Handler {
	return &Handler{
		coord: coord,
		log:   log.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game rooms are joined by shareable link; origin checks would
			// break that without protecting anything state-changing.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws/{roomID}. The room identifier comes from the path;
// room creation options (private, name, turnTime) come from the query string
// and only apply when this join creates the room.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if err := protocol.ValidateRoomID(roomID); err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	opts := room.CreateOptions{
		Private:  q.Get("private") == "true" || q.Get("private") == "1",
		Name:     q.Get("name"),
		TurnTime: protocol.ParseTurnTime(q.Get("turnTime")),
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Str("room_id", roomID).Msg("upgrade failed")
		return
	}

	client := newClient(conn, h.log)
	go client.writePump()

	symbol, err := h.coord.Join(r.Context(), roomID, client, opts)
	if err != nil {
		msg := "unable to join room"
		switch {
		case errors.Is(err, room.ErrRoomFull):
			msg = "room is full"
		case errors.Is(err, room.ErrTooManyRooms):
			msg = "server is at capacity"
		}
		client.Send(protocol.ErrorReply{Type: "error", Message: msg})
		client.Close()
		return
	}

	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	h.readLoop(r, client, roomID, symbol)
}

// readLoop pumps inbound messages into the coordinator until the connection
// dies, then runs the disconnect exactly once.
func (h *Handler) readLoop(r *http.Request, client *Client, roomID string, symbol game.Symbol) {
	defer func() {
		if rm := h.coord.Registry().Get(roomID); rm != nil {
			h.coord.Disconnect(r.Context(), rm, client.ID())
		}
		client.Close()
	}()

	conn := client.conn
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.log.Debug().Err(err).Msg("read failed")
			}
			return
		}

		if !client.limiter.allow() {
			metrics.RateLimitHits.Inc()
			client.Send(protocol.ErrorReply{Type: "error", Message: "too many messages, slow down"})
			continue
		}

		msg, err := protocol.ParseClientMessage(data)
		if err != nil {
			client.Send(protocol.ErrorReply{Type: "error", Message: err.Error()})
			continue
		}

		rm := h.coord.Registry().Get(roomID)
		if rm == nil {
			return
		}

		switch msg.Kind {
		case protocol.KindMove:
			h.coord.Move(r.Context(), rm, symbol, msg.Index)
		case protocol.KindPlayerReady:
			h.coord.SetReady(r.Context(), rm, symbol)
		case protocol.KindRematch:
			h.coord.RequestRematch(r.Context(), rm, symbol)
		}
	}
}
