package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/cityguessr/server/internal/game"
)

type CreateRoomResponse struct {
	Room string `json:"room"`
}

func handleCreateRoom(logger *slog.Logger, rooms *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := chi.URLParam(r, "room")

		err := rooms.Create(room)
		if errors.Is(err, game.ErrRoomExists) {
			writeError(w, http.StatusConflict, "room already exists")
			return
		}
		if err != nil {
			logger.Error("creating room", "room", room, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, CreateRoomResponse{Room: room})
	}
}

// handleJoinRoom upgrades the request and hands the connection to the
// room's session. The goroutine serving this request becomes the
// connection's read loop; the session owns everything else.
func handleJoinRoom(logger *slog.Logger, rooms *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := chi.URLParam(r, "room")
		username := r.URL.Query().Get("username")
		userID := r.URL.Query().Get("userId")

		sess, resolveErr := rooms.Resolve(room)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			// Accept already wrote the 400 for a non-upgrade request.
			logger.Error("websocket accept failed", "room", room, "error", err)
			return
		}

		// The room is checked after the upgrade so the client gets a
		// proper close frame instead of a failed handshake.
		if resolveErr != nil {
			logger.Info("join to unknown room rejected", "room", room, "name", username)
			conn.Close(websocket.StatusPolicyViolation, "no room found")
			return
		}
		defer conn.CloseNow()

		wc := &wsConn{conn: conn}
		player := sess.Join(userID, username, wc)

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				logger.Debug("websocket read ended", "room", room, "user", player.ID, "error", err)
				break
			}
			sess.HandleInbound(player, data)
		}

		sess.Leave(player, wc)
	}
}

// wsConn adapts a nhooyr connection to the session's Conn interface.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close(reason string) error {
	return c.conn.Close(websocket.StatusNormalClosure, reason)
}
