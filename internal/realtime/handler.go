package realtime

import (
	"net/http"

	"github.com/Shruti10934/talksy-backend/pkg/log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler authenticates the session cookie, upgrades HTTP → WS and hands the
// socket to a Conn. Authentication runs before the upgrade; a rejected
// connection never reaches the registry.
func Handler(
	registry *Registry,
	presence *Presence,
	router *Router,
	store MessageStore,
	whoAmI func(*http.Request) (uuid.UUID, string, error),
) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {
		userID, userName, err := whoAmI(r)
		if err != nil {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Logger.Warn().Err(err).Msg("ws upgrade failed")
			return
		}

		NewConn(userID, userName, ws, registry, presence, router, store) // goroutines start inside NewConn
	}
}
