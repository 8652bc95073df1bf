package realtime

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/session"
	publicMiddleware "github.com/tsel-ticketmaster/tm-registration/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-registration/pkg/realtime"
)

type HTTPHandler struct {
	Logger   *logrus.Logger
	Upgrader websocket.Upgrader
	Hub      realtime.Hub
}

func InitHTTPHandler(router *mux.Router, customerSession *middleware.CustomerSession, logger *logrus.Logger, hub realtime.Hub) {
	handler := &HTTPHandler{
		Logger: logger,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		Hub: hub,
	}

	router.HandleFunc("/tm-registration/v1/customerapp/ws", publicMiddleware.SetRouteChain(handler.Serve, customerSession.Verify)).Methods(http.MethodGet)
}

// Serve upgrades the request to a websocket and wires the connection into the
// hub. The account's private channel is joined automatically; the admin
// statistics channel only on request, and only for administrator sessions.
func (handler HTTPHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	ws, err := handler.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.Logger.WithContext(ctx).WithError(err).Error("an error occurred while upgrading websocket connection")
		return
	}

	conn := realtime.NewWSConnection(uuid.New().String(), handler.Logger, ws)

	handler.Hub.Register(conn)
	handler.Hub.Join(conn.ID(), realtime.UserChannel(acc.ID))

	go conn.WritePump()

	conn.ReadPump(func(m realtime.ClientMessage) {
		handler.handleClientMessage(acc, conn.ID(), m)
	})

	handler.Hub.OnDisconnect(conn.ID())
	conn.Close()
}

func (handler *HTTPHandler) handleClientMessage(acc session.Account, connectionID string, m realtime.ClientMessage) {
	switch m.Event {
	case "join-user-room":
		// Membership is established on connect; re-joining is harmless.
		handler.Hub.Join(connectionID, realtime.UserChannel(acc.ID))
	case "join-admin-stats":
		if acc.Role != session.RoleAdmin {
			handler.Logger.WithFields(logrus.Fields{
				"accountId": acc.ID,
			}).Warn("non-admin session attempted to join admin stats channel")
			return
		}
		handler.Hub.Join(connectionID, realtime.AdminStatsChannel)
	case "leave-admin-stats":
		handler.Hub.Leave(connectionID, realtime.AdminStatsChannel)
	default:
		handler.Logger.WithFields(logrus.Fields{
			"event": m.Event,
		}).Debug("ignoring unknown client event")
	}
}
