package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"relaybot/relaybot/config"
	"relaybot/relaybot/controllers"
	"relaybot/relaybot/events"
	"relaybot/relaybot/middlewares"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

// generic wrapper to reduce boilerplate
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(res)
	}
}

func OpsRoutes(ctrl *controllers.OpsController, hub *events.Hub, cfg config.Config) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", ctrl.HealthCheck)

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/api/users", handleJSON(func(r *http.Request) (any, int, error) {
			users, err := ctrl.ListUsers(r.Context())
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return users, http.StatusOK, nil
		}))

		gr.Get("/api/history/{user_id}", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
			if err != nil {
				return nil, http.StatusBadRequest, err
			}
			history, err := ctrl.History(r.Context(), userID)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return history, http.StatusOK, nil
		}))

		// Live relay event feed.
		gr.Get("/api/events", func(w http.ResponseWriter, r *http.Request) {
			conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
			if err != nil {
				return
			}
			defer conn.Close(websocket.StatusInternalError, "internal error")

			sub := hub.Subscribe()
			defer hub.Unsubscribe(sub)

			ctx := r.Context()
			for {
				select {
				case payload, ok := <-sub.Send:
					if !ok {
						conn.Close(websocket.StatusNormalClosure, "")
						return
					}
					if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
						return
					}
				case <-ctx.Done():
					conn.Close(websocket.StatusNormalClosure, "")
					return
				}
			}
		})
	})

	return r
}
