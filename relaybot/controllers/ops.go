package controllers

import (
	"context"
	"net/http"

	"relaybot/relaybot/sources/store/dao"
	"relaybot/relaybot/sources/store/models"
)

// OpsController is the read-only HTTP mirror of the admin queries.
type OpsController struct {
	messages *dao.MessageDAO
}

func NewOpsController(messages *dao.MessageDAO) *OpsController {
	return &OpsController{messages: messages}
}

func (c *OpsController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

func (c *OpsController) ListUsers(ctx context.Context) ([]models.UserRef, error) {
	return c.messages.ListDistinctUsers(ctx)
}

func (c *OpsController) History(ctx context.Context, userID int64) ([]models.Message, error) {
	return c.messages.HistoryFor(ctx, userID)
}
