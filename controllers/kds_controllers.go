package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/marior032001/jwt-pizza-service/kds"
	"github.com/marior032001/jwt-pizza-service/middlewares"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
)

type KDSController struct {
	Hub      *kds.Hub
	upgrader websocket.Upgrader
}

// NewKDSController accepts upgrades from allowedOrigin, or any origin with "*".
func NewKDSController(hub *kds.Hub, allowedOrigin string) *KDSController {
	return &KDSController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Subscribe streams new orders over a websocket. Admins may watch every
// franchise; franchisees watch one franchise they administer.
func (kc *KDSController) Subscribe(c *gin.Context) {
	user, _ := middlewares.AuthUser(c)

	franchiseID := kds.AllFranchises
	if raw := c.Query("franchiseId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondMessage(c, http.StatusBadRequest, "invalid franchiseId")
			return
		}
		franchiseID = uint(id)
	}

	allowed := user.IsRole(models.RoleAdmin) ||
		(franchiseID != kds.AllFranchises && user.Roles.AdministersFranchise(franchiseID))
	if !allowed {
		utils.RespondMessage(c, http.StatusForbidden, "unauthorized")
		return
	}

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	kc.Hub.Register(ws, franchiseID)
	defer kc.Hub.Unregister(ws)

	// reads only detect the close
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}
