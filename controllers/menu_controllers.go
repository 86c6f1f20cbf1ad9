package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/services"
	"github.com/marior032001/jwt-pizza-service/utils"
)

type MenuController struct {
	Menu *services.MenuService
}

func NewMenuController(menu *services.MenuService) *MenuController {
	return &MenuController{Menu: menu}
}

func (mc *MenuController) GetMenu(c *gin.Context) {
	menu, err := mc.Menu.ListMenu(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, menu)
}

// AddMenuItem adds one item and answers with the whole menu.
func (mc *MenuController) AddMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "invalid menu item")
		return
	}

	if _, err := mc.Menu.AddMenuItem(c.Request.Context(), item); err != nil {
		utils.RespondError(c, err)
		return
	}
	mc.GetMenu(c)
}
