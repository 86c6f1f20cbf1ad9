package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marior032001/jwt-pizza-service/middlewares"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/services"
	"github.com/marior032001/jwt-pizza-service/utils"
)

type FranchiseController struct {
	Franchises *services.FranchiseService
}

func NewFranchiseController(franchises *services.FranchiseService) *FranchiseController {
	return &FranchiseController{Franchises: franchises}
}

// ListFranchises is public; admins get admins and revenue as well.
func (fc *FranchiseController) ListFranchises(c *gin.Context) {
	q := models.FranchiseQuery{
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 10),
		Name:  c.Query("name"),
	}
	user, ok := middlewares.AuthUser(c)
	detailed := ok && user.IsRole(models.RoleAdmin)

	page, err := fc.Franchises.ListFranchises(c.Request.Context(), q, detailed)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, page)
}

// GetUserFranchises lists the franchises a user administers. Other users
// see an empty list.
func (fc *FranchiseController) GetUserFranchises(c *gin.Context) {
	userID, err := paramID(c, "userId")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	user, _ := middlewares.AuthUser(c)
	if user.ID != userID && !user.IsRole(models.RoleAdmin) {
		utils.RespondJSON(c, http.StatusOK, []models.Franchise{})
		return
	}

	franchises, err := fc.Franchises.GetUserFranchises(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, franchises)
}

func (fc *FranchiseController) CreateFranchise(c *gin.Context) {
	var req models.NewFranchise
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "invalid franchise")
		return
	}

	franchise, err := fc.Franchises.CreateFranchise(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, franchise)
}

func (fc *FranchiseController) UpdateFranchise(c *gin.Context) {
	franchiseID, err := paramID(c, "franchiseId")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "invalid franchise")
		return
	}

	franchise, err := fc.Franchises.UpdateFranchise(c.Request.Context(), franchiseID, req.Name)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, franchise)
}

func (fc *FranchiseController) DeleteFranchise(c *gin.Context) {
	franchiseID, err := paramID(c, "franchiseId")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := fc.Franchises.DeleteFranchise(c.Request.Context(), franchiseID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondMessage(c, http.StatusOK, "franchise deleted")
}

func (fc *FranchiseController) CreateStore(c *gin.Context) {
	franchiseID, ok := fc.franchiseAdmin(c)
	if !ok {
		return
	}

	var req models.NewStore
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "invalid store")
		return
	}

	store, err := fc.Franchises.CreateStore(c.Request.Context(), franchiseID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, store)
}

func (fc *FranchiseController) DeleteStore(c *gin.Context) {
	franchiseID, ok := fc.franchiseAdmin(c)
	if !ok {
		return
	}
	storeID, err := paramID(c, "storeId")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := fc.Franchises.DeleteStore(c.Request.Context(), franchiseID, storeID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondMessage(c, http.StatusOK, "store deleted")
}

// franchiseAdmin reads :franchiseId and checks that the caller is an admin
// or administers that franchise. It writes the response when it fails.
func (fc *FranchiseController) franchiseAdmin(c *gin.Context) (uint, bool) {
	franchiseID, err := paramID(c, "franchiseId")
	if err != nil {
		utils.RespondError(c, err)
		return 0, false
	}

	user, _ := middlewares.AuthUser(c)
	if !user.IsRole(models.RoleAdmin) && !user.Roles.AdministersFranchise(franchiseID) {
		utils.RespondMessage(c, http.StatusForbidden, "unable to manage store")
		return 0, false
	}
	return franchiseID, true
}
