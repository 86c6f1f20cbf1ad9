package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marior032001/jwt-pizza-service/middlewares"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/services"
	"github.com/marior032001/jwt-pizza-service/utils"
)

type UserController struct {
	Users  *services.UserService
	Auth   *services.AuthService
	Signer *utils.TokenSigner
}

func NewUserController(users *services.UserService, auth *services.AuthService, signer *utils.TokenSigner) *UserController {
	return &UserController{Users: users, Auth: auth, Signer: signer}
}

func (uc *UserController) GetMe(c *gin.Context) {
	authUser, _ := middlewares.AuthUser(c)

	user, err := uc.Users.GetUser(c.Request.Context(), authUser.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, user)
}

// UpdateUser lets users change their own profile; admins may change anyone's.
// The response carries a new token since the claims changed.
func (uc *UserController) UpdateUser(c *gin.Context) {
	userID, err := paramID(c, "userId")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	authUser, _ := middlewares.AuthUser(c)
	if authUser.ID != userID && !authUser.IsRole(models.RoleAdmin) {
		utils.RespondMessage(c, http.StatusForbidden, "unauthorized")
		return
	}

	var req models.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := uc.Users.UpdateUser(c.Request.Context(), userID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	token, err := startSession(c.Request.Context(), uc.Auth, uc.Signer, user)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, authResponse{User: user, Token: token})
}

// DeleteUser is part of the API surface, but users are never deleted.
func (uc *UserController) DeleteUser(c *gin.Context) {
	utils.RespondMessage(c, http.StatusOK, "not implemented")
}

func (uc *UserController) ListUsers(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	users, more, err := uc.Users.ListUsers(c.Request.Context(), page, limit, c.Query("name"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"users": users, "more": more})
}
