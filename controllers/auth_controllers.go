package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/marior032001/jwt-pizza-service/middlewares"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/services"
	"github.com/marior032001/jwt-pizza-service/utils"
)

type AuthController struct {
	Users  *services.UserService
	Auth   *services.AuthService
	Signer *utils.TokenSigner
}

func NewAuthController(users *services.UserService, auth *services.AuthService, signer *utils.TokenSigner) *AuthController {
	return &AuthController{Users: users, Auth: auth, Signer: signer}
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a diner and logs them in.
func (ac *AuthController) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Email == "" || req.Password == "" {
		utils.RespondMessage(c, http.StatusBadRequest, "name, email, and password are required")
		return
	}

	user, err := ac.Users.CreateUser(c.Request.Context(), models.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    []models.RoleRequest{{Role: models.RoleDiner}},
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	token, err := startSession(c.Request.Context(), ac.Auth, ac.Signer, user)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, authResponse{User: user, Token: token})
}

// Login returns a fresh token for valid credentials.
func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		utils.RespondMessage(c, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := ac.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	token, err := startSession(c.Request.Context(), ac.Auth, ac.Signer, user)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, authResponse{User: user, Token: token})
}

func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.Auth.RevokeSession(c.Request.Context(), middlewares.AuthToken(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondMessage(c, http.StatusOK, "logout successful")
}

// startSession signs a token for user and records it as active.
func startSession(ctx context.Context, auth *services.AuthService, signer *utils.TokenSigner, user *models.User) (string, error) {
	token, err := signer.Sign(models.AuthUserFrom(user))
	if err != nil {
		return "", utils.Internal("unable to sign token", err)
	}
	if err := auth.IssueSession(ctx, user.ID, token); err != nil {
		return "", err
	}
	return token, nil
}

// paramID reads a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, utils.Validation("invalid " + name)
	}
	return uint(id), nil
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
