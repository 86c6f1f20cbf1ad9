package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marior032001/jwt-pizza-service/controllers"
	"github.com/marior032001/jwt-pizza-service/kds"
	"github.com/marior032001/jwt-pizza-service/middlewares"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/services"
	"github.com/marior032001/jwt-pizza-service/utils"
	"golang.org/x/time/rate"
)

// Deps is everything the routes need.
type Deps struct {
	Services   *services.Services
	Signer     *utils.TokenSigner
	Factory    controllers.Fulfiller
	Hub        *kds.Hub
	CORSOrigin string
	// RateLimit is requests per second per IP. 0 disables rate limiting,
	// including the stricter limit on login and registration.
	RateLimit int
	// Ctx bounds background work started by the router. Defaults to
	// context.Background().
	Ctx context.Context
}

const (
	limiterCleanupEvery = time.Minute
	limiterIdle         = 3 * time.Minute
)

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	strict := func(c *gin.Context) { c.Next() }
	if d.RateLimit > 0 {
		ctx := d.Ctx
		if ctx == nil {
			ctx = context.Background()
		}
		global := middlewares.NewRateLimiter(rate.Limit(d.RateLimit), d.RateLimit)
		global.StartCleanup(ctx, limiterCleanupEvery, limiterIdle)
		r.Use(global.RateLimit())

		login := middlewares.NewStrictRateLimiter()
		login.StartCleanup(ctx, limiterCleanupEvery, limiterIdle)
		strict = login.RateLimit()
	}
	r.Use(middlewares.WebSocketToken())
	r.Use(middlewares.SetAuthUser(d.Signer, d.Services.Auth))

	hub := d.Hub
	if hub == nil {
		hub = kds.NewHub()
	}

	authCtrl := controllers.NewAuthController(d.Services.Users, d.Services.Auth, d.Signer)
	userCtrl := controllers.NewUserController(d.Services.Users, d.Services.Auth, d.Signer)
	menuCtrl := controllers.NewMenuController(d.Services.Menu)
	orderCtrl := controllers.NewOrderController(d.Services.Orders, d.Factory, hub)
	franchiseCtrl := controllers.NewFranchiseController(d.Services.Franchises)
	kdsCtrl := controllers.NewKDSController(hub, d.CORSOrigin)

	auth := middlewares.AuthenticateToken()
	admin := middlewares.RequireRole(models.RoleAdmin)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "time": time.Now().UTC()})
	})

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("", strict, authCtrl.Register)
		authGroup.PUT("", strict, authCtrl.Login)
		authGroup.DELETE("", auth, authCtrl.Logout)

		userGroup := api.Group("/user", auth)
		userGroup.GET("/me", userCtrl.GetMe)
		userGroup.GET("", admin, userCtrl.ListUsers)
		userGroup.PUT("/:userId", userCtrl.UpdateUser)
		userGroup.DELETE("/:userId", userCtrl.DeleteUser)

		orderGroup := api.Group("/order")
		orderGroup.GET("/menu", menuCtrl.GetMenu)
		orderGroup.PUT("/menu", auth, admin, menuCtrl.AddMenuItem)
		orderGroup.GET("", auth, orderCtrl.GetOrders)
		orderGroup.POST("", auth, orderCtrl.CreateOrder)
		orderGroup.GET("/kds", auth, kdsCtrl.Subscribe)

		franchiseGroup := api.Group("/franchise")
		franchiseGroup.GET("", franchiseCtrl.ListFranchises)
		franchiseGroup.GET("/:userId", auth, franchiseCtrl.GetUserFranchises)
		franchiseGroup.POST("", auth, admin, franchiseCtrl.CreateFranchise)
		franchiseGroup.PUT("/:franchiseId", auth, admin, franchiseCtrl.UpdateFranchise)
		franchiseGroup.DELETE("/:franchiseId", auth, admin, franchiseCtrl.DeleteFranchise)
		franchiseGroup.POST("/:franchiseId/store", auth, franchiseCtrl.CreateStore)
		franchiseGroup.DELETE("/:franchiseId/store/:storeId", auth, franchiseCtrl.DeleteStore)
	}

	r.NoRoute(func(c *gin.Context) {
		utils.RespondMessage(c, http.StatusNotFound, "unknown endpoint")
	})

	return r
}
