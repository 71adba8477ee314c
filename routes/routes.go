// SPDX-License-Identifier: GPL-3.0-only

package routes

import (
	"authgate-server/commons"
	"authgate-server/handlers"
	"authgate-server/middlewares"
	"time"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	commons.Logger.Debug("Registering routes")

	e.GET("/health", handlers.HealthCheckHandler)
	e.GET("/dashboard", handlers.DashboardHandler, middlewares.VerifySessionMiddleware)

	auth := e.Group("/auth")
	auth.POST("/register", handlers.RegisterHandler, middlewares.RateLimiter(5, time.Hour))
	auth.POST("/login", handlers.LoginHandler, middlewares.RateLimiter(10, time.Minute))
	auth.POST("/logout", handlers.LogoutHandler, middlewares.VerifySessionMiddleware)
	auth.GET("/profile", handlers.GetProfileHandler, middlewares.VerifySessionMiddleware)
	auth.PUT("/profile", handlers.UpdateProfileHandler, middlewares.VerifySessionMiddleware)
	auth.PUT("/change-password", handlers.ChangePasswordHandler,
		middlewares.RateLimiter(5, time.Hour), middlewares.VerifySessionMiddleware)

	api := e.Group("/api")
	api.GET("/", handlers.APIInfoHandler)
	api.POST("/auth/login", handlers.APILoginHandler, middlewares.RateLimiter(10, time.Minute))
	api.GET("/auth/me", handlers.GetCurrentUserHandler, middlewares.VerifyAPIKeyMiddleware)

	keys := api.Group("/keys", middlewares.VerifySessionMiddleware)
	keys.GET("", handlers.ListAPIKeysHandler)
	keys.POST("", handlers.CreateAPIKeyHandler)
	keys.DELETE("/:key_id", handlers.RevokeAPIKeyHandler)

	users := api.Group("/users", middlewares.VerifySessionMiddleware, middlewares.AdminRequiredMiddleware)
	users.GET("", handlers.ListUsersHandler)
	users.GET("/:user_id", handlers.GetUserHandler)
	users.PUT("/:user_id", handlers.UpdateUserHandler)
	users.DELETE("/:user_id", handlers.DeleteUserHandler)

	commons.Logger.Info("Routes registered successfully")
}
