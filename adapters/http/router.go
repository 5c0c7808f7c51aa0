package http

import (
	"github.com/gin-gonic/gin"

	"github.com/khoahotran/account-service/pkg/logger"
)

const maxMultipartMemory = 8 << 20

func NewRouter(authHandler *AuthHandler, allowedOrigins []string, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory
	router.Use(
		gin.Recovery(),
		RequestLogger(log),
		CORSMiddleware(allowedOrigins),
		ErrorMiddleware(log),
	)

	api := router.Group("/api")
	{
		api.POST("/signup", authHandler.Signup)
		api.POST("/login", authHandler.Login)
	}

	return router
}
