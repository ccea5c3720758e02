package server

import "github.com/gin-gonic/gin"

// SetupRoutes registers every route on the engine. middlewares are
// applied to the ledger group only; /health stays unthrottled.
func SetupRoutes(r *gin.Engine, h *Handler, middlewares ...gin.HandlerFunc) {
	r.GET("/health", h.Health)

	api := r.Group("/ledger")
	api.Use(middlewares...)
	{
		api.POST("/transactions", h.CreateTransaction)
		api.POST("/transactions/async", h.EnqueueTransaction)
		api.GET("/transactions", h.ListTransactions)
		api.POST("/accounts", h.CreateAccount)
		api.GET("/accounts", h.ListAccounts)
	}
}
