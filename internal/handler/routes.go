package handler

import (
	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, authHandler *AuthHandler, accountHandler *AccountHandler, transactionHandler *TransactionHandler, receiptHandler *ReceiptHandler, ruleHandler *RuleHandler, scheduleHandler *ScheduleHandler, reconciliationHandler *ReconciliationHandler, debtHandler *DebtHandler, wsHandler *WebSocketHandler) {
	// Rate limiting keys on the workspace, so it has to run after auth
	protected := []echo.MiddlewareFunc{
		authMiddleware.Authenticate(),
		middleware.RateLimitMiddleware(rateLimiter),
	}

	// API version 1
	api := e.Group("/api/v1")

	// Auth routes (protected)
	auth := api.Group("/auth")
	auth.Use(protected...)
	auth.POST("/callback", authHandler.Callback)
	auth.GET("/me", authHandler.Me)
	auth.POST("/logout", authHandler.Logout)

	// Account routes (protected)
	accounts := api.Group("/accounts")
	accounts.Use(protected...)
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	// Transaction routes (protected)
	transactions := api.Group("/transactions")
	transactions.Use(protected...)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.DELETE("/source/:sourceId", transactionHandler.DeleteTransactionChain)
	transactions.POST("/:id/receipt", receiptHandler.UploadReceipt)
	transactions.GET("/:id/receipt", receiptHandler.GetReceipt)
	transactions.DELETE("/:id/receipt", receiptHandler.DeleteReceipt)

	// Recurring rule routes (protected)
	rules := api.Group("/rules")
	rules.Use(protected...)
	rules.POST("", ruleHandler.CreateRule)
	rules.GET("", ruleHandler.GetRules)
	rules.GET("/:id", ruleHandler.GetRule)
	rules.PUT("/:id", ruleHandler.UpdateRule)
	rules.PATCH("/:id/active", ruleHandler.SetRuleActive)
	rules.DELETE("/:id", ruleHandler.DeleteRule)
	rules.POST("/:id/pay", ruleHandler.PayOccurrence)
	rules.POST("/:id/skip", ruleHandler.SkipOccurrence)
	rules.DELETE("/:id/future", ruleHandler.DeleteFutureOccurrences)
	rules.POST("/:id/refresh", ruleHandler.RefreshRule)

	// Schedule routes (protected)
	schedule := api.Group("/schedule")
	schedule.Use(protected...)
	schedule.GET("/upcoming", scheduleHandler.GetUpcoming)
	schedule.POST("/sync", scheduleHandler.SyncSchedule)

	// Reconciliation routes (protected)
	reconciliation := api.Group("/reconciliation")
	reconciliation.Use(protected...)
	reconciliation.GET("", reconciliationHandler.GetReport)
	reconciliation.GET("/rules/:id", reconciliationHandler.GetRuleReport)

	// Debt routes (protected)
	debts := api.Group("/debts")
	debts.Use(protected...)
	debts.GET("", debtHandler.GetDebts)
	debts.PATCH("/:id/settle", debtHandler.SettleDebt)
	debts.PATCH("/:id/reopen", debtHandler.ReopenDebt)

	// WebSocket endpoint; the token travels as a query parameter and is
	// validated inside the handler, not by the auth middleware
	e.GET("/ws", wsHandler.HandleWS)

	// API documentation
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", ServeOpenAPI3Spec)
}
