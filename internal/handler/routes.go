package handler

import (
	"github.com/donalab/dona-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes. Mutating routes require an
// authenticated identity; the ledger itself decides whether that identity
// holds the role the operation needs. Query routes are public.
func RegisterRoutes(
	e *echo.Echo,
	auth *middleware.DualAuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	settlementHandler *SettlementHandler,
	donationHandler *DonationHandler,
	adminHandler *AdminHandler,
	ledgerHandler *LedgerHandler,
	wsHandler *WebSocketHandler,
) {
	// API version 1
	api := e.Group("/api/v1")

	authed := func(g *echo.Group) {
		g.Use(auth.Authenticate())
		g.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	// Settlement routes (writer identity)
	settlements := api.Group("/settlements")
	authed(settlements)
	settlements.POST("/native", settlementHandler.SettleNative)
	settlements.POST("/token", settlementHandler.SettleToken)

	// Donation routes: record is writer-only, listing is public
	api.GET("/donations", donationHandler.List)
	donations := api.Group("/donations")
	authed(donations)
	donations.POST("/record", donationHandler.Record)

	// Writer handover acceptance (proposed writer identity)
	writer := api.Group("/writer")
	authed(writer)
	writer.POST("/accept", adminHandler.AcceptWriter)

	// Admin routes (owner identity)
	admin := api.Group("/admin")
	authed(admin)
	admin.PUT("/fee", adminHandler.SetFee)
	admin.POST("/writer/propose", adminHandler.ProposeWriter)
	admin.POST("/writer/force", adminHandler.ForceSetWriter)
	admin.PUT("/pause", adminHandler.SetPaused)
	admin.POST("/ownership/transfer", adminHandler.TransferOwnership)
	admin.POST("/rescue/native", adminHandler.RescueNative)
	admin.POST("/rescue/token", adminHandler.RescueToken)

	// Read-only query surface (public)
	api.GET("/ledger", ledgerHandler.GetState)
	api.GET("/orders/:orderId", ledgerHandler.GetOrder)
	api.GET("/receipts/:orderId", ledgerHandler.GetReceipt)
	api.GET("/notes", ledgerHandler.ListNotes)
	api.GET("/notes/:id", ledgerHandler.GetNote)

	// Event feed
	e.GET("/ws", wsHandler.HandleWS)
}
