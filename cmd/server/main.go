package main

import (
	"log"

	"campaign-console/internal/api"
	"campaign-console/internal/backend"
	"campaign-console/internal/config"
	"campaign-console/internal/database"
	"campaign-console/internal/history"
	"campaign-console/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()
	database.InitGorm(cfg)

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	client := backend.NewClient(cfg)
	store := database.NewStore(database.GormDB)

	hub := ws.NewHub()
	go hub.Run()

	view := history.NewView(client, store, cfg.BackendWSURL)
	if err := view.Open(); err != nil {
		log.Printf("Warning: initial history fetch failed: %v", err)
	}
	defer view.Close()

	catalogHandler := api.NewCatalogHandler(client, store)
	campaignHandler := api.NewCampaignHandler(client, store, hub, cfg)
	defer campaignHandler.Close()
	historyHandler := api.NewHistoryHandler(view, client)

	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	apiGroup := r.Group("/api")
	{
		// List sources and template catalog
		apiGroup.GET("/inboxes", catalogHandler.GetInboxes)
		apiGroup.GET("/conversations", catalogHandler.GetConversations)
		apiGroup.GET("/templates", catalogHandler.GetTemplates)
		apiGroup.POST("/templates/sync", catalogHandler.SyncTemplates)

		// Draft recipient lists
		apiGroup.GET("/draft", campaignHandler.GetDraft)
		apiGroup.POST("/draft/contacts", campaignHandler.AddContacts)
		apiGroup.POST("/draft/contacts/file", campaignHandler.UploadContacts)
		apiGroup.DELETE("/draft/contacts/:phone", campaignHandler.RemoveContact)
		apiGroup.POST("/draft/reset", campaignHandler.ResetDraft)

		// Campaign lifecycle
		apiGroup.POST("/campaigns", campaignHandler.SubmitCampaign)
		apiGroup.GET("/campaigns/:id/progress", campaignHandler.GetProgress)
		apiGroup.POST("/campaigns/:id/cancel", campaignHandler.CancelCampaign)
		apiGroup.GET("/campaigns/:id/cancellations", campaignHandler.GetCancellations)

		// History table
		apiGroup.GET("/campaigns", historyHandler.ListCampaigns)
		apiGroup.DELETE("/campaigns", historyHandler.BulkDelete)
		apiGroup.POST("/campaigns/:id/start-now", historyHandler.StartNow)
		apiGroup.POST("/campaigns/:id/cancel-simple", historyHandler.Cancel)
		apiGroup.PATCH("/campaigns/:id/params", historyHandler.UpdateParams)
		apiGroup.DELETE("/campaigns/:id", historyHandler.Delete)
		apiGroup.GET("/campaigns/:id/messages", historyHandler.GetMessages)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
