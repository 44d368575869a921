package api

import (
	"net/http"

	"campaign-console/internal/backend"
	"campaign-console/internal/database"
	"campaign-console/internal/models"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the template catalog and the Chatwoot list sources the
// campaign form needs.
type CatalogHandler struct {
	Client *backend.Client
	Store  *database.Store
}

func NewCatalogHandler(client *backend.Client, store *database.Store) *CatalogHandler {
	return &CatalogHandler{Client: client, Store: store}
}

func (h *CatalogHandler) GetInboxes(c *gin.Context) {
	inboxes, err := h.Client.GetInboxes()
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, inboxes)
}

func (h *CatalogHandler) GetConversations(c *gin.Context) {
	conversations, err := h.Client.GetConversations(c.Query("inbox_id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// GetTemplates serves the locally cached catalog, falling back to a live fetch
// when the cache is empty.
func (h *CatalogHandler) GetTemplates(c *gin.Context) {
	templates, err := h.Store.LoadTemplates()
	if err == nil && len(templates) > 0 {
		c.JSON(http.StatusOK, templates)
		return
	}

	templates, err = h.Client.GetTemplates()
	if err != nil {
		renderError(c, err)
		return
	}
	h.Store.SaveTemplates(templates)
	if templates == nil {
		templates = []models.TemplateDescriptor{}
	}
	c.JSON(http.StatusOK, templates)
}

// SyncTemplates refetches the catalog from the backend and upserts the cache.
func (h *CatalogHandler) SyncTemplates(c *gin.Context) {
	templates, err := h.Client.GetTemplates()
	if err != nil {
		renderError(c, err)
		return
	}
	count := h.Store.SaveTemplates(templates)
	c.JSON(http.StatusOK, gin.H{"status": "Templates synced", "count": count})
}
