package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"campaign-console/internal/backend"
	"campaign-console/internal/campaign"
	"campaign-console/internal/config"
	"campaign-console/internal/contacts"
	"campaign-console/internal/database"
	"campaign-console/internal/models"
	"campaign-console/internal/push"
	"campaign-console/internal/ws"

	"github.com/gin-gonic/gin"
)

// CampaignHandler owns the operator's draft session (recipient lists plus the
// unsent campaign) and the live trackers of campaigns in flight.
type CampaignHandler struct {
	Client *backend.Client
	Store  *database.Store
	Hub    *ws.Hub

	wsURL       string
	reconciler  *contacts.Reconciler
	submitter   *campaign.Submitter
	coordinator *campaign.Coordinator

	mu       sync.Mutex
	trackers map[int64]*campaign.Tracker
	channels map[int64]*push.ProgressChannel
}

func NewCampaignHandler(client *backend.Client, store *database.Store, hub *ws.Hub, cfg *config.Config) *CampaignHandler {
	h := &CampaignHandler{
		Client:      client,
		Store:       store,
		Hub:         hub,
		wsURL:       cfg.BackendWSURL,
		submitter:   campaign.NewSubmitter(client),
		coordinator: campaign.NewCoordinator(client, store),
		trackers:    make(map[int64]*campaign.Tracker),
		channels:    make(map[int64]*push.ProgressChannel),
	}

	validateMode := cfg.DefaultInboxID != ""
	h.reconciler = contacts.NewReconciler(client, cfg.DefaultInboxID, validateMode)
	h.reconciler.OnContactUpdated = func(c models.Contact) {
		hub.BroadcastEvent("contact_validated", c)
	}
	return h
}

type addContactsRequest struct {
	Target string `json:"target"` // main | exclusion
	Text   string `json:"text" binding:"required"`
}

func (h *CampaignHandler) AddContacts(c *gin.Context) {
	var req addContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dropped int
	if req.Target == "exclusion" {
		dropped = h.reconciler.AddExclusionText(req.Text)
	} else {
		dropped = h.reconciler.AddMainText(req.Text)
	}
	h.renderDraft(c, dropped)
}

// UploadContacts accepts a file upload and scans each line for a phone number.
func (h *CampaignHandler) UploadContacts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	var dropped int
	if c.PostForm("target") == "exclusion" {
		dropped, err = h.reconciler.AddExclusionFile(file)
	} else {
		dropped, err = h.reconciler.AddMainFile(file)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.renderDraft(c, dropped)
}

func (h *CampaignHandler) GetDraft(c *gin.Context) {
	h.renderDraft(c, 0)
}

func (h *CampaignHandler) renderDraft(c *gin.Context, dropped int) {
	final := h.reconciler.FinalContacts()
	c.JSON(http.StatusOK, gin.H{
		"main":      h.reconciler.Main(),
		"exclusion": h.reconciler.Exclusion(),
		"blocked":   h.reconciler.Blocked(),
		"final":     final,
		"dropped":   dropped,
	})
}

func (h *CampaignHandler) RemoveContact(c *gin.Context) {
	h.reconciler.RemoveMain(c.Param("phone"))
	h.renderDraft(c, 0)
}

func (h *CampaignHandler) ResetDraft(c *gin.Context) {
	h.reconciler.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "Draft reset"})
}

type submitRequest struct {
	TemplateName     string            `json:"template_name"`
	Language         string            `json:"language"`
	ScheduleAt       time.Time         `json:"schedule_at"`
	DelaySeconds     int               `json:"delay_seconds"`
	ConcurrencyLimit int               `json:"concurrency_limit"`
	CostPerUnit      float64           `json:"cost_per_unit"`
	HeaderMediaURL   string            `json:"header_media_url"`
	HeaderText       string            `json:"header_text"`
	BodyValues       map[string]string `json:"body_values"`
}

func (h *CampaignHandler) findTemplate(name, language string) *models.TemplateDescriptor {
	templates, err := h.Store.LoadTemplates()
	if err != nil || len(templates) == 0 {
		templates, err = h.Client.GetTemplates()
		if err != nil {
			return nil
		}
	}
	for i := range templates {
		if templates[i].Name != name {
			continue
		}
		if language == "" || strings.EqualFold(templates[i].Language, language) {
			return &templates[i]
		}
	}
	return nil
}

// SubmitCampaign validates the draft and schedules it. Immediate sends get a
// live progress subscription whose events are relayed to the dashboard hub.
func (h *CampaignHandler) SubmitCampaign(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bodyValues := make(map[int]string, len(req.BodyValues))
	for key, value := range req.BodyValues {
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		bodyValues[n] = value
	}

	draft := &campaign.Draft{
		Template:         h.findTemplate(req.TemplateName, req.Language),
		ScheduleAt:       req.ScheduleAt,
		Contacts:         h.reconciler.FinalContacts(),
		DelaySeconds:     req.DelaySeconds,
		ConcurrencyLimit: req.ConcurrencyLimit,
		CostPerUnit:      req.CostPerUnit,
		HeaderMediaURL:   req.HeaderMediaURL,
		HeaderText:       req.HeaderText,
		BodyValues:       bodyValues,
	}

	handle, err := h.submitter.Submit(draft)
	if err != nil {
		renderError(c, err)
		return
	}

	total := len(draft.Contacts)
	if handle.Immediate {
		h.openSubscription(handle.CampaignID, total)
	}

	// The draft contact lists are spent once a campaign captures them.
	h.reconciler.Reset()

	c.JSON(http.StatusOK, gin.H{
		"id":          handle.CampaignID,
		"client_ref":  handle.ClientRef,
		"schedule_at": handle.ScheduleAt,
		"immediate":   handle.Immediate,
		"total":       total,
		"cost":        float64(total) * req.CostPerUnit,
	})
}

func (h *CampaignHandler) openSubscription(campaignID int64, total int) {
	tracker := campaign.NewTracker(campaignID, total)

	channel := push.OpenProgressChannel(h.wsURL, tracker,
		func(update campaign.ProgressUpdate) {
			h.Hub.NotifyProgress(update)
		},
		func(status string, completed bool) {
			if completed {
				h.Hub.NotifyCampaignDone(campaignID, status)
			}
			h.dropSubscription(campaignID)
		})

	h.mu.Lock()
	h.trackers[campaignID] = tracker
	h.channels[campaignID] = channel
	h.mu.Unlock()
}

func (h *CampaignHandler) dropSubscription(campaignID int64) {
	h.mu.Lock()
	channel := h.channels[campaignID]
	delete(h.channels, campaignID)
	delete(h.trackers, campaignID)
	h.mu.Unlock()
	if channel != nil {
		channel.Close()
	}
}

// GetProgress returns the live snapshot of an actively tracked campaign.
func (h *CampaignHandler) GetProgress(c *gin.Context) {
	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}

	h.mu.Lock()
	tracker := h.trackers[campaignID]
	h.mu.Unlock()
	if tracker == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "campaign is not being tracked"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"progress": tracker.Current(),
		"active":   tracker.Active(),
	})
}

// CancelCampaign requests authoritative cancellation and returns the
// settlement report together with a paste-ready pending list.
func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || campaignID == 0 {
		renderError(c, &backend.ValidationError{Field: "campaign", Message: "no campaign has been scheduled yet"})
		return
	}

	h.mu.Lock()
	tracker := h.trackers[campaignID]
	h.mu.Unlock()
	if tracker == nil {
		// Not live-tracked (scheduled for later or tracked by another
		// session); cancel with an empty snapshot, the server knows best.
		tracker = campaign.NewTracker(campaignID, 0)
	}

	report, err := h.coordinator.Cancel(tracker)
	if err != nil {
		renderError(c, err)
		return
	}
	h.dropSubscription(campaignID)

	c.JSON(http.StatusOK, gin.H{
		"report":            report,
		"pending_clipboard": campaign.PendingClipboard(report),
	})
}

// GetCancellations lists stored settlement reports for a campaign.
func (h *CampaignHandler) GetCancellations(c *gin.Context) {
	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	records, err := h.Store.GetCancellations(campaignID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []models.CancellationRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// Close tears down the draft session and every open subscription.
func (h *CampaignHandler) Close() {
	h.reconciler.Close()
	h.mu.Lock()
	channels := make([]*push.ProgressChannel, 0, len(h.channels))
	for _, channel := range h.channels {
		channels = append(channels, channel)
	}
	h.channels = make(map[int64]*push.ProgressChannel)
	h.trackers = make(map[int64]*campaign.Tracker)
	h.mu.Unlock()
	for _, channel := range channels {
		channel.Close()
	}
}
