package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"campaign-console/internal/config"
	"campaign-console/internal/models"
)

// Client talks to the campaign backend's REST API.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL:    cfg.BackendURL,
		Token:      cfg.BackendToken,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) sendRequest(method, path string, body interface{}, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading backend response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding backend response: %w", err)
		}
	}
	return nil
}

// --- Chatwoot passthrough ---

type Inbox struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Conversation struct {
	ID      int64  `json:"id"`
	InboxID int64  `json:"inbox_id"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
}

func (c *Client) GetInboxes() ([]Inbox, error) {
	var inboxes []Inbox
	err := c.sendRequest("GET", "/chatwoot/inboxes", nil, &inboxes)
	return inboxes, err
}

func (c *Client) GetConversations(inboxID string) ([]Conversation, error) {
	path := "/chatwoot/conversations"
	if inboxID != "" {
		path += "?inbox_id=" + url.QueryEscape(inboxID)
	}
	var conversations []Conversation
	err := c.sendRequest("GET", path, nil, &conversations)
	return conversations, err
}

// ContactCheck is one row of a validate_contacts response.
type ContactCheck struct {
	Phone      string `json:"phone"`
	Exists     bool   `json:"exists"`
	WindowOpen bool   `json:"window_open"`
}

// ValidateContacts checks phones against Chatwoot. The reconciler calls it with
// a single-element slice per contact to keep one lookup in flight at a time.
func (c *Client) ValidateContacts(phones []string, inboxID string) ([]ContactCheck, error) {
	req := map[string]interface{}{
		"contacts": phones,
		"inbox_id": inboxID,
	}
	var checks []ContactCheck
	err := c.sendRequest("POST", "/chatwoot/validate_contacts", req, &checks)
	return checks, err
}

// --- Template catalog ---

func (c *Client) GetTemplates() ([]models.TemplateDescriptor, error) {
	var templates []models.TemplateDescriptor
	err := c.sendRequest("GET", "/whatsapp/templates", nil, &templates)
	return templates, err
}

// --- Blocked contacts ---

func (c *Client) CheckBlocked(phones []string) ([]string, error) {
	req := map[string]interface{}{"phones": phones}
	var resp struct {
		BlockedPhones []string `json:"blocked_phones"`
	}
	if err := c.sendRequest("POST", "/blocked/check_bulk", req, &resp); err != nil {
		return nil, err
	}
	return resp.BlockedPhones, nil
}

// --- Provider payload wire types ---

type MediaLink struct {
	Link string `json:"link"`
}

type Parameter struct {
	Type     string     `json:"type"`
	Text     string     `json:"text,omitempty"`
	Image    *MediaLink `json:"image,omitempty"`
	Video    *MediaLink `json:"video,omitempty"`
	Document *MediaLink `json:"document,omitempty"`
}

type Component struct {
	Type       string      `json:"type"`
	Parameters []Parameter `json:"parameters"`
}

// --- Bulk send ---

type ScheduleRequest struct {
	TemplateName     string      `json:"template_name"`
	ScheduleAt       time.Time   `json:"schedule_at"`
	ContactsList     []string    `json:"contacts_list"`
	DelaySeconds     int         `json:"delay_seconds"`
	ConcurrencyLimit int         `json:"concurrency_limit"`
	Language         string      `json:"language"`
	CostPerUnit      float64     `json:"cost_per_unit"`
	Components       []Component `json:"components"`
	ClientRef        string      `json:"client_ref,omitempty"`
}

func (c *Client) ScheduleBulkSend(req ScheduleRequest) (int64, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.sendRequest("POST", "/bulk-send/schedule", req, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// --- Campaign lifecycle ---

// ProgressSnapshot is the client's best-known progress, sent with a cancel
// request as a hint. Server bookkeeping stays authoritative.
type ProgressSnapshot struct {
	Processed []string `json:"processed"`
	Pending   []string `json:"pending"`
	Sent      int      `json:"sent"`
	Failed    int      `json:"failed"`
}

func (c *Client) CancelWithReport(campaignID int64, snapshot ProgressSnapshot) (*models.CancellationReport, error) {
	var report models.CancellationReport
	path := fmt.Sprintf("/triggers/%d/cancel-with-report", campaignID)
	if err := c.sendRequest("POST", path, snapshot, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) CancelCampaign(campaignID int64) error {
	return c.sendRequest("POST", fmt.Sprintf("/triggers/%d/cancel", campaignID), nil, nil)
}

func (c *Client) StartCampaignNow(campaignID int64) error {
	return c.sendRequest("POST", fmt.Sprintf("/triggers/%d/start-now", campaignID), nil, nil)
}

func (c *Client) UpdateCampaignParams(campaignID int64, params map[string]interface{}) error {
	return c.sendRequest("PATCH", fmt.Sprintf("/triggers/%d/update-params", campaignID), params, nil)
}

func (c *Client) DeleteCampaign(campaignID int64) error {
	return c.sendRequest("DELETE", fmt.Sprintf("/triggers/%d", campaignID), nil, nil)
}

// --- Campaign listing ---

type CampaignFilter struct {
	Limit     int
	Skip      int
	Name      string
	Status    string
	Type      string
	StartDate string
	EndDate   string
}

type CampaignPage struct {
	Items []models.Campaign `json:"items"`
	Total int               `json:"total"`
}

func (c *Client) ListCampaigns(filter CampaignFilter) (*CampaignPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(filter.Limit))
	q.Set("skip", strconv.Itoa(filter.Skip))
	if filter.Name != "" {
		q.Set("funnel_name", filter.Name)
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Type != "" && filter.Type != "all" {
		q.Set("trigger_type", filter.Type)
	}
	if filter.StartDate != "" {
		q.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		q.Set("end_date", filter.EndDate)
	}

	var page CampaignPage
	if err := c.sendRequest("GET", "/triggers?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// DeliveryRow is one per-recipient delivery record of a campaign.
type DeliveryRow struct {
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Client) GetCampaignMessages(campaignID int64, statusFilter string) ([]DeliveryRow, error) {
	path := fmt.Sprintf("/triggers/%d/messages", campaignID)
	if statusFilter != "" {
		path += "?status_filter=" + url.QueryEscape(statusFilter)
	}
	var rows []DeliveryRow
	err := c.sendRequest("GET", path, nil, &rows)
	return rows, err
}
