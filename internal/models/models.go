package models

import (
	"time"
)

// Campaign status values as reported by the backend.
const (
	CampaignPending    = "PENDING"
	CampaignProcessing = "PROCESSING"
	CampaignCompleted  = "COMPLETED"
	CampaignFailed     = "FAILED"
	CampaignCancelled  = "CANCELLED"
)

// IsTerminalStatus reports whether a campaign status admits no further progress.
func IsTerminalStatus(status string) bool {
	switch status {
	case CampaignCompleted, CampaignFailed, CampaignCancelled:
		return true
	default:
		return false
	}
}

// Contact validation states.
const (
	ContactPending  = "PENDING"
	ContactVerified = "VERIFIED"
	ContactNotFound = "NOT_FOUND"
	ContactError    = "ERROR"
)

// Contact is a single recipient row. Phone is the normalized digit string and is
// unique within a list; Original keeps the raw text the operator entered.
type Contact struct {
	Phone      string `json:"phone"`
	Original   string `json:"original"`
	Status     string `json:"status"`
	WindowOpen *bool  `json:"window_open"`
}

// TemplateComponent is one HEADER/BODY/FOOTER/BUTTONS block of a provider template.
type TemplateComponent struct {
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
	Text   string `json:"text,omitempty"`
}

// TemplateDescriptor is a provider-approved template from the catalog. Read-only.
type TemplateDescriptor struct {
	Name       string              `json:"name"`
	Language   string              `json:"language"`
	Category   string              `json:"category"`
	Status     string              `json:"status"`
	Components []TemplateComponent `json:"components"`
}

// Campaign is the client-side projection of a backend campaign. The backend owns
// it; push events and history fetches replace these fields wholesale.
type Campaign struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	Sent              int       `json:"sent"`
	Failed            int       `json:"failed"`
	Total             int       `json:"total"`
	Delivered         int       `json:"delivered"`
	Read              int       `json:"read"`
	Interactions      int       `json:"interactions"`
	Blocked           int       `json:"blocked"`
	Cost              float64   `json:"cost"`
	ProcessedContacts []string  `json:"processed_contacts"`
	PendingContacts   []string  `json:"pending_contacts"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	CreatedAt         time.Time `json:"created_at"`
}

// CancellationReport is the terminal settlement returned by the backend when a
// campaign is cancelled. Never updated after receipt.
type CancellationReport struct {
	Message  string `json:"message"`
	Progress struct {
		Sent    int `json:"sent"`
		Failed  int `json:"failed"`
		Pending int `json:"pending"`
	} `json:"progress"`
	Contacts struct {
		Pending []string `json:"pending"`
		Sent    []string `json:"sent"`
	} `json:"contacts"`
}

// --- Local cache models (gorm) ---

// CachedTemplate is a locally synced copy of a catalog template.
type CachedTemplate struct {
	Name       string    `gorm:"primaryKey;type:varchar(255)" json:"name"`
	Language   string    `gorm:"primaryKey;type:varchar(50)" json:"language"`
	Category   string    `gorm:"type:varchar(100)" json:"category"`
	Status     string    `gorm:"type:varchar(50)" json:"status"`
	Components string    `gorm:"type:text" json:"components"` // JSON components
	SyncedAt   time.Time `gorm:"autoUpdateTime" json:"synced_at"`
}

func (CachedTemplate) TableName() string {
	return "cached_templates"
}

// CampaignSnapshot is the last counts the console saw for a campaign, kept as a
// display backstop when the push channel is down.
type CampaignSnapshot struct {
	CampaignID int64     `gorm:"primaryKey" json:"campaign_id"`
	Name       string    `gorm:"type:varchar(255)" json:"name"`
	Status     string    `gorm:"type:varchar(20)" json:"status"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Total      int       `json:"total"`
	Delivered  int       `json:"delivered"`
	Read       int       `json:"read"`
	Cost       float64   `json:"cost"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CampaignSnapshot) TableName() string {
	return "campaign_snapshots"
}

// CancellationRecord stores a settlement report together with the client snapshot
// that was sent with the cancel request, for audit.
type CancellationRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CampaignID      int64     `gorm:"index;not null" json:"campaign_id"`
	Message         string    `gorm:"type:text" json:"message"`
	ServerSent      int       `json:"server_sent"`
	ServerFailed    int       `json:"server_failed"`
	ServerPending   int       `json:"server_pending"`
	ClientSent      int       `json:"client_sent"`
	ClientFailed    int       `json:"client_failed"`
	PendingContacts string    `gorm:"type:text" json:"pending_contacts"` // JSON array of phones
	SentContacts    string    `gorm:"type:text" json:"sent_contacts"`    // JSON array of phones
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CancellationRecord) TableName() string {
	return "cancellation_records"
}
