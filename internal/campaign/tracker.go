package campaign

import (
	"sync"

	"campaign-console/internal/backend"
	"campaign-console/internal/models"
)

// ProgressUpdate is one authoritative snapshot pushed by the backend. It is a
// full-state replacement for the fields it carries, never a delta.
type ProgressUpdate struct {
	CampaignID   int64    `json:"trigger_id"`
	Status       string   `json:"status"`
	Sent         int      `json:"sent"`
	Failed       int      `json:"failed"`
	Total        int      `json:"total"`
	Delivered    int      `json:"delivered"`
	Read         int      `json:"read"`
	Interactions int      `json:"interactions"`
	Blocked      int      `json:"blocked"`
	Cost         float64  `json:"cost"`
	Processed    []string `json:"processed_contacts"`
	Pending      []string `json:"pending_contacts"`
}

// Tracker holds the live state of one campaign. Updates for other campaign ids
// are rejected, and once the tracker goes inactive (terminal status or
// cancellation) late events are dropped.
type Tracker struct {
	mu         sync.Mutex
	campaignID int64
	active     bool
	last       ProgressUpdate
	onComplete func(status string)
	completed  bool
}

// NewTracker starts tracking a campaign.
func NewTracker(campaignID int64, total int) *Tracker {
	return &Tracker{
		campaignID: campaignID,
		active:     true,
		last: ProgressUpdate{
			CampaignID: campaignID,
			Status:     models.CampaignPending,
			Total:      total,
		},
	}
}

// SetOnComplete registers the hook fired exactly once when a terminal status
// arrives. A later call replaces an earlier hook.
func (t *Tracker) SetOnComplete(fn func(status string)) {
	t.mu.Lock()
	t.onComplete = fn
	t.mu.Unlock()
}

func (t *Tracker) CampaignID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.campaignID
}

// Apply replaces the tracked state with the event's snapshot. Returns false
// when the event was for another campaign or arrived after deactivation.
func (t *Tracker) Apply(update ProgressUpdate) bool {
	t.mu.Lock()
	if update.CampaignID != t.campaignID || !t.active {
		t.mu.Unlock()
		return false
	}
	t.last = update

	var fire func(string)
	if models.IsTerminalStatus(update.Status) {
		t.active = false
		if !t.completed {
			t.completed = true
			fire = t.onComplete
		}
	}
	t.mu.Unlock()

	if fire != nil {
		fire(update.Status)
	}
	return true
}

// Deactivate stops the tracker without a terminal event, as after a
// cancellation response. Late progress events are ignored from here on.
func (t *Tracker) Deactivate() {
	t.mu.Lock()
	t.active = false
	t.mu.Unlock()
}

func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Current returns the last applied snapshot.
func (t *Tracker) Current() ProgressUpdate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// ClientSnapshot shapes the tracked state into the hint sent with a cancel
// request.
func (t *Tracker) ClientSnapshot() backend.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return backend.ProgressSnapshot{
		Processed: append([]string(nil), t.last.Processed...),
		Pending:   append([]string(nil), t.last.Pending...),
		Sent:      t.last.Sent,
		Failed:    t.last.Failed,
	}
}
