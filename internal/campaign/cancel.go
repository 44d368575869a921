package campaign

import (
	"encoding/json"
	"log"
	"strings"

	"campaign-console/internal/backend"
	"campaign-console/internal/models"
)

// Canceller is the slice of the backend API the coordinator needs.
type Canceller interface {
	CancelWithReport(campaignID int64, snapshot backend.ProgressSnapshot) (*models.CancellationReport, error)
}

// ReportStore persists settlement reports. Implemented by the gorm layer; may
// be nil when persistence is not wired.
type ReportStore interface {
	SaveCancellation(record *models.CancellationRecord) error
}

// Coordinator drives campaign cancellation. The backend is the sole authority
// for the final report; the local snapshot travels only as a hint.
type Coordinator struct {
	client Canceller
	store  ReportStore
}

func NewCoordinator(client Canceller, store ReportStore) *Coordinator {
	return &Coordinator{client: client, store: store}
}

// Cancel requests authoritative cancellation for the tracked campaign. Calling
// before an id exists is a guard-rail error and never reaches the wire. On
// failure the tracker keeps its last known state and the call may be retried.
func (c *Coordinator) Cancel(tracker *Tracker) (*models.CancellationReport, error) {
	if tracker == nil || tracker.CampaignID() == 0 {
		return nil, &backend.ValidationError{Field: "campaign", Message: "no campaign has been scheduled yet"}
	}

	snapshot := tracker.ClientSnapshot()
	report, err := c.client.CancelWithReport(tracker.CampaignID(), snapshot)
	if err != nil {
		return nil, err
	}

	// Only after a successful response does the UI stop treating progress
	// events as live.
	tracker.Deactivate()

	if c.store != nil {
		pendingJSON, _ := json.Marshal(report.Contacts.Pending)
		sentJSON, _ := json.Marshal(report.Contacts.Sent)
		record := &models.CancellationRecord{
			CampaignID:      tracker.CampaignID(),
			Message:         report.Message,
			ServerSent:      report.Progress.Sent,
			ServerFailed:    report.Progress.Failed,
			ServerPending:   report.Progress.Pending,
			ClientSent:      snapshot.Sent,
			ClientFailed:    snapshot.Failed,
			PendingContacts: string(pendingJSON),
			SentContacts:    string(sentJSON),
		}
		if err := c.store.SaveCancellation(record); err != nil {
			log.Printf("Failed to store cancellation record for campaign %d: %v", tracker.CampaignID(), err)
		}
	}

	return report, nil
}

// PendingClipboard renders a report's pending contacts one per line, ready for
// the operator to paste into a future campaign.
func PendingClipboard(report *models.CancellationReport) string {
	return strings.Join(report.Contacts.Pending, "\n")
}
