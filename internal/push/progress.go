package push

import (
	"encoding/json"
	"log"

	"campaign-console/internal/campaign"
	"campaign-console/internal/models"
)

// ProgressChannel is a live subscription for one campaign. It does not
// reconnect: it lives only while the campaign is active and the owning view
// holds it, and closes itself when a terminal status arrives.
type ProgressChannel struct {
	listener *Listener
	tracker  *campaign.Tracker
}

// OpenProgressChannel subscribes to progress events for the tracker's
// campaign. onUpdate fires after every applied snapshot; onComplete fires
// exactly once on a terminal status, with completed=true only for COMPLETED
// (the single case that warrants a notification).
func OpenProgressChannel(wsURL string, tracker *campaign.Tracker,
	onUpdate func(campaign.ProgressUpdate), onComplete func(status string, completed bool)) *ProgressChannel {

	ch := &ProgressChannel{tracker: tracker}

	dispatcher := NewDispatcher()
	dispatcher.Handle(EventBulkProgress, func(data json.RawMessage) {
		var update campaign.ProgressUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			log.Printf("Dropping malformed progress event: %v", err)
			return
		}
		if !tracker.Apply(update) {
			return
		}
		if onUpdate != nil {
			onUpdate(update)
		}
	})

	// The tracker fires its completion hook exactly once; piggyback teardown
	// on it so the socket never outlives the campaign.
	tracker.SetOnComplete(func(status string) {
		if onComplete != nil {
			onComplete(status, status == models.CampaignCompleted)
		}
		ch.Close()
	})

	ch.listener = NewListener(wsURL, dispatcher, false)
	go ch.listener.Run()
	return ch
}

func (ch *ProgressChannel) State() string {
	return ch.listener.State()
}

// Close tears the subscription down. Idempotent; called on view unmount and
// automatically on terminal status.
func (ch *ProgressChannel) Close() {
	ch.listener.Close()
}
