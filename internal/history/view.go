package history

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"campaign-console/internal/backend"
	"campaign-console/internal/campaign"
	"campaign-console/internal/models"
	"campaign-console/internal/push"
)

// DefaultRefetchInterval is the consistency backstop: a full refetch at this
// cadence catches pushes lost to a silently dropped socket.
const DefaultRefetchInterval = 60 * time.Second

// ListClient is the slice of the backend API the history view needs.
type ListClient interface {
	ListCampaigns(filter backend.CampaignFilter) (*backend.CampaignPage, error)
	DeleteCampaign(campaignID int64) error
	CancelCampaign(campaignID int64) error
	StartCampaignNow(campaignID int64) error
	UpdateCampaignParams(campaignID int64, params map[string]interface{}) error
}

// SnapshotStore caches last-known campaign counts. May be nil.
type SnapshotStore interface {
	SaveSnapshot(snapshot *models.CampaignSnapshot) error
}

// Date range presets.
const (
	RangeToday   = "today"
	Range7Days   = "7d"
	Range14Days  = "14d"
	RangeMonth   = "month"
	RangeCustom  = "custom"
	RangeForever = ""
)

// Filter is the operator-facing listing filter.
type Filter struct {
	Name        string
	Type        string // all | single | bulk
	Status      string
	DateRange   string
	CustomStart time.Time
	CustomEnd   time.Time
	Page        int // 1-based
	PageSize    int
}

const dateLayout = "2006-01-02"

func (f Filter) toBackend(now time.Time) backend.CampaignFilter {
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}

	bf := backend.CampaignFilter{
		Limit:  pageSize,
		Skip:   (page - 1) * pageSize,
		Name:   f.Name,
		Status: f.Status,
		Type:   f.Type,
	}

	var start time.Time
	end := now
	switch f.DateRange {
	case RangeToday:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case Range7Days:
		start = now.AddDate(0, 0, -7)
	case Range14Days:
		start = now.AddDate(0, 0, -14)
	case RangeMonth:
		start = now.AddDate(0, -1, 0)
	case RangeCustom:
		start = f.CustomStart
		if !f.CustomEnd.IsZero() {
			end = f.CustomEnd
		}
	default:
		return bf
	}

	if !start.IsZero() {
		bf.StartDate = start.Format(dateLayout)
		bf.EndDate = end.Format(dateLayout)
	}
	return bf
}

// BulkDeleteResult summarizes a batch delete. Individual failures never abort
// the batch.
type BulkDeleteResult struct {
	Deleted int     `json:"deleted"`
	Failed  int     `json:"failed"`
	Errors  []int64 `json:"failed_ids,omitempty"`
}

// View keeps one page of campaign history current: server-side pagination for
// fetches, push events patched into matching rows in place, and an interval
// refetch as backstop.
type View struct {
	client          ListClient
	store           SnapshotStore
	wsURL           string
	RefetchInterval time.Duration

	mu     sync.Mutex
	filter Filter
	rows   []models.Campaign
	total  int

	listener *push.Listener
	quit     chan struct{}
	once     sync.Once
}

func NewView(client ListClient, store SnapshotStore, wsURL string) *View {
	return &View{
		client:          client,
		store:           store,
		wsURL:           wsURL,
		RefetchInterval: DefaultRefetchInterval,
		filter:          Filter{Type: "all", Page: 1, PageSize: 20},
		quit:            make(chan struct{}),
	}
}

// Open starts the reconnecting push subscription and the refetch ticker, then
// fetches the first page. A failed first fetch is reported but does not stop
// either loop: the subscription and the ticker are what recover the view once
// the backend comes back.
func (v *View) Open() error {
	dispatcher := push.NewDispatcher()
	dispatcher.Handle(push.EventBulkProgress, func(data json.RawMessage) {
		var update campaign.ProgressUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			log.Printf("Dropping malformed history event: %v", err)
			return
		}
		v.ApplyEvent(update)
	})

	v.listener = push.NewListener(v.wsURL, dispatcher, true)
	go v.listener.Run()

	go v.refetchLoop()
	return v.Refresh()
}

func (v *View) refetchLoop() {
	ticker := time.NewTicker(v.RefetchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-v.quit:
			return
		case <-ticker.C:
			if err := v.Refresh(); err != nil {
				log.Printf("History refetch failed: %v", err)
			}
		}
	}
}

// Refresh refetches the current page from the backend.
func (v *View) Refresh() error {
	v.mu.Lock()
	filter := v.filter
	v.mu.Unlock()

	page, err := v.client.ListCampaigns(filter.toBackend(time.Now()))
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.rows = page.Items
	v.total = page.Total
	// Snapshot from a copy: push events patch the published rows in place.
	fetched := append([]models.Campaign(nil), page.Items...)
	v.mu.Unlock()

	for i := range fetched {
		v.saveSnapshot(&fetched[i])
	}
	return nil
}

// SetFilter replaces the filter and refetches.
func (v *View) SetFilter(filter Filter) error {
	v.mu.Lock()
	v.filter = filter
	v.mu.Unlock()
	return v.Refresh()
}

// ApplyEvent patches the matching row in place without a refetch. Events for
// campaigns outside the current page are ignored.
func (v *View) ApplyEvent(update campaign.ProgressUpdate) bool {
	var patched *models.Campaign
	v.mu.Lock()
	for i := range v.rows {
		if v.rows[i].ID != update.CampaignID {
			continue
		}
		row := &v.rows[i]
		row.Status = update.Status
		row.Sent = update.Sent
		row.Failed = update.Failed
		row.Total = update.Total
		row.Delivered = update.Delivered
		row.Read = update.Read
		row.Interactions = update.Interactions
		row.Blocked = update.Blocked
		row.Cost = update.Cost
		row.ProcessedContacts = update.Processed
		row.PendingContacts = update.Pending
		c := *row
		patched = &c
		break
	}
	v.mu.Unlock()

	if patched != nil {
		v.saveSnapshot(patched)
		return true
	}
	return false
}

func (v *View) saveSnapshot(c *models.Campaign) {
	if v.store == nil {
		return
	}
	snapshot := &models.CampaignSnapshot{
		CampaignID: c.ID,
		Name:       c.Name,
		Status:     c.Status,
		Sent:       c.Sent,
		Failed:     c.Failed,
		Total:      c.Total,
		Delivered:  c.Delivered,
		Read:       c.Read,
		Cost:       c.Cost,
	}
	if err := v.store.SaveSnapshot(snapshot); err != nil {
		log.Printf("Failed to cache snapshot for campaign %d: %v", c.ID, err)
	}
}

// Rows returns a copy of the current page.
func (v *View) Rows() []models.Campaign {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Campaign(nil), v.rows...)
}

func (v *View) Total() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.total
}

// PageCount derives the page count from the server-reported total.
func (v *View) PageCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	pageSize := v.filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if v.total == 0 {
		return 0
	}
	return (v.total + pageSize - 1) / pageSize
}

// BulkDelete deletes sequentially; a failed id is counted and the batch moves
// on. The page is refreshed once at the end.
func (v *View) BulkDelete(campaignIDs []int64) BulkDeleteResult {
	var result BulkDeleteResult
	for _, id := range campaignIDs {
		if err := v.client.DeleteCampaign(id); err != nil {
			log.Printf("Failed to delete campaign %d: %v", id, err)
			result.Failed++
			result.Errors = append(result.Errors, id)
			continue
		}
		result.Deleted++
	}
	if err := v.Refresh(); err != nil {
		log.Printf("Refresh after bulk delete failed: %v", err)
	}
	return result
}

// Row actions: independent per-id requests, each refreshing the page on
// success.

func (v *View) StartNow(campaignID int64) error {
	if err := v.client.StartCampaignNow(campaignID); err != nil {
		return err
	}
	return v.Refresh()
}

func (v *View) Cancel(campaignID int64) error {
	if err := v.client.CancelCampaign(campaignID); err != nil {
		return err
	}
	return v.Refresh()
}

func (v *View) UpdateParams(campaignID int64, params map[string]interface{}) error {
	if err := v.client.UpdateCampaignParams(campaignID, params); err != nil {
		return err
	}
	return v.Refresh()
}

func (v *View) Delete(campaignID int64) error {
	if err := v.client.DeleteCampaign(campaignID); err != nil {
		return err
	}
	return v.Refresh()
}

// Close stops the push subscription and the refetch loop unconditionally.
func (v *View) Close() {
	v.once.Do(func() {
		close(v.quit)
		if v.listener != nil {
			v.listener.Close()
		}
	})
}
