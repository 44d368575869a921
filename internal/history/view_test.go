package history

import (
	"errors"
	"sync"
	"testing"
	"time"

	"campaign-console/internal/backend"
	"campaign-console/internal/campaign"
	"campaign-console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeListClient struct {
	mu        sync.Mutex
	page      backend.CampaignPage
	listErr   error
	listCalls int
	filters   []backend.CampaignFilter
	deleted   []int64
	failIDs   map[int64]bool
	started   []int64
	cancelled []int64
	updated   []int64
}

func (f *fakeListClient) ListCampaigns(filter backend.CampaignFilter) (*backend.CampaignPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.filters = append(f.filters, filter)
	if f.listErr != nil {
		return nil, f.listErr
	}
	page := f.page
	return &page, nil
}

func (f *fakeListClient) DeleteCampaign(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[id] {
		return errors.New("delete rejected")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeListClient) CancelCampaign(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeListClient) StartCampaignNow(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, id)
	return nil
}

func (f *fakeListClient) UpdateCampaignParams(id int64, params map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, id)
	return nil
}

func (f *fakeListClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type fakeSnapshotStore struct {
	mu    sync.Mutex
	saved []models.CampaignSnapshot
}

func (f *fakeSnapshotStore) SaveSnapshot(s *models.CampaignSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, *s)
	return nil
}

func twoCampaigns() backend.CampaignPage {
	return backend.CampaignPage{
		Items: []models.Campaign{
			{ID: 1, Name: "spring promo", Status: models.CampaignProcessing, Sent: 10, Total: 100},
			{ID: 2, Name: "winback", Status: models.CampaignPending, Total: 50},
		},
		Total: 2,
	}
}

func TestRefreshLoadsRowsAndTotal(t *testing.T) {
	client := &fakeListClient{page: twoCampaigns()}
	v := NewView(client, nil, "ws://unused")

	require.NoError(t, v.Refresh())
	assert.Len(t, v.Rows(), 2)
	assert.Equal(t, 2, v.Total())
}

func TestFilterPresetsProduceDateBounds(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)

	cases := map[string]string{
		RangeToday:  "2026-08-30",
		Range7Days:  "2026-08-23",
		Range14Days: "2026-08-16",
		RangeMonth:  "2026-07-30",
	}
	for preset, wantStart := range cases {
		bf := Filter{DateRange: preset, Page: 1, PageSize: 20}.toBackend(now)
		assert.Equal(t, wantStart, bf.StartDate, preset)
		assert.Equal(t, "2026-08-30", bf.EndDate, preset)
	}

	bf := Filter{Page: 1, PageSize: 20}.toBackend(now)
	assert.Empty(t, bf.StartDate)
	assert.Empty(t, bf.EndDate)
}

func TestFilterCustomRange(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	bf := Filter{
		DateRange:   RangeCustom,
		CustomStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		CustomEnd:   time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	}.toBackend(now)

	assert.Equal(t, "2026-08-01", bf.StartDate)
	assert.Equal(t, "2026-08-15", bf.EndDate)
}

func TestFilterPagination(t *testing.T) {
	bf := Filter{Page: 3, PageSize: 25}.toBackend(time.Now())
	assert.Equal(t, 25, bf.Limit)
	assert.Equal(t, 50, bf.Skip)
}

func TestApplyEventPatchesMatchingRowInPlace(t *testing.T) {
	client := &fakeListClient{page: twoCampaigns()}
	v := NewView(client, nil, "ws://unused")
	require.NoError(t, v.Refresh())
	callsAfterRefresh := client.calls()

	patched := v.ApplyEvent(campaign.ProgressUpdate{
		CampaignID: 1,
		Status:     models.CampaignProcessing,
		Sent:       45,
		Failed:     2,
		Total:      100,
	})
	assert.True(t, patched)

	rows := v.Rows()
	assert.Equal(t, 45, rows[0].Sent)
	assert.Equal(t, 2, rows[0].Failed)
	// The other row is untouched and no refetch happened.
	assert.Equal(t, 0, rows[1].Sent)
	assert.Equal(t, callsAfterRefresh, client.calls())
}

func TestApplyEventIgnoresRowsOutsidePage(t *testing.T) {
	client := &fakeListClient{page: twoCampaigns()}
	v := NewView(client, nil, "ws://unused")
	require.NoError(t, v.Refresh())

	assert.False(t, v.ApplyEvent(campaign.ProgressUpdate{CampaignID: 99, Sent: 1}))
}

func TestPageCountFromServerTotal(t *testing.T) {
	client := &fakeListClient{page: backend.CampaignPage{Total: 57}}
	v := NewView(client, nil, "ws://unused")
	require.NoError(t, v.SetFilter(Filter{Page: 1, PageSize: 20}))

	assert.Equal(t, 3, v.PageCount())

	client.page.Total = 0
	require.NoError(t, v.Refresh())
	assert.Equal(t, 0, v.PageCount())
}

func TestBulkDeleteContinuesPastFailures(t *testing.T) {
	client := &fakeListClient{page: twoCampaigns(), failIDs: map[int64]bool{2: true}}
	v := NewView(client, nil, "ws://unused")

	result := v.BulkDelete([]int64{1, 2, 3})

	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []int64{2}, result.Errors)
	assert.Equal(t, []int64{1, 3}, client.deleted)
	assert.GreaterOrEqual(t, client.calls(), 1, "page refreshed after the batch")
}

func TestRowActionsRefreshOnSuccess(t *testing.T) {
	client := &fakeListClient{page: twoCampaigns()}
	v := NewView(client, nil, "ws://unused")

	require.NoError(t, v.StartNow(1))
	require.NoError(t, v.Cancel(2))
	require.NoError(t, v.UpdateParams(1, map[string]interface{}{"delay_seconds": 5}))
	require.NoError(t, v.Delete(2))

	assert.Equal(t, []int64{1}, client.started)
	assert.Equal(t, []int64{2}, client.cancelled)
	assert.Equal(t, []int64{1}, client.updated)
	assert.Equal(t, 4, client.calls())
}

func TestRefetchBackstopRunsOnInterval(t *testing.T) {
	client := &fakeListClient{page: twoCampaigns()}
	v := NewView(client, nil, "ws://127.0.0.1:1")
	v.RefetchInterval = 30 * time.Millisecond

	require.NoError(t, v.Open())
	defer v.Close()

	require.Eventually(t, func() bool {
		return client.calls() >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOpenRecoversFromFailedInitialFetch(t *testing.T) {
	client := &fakeListClient{page: twoCampaigns(), listErr: errors.New("backend down")}
	v := NewView(client, nil, "ws://127.0.0.1:1")
	v.RefetchInterval = 20 * time.Millisecond

	// The first fetch fails, but the backstop keeps running regardless.
	require.Error(t, v.Open())
	defer v.Close()

	client.mu.Lock()
	client.listErr = nil
	client.mu.Unlock()

	require.Eventually(t, func() bool {
		return len(v.Rows()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, v.Total())
}

func TestConcurrentRefreshAndEventPatching(t *testing.T) {
	client := &fakeListClient{page: twoCampaigns()}
	store := &fakeSnapshotStore{}
	v := NewView(client, store, "ws://unused")
	require.NoError(t, v.Refresh())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = v.Refresh()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			v.ApplyEvent(campaign.ProgressUpdate{
				CampaignID: 1,
				Status:     models.CampaignProcessing,
				Sent:       i,
				Total:      100,
			})
		}
	}()
	wg.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotEmpty(t, store.saved)
	for _, s := range store.saved {
		assert.Contains(t, []int64{1, 2}, s.CampaignID)
	}
}

func TestCloseIsUnconditional(t *testing.T) {
	client := &fakeListClient{page: twoCampaigns()}
	v := NewView(client, nil, "ws://127.0.0.1:1")
	require.NoError(t, v.Open())

	assert.NotPanics(t, func() {
		v.Close()
		v.Close()
	})
}
