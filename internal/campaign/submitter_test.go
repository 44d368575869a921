package campaign

import (
	"errors"
	"testing"
	"time"

	"campaign-console/internal/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct {
	calls []backend.ScheduleRequest
	id    int64
	err   error
}

func (f *fakeScheduler) ScheduleBulkSend(req backend.ScheduleRequest) (int64, error) {
	f.calls = append(f.calls, req)
	return f.id, f.err
}

func validDraft() *Draft {
	return &Draft{
		Template:         textTemplate("", "Hello {{1}}"),
		Contacts:         someContacts(),
		BodyValues:       map[int]string{1: "Ana"},
		DelaySeconds:     2,
		ConcurrencyLimit: 5,
		CostPerUnit:      0.08,
	}
}

func TestSubmitBlockedByValidationIssuesNoCall(t *testing.T) {
	scheduler := &fakeScheduler{id: 1}
	s := NewSubmitter(scheduler)

	draft := validDraft()
	draft.BodyValues = nil

	handle, err := s.Submit(draft)
	require.Error(t, err)
	assert.Nil(t, handle)
	assert.Empty(t, scheduler.calls, "no network call may be issued on validation failure")

	// Filling the variable unblocks the same draft.
	draft.BodyValues = map[int]string{1: "Ana"}
	handle, err = s.Submit(draft)
	require.NoError(t, err)
	require.Len(t, scheduler.calls, 1)
	assert.Equal(t, int64(1), handle.CampaignID)
}

func TestSubmitImmediateWhenScheduleAtIsPastOrZero(t *testing.T) {
	scheduler := &fakeScheduler{id: 9}
	s := NewSubmitter(scheduler)

	handle, err := s.Submit(validDraft())
	require.NoError(t, err)
	assert.True(t, handle.Immediate)
	assert.NotEmpty(t, handle.ClientRef)
}

func TestSubmitDeferredForFutureSchedule(t *testing.T) {
	scheduler := &fakeScheduler{id: 9}
	s := NewSubmitter(scheduler)

	draft := validDraft()
	draft.ScheduleAt = time.Now().Add(2 * time.Hour)

	handle, err := s.Submit(draft)
	require.NoError(t, err)
	assert.False(t, handle.Immediate)
	assert.Equal(t, draft.ScheduleAt, handle.ScheduleAt)
}

func TestSubmitSendsReconciledContactsAndRateControls(t *testing.T) {
	scheduler := &fakeScheduler{id: 3}
	s := NewSubmitter(scheduler)

	_, err := s.Submit(validDraft())
	require.NoError(t, err)

	req := scheduler.calls[0]
	assert.Equal(t, "promo", req.TemplateName)
	assert.Equal(t, "pt_BR", req.Language)
	assert.Equal(t, []string{"11999999999"}, req.ContactsList)
	assert.Equal(t, 2, req.DelaySeconds)
	assert.Equal(t, 5, req.ConcurrencyLimit)
	assert.Equal(t, 0.08, req.CostPerUnit)
	require.Len(t, req.Components, 1)
}

func TestSubmitFailureLeavesDraftUntouched(t *testing.T) {
	scheduler := &fakeScheduler{err: errors.New("network unreachable")}
	s := NewSubmitter(scheduler)

	draft := validDraft()
	handle, err := s.Submit(draft)
	require.Error(t, err)
	assert.Nil(t, handle)

	// Draft is intact and a retry succeeds once the network is back.
	scheduler.err = nil
	scheduler.id = 4
	handle, err = s.Submit(draft)
	require.NoError(t, err)
	assert.Equal(t, int64(4), handle.CampaignID)
}
