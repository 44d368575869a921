package campaign

import (
	"log"
	"time"

	"campaign-console/internal/backend"
	"campaign-console/internal/contacts"

	"github.com/google/uuid"
)

// Scheduler is the slice of the backend API the submitter needs.
type Scheduler interface {
	ScheduleBulkSend(req backend.ScheduleRequest) (int64, error)
}

// Handle identifies a successfully scheduled campaign. Immediate reports
// whether the backend started processing right away, in which case the caller
// should open a progress subscription for the returned id.
type Handle struct {
	CampaignID int64
	ClientRef  string
	ScheduleAt time.Time
	Immediate  bool
}

type Submitter struct {
	client Scheduler
}

func NewSubmitter(client Scheduler) *Submitter {
	return &Submitter{client: client}
}

// Submit validates the draft and schedules it. Validation failures return a
// *backend.ValidationError without touching the network; transport or server
// failures leave the draft intact for a retry.
func (s *Submitter) Submit(draft *Draft) (*Handle, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	scheduleAt := draft.ScheduleAt
	now := time.Now()
	immediate := scheduleAt.IsZero() || !scheduleAt.After(now)
	if immediate {
		scheduleAt = now
	}

	ref := uuid.NewString()
	req := backend.ScheduleRequest{
		TemplateName:     draft.Template.Name,
		ScheduleAt:       scheduleAt,
		ContactsList:     contacts.Phones(draft.Contacts),
		DelaySeconds:     draft.DelaySeconds,
		ConcurrencyLimit: draft.ConcurrencyLimit,
		Language:         draft.Template.Language,
		CostPerUnit:      draft.CostPerUnit,
		Components:       draft.BuildComponents(),
		ClientRef:        ref,
	}

	id, err := s.client.ScheduleBulkSend(req)
	if err != nil {
		return nil, err
	}

	log.Printf("Scheduled campaign %d (template %s, %d contacts, ref %s)",
		id, draft.Template.Name, len(req.ContactsList), ref)

	return &Handle{
		CampaignID: id,
		ClientRef:  ref,
		ScheduleAt: scheduleAt,
		Immediate:  immediate,
	}, nil
}
