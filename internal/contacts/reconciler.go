package contacts

import (
	"io"
	"log"
	"sync"
	"time"

	"campaign-console/internal/backend"
	"campaign-console/internal/models"
)

// LookupClient is the slice of the backend API the reconciler needs.
type LookupClient interface {
	ValidateContacts(phones []string, inboxID string) ([]backend.ContactCheck, error)
	CheckBlocked(phones []string) ([]string, error)
}

// DefaultBlockedCheckDelay is the quiet period before the blocked set is
// recomputed after an edit to the main list.
const DefaultBlockedCheckDelay = 500 * time.Millisecond

// Reconciler owns the main and exclusion recipient lists and the blocked set,
// and produces the final send list. Contact rows are updated last-write-wins:
// the validation worker and list edits both go through the same mutex.
type Reconciler struct {
	lookup       LookupClient
	inboxID      string
	validateMode bool
	debouncer    *Debouncer

	// OnContactUpdated, when set, fires after a validation result is merged
	// into a row. Used to push per-row transitions to the UI.
	OnContactUpdated func(models.Contact)

	mu        sync.Mutex
	main      []models.Contact
	exclusion []models.Contact
	blocked   map[string]bool

	queue chan string
	quit  chan struct{}
	once  sync.Once
}

func NewReconciler(lookup LookupClient, inboxID string, validateMode bool) *Reconciler {
	r := &Reconciler{
		lookup:       lookup,
		inboxID:      inboxID,
		validateMode: validateMode,
		debouncer:    NewDebouncer(DefaultBlockedCheckDelay),
		blocked:      make(map[string]bool),
		queue:        make(chan string, 1024),
		quit:         make(chan struct{}),
	}
	if validateMode {
		go r.validateLoop()
	}
	return r
}

// AddMainText parses free text into the main list. Returns the number of
// entries discarded as too short, for the UI's toast.
func (r *Reconciler) AddMainText(text string) int {
	result := ParseText(text)
	r.addMain(result.Contacts)
	return result.Dropped
}

// AddMainFile parses an uploaded file into the main list.
func (r *Reconciler) AddMainFile(file io.Reader) (int, error) {
	result, err := ParseFile(file)
	if err != nil {
		return result.Dropped, err
	}
	r.addMain(result.Contacts)
	return result.Dropped, nil
}

func (r *Reconciler) AddExclusionText(text string) int {
	result := ParseText(text)
	r.mu.Lock()
	r.exclusion = MergeLists(r.exclusion, result.Contacts)
	r.mu.Unlock()
	return result.Dropped
}

func (r *Reconciler) AddExclusionFile(file io.Reader) (int, error) {
	result, err := ParseFile(file)
	if err != nil {
		return result.Dropped, err
	}
	r.mu.Lock()
	r.exclusion = MergeLists(r.exclusion, result.Contacts)
	r.mu.Unlock()
	return result.Dropped, nil
}

func (r *Reconciler) addMain(newContacts []models.Contact) {
	r.mu.Lock()
	before := len(r.main)
	r.main = MergeLists(r.main, newContacts)
	// Copy the new phones out: a concurrent RemoveMain compacts r.main in
	// place, so a subslice must not outlive the lock.
	added := make([]string, 0, len(r.main)-before)
	for _, c := range r.main[before:] {
		added = append(added, c.Phone)
	}
	r.mu.Unlock()

	if r.validateMode {
		for _, phone := range added {
			select {
			case r.queue <- phone:
			default:
				log.Printf("Validation queue full, skipping lookup for %s", phone)
			}
		}
	}
	if len(added) > 0 {
		r.scheduleBlockedCheck()
	}
}

// RemoveMain drops a phone from the main list and rearms the blocked recheck.
func (r *Reconciler) RemoveMain(phone string) {
	r.mu.Lock()
	changed := false
	kept := r.main[:0]
	for _, c := range r.main {
		if c.Phone == phone {
			changed = true
			continue
		}
		kept = append(kept, c)
	}
	r.main = kept
	r.mu.Unlock()

	if changed {
		r.scheduleBlockedCheck()
	}
}

func (r *Reconciler) scheduleBlockedCheck() {
	r.debouncer.Trigger(func() {
		r.mu.Lock()
		phones := Phones(r.main)
		r.mu.Unlock()
		if len(phones) == 0 {
			r.setBlocked(nil)
			return
		}
		blocked, err := r.lookup.CheckBlocked(phones)
		if err != nil {
			log.Printf("Blocked-contact check failed: %v", err)
			return
		}
		r.setBlocked(blocked)
	})
}

func (r *Reconciler) setBlocked(phones []string) {
	set := make(map[string]bool, len(phones))
	for _, p := range phones {
		set[p] = true
	}
	r.mu.Lock()
	r.blocked = set
	r.mu.Unlock()
}

// validateLoop verifies queued contacts one at a time. A failed lookup marks
// only that contact ERROR and the loop moves on.
func (r *Reconciler) validateLoop() {
	for {
		select {
		case <-r.quit:
			return
		case phone := <-r.queue:
			checks, err := r.lookup.ValidateContacts([]string{phone}, r.inboxID)
			if err != nil {
				log.Printf("Contact lookup failed for %s: %v", phone, err)
				r.applyStatus(phone, models.ContactError, nil)
				continue
			}
			if len(checks) == 0 {
				r.applyStatus(phone, models.ContactNotFound, nil)
				continue
			}
			check := checks[0]
			status := models.ContactNotFound
			if check.Exists {
				status = models.ContactVerified
			}
			windowOpen := check.WindowOpen
			r.applyStatus(phone, status, &windowOpen)
		}
	}
}

func (r *Reconciler) applyStatus(phone, status string, windowOpen *bool) {
	var updated *models.Contact
	r.mu.Lock()
	for i := range r.main {
		if r.main[i].Phone == phone {
			r.main[i].Status = status
			r.main[i].WindowOpen = windowOpen
			c := r.main[i]
			updated = &c
			break
		}
	}
	r.mu.Unlock()

	if updated != nil && r.OnContactUpdated != nil {
		r.OnContactUpdated(*updated)
	}
}

// Main returns a copy of the main list.
func (r *Reconciler) Main() []models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Contact(nil), r.main...)
}

// Exclusion returns a copy of the exclusion list.
func (r *Reconciler) Exclusion() []models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Contact(nil), r.exclusion...)
}

// Blocked returns the currently known blocked phones.
func (r *Reconciler) Blocked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	phones := make([]string, 0, len(r.blocked))
	for p := range r.blocked {
		phones = append(phones, p)
	}
	return phones
}

// FinalContacts is main minus exclusion minus blocked, in main-list order.
func (r *Reconciler) FinalContacts() []models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	blocked := make([]string, 0, len(r.blocked))
	for p := range r.blocked {
		blocked = append(blocked, p)
	}
	return Reconcile(r.main, r.exclusion, blocked)
}

// Reset clears both lists and the blocked set.
func (r *Reconciler) Reset() {
	r.debouncer.Stop()
	r.mu.Lock()
	r.main = nil
	r.exclusion = nil
	r.blocked = make(map[string]bool)
	r.mu.Unlock()
}

// Close stops the validation worker and any pending blocked recheck.
func (r *Reconciler) Close() {
	r.once.Do(func() {
		close(r.quit)
		r.debouncer.Stop()
	})
}
