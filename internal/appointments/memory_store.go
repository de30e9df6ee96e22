package appointments

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/internal/pets"
)

// InMemoryStore implements Store and Reader in process memory. Transactions
// keep an undo journal so rollback restores prior state, which lets tests
// exercise both failure policies without a database.
type InMemoryStore struct {
	mu          sync.Mutex
	custByEmail map[string]*customers.Customer
	petByKey    map[string]*pets.Pet
	appts       map[uuid.UUID]*Record

	// CreateHook, when set, runs before each CreateAppointment and can
	// return an error to simulate a persistence failure.
	CreateHook func(rec *Record) error
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		custByEmail: make(map[string]*customers.Customer),
		petByKey:    make(map[string]*pets.Pet),
		appts:       make(map[uuid.UUID]*Record),
	}
}

func memPetKey(customerID uuid.UUID, name string) string {
	return customerID.String() + "|" + pets.CanonicalName(name)
}

// Begin implements Store.
func (s *InMemoryStore) Begin(ctx context.Context) (Tx, error) {
	return &memTx{store: s}, nil
}

// FindActiveInHour implements Reader.
func (s *InMemoryStore) FindActiveInHour(ctx context.Context, email, petName string, hourStart time.Time) (*Existing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wantEmail := customers.CanonicalEmail(email)
	wantPet := pets.CanonicalName(petName)
	hourEnd := hourStart.Add(time.Hour)

	var best *Existing
	for _, rec := range s.appts {
		appt := rec.Appointment
		if appt.Status == StatusCancelled || appt.Status == StatusCompleted {
			continue
		}
		if appt.ScheduledAt.Before(hourStart) || !appt.ScheduledAt.Before(hourEnd) {
			continue
		}
		cust := s.customerByID(appt.CustomerID)
		pet := s.petByID(appt.PetID)
		if cust == nil || pet == nil {
			continue
		}
		if cust.Email != wantEmail || pets.CanonicalName(pet.Name) != wantPet {
			continue
		}
		if best == nil || appt.ScheduledAt.Before(best.ScheduledAt) {
			best = &Existing{
				ID:            appt.ID,
				CustomerEmail: cust.Email,
				PetName:       pet.Name,
				ScheduledAt:   appt.ScheduledAt,
			}
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

// CountAppointments reports how many appointment records are stored.
func (s *InMemoryStore) CountAppointments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appts)
}

// CustomerByEmail returns a stored customer or nil.
func (s *InMemoryStore) CustomerByEmail(email string) *customers.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.custByEmail[customers.CanonicalEmail(email)]
	if !ok {
		return nil
	}
	out := *c
	return &out
}

// AppointmentByID returns a stored record or nil.
func (s *InMemoryStore) AppointmentByID(id uuid.UUID) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.appts[id]
	if !ok {
		return nil
	}
	out := *rec
	return &out
}

// Seed installs a committed customer, pet, and appointment, for tests.
func (s *InMemoryStore) Seed(cust *customers.Customer, pet *pets.Pet, rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cust != nil {
		c := *cust
		c.Email = customers.CanonicalEmail(c.Email)
		s.custByEmail[c.Email] = &c
	}
	if pet != nil {
		p := *pet
		s.petByKey[memPetKey(p.CustomerID, p.Name)] = &p
	}
	if rec != nil {
		r := *rec
		s.appts[r.Appointment.ID] = &r
	}
}

func (s *InMemoryStore) customerByID(id uuid.UUID) *customers.Customer {
	for _, c := range s.custByEmail {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *InMemoryStore) petByID(id uuid.UUID) *pets.Pet {
	for _, p := range s.petByKey {
		if p.ID == id {
			return p
		}
	}
	return nil
}

type memTx struct {
	store  *InMemoryStore
	parent *memTx
	undo   []func()
	done   bool
}

func (t *memTx) ResolveCustomer(ctx context.Context, draft customers.Draft, origin customers.Origin) (*customers.Customer, bool, error) {
	if err := draft.Validate(); err != nil {
		return nil, false, err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := draft.CanonicalEmail()
	if existing, ok := s.custByEmail[key]; ok {
		out := *existing
		return &out, false, nil
	}

	c := &customers.Customer{
		ID:        uuid.New(),
		Email:     key,
		FirstName: draft.FirstName,
		LastName:  draft.LastName,
		Phone:     draft.Phone,
		Active:    false,
		Origin:    origin,
		CreatedAt: time.Now().UTC(),
	}
	s.custByEmail[key] = c
	t.undo = append(t.undo, func() { delete(s.custByEmail, key) })

	out := *c
	return &out, true, nil
}

func (t *memTx) ResolvePet(ctx context.Context, customerID uuid.UUID, draft pets.Draft) (*pets.Pet, bool, error) {
	if err := draft.Validate(); err != nil {
		return nil, false, err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memPetKey(customerID, draft.Name)
	if existing, ok := s.petByKey[key]; ok {
		out := *existing
		return &out, false, nil
	}

	p := &pets.Pet{
		ID:         uuid.New(),
		CustomerID: customerID,
		Name:       draft.Name,
		Breed:      draft.Breed,
		Size:       draft.Size,
		WeightLbs:  draft.WeightLbs,
		CreatedAt:  time.Now().UTC(),
	}
	s.petByKey[key] = p
	t.undo = append(t.undo, func() { delete(s.petByKey, key) })

	out := *p
	return &out, true, nil
}

func (t *memTx) CreateAppointment(ctx context.Context, rec *Record) error {
	s := t.store
	if s.CreateHook != nil {
		if err := s.CreateHook(rec); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	appt := &rec.Appointment
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.Status == "" {
		appt.Status = StatusScheduled
	}
	appt.CreatedAt = time.Now().UTC()

	stored := *rec
	id := appt.ID
	s.appts[id] = &stored
	t.undo = append(t.undo, func() { delete(s.appts, id) })
	return nil
}

func (t *memTx) OverwriteAppointment(ctx context.Context, existingID uuid.UUID, rec *Record) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.appts[existingID]
	if !ok {
		return ErrNotFound
	}

	updated := *rec
	updated.Appointment.ID = existingID
	if updated.Appointment.Status == "" {
		updated.Appointment.Status = StatusScheduled
	}
	// Creation provenance stays with the original record.
	updated.Appointment.CreatedVia = old.Appointment.CreatedVia
	updated.Appointment.CreatedBy = old.Appointment.CreatedBy
	updated.Appointment.CreatedAt = old.Appointment.CreatedAt
	rec.Appointment = updated.Appointment

	prev := *old
	s.appts[existingID] = &updated
	t.undo = append(t.undo, func() { s.appts[existingID] = &prev })
	return nil
}

func (t *memTx) Begin(ctx context.Context) (Tx, error) {
	return &memTx{store: t.store, parent: t}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if t.parent != nil {
		// Nested scope: the parent inherits the undo journal so an enclosing
		// rollback still reverts these writes.
		t.parent.undo = append(t.parent.undo, t.undo...)
	}
	t.undo = nil
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	return nil
}
