package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/models"
)

// MemoryStore is an in-process Storage used for local development and tests.
// A transaction holds the store lock for its whole duration and works on a
// copy of the state, which replaces the live state only if fn succeeds.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
	now   func() time.Time
}

type memState struct {
	grievances  map[uint]models.Grievance
	byComplaint map[string]uint
	proofs      []models.ResolutionProof
	attachments []models.Attachment
	officers    map[string]models.Officer
	drafts      map[string]models.Draft
	nextID      uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			grievances:  make(map[uint]models.Grievance),
			byComplaint: make(map[string]uint),
			officers:    make(map[string]models.Officer),
			drafts:      make(map[string]models.Draft),
		},
		now: time.Now,
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		grievances:  make(map[uint]models.Grievance, len(s.grievances)),
		byComplaint: make(map[string]uint, len(s.byComplaint)),
		proofs:      append([]models.ResolutionProof(nil), s.proofs...),
		attachments: append([]models.Attachment(nil), s.attachments...),
		officers:    make(map[string]models.Officer, len(s.officers)),
		drafts:      make(map[string]models.Draft, len(s.drafts)),
		nextID:      s.nextID,
	}
	for k, v := range s.grievances {
		c.grievances[k] = v
	}
	for k, v := range s.byComplaint {
		c.byComplaint[k] = v
	}
	for k, v := range s.officers {
		c.officers[k] = v
	}
	for k, v := range s.drafts {
		c.drafts[k] = v
	}
	return c
}

func (s *memState) id() uint {
	s.nextID++
	return s.nextID
}

func (m *MemoryStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.ErrPersistence, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memTx{state: work, now: m.now}); err != nil {
		if apperr.Kind(err) != nil {
			return err
		}
		return apperr.Wrap(apperr.ErrPersistence, err)
	}
	m.state = work
	return nil
}

func (m *MemoryStore) GetGrievance(_ context.Context, complaintID string) (*models.Grievance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.grievance(complaintID)
}

func (m *MemoryStore) ListGrievances(_ context.Context, f GrievanceFilter) ([]models.Grievance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Grievance, 0)
	for _, g := range m.state.grievances {
		g := g
		if f.match(&g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			if f.OldestFirst {
				return out[i].ID < out[j].ID
			}
			return out[i].ID > out[j].ID
		}
		if f.OldestFirst {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) LatestProof(_ context.Context, grievanceID uint) (*models.ResolutionProof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.latestProof(grievanceID)
}

func (m *MemoryStore) ListAttachments(_ context.Context, grievanceID uint) ([]models.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Attachment, 0)
	for _, a := range m.state.attachments {
		if a.GrievanceID == grievanceID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ProofCount returns how many proofs reference the grievance.
func (m *MemoryStore) ProofCount(grievanceID uint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, p := range m.state.proofs {
		if p.GrievanceID == grievanceID {
			n++
		}
	}
	return n
}

func (m *MemoryStore) GetOfficer(_ context.Context, officerID string) (*models.Officer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.state.officers[officerID]
	if !ok {
		return nil, apperr.Newf(apperr.ErrNotFound, "officer %s", officerID)
	}
	return &o, nil
}

func (m *MemoryStore) GetOfficerByEmail(_ context.Context, email string) (*models.Officer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.state.officers {
		if o.Email != "" && o.Email == email {
			o := o
			return &o, nil
		}
	}
	return nil, apperr.Newf(apperr.ErrNotFound, "officer with email %s", email)
}

func (m *MemoryStore) SaveOfficer(_ context.Context, o *models.Officer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.state.officers[o.OfficerID]; ok {
		existing.Name = o.Name
		existing.Email = o.Email
		existing.PasswordHash = o.PasswordHash
		existing.Department = o.Department
		existing.Categories = o.Categories
		m.state.officers[o.OfficerID] = existing
		o.ID = existing.ID
		return nil
	}
	if err := o.BeforeCreate(nil); err != nil {
		return err
	}
	o.ID = m.state.id()
	m.state.officers[o.OfficerID] = *o
	return nil
}

func (m *MemoryStore) SaveDraft(_ context.Context, d *models.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d.SavedAt.IsZero() {
		d.SavedAt = m.now().UTC()
	}
	if existing, ok := m.state.drafts[d.UserID]; ok {
		d.ID = existing.ID
	} else {
		d.ID = m.state.id()
	}
	m.state.drafts[d.UserID] = *d
	return nil
}

func (m *MemoryStore) GetDraft(_ context.Context, userID string) (*models.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.state.drafts[userID]
	if !ok {
		return nil, apperr.Newf(apperr.ErrNotFound, "draft for %s", userID)
	}
	return &d, nil
}

func (m *MemoryStore) DeleteDraft(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.drafts, userID)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *memState) grievance(complaintID string) (*models.Grievance, error) {
	id, ok := s.byComplaint[complaintID]
	if !ok {
		return nil, apperr.Newf(apperr.ErrNotFound, "grievance %s", complaintID)
	}
	g := s.grievances[id]
	return &g, nil
}

func (s *memState) latestProof(grievanceID uint) (*models.ResolutionProof, error) {
	var latest *models.ResolutionProof
	for i := range s.proofs {
		p := s.proofs[i]
		if p.GrievanceID != grievanceID {
			continue
		}
		if latest == nil || p.VerifiedAt.After(latest.VerifiedAt) ||
			(p.VerifiedAt.Equal(latest.VerifiedAt) && p.ID > latest.ID) {
			latest = &p
		}
	}
	if latest == nil {
		return nil, apperr.Newf(apperr.ErrNotFound, "proof for grievance %d", grievanceID)
	}
	return latest, nil
}

// memTx works on a private copy of the state. The store lock is already held.
type memTx struct {
	state *memState
	now   func() time.Time
}

func (t *memTx) LockGrievance(complaintID string) (*models.Grievance, error) {
	return t.state.grievance(complaintID)
}

func (t *memTx) CreateGrievance(g *models.Grievance) error {
	if err := g.BeforeCreate(nil); err != nil {
		return err
	}
	if _, dup := t.state.byComplaint[g.ComplaintID]; dup {
		return apperr.Newf(apperr.ErrPersistence, "duplicate complaint id %s", g.ComplaintID)
	}
	now := t.now()
	g.ID = t.state.id()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now

	stored := *g
	stored.Proofs, stored.Attachments = nil, nil
	t.state.grievances[g.ID] = stored
	t.state.byComplaint[g.ComplaintID] = g.ID
	return nil
}

func (t *memTx) UpdateGrievance(id uint, change GrievanceChange) error {
	g, ok := t.state.grievances[id]
	if !ok {
		return apperr.Newf(apperr.ErrNotFound, "grievance %d", id)
	}
	g.Status = change.Status
	if change.ResolvedAt != nil {
		at := *change.ResolvedAt
		g.ResolvedAt = &at
	}
	if change.FraudReason != nil {
		reason := *change.FraudReason
		g.FraudReason = &reason
	}
	g.UpdatedAt = t.now()
	t.state.grievances[id] = g
	return nil
}

func (t *memTx) CreateProof(p *models.ResolutionProof) error {
	if _, ok := t.state.grievances[p.GrievanceID]; !ok {
		return apperr.Newf(apperr.ErrPersistence, "proof references unknown grievance %d", p.GrievanceID)
	}
	for _, existing := range t.state.proofs {
		if existing.ProofHash == p.ProofHash {
			return apperr.Newf(apperr.ErrPersistence, "duplicate proof hash %s", p.ProofHash)
		}
	}
	p.ID = t.state.id()
	t.state.proofs = append(t.state.proofs, *p)
	return nil
}

func (t *memTx) LatestProof(grievanceID uint) (*models.ResolutionProof, error) {
	return t.state.latestProof(grievanceID)
}

func (t *memTx) CreateAttachment(a *models.Attachment) error {
	if _, ok := t.state.grievances[a.GrievanceID]; !ok {
		return apperr.Newf(apperr.ErrPersistence, "attachment references unknown grievance %d", a.GrievanceID)
	}
	a.ID = t.state.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = t.now()
	}
	t.state.attachments = append(t.state.attachments, *a)
	return nil
}

func (t *memTx) AdjustOfficer(officerID string, d OfficerDelta) error {
	o, ok := t.state.officers[officerID]
	if !ok {
		return apperr.Newf(apperr.ErrNotFound, "officer %s", officerID)
	}
	o.ResolvedCount = max(o.ResolvedCount+d.Resolved, 0)
	o.PendingCount = max(o.PendingCount+d.Pending, 0)
	o.PerformanceScore = clampPerformance(o.PerformanceScore + d.Performance)
	t.state.officers[officerID] = o
	return nil
}
