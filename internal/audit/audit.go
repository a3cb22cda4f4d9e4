// Package audit serves the read side: the public proof audit, officer and
// citizen dashboards, and grievance details.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"civicledger/backend/internal/analysis"
	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/models"
	"civicledger/backend/internal/proof"
	"civicledger/backend/internal/storage"
)

// Cache is the read-through store for audit records. storage.RedisStore
// satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Record is the public-safe projection of a grievance. Filer identity and raw
// text are never included.
type Record struct {
	ComplaintID           string                 `json:"complaint_id"`
	Status                models.GrievanceStatus `json:"status"`
	Classification        string                 `json:"grievance_type"`
	ProfessionalSummary   string                 `json:"professional_summary"`
	Seriousness           string                 `json:"seriousness"`
	DLTProof              *DLTProof              `json:"dlt_proof,omitempty"`
	ResolutionAttachments []AttachmentView       `json:"resolution_attachments,omitempty"`
	CitizenAttachments    []AttachmentView       `json:"citizen_attachments,omitempty"`
}

// DLTProof is the latest resolution proof. Verified reports whether the
// stored hash still matches the stored fields.
type DLTProof struct {
	ProofHash    string    `json:"proof_hash"`
	VerifiedAt   time.Time `json:"verified_at"`
	OfficerID    string    `json:"officer_id"`
	OfficerName  string    `json:"officer_name"`
	Score        float64   `json:"cv_score"`
	IsFraudulent bool      `json:"is_fraudulent"`
	Verified     bool      `json:"verified"`
}

type AttachmentView struct {
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`
}

type Query struct {
	Storage storage.Storage
	Policy  *analysis.Policy
	Cache   Cache
	TTL     time.Duration
	Log     logrus.FieldLogger
}

func NewQuery(s storage.Storage, policy *analysis.Policy, log logrus.FieldLogger) *Query {
	return &Query{Storage: s, Policy: policy, Log: log}
}

// WithCache enables the read-through cache. A zero ttl leaves it disabled.
//
// Invalidation is best effort: a read that loaded the grievance just before
// a transition committed can write its record back after OnTransition
// dropped the key. That entry is served until ttl expires, so ttl bounds
// how stale a public audit can be.
func (q *Query) WithCache(c Cache, ttl time.Duration) *Query {
	if c != nil && ttl > 0 {
		q.Cache, q.TTL = c, ttl
	}
	return q
}

func cacheKey(complaintID string) string {
	return "audit:" + complaintID
}

// GetAuditRecord answers "is this grievance resolved and can the proof be
// verified". A RESOLVED or FRAUD grievance without a proof is reported as
// apperr.ErrDataIntegrity, never as not found.
func (q *Query) GetAuditRecord(ctx context.Context, complaintID string) (*Record, error) {
	if rec, ok := q.cached(ctx, complaintID); ok {
		return rec, nil
	}

	g, err := q.Storage.GetGrievance(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	log := q.Log.WithFields(logrus.Fields{"complaint_id": complaintID, "status": g.Status})

	rec := &Record{
		ComplaintID:         g.ComplaintID,
		Status:              g.Status,
		Classification:      g.Classification,
		ProfessionalSummary: g.ProfessionalSummary,
		Seriousness:         q.Policy.Seriousness(g.RawText),
	}

	if g.Status.Terminal() {
		p, err := q.Storage.LatestProof(ctx, g.ID)
		if errors.Is(err, apperr.ErrNotFound) {
			log.Error("Grievance is marked resolved but has no resolution proof")
			return nil, apperr.Newf(apperr.ErrDataIntegrity, "%s is %s but has no resolution proof", complaintID, g.Status)
		}
		if err != nil {
			return nil, err
		}
		if g.Status == models.StatusFraud && !p.IsFraudulent {
			log.WithField("proof_hash", p.ProofHash).Warn("FRAUD grievance whose latest proof is not flagged")
		}

		rec.DLTProof = &DLTProof{
			ProofHash:    p.ProofHash,
			VerifiedAt:   p.VerifiedAt,
			OfficerID:    p.OfficerID,
			OfficerName:  q.officerName(ctx, p.OfficerID),
			Score:        p.Score,
			IsFraudulent: p.IsFraudulent,
			Verified:     proof.Verify(g.ComplaintID, *p),
		}
		if !rec.DLTProof.Verified {
			log.WithField("proof_hash", p.ProofHash).Error("Stored proof hash does not match its fields")
		}

		atts, err := q.Storage.ListAttachments(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range atts {
			v := AttachmentView{FilePath: a.FilePath, FileType: string(a.Kind)}
			if a.Kind == models.KindResolutionPhoto {
				rec.ResolutionAttachments = append(rec.ResolutionAttachments, v)
			} else {
				rec.CitizenAttachments = append(rec.CitizenAttachments, v)
			}
		}
	}

	q.store(ctx, rec)
	return rec, nil
}

// officerName falls back to the id when the officer is unknown.
func (q *Query) officerName(ctx context.Context, officerID string) string {
	o, err := q.Storage.GetOfficer(ctx, officerID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			q.Log.WithError(err).WithField("officer_id", officerID).Warn("Failed to load officer name")
		}
		return officerID
	}
	return o.DisplayName()
}

func (q *Query) cached(ctx context.Context, complaintID string) (*Record, bool) {
	if q.Cache == nil {
		return nil, false
	}
	data, ok, err := q.Cache.Get(ctx, cacheKey(complaintID))
	if err != nil {
		q.Log.WithError(err).Warn("Audit cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		q.Log.WithError(err).Warn("Discarding undecodable audit cache entry")
		return nil, false
	}
	return &rec, true
}

func (q *Query) store(ctx context.Context, rec *Record) {
	if q.Cache == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := q.Cache.Set(ctx, cacheKey(rec.ComplaintID), data, q.TTL); err != nil {
		q.Log.WithError(err).Warn("Audit cache write failed")
	}
}

// OnTransition drops the cached record of a grievance that changed status.
func (q *Query) OnTransition(ctx context.Context, ev models.StatusEvent) {
	if q.Cache == nil {
		return
	}
	if err := q.Cache.Delete(ctx, cacheKey(ev.ComplaintID)); err != nil {
		q.Log.WithError(err).WithField("complaint_id", ev.ComplaintID).Warn("Audit cache invalidation failed")
	}
}
