// Package resolution runs an officer's resolution attempt end to end: score
// the after-photo, apply the fraud policy, and record the proof and the
// status change atomically.
package resolution

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"civicledger/backend/internal/ai"
	"civicledger/backend/internal/analysis"
	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/complaint"
	"civicledger/backend/internal/filestore"
	"civicledger/backend/internal/metrics"
	"civicledger/backend/internal/models"
	"civicledger/backend/internal/proof"
	"civicledger/backend/internal/storage"
)

// unverifiedMessage is recorded when the vision scorer gave no usable score.
const unverifiedMessage = "AI audit unavailable: resolution photo could not be verified"

// VisionScorer rates how well an after-photo shows the grievance as fixed.
type VisionScorer interface {
	ScoreResolution(ctx context.Context, classification string, image []byte, contentType, location, officerID string) (*ai.VisionScore, error)
}

// Attempt is one officer's claim of having resolved a grievance.
type Attempt struct {
	ComplaintID   string
	OfficerID     string
	Photo         []byte
	PhotoName     string
	ContentType   string
	LocationClaim string
}

// Outcome is what the officer is told after a committed attempt.
type Outcome struct {
	ComplaintID string                 `json:"complaint_id"`
	Status      models.GrievanceStatus `json:"status"`
	ProofHash   string                 `json:"proof_hash"`
	Score       float64                `json:"cv_score"`
	Message     string                 `json:"message"`
	FraudReason string                 `json:"fraud_reason,omitempty"`
}

type Workflow struct {
	Storage   storage.Storage
	Machine   *complaint.Machine
	Evaluator *analysis.Evaluator
	Vision    VisionScorer
	Files     filestore.Store
	Metrics   *metrics.Metrics
	Observers complaint.Observers
	Log       logrus.FieldLogger

	now func() time.Time
}

func NewWorkflow(s storage.Storage, machine *complaint.Machine, evaluator *analysis.Evaluator, vision VisionScorer, files filestore.Store, m *metrics.Metrics, log logrus.FieldLogger) *Workflow {
	return &Workflow{
		Storage:   s,
		Machine:   machine,
		Evaluator: evaluator,
		Vision:    vision,
		Files:     files,
		Metrics:   m,
		Log:       log,
		now:       time.Now,
	}
}

// Observe registers observers for committed resolutions.
func (w *Workflow) Observe(obs ...Observer) {
	w.Observers = append(w.Observers, obs...)
}

// Observer is re-exported so callers wiring a workflow need only this package.
type Observer = complaint.Observer

// SubmitResolution records one resolution attempt. Either the proof, the
// attachment, the status change and the officer counters are all committed,
// or none of them are.
func (w *Workflow) SubmitResolution(ctx context.Context, a Attempt) (*Outcome, error) {
	if strings.TrimSpace(a.ComplaintID) == "" || strings.TrimSpace(a.OfficerID) == "" {
		return nil, apperr.Newf(apperr.ErrInvalidInput, "complaint id and officer id are required")
	}
	if len(a.Photo) == 0 {
		return nil, apperr.Newf(apperr.ErrInvalidInput, "resolution photo is required")
	}

	log := w.Log.WithFields(logrus.Fields{"complaint_id": a.ComplaintID, "officer_id": a.OfficerID})

	g, err := w.Storage.GetGrievance(ctx, a.ComplaintID)
	if err != nil {
		return nil, err
	}
	if err := checkAttempt(g, a.OfficerID); err != nil {
		return nil, err
	}

	contentType, ok := filestore.DetectImage(a.Photo)
	if !ok {
		return nil, apperr.Newf(apperr.ErrInvalidInput, "resolution photo is not an image (%s)", contentType)
	}

	score, message, unverifiable := w.score(ctx, log, g, a, contentType)
	verdict := w.Evaluator.Evaluate(score, g.Classification, a.LocationClaim, unverifiable)

	ref, err := w.Files.Save(ctx, filestore.ResolutionKey(g.ComplaintID, a.PhotoName), a.Photo, contentType)
	if err != nil {
		log.WithError(err).Error("Failed to store resolution photo")
		return nil, apperr.Wrap(apperr.ErrPersistence, err)
	}

	var (
		ev   models.StatusEvent
		hash string
	)
	err = w.Storage.Transaction(ctx, func(tx storage.Tx) error {
		locked, err := tx.LockGrievance(a.ComplaintID)
		if err != nil {
			return err
		}
		// Another attempt may have committed since the pre-check.
		if err := checkAttempt(locked, a.OfficerID); err != nil {
			return err
		}

		ts := proof.Timestamp(w.now())
		hash = proof.Compute(locked.ComplaintID, a.OfficerID, score, ts)
		p := &models.ResolutionProof{
			GrievanceID:  locked.ID,
			OfficerID:    a.OfficerID,
			Score:        score,
			IsFraudulent: verdict.Fraudulent,
			FraudReason:  verdict.Reason,
			Message:      message,
			ProofHash:    hash,
			VerifiedAt:   ts,
		}
		if err := tx.CreateProof(p); err != nil {
			return err
		}
		if err := tx.CreateAttachment(&models.Attachment{
			GrievanceID: locked.ID,
			FilePath:    ref,
			ContentType: contentType,
			Kind:        models.KindResolutionPhoto,
		}); err != nil {
			return err
		}

		ev, err = w.Machine.Resolve(tx, locked, verdict, ts)
		return err
	})
	if err != nil {
		if rmErr := w.Files.Remove(ctx, ref); rmErr != nil {
			log.WithError(rmErr).WithField("file", ref).Warn("Failed to remove photo of rolled back attempt")
		}
		log.WithError(err).Warn("Resolution attempt not recorded")
		return nil, err
	}

	ev.ProofHash = hash
	ev.Score = &score
	w.Metrics.ObserveResolution(strings.ToLower(string(ev.To)), verdict.Rule)
	w.Observers.OnTransition(ctx, ev)

	log.WithFields(logrus.Fields{
		"status":     ev.To,
		"proof_hash": hash,
		"score":      score,
		"rule":       verdict.Rule,
	}).Info("Resolution attempt recorded")

	return &Outcome{
		ComplaintID: a.ComplaintID,
		Status:      ev.To,
		ProofHash:   hash,
		Score:       score,
		Message:     message,
		FraudReason: verdict.Reason,
	}, nil
}

// score asks the vision model for a score. Any failure yields 0 and marks the
// evidence as unverifiable.
func (w *Workflow) score(ctx context.Context, log logrus.FieldLogger, g *models.Grievance, a Attempt, contentType string) (float64, string, bool) {
	vs, err := w.Vision.ScoreResolution(ctx, g.Classification, a.Photo, contentType, a.LocationClaim, a.OfficerID)
	if err == nil && vs != nil && !math.IsNaN(vs.Score) && vs.Score >= 0 && vs.Score <= 1 {
		return vs.Score, vs.Message, false
	}

	w.Metrics.ObserveVisionFailure()
	if err != nil {
		log.WithError(err).Warn("Vision scorer failed, treating evidence as unverifiable")
	} else {
		log.Warn("Vision scorer returned no usable score, treating evidence as unverifiable")
	}
	return 0, unverifiedMessage, true
}

func checkAttempt(g *models.Grievance, officerID string) error {
	if !g.Status.Open() {
		return apperr.Newf(apperr.ErrInvalidTransition, "%s is already %s", g.ComplaintID, g.Status)
	}
	if g.AssignedOfficerID != officerID {
		return apperr.Newf(apperr.ErrUnauthorized, "%s is not assigned to %s", g.ComplaintID, officerID)
	}
	return nil
}
