// Package complaint owns the grievance lifecycle: filing, the transition
// graph, and the soft-delete/restore operations.
package complaint

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"civicledger/backend/internal/ai"
	"civicledger/backend/internal/analysis"
	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/filestore"
	"civicledger/backend/internal/models"
	"civicledger/backend/internal/storage"
)

// Triager routes a raw complaint to a classification and department.
type Triager interface {
	Classify(ctx context.Context, rawText, location string) (*ai.Triage, error)
}

// EvidenceValidator scores a citizen photo against a classification.
type EvidenceValidator interface {
	ValidateEvidence(ctx context.Context, classification string, image []byte, contentType string) (*ai.VisionScore, error)
}

// Photo is an uploaded image.
type Photo struct {
	Name        string
	ContentType string
	Data        []byte
}

type FileRequest struct {
	FilerID  string
	RawText  string
	Location string
	Photos   []Photo
}

// Service handles the business logic for grievances.
type Service struct {
	Storage   storage.Storage
	Machine   *Machine
	Policy    *analysis.Policy
	Triage    Triager
	Evidence  EvidenceValidator
	Files     filestore.Store
	Observers Observers
	Log       logrus.FieldLogger

	now func() time.Time
}

// NewService creates a new grievance service.
func NewService(s storage.Storage, policy *analysis.Policy, triage Triager, evidence EvidenceValidator, files filestore.Store, log logrus.FieldLogger) *Service {
	return &Service{
		Storage:  s,
		Machine:  NewMachine(policy.FraudPenalty()),
		Policy:   policy,
		Triage:   triage,
		Evidence: evidence,
		Files:    files,
		Log:      log,
		now:      time.Now,
	}
}

// Observe registers observers for committed transitions.
func (s *Service) Observe(obs ...Observer) {
	s.Observers = append(s.Observers, obs...)
}

// File triages and stores a new grievance. Nothing is written unless triage
// succeeds and every attached photo passes evidence validation.
func (s *Service) File(ctx context.Context, req FileRequest) (*models.Grievance, error) {
	req.RawText = strings.TrimSpace(req.RawText)
	req.Location = strings.TrimSpace(req.Location)
	if req.FilerID == "" || req.RawText == "" || req.Location == "" {
		return nil, apperr.Newf(apperr.ErrInvalidInput, "complaint details and location are required")
	}

	log := s.Log.WithField("filer_id", req.FilerID)

	triage, err := s.Triage.Classify(ctx, req.RawText, req.Location)
	if err != nil {
		log.WithError(err).Warn("Triage failed, grievance not created")
		return nil, apperr.Wrap(apperr.ErrExternalService, err)
	}

	for i := range req.Photos {
		if err := s.checkEvidence(ctx, triage.Classification, &req.Photos[i]); err != nil {
			log.WithError(err).Info("Citizen evidence rejected")
			return nil, err
		}
	}

	now := s.now().UTC()
	g := &models.Grievance{
		ComplaintID:         models.NewComplaintID(now),
		FilerID:             req.FilerID,
		RawText:             req.RawText,
		NormalizedText:      triage.NormalizedText,
		ProfessionalSummary: triage.ProfessionalSummary,
		Classification:      triage.Classification,
		DepartmentID:        triage.DepartmentID,
		LocationTag:         req.Location,
		Status:              models.StatusPending,
		AssignedOfficerID:   triage.DepartmentID,
		CreatedAt:           now,
	}

	var saved []models.Attachment
	for _, p := range req.Photos {
		ref, err := s.Files.Save(ctx, filestore.EvidenceKey(g.ComplaintID, p.Name), p.Data, p.ContentType)
		if err != nil {
			s.removeFiles(ctx, saved)
			return nil, apperr.Wrap(apperr.ErrPersistence, err)
		}
		saved = append(saved, models.Attachment{FilePath: ref, ContentType: p.ContentType, Kind: models.KindCitizenEvidence})
	}

	err = s.Storage.Transaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateGrievance(g); err != nil {
			return err
		}
		for i := range saved {
			saved[i].GrievanceID = g.ID
			if err := tx.CreateAttachment(&saved[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.removeFiles(ctx, saved)
		log.WithError(err).Error("Failed to store grievance")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"complaint_id":   g.ComplaintID,
		"classification": g.Classification,
		"officer_id":     g.AssignedOfficerID,
	}).Info("Grievance filed")
	return g, nil
}

func (s *Service) checkEvidence(ctx context.Context, classification string, p *Photo) error {
	ct, ok := filestore.DetectImage(p.Data)
	if !ok {
		return apperr.Newf(apperr.ErrInvalidInput, "%s is not an image", filestore.SafeName(p.Name))
	}
	p.ContentType = ct

	score, err := s.Evidence.ValidateEvidence(ctx, classification, p.Data, ct)
	if err != nil {
		return apperr.Wrap(apperr.ErrExternalService, err)
	}
	if !s.Policy.EvidenceAccepted(score.Score) {
		return apperr.Newf(apperr.ErrInvalidInput, "visual evidence mismatch (%.0f%%): %s", score.Score*100, score.Message)
	}
	return nil
}

func (s *Service) removeFiles(ctx context.Context, atts []models.Attachment) {
	for _, a := range atts {
		if err := s.Files.Remove(ctx, a.FilePath); err != nil {
			s.Log.WithError(err).WithField("file", a.FilePath).Warn("Failed to remove orphaned upload")
		}
	}
}

// Preview runs triage without storing anything.
func (s *Service) Preview(ctx context.Context, rawText, location string) (*ai.Triage, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, apperr.Newf(apperr.ErrInvalidInput, "text input is required")
	}
	t, err := s.Triage.Classify(ctx, rawText, location)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrExternalService, err)
	}
	return t, nil
}

// Delete soft-deletes a resolved or fraud-flagged grievance.
func (s *Service) Delete(ctx context.Context, complaintID, actor string) error {
	var ev models.StatusEvent
	err := s.Storage.Transaction(ctx, func(tx storage.Tx) error {
		var err error
		ev, err = s.Machine.Delete(tx, complaintID, s.now().UTC())
		return err
	})
	if err != nil {
		return err
	}

	s.Log.WithFields(logrus.Fields{"complaint_id": complaintID, "from": ev.From, "actor": actor}).Info("Grievance soft-deleted")
	s.Observers.OnTransition(ctx, ev)
	return nil
}

// Restore brings back a deleted grievance and returns its new status.
func (s *Service) Restore(ctx context.Context, complaintID, actor string) (models.GrievanceStatus, error) {
	var ev models.StatusEvent
	err := s.Storage.Transaction(ctx, func(tx storage.Tx) error {
		var err error
		ev, err = s.Machine.Restore(tx, complaintID, s.now().UTC())
		return err
	})
	if err != nil {
		if errors.Is(err, apperr.ErrDataIntegrity) {
			s.Log.WithError(err).WithField("complaint_id", complaintID).Error("Restore found a deleted grievance without proof")
		}
		return "", err
	}

	s.Log.WithFields(logrus.Fields{"complaint_id": complaintID, "to": ev.To, "actor": actor}).Info("Grievance restored")
	s.Observers.OnTransition(ctx, ev)
	return ev.To, nil
}

// ListDeleted returns soft-deleted grievances, most recently filed first.
func (s *Service) ListDeleted(ctx context.Context) ([]models.Grievance, error) {
	return s.Storage.ListGrievances(ctx, storage.GrievanceFilter{
		Statuses: []models.GrievanceStatus{models.StatusDeleted},
	})
}

func (s *Service) SaveDraft(ctx context.Context, userID, rawText, location string) (*models.Draft, error) {
	d := &models.Draft{UserID: userID, RawText: rawText, Location: location, SavedAt: s.now().UTC()}
	if err := s.Storage.SaveDraft(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) LoadDraft(ctx context.Context, userID string) (*models.Draft, error) {
	return s.Storage.GetDraft(ctx, userID)
}

// DeleteDraft removes the citizen's draft; NotFound when there is none.
func (s *Service) DeleteDraft(ctx context.Context, userID string) error {
	if _, err := s.Storage.GetDraft(ctx, userID); err != nil {
		return err
	}
	return s.Storage.DeleteDraft(ctx, userID)
}
