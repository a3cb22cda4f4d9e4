package complaint_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"civicledger/backend/internal/ai"
	"civicledger/backend/internal/analysis"
	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/complaint"
	"civicledger/backend/internal/filestore"
	"civicledger/backend/internal/logger"
	"civicledger/backend/internal/models"
	"civicledger/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fixture struct {
	svc      *complaint.Service
	store    *storage.MemoryStore
	triage   *MockTriager
	evidence *MockEvidence
	dir      string
	events   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	files, err := filestore.NewLocalStore(dir)
	require.NoError(t, err)

	f := &fixture{
		store:    storage.NewMemoryStore(),
		triage:   new(MockTriager),
		evidence: new(MockEvidence),
		dir:      dir,
		events:   &recorder{},
	}
	f.svc = complaint.NewService(f.store, analysis.DefaultPolicy(), f.triage, f.evidence, files, logger.Discard())
	f.svc.Observe(f.events)
	require.NoError(t, f.store.SaveOfficer(context.Background(), &models.Officer{OfficerID: "ENG_001", Name: "Smith"}))
	return f
}

func roadTriage() *ai.Triage {
	return &ai.Triage{
		Classification:      "Road Maintenance",
		DepartmentID:        "ENG_001",
		NormalizedText:      "Pothole on Main Road",
		ProfessionalSummary: "A pothole requires repair on Main Road.",
	}
}

// seedClosed stores a grievance in the given closed status with one proof.
func seedClosed(t *testing.T, s *storage.MemoryStore, status models.GrievanceStatus, fraud bool) *models.Grievance {
	t.Helper()
	g := &models.Grievance{FilerID: "c1", RawText: "Pothole", AssignedOfficerID: "ENG_001", Status: status}
	require.NoError(t, s.Transaction(context.Background(), func(tx storage.Tx) error {
		if err := tx.CreateGrievance(g); err != nil {
			return err
		}
		reason := ""
		if fraud {
			reason = "geo-fencing breach"
		}
		return tx.CreateProof(&models.ResolutionProof{
			GrievanceID:  g.ID,
			OfficerID:    "ENG_001",
			Score:        0.9,
			IsFraudulent: fraud,
			FraudReason:  reason,
			ProofHash:    g.ComplaintID + "-hash",
			VerifiedAt:   time.Now().UTC(),
		})
	}))
	return g
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	require.NoError(t, filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			n++
		}
		return err
	}))
	return n
}

func TestFile_StoresPendingGrievanceRoutedToDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.triage.On("Classify", mock.Anything, "Pothole on Main Rd", "Ward 5").Return(roadTriage(), nil)
	f.evidence.On("ValidateEvidence", mock.Anything, "Road Maintenance", pngBytes, "image/png").
		Return(&ai.VisionScore{Score: 0.8, Message: "pothole visible"}, nil)

	g, err := f.svc.File(ctx, complaint.FileRequest{
		FilerID:  "citizen-1",
		RawText:  "  Pothole on Main Rd ",
		Location: "Ward 5",
		Photos:   []complaint.Photo{{Name: "road.png", Data: pngBytes}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, g.Status)
	assert.Equal(t, "ENG_001", g.AssignedOfficerID)
	assert.Regexp(t, `^COMPLAINT\d{14}[0-9a-f]{8}$`, g.ComplaintID)

	stored, err := f.store.GetGrievance(ctx, g.ComplaintID)
	require.NoError(t, err)
	assert.Equal(t, "Road Maintenance", stored.Classification)

	atts, err := f.store.ListAttachments(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, models.KindCitizenEvidence, atts[0].Kind)
	assert.Contains(t, atts[0].FilePath, "complaints/"+g.ComplaintID+"/evidence/")
	assert.Equal(t, 1, countFiles(t, f.dir))
}

func TestFile_RequiresTextAndLocation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.File(context.Background(), complaint.FileRequest{FilerID: "c1", RawText: "   ", Location: "Ward 5"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.svc.File(context.Background(), complaint.FileRequest{FilerID: "c1", RawText: "Leak", Location: ""})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	f.triage.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything, mock.Anything)
}

func TestFile_TriageFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.triage.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	_, err := f.svc.File(ctx, complaint.FileRequest{FilerID: "c1", RawText: "Leak", Location: "Ward 2"})

	assert.ErrorIs(t, err, apperr.ErrExternalService)
	all, err := f.store.ListGrievances(ctx, storage.GrievanceFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFile_RejectsMismatchedEvidence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.triage.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return(roadTriage(), nil)
	f.evidence.On("ValidateEvidence", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&ai.VisionScore{Score: 0.2, Message: "photo shows a cat"}, nil)

	_, err := f.svc.File(ctx, complaint.FileRequest{
		FilerID: "c1", RawText: "Pothole", Location: "Ward 5",
		Photos: []complaint.Photo{{Name: "cat.png", Data: pngBytes}},
	})

	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Contains(t, err.Error(), "visual evidence mismatch")
	all, _ := f.store.ListGrievances(ctx, storage.GrievanceFilter{})
	assert.Empty(t, all)
	assert.Zero(t, countFiles(t, f.dir))
}

func TestFile_RejectsNonImageUpload(t *testing.T) {
	f := newFixture(t)
	f.triage.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return(roadTriage(), nil)

	_, err := f.svc.File(context.Background(), complaint.FileRequest{
		FilerID: "c1", RawText: "Pothole", Location: "Ward 5",
		Photos: []complaint.Photo{{Name: "notes.txt", Data: []byte("just some text")}},
	})

	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	f.evidence.AssertNotCalled(t, "ValidateEvidence", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFile_EvidenceScorerFailureRejectsFiling(t *testing.T) {
	f := newFixture(t)
	f.triage.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return(roadTriage(), nil)
	f.evidence.On("ValidateEvidence", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout"))

	_, err := f.svc.File(context.Background(), complaint.FileRequest{
		FilerID: "c1", RawText: "Pothole", Location: "Ward 5",
		Photos: []complaint.Photo{{Name: "road.png", Data: pngBytes}},
	})

	assert.ErrorIs(t, err, apperr.ErrExternalService)
}

func TestPreview_DoesNotPersist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.triage.On("Classify", mock.Anything, "Pothole", "").Return(roadTriage(), nil)

	tr, err := f.svc.Preview(ctx, "Pothole", "")
	require.NoError(t, err)
	assert.Equal(t, "ENG_001", tr.DepartmentID)

	all, _ := f.store.ListGrievances(ctx, storage.GrievanceFilter{})
	assert.Empty(t, all)

	_, err = f.svc.Preview(ctx, "", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestDeleteRestore_RoundTripKeepsProofVerdict(t *testing.T) {
	tests := []struct {
		name   string
		status models.GrievanceStatus
		fraud  bool
		want   models.GrievanceStatus
	}{
		{"ResolvedCleanProof", models.StatusResolved, false, models.StatusResolved},
		{"FraudFlaggedProof", models.StatusFraud, true, models.StatusFraud},
		{"ResolvedButProofFlagged", models.StatusResolved, true, models.StatusFraud},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			g := seedClosed(t, f.store, tt.status, tt.fraud)

			require.NoError(t, f.svc.Delete(ctx, g.ComplaintID, "admin"))
			got, _ := f.store.GetGrievance(ctx, g.ComplaintID)
			assert.Equal(t, models.StatusDeleted, got.Status)

			to, err := f.svc.Restore(ctx, g.ComplaintID, "admin")
			require.NoError(t, err)
			assert.Equal(t, tt.want, to)

			_, err = f.svc.Restore(ctx, g.ComplaintID, "admin")
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

			assert.Equal(t, []string{
				string(tt.status) + "->DELETED",
				"DELETED->" + string(tt.want),
			}, f.events.events)
		})
	}
}

func TestDelete_OpenGrievanceIsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := &models.Grievance{FilerID: "c1", RawText: "Leak", AssignedOfficerID: "ENG_001"}
	require.NoError(t, f.store.Transaction(ctx, func(tx storage.Tx) error { return tx.CreateGrievance(g) }))

	err := f.svc.Delete(ctx, g.ComplaintID, "admin")

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Empty(t, f.events.events)
}

func TestDelete_UnknownComplaintIsNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Delete(context.Background(), "COMPLAINT_MISSING", "admin")

	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRestore_DeletedWithoutProofIsDataIntegrity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := &models.Grievance{FilerID: "c1", RawText: "Leak", Status: models.StatusDeleted}
	require.NoError(t, f.store.Transaction(ctx, func(tx storage.Tx) error { return tx.CreateGrievance(g) }))

	_, err := f.svc.Restore(ctx, g.ComplaintID, "admin")

	assert.ErrorIs(t, err, apperr.ErrDataIntegrity)
	got, _ := f.store.GetGrievance(ctx, g.ComplaintID)
	assert.Equal(t, models.StatusDeleted, got.Status)
}

func TestListDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := seedClosed(t, f.store, models.StatusResolved, false)
	seedClosed(t, f.store, models.StatusFraud, true)
	require.NoError(t, f.svc.Delete(ctx, a.ComplaintID, "admin"))

	deleted, err := f.svc.ListDeleted(ctx)

	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, a.ComplaintID, deleted[0].ComplaintID)
}

func TestDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SaveDraft(ctx, "c1", "first", "Ward 1")
	require.NoError(t, err)
	_, err = f.svc.SaveDraft(ctx, "c1", "second", "Ward 2")
	require.NoError(t, err)

	d, err := f.svc.LoadDraft(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "second", d.RawText)

	require.NoError(t, f.svc.DeleteDraft(ctx, "c1"))
	assert.ErrorIs(t, f.svc.DeleteDraft(ctx, "c1"), apperr.ErrNotFound)
}
