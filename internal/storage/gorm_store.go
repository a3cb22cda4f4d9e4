package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/models"
)

// Service is the Postgres implementation of Storage.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates or updates every table the service uses.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.Officer{},
		&models.Grievance{},
		&models.ResolutionProof{},
		&models.Attachment{},
		&models.Draft{},
	)
}

func (s *Service) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	err := s.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{db: db})
	})
	if err == nil {
		return nil
	}
	if apperr.Kind(err) != nil {
		return err
	}
	return apperr.Wrap(apperr.ErrPersistence, err)
}

func (s *Service) GetGrievance(ctx context.Context, complaintID string) (*models.Grievance, error) {
	var g models.Grievance
	err := s.DB.WithContext(ctx).Where("complaint_id = ?", complaintID).First(&g).Error
	if err != nil {
		return nil, dbError(err, "grievance %s", complaintID)
	}
	return &g, nil
}

func (s *Service) ListGrievances(ctx context.Context, f GrievanceFilter) ([]models.Grievance, error) {
	q := s.DB.WithContext(ctx).Model(&models.Grievance{})
	if f.FilerID != "" {
		q = q.Where("filer_id = ?", f.FilerID)
	}
	if f.OfficerID != "" {
		q = q.Where("assigned_officer_id = ?", f.OfficerID)
	}
	if f.Classification != "" {
		q = q.Where("classification = ?", f.Classification)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.ExcludeDeleted {
		q = q.Where("status <> ?", models.StatusDeleted)
	}
	if f.OldestFirst {
		q = q.Order("created_at asc")
	} else {
		q = q.Order("created_at desc")
	}

	var out []models.Grievance
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("failed to list grievances: %w", err))
	}
	return out, nil
}

func (s *Service) LatestProof(ctx context.Context, grievanceID uint) (*models.ResolutionProof, error) {
	return latestProof(s.DB.WithContext(ctx), grievanceID)
}

func (s *Service) ListAttachments(ctx context.Context, grievanceID uint) ([]models.Attachment, error) {
	var out []models.Attachment
	err := s.DB.WithContext(ctx).Where("grievance_id = ?", grievanceID).Order("id asc").Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("failed to list attachments: %w", err))
	}
	return out, nil
}

func (s *Service) GetOfficer(ctx context.Context, officerID string) (*models.Officer, error) {
	var o models.Officer
	if err := s.DB.WithContext(ctx).Where("officer_id = ?", officerID).First(&o).Error; err != nil {
		return nil, dbError(err, "officer %s", officerID)
	}
	return &o, nil
}

func (s *Service) GetOfficerByEmail(ctx context.Context, email string) (*models.Officer, error) {
	var o models.Officer
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&o).Error; err != nil {
		return nil, dbError(err, "officer with email %s", email)
	}
	return &o, nil
}

// SaveOfficer inserts the officer or updates the profile columns of an
// existing one. Counters are left alone on update.
func (s *Service) SaveOfficer(ctx context.Context, o *models.Officer) error {
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "officer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "password_hash", "department", "categories"}),
	}).Create(o).Error
	if err != nil {
		return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("failed to save officer %s: %w", o.OfficerID, err))
	}
	return nil
}

// SaveDraft keeps one draft per citizen, replacing any earlier one.
func (s *Service) SaveDraft(ctx context.Context, d *models.Draft) error {
	if d.SavedAt.IsZero() {
		d.SavedAt = time.Now().UTC()
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"raw_text", "location", "saved_at"}),
	}).Create(d).Error
	if err != nil {
		return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("failed to save draft for %s: %w", d.UserID, err))
	}
	return nil
}

func (s *Service) GetDraft(ctx context.Context, userID string) (*models.Draft, error) {
	var d models.Draft
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&d).Error; err != nil {
		return nil, dbError(err, "draft for %s", userID)
	}
	return &d, nil
}

func (s *Service) DeleteDraft(ctx context.Context, userID string) error {
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Draft{}).Error
	if err != nil {
		return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("failed to delete draft for %s: %w", userID, err))
	}
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return apperr.Wrap(apperr.ErrPersistence, err)
	}
	return apperr.Wrap(apperr.ErrPersistence, sqlDB.PingContext(ctx))
}

// gormTx implements Tx on top of a gorm transaction handle.
type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) LockGrievance(complaintID string) (*models.Grievance, error) {
	var g models.Grievance
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("complaint_id = ?", complaintID).
		First(&g).Error
	if err != nil {
		return nil, dbError(err, "grievance %s", complaintID)
	}
	return &g, nil
}

func (t *gormTx) CreateGrievance(g *models.Grievance) error {
	if err := t.db.Create(g).Error; err != nil {
		return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("failed to create grievance: %w", err))
	}
	return nil
}

func (t *gormTx) UpdateGrievance(id uint, change GrievanceChange) error {
	updates := map[string]interface{}{"status": change.Status}
	if change.ResolvedAt != nil {
		updates["resolved_at"] = *change.ResolvedAt
	}
	if change.FraudReason != nil {
		updates["fraud_reason"] = *change.FraudReason
	}

	res := t.db.Model(&models.Grievance{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("failed to update grievance %d: %w", id, res.Error))
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.ErrNotFound, "grievance %d", id)
	}
	return nil
}

func (t *gormTx) CreateProof(p *models.ResolutionProof) error {
	if err := t.db.Create(p).Error; err != nil {
		return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("failed to store proof: %w", err))
	}
	return nil
}

func (t *gormTx) LatestProof(grievanceID uint) (*models.ResolutionProof, error) {
	return latestProof(t.db, grievanceID)
}

func (t *gormTx) CreateAttachment(a *models.Attachment) error {
	if err := t.db.Create(a).Error; err != nil {
		return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("failed to store attachment: %w", err))
	}
	return nil
}

func (t *gormTx) AdjustOfficer(officerID string, d OfficerDelta) error {
	q := t.db.Model(&models.Officer{}).Where("officer_id = ?", officerID)
	if d.IsZero() {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return apperr.Wrap(apperr.ErrPersistence, err)
		}
		if n == 0 {
			return apperr.Newf(apperr.ErrNotFound, "officer %s", officerID)
		}
		return nil
	}

	updates := map[string]interface{}{}
	if d.Resolved != 0 {
		updates["resolved_count"] = gorm.Expr("GREATEST(resolved_count + ?, 0)", d.Resolved)
	}
	if d.Pending != 0 {
		updates["pending_count"] = gorm.Expr("GREATEST(pending_count + ?, 0)", d.Pending)
	}
	if d.Performance != 0 {
		updates["performance_score"] = gorm.Expr("LEAST(GREATEST(performance_score + ?, 0), 100)", d.Performance)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("failed to adjust officer %s: %w", officerID, res.Error))
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.ErrNotFound, "officer %s", officerID)
	}
	return nil
}

func latestProof(db *gorm.DB, grievanceID uint) (*models.ResolutionProof, error) {
	var p models.ResolutionProof
	err := db.Where("grievance_id = ?", grievanceID).
		Order("verified_at desc").
		Order("id desc").
		First(&p).Error
	if err != nil {
		return nil, dbError(err, "proof for grievance %d", grievanceID)
	}
	return &p, nil
}

// dbError maps gorm.ErrRecordNotFound to apperr.ErrNotFound and everything
// else to apperr.ErrPersistence.
func dbError(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Newf(apperr.ErrNotFound, format, args...)
	}
	return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("failed to load "+format+": %w", append(args, err)...))
}
