package audit

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"civicledger/backend/internal/analysis"
	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/config"
	"civicledger/backend/internal/models"
	"civicledger/backend/internal/storage"
)

// GrievanceView is a grievance as shown to its filer or its officer.
type GrievanceView struct {
	ComplaintID         string                 `json:"complaint_id"`
	FilerID             string                 `json:"filer_id"`
	Classification      string                 `json:"grievance_type"`
	Location            string                 `json:"location_tag"`
	RawText             string                 `json:"raw_text"`
	ProfessionalSummary string                 `json:"professional_text"`
	Status              models.GrievanceStatus `json:"status"`
	Seriousness         string                 `json:"seriousness"`
	AssignedOfficerID   string                 `json:"assigned_officer_id"`
	FraudReason         *string                `json:"fraud_reason,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	ResolvedAt          *time.Time             `json:"resolved_at,omitempty"`
	Attachments         []AttachmentView       `json:"attachments"`
}

// DashboardFilter narrows the officer's grievance list. Seriousness is
// IMMEDIATE, STANDARD or empty for all.
type DashboardFilter struct {
	SortOldest  bool
	Seriousness string
}

type OfficerKPIs struct {
	TotalAssigned    int     `json:"total_assigned"`
	Pending          int     `json:"pending"`
	Resolved         int     `json:"resolved"`
	FraudCount       int     `json:"fraud_count"`
	PerformanceScore float64 `json:"performance_score"`
}

type OfficerDashboard struct {
	OfficerName string          `json:"officer_name"`
	OfficerID   string          `json:"officer_id"`
	Department  string          `json:"department"`
	KPIs        OfficerKPIs     `json:"kpis"`
	Grievances  []GrievanceView `json:"grievances"`
}

type CitizenKPIs struct {
	TotalComplaints int    `json:"total_complaints"`
	Resolved        int    `json:"resolved_complaints"`
	Pending         int    `json:"pending_complaints"`
	Fraud           int    `json:"fake_complaints"`
	RewardPoints    int    `json:"reward_points"`
	ResolutionRate  string `json:"resolution_rate"`
}

// OfficerDashboard returns the officer's KPIs and assigned grievances.
// Soft-deleted grievances are left out; they live on the restore dashboard.
func (q *Query) OfficerDashboard(ctx context.Context, officerID string, f DashboardFilter) (*OfficerDashboard, error) {
	switch f.Seriousness {
	case "", analysis.SeriousnessImmediate, analysis.SeriousnessStandard:
	default:
		return nil, apperr.Newf(apperr.ErrInvalidInput, "unknown seriousness %q", f.Seriousness)
	}

	o, err := q.Storage.GetOfficer(ctx, officerID)
	if err != nil {
		return nil, err
	}

	all, err := q.Storage.ListGrievances(ctx, storage.GrievanceFilter{
		OfficerID:      officerID,
		ExcludeDeleted: true,
		OldestFirst:    f.SortOldest,
	})
	if err != nil {
		return nil, err
	}

	d := &OfficerDashboard{
		OfficerName: o.DisplayName(),
		OfficerID:   o.OfficerID,
		Department:  o.Department,
		KPIs:        OfficerKPIs{TotalAssigned: len(all), PerformanceScore: o.PerformanceScore},
		Grievances:  make([]GrievanceView, 0, len(all)),
	}
	for _, g := range all {
		switch {
		case g.Status.Open():
			d.KPIs.Pending++
		case g.Status == models.StatusResolved:
			d.KPIs.Resolved++
		case g.Status == models.StatusFraud:
			d.KPIs.FraudCount++
		}
		if f.Seriousness != "" && q.Policy.Seriousness(g.RawText) != f.Seriousness {
			continue
		}
		v, err := q.view(ctx, &g)
		if err != nil {
			return nil, err
		}
		d.Grievances = append(d.Grievances, *v)
	}
	return d, nil
}

// CitizenKPIs summarizes a citizen's filings. Reward points are 10 per
// resolved grievance minus 5 per fraud-flagged one, never below zero.
func (q *Query) CitizenKPIs(ctx context.Context, userID string) (*CitizenKPIs, error) {
	all, err := q.Storage.ListGrievances(ctx, storage.GrievanceFilter{FilerID: userID, ExcludeDeleted: true})
	if err != nil {
		return nil, err
	}

	k := &CitizenKPIs{TotalComplaints: len(all)}
	for _, g := range all {
		switch {
		case g.Status.Open():
			k.Pending++
		case g.Status == models.StatusResolved:
			k.Resolved++
		case g.Status == models.StatusFraud:
			k.Fraud++
		}
	}
	k.RewardPoints = max(k.Resolved*config.ResolvedRewardPoints-k.Fraud*config.FraudPenaltyPoints, 0)
	k.ResolutionRate = "0%"
	if k.TotalComplaints > 0 {
		k.ResolutionRate = fmt.Sprintf("%.0f%%", math.Round(float64(k.Resolved)/float64(k.TotalComplaints)*100))
	}
	return k, nil
}

// CitizenGrievances lists a citizen's grievances, newest first. Empty,
// "All" and "All Categories" disable the matching filter.
func (q *Query) CitizenGrievances(ctx context.Context, userID, category, status string) ([]GrievanceView, error) {
	filter := storage.GrievanceFilter{FilerID: userID, ExcludeDeleted: true}
	if category != "" && category != "All Categories" {
		filter.Classification = category
	}
	if status != "" && status != "All" {
		s := models.GrievanceStatus(strings.ToUpper(status))
		if !s.Valid() {
			return nil, apperr.Newf(apperr.ErrInvalidInput, "unknown status %q", status)
		}
		filter.Statuses = []models.GrievanceStatus{s}
		filter.ExcludeDeleted = false
	}

	all, err := q.Storage.ListGrievances(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]GrievanceView, 0, len(all))
	for _, g := range all {
		v, err := q.view(ctx, &g)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// GrievanceDetails returns one grievance with its attachments. Callers
// decide whether the viewer may see it.
func (q *Query) GrievanceDetails(ctx context.Context, complaintID string) (*GrievanceView, error) {
	g, err := q.Storage.GetGrievance(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	return q.view(ctx, g)
}

func (q *Query) view(ctx context.Context, g *models.Grievance) (*GrievanceView, error) {
	atts, err := q.Storage.ListAttachments(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	v := &GrievanceView{
		ComplaintID:         g.ComplaintID,
		FilerID:             g.FilerID,
		Classification:      g.Classification,
		Location:            g.LocationTag,
		RawText:             g.RawText,
		ProfessionalSummary: g.ProfessionalSummary,
		Status:              g.Status,
		Seriousness:         q.Policy.Seriousness(g.RawText),
		AssignedOfficerID:   g.AssignedOfficerID,
		FraudReason:         g.FraudReason,
		CreatedAt:           g.CreatedAt,
		ResolvedAt:          g.ResolvedAt,
		Attachments:         make([]AttachmentView, 0, len(atts)),
	}
	for _, a := range atts {
		v.Attachments = append(v.Attachments, AttachmentView{FilePath: a.FilePath, FileType: string(a.Kind)})
	}
	return v, nil
}
