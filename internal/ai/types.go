// Package ai talks to the Gemini generateContent API for grievance triage
// and photo scoring. Model output is decoded into typed results and rejected
// with apperr.ErrExternalService when it does not validate.
package ai

import (
	"fmt"
	"strings"

	"civicledger/backend/internal/apperr"
)

// Triage is the routing decision for a new grievance.
type Triage struct {
	Classification      string `json:"classification"`
	DepartmentID        string `json:"department_id"`
	NormalizedText      string `json:"raw_text_processed"`
	ProfessionalSummary string `json:"professional_text"`
}

func (t *Triage) validate() error {
	if strings.TrimSpace(t.Classification) == "" {
		return apperr.Newf(apperr.ErrExternalService, "triage returned no classification")
	}
	if strings.HasPrefix(t.Classification, "Error") {
		return apperr.Newf(apperr.ErrExternalService, "triage reported %q", t.Classification)
	}
	if strings.TrimSpace(t.DepartmentID) == "" {
		return apperr.Newf(apperr.ErrExternalService, "triage returned no department id")
	}
	return nil
}

// VisionScore is a photo score in [0,1] with the model's explanation.
type VisionScore struct {
	Score   float64
	Message string
}

type visionPayload struct {
	Score   *float64 `json:"score"`
	Message string   `json:"message"`
}

func (p *visionPayload) toScore() (*VisionScore, error) {
	if p.Score == nil {
		return nil, apperr.Newf(apperr.ErrExternalService, "vision response missing score")
	}
	if *p.Score < 0 || *p.Score > 1 {
		return nil, apperr.Newf(apperr.ErrExternalService, "vision score %v out of range", *p.Score)
	}
	return &VisionScore{Score: *p.Score, Message: p.Message}, nil
}

// Categories the triage model is told to choose from.
var Categories = []string{
	"Road Maintenance (Pothole)",
	"Water Supply & Leakage",
	"Stray Dog Menace",
	"Electrical (Streetlight Outage)",
	"General Municipal Service",
}

const triageInstruction = "You are a multilingual grievance triage agent for a municipal " +
	"grievance system. Analyze the raw citizen complaint, which may mix Telugu written in " +
	"English script with English. Classify it, clean up or transliterate the text, and write " +
	"a short professional summary for the department head. Respond in JSON only. " +
	"The classification must be one of: %s. " +
	"Assign the department id from the classification: ENG_001 (Engineering/Roads/Electric), " +
	"WTR_002 (Water), HIN_002 (Health/Nuisance) or ADM_003 (General/Admin)."

const evidenceInstruction = "You validate photos attached to citizen complaints. Decide whether " +
	"the image is related to the reported issue type and rate its relevance from 0.0 " +
	"(unrelated) to 1.0 (clearly related). Respond in JSON with a score and a short message."

const auditInstruction = "You audit resolution photos submitted by municipal officers. Decide " +
	"whether the grievance shown in the 'after' image appears resolved. Rate it from 0.0 " +
	"(clearly unresolved or unrelated) to 1.0 (clearly resolved). Respond in JSON with a score " +
	"and a short audit message."

func triageSystemPrompt() string {
	quoted := make([]string, len(Categories))
	for i, c := range Categories {
		quoted[i] = "'" + c + "'"
	}
	return fmt.Sprintf(triageInstruction, strings.Join(quoted, ", "))
}
