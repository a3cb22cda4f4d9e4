// Package proof builds and checks the tamper-evident hash stored with every
// resolution attempt.
//
// The hash is SHA-256 over "complaintID|officerID|score|timestamp". The score
// uses the shortest decimal form that round-trips a float64 and the timestamp
// is UTC RFC3339Nano truncated to microseconds, the precision Postgres keeps.
// Anyone holding the four stored fields can recompute it.
package proof

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"civicledger/backend/internal/models"
)

const separator = "|"

// Timestamp returns t in the canonical form used for hashing and storage.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Canonical returns the exact string that is hashed.
func Canonical(complaintID, officerID string, score float64, ts time.Time) string {
	return strings.Join([]string{
		complaintID,
		officerID,
		strconv.FormatFloat(score, 'f', -1, 64),
		Timestamp(ts).Format(time.RFC3339Nano),
	}, separator)
}

// Compute returns the lower-case hex SHA-256 of the canonical string.
func Compute(complaintID, officerID string, score float64, ts time.Time) string {
	sum := sha256.Sum256([]byte(Canonical(complaintID, officerID, score, ts)))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the hash of a stored proof for the given complaint.
func Verify(complaintID string, p models.ResolutionProof) bool {
	want := Compute(complaintID, p.OfficerID, p.Score, p.VerifiedAt)
	return subtle.ConstantTimeCompare([]byte(want), []byte(p.ProofHash)) == 1
}
