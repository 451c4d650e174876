package run

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"cortexstat/domain/core"
)

// Manifest records what a run was computed from: the input file, its
// fingerprint and every parameter that changes the outcome.
type Manifest struct {
	RunID            core.RunID     `json:"run_id"`
	Input            string         `json:"input"`
	InputHash        core.Hash      `json:"input_hash"`
	MissingThreshold float64        `json:"missing_threshold"`
	OutlierFactor    float64        `json:"outlier_factor"`
	Alpha            float64        `json:"alpha"`
	Targets          []string       `json:"targets"`
	GroupBy          []string       `json:"group_by"`
	Fingerprint      core.Hash      `json:"fingerprint"` // Hash of all above except RunID
	CreatedAt        core.Timestamp `json:"created_at"`
}

// Parameters are the knobs of a run that enter its fingerprint
type Parameters struct {
	MissingThreshold float64
	OutlierFactor    float64
	Alpha            float64
	Targets          []string
	GroupBy          []string
}

// NewManifest creates the manifest of a run over input
func NewManifest(runID core.RunID, input string, inputHash core.Hash, params Parameters) *Manifest {
	return &Manifest{
		RunID:            runID,
		Input:            input,
		InputHash:        inputHash,
		MissingThreshold: params.MissingThreshold,
		OutlierFactor:    params.OutlierFactor,
		Alpha:            params.Alpha,
		Targets:          append([]string(nil), params.Targets...),
		GroupBy:          append([]string(nil), params.GroupBy...),
		Fingerprint:      computeFingerprint(inputHash, params),
		CreatedAt:        core.Now(),
	}
}

// computeFingerprint generates a deterministic hash of the run inputs; two
// runs with equal fingerprints produce identical results.
func computeFingerprint(inputHash core.Hash, p Parameters) core.Hash {
	data := fmt.Sprintf("input:%s|threshold:%g|factor:%g|alpha:%g|targets:%s|group_by:%s",
		inputHash, p.MissingThreshold, p.OutlierFactor, p.Alpha,
		strings.Join(p.Targets, ","), strings.Join(p.GroupBy, ","))

	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

// SameInputs reports whether two runs were computed from the same data and
// parameters
func (m *Manifest) SameInputs(other *Manifest) bool {
	return m.Fingerprint == other.Fingerprint
}
