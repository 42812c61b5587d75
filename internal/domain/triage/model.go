// Package triage implements the clinical risk classification core: tolerant
// field parsing of semi-structured patient vitals, the fixed staging rules
// that map parsed vitals to a risk score, and the classifier that turns a
// collected record set into an assessment report.
package triage

// PatientRecord is a single record as received from the remote service.
// Only the patient identifier is required; the vitals fields are kept
// untyped because upstream data is routinely absent, null, or of the
// wrong type.
type PatientRecord struct {
	ID            string
	BloodPressure any
	Temperature   any
	Age           any
}

// OptInt is an integer that may be invalid. Invalid is distinct from a
// valid zero.
type OptInt struct {
	Value int
	Valid bool
}

// OptFloat is a float that may be invalid. Invalid is distinct from a
// valid zero.
type OptFloat struct {
	Value float64
	Valid bool
}

// ParsedVitals holds the per-field parse results for one record. Each
// field is independent; a record with one malformed field still yields
// usable values for the others.
type ParsedVitals struct {
	Systolic    OptInt
	Diastolic   OptInt
	Temperature OptFloat
	Age         OptInt
}

// Complete reports whether every vitals field parsed successfully.
func (v ParsedVitals) Complete() bool {
	return v.Systolic.Valid && v.Diastolic.Valid && v.Temperature.Valid && v.Age.Valid
}

// AssessmentReport is the submission payload: three ordered patient ID
// lists. The lists serve disjoint purposes but may share members. The
// slices are always non-nil so the payload marshals with empty arrays
// rather than nulls.
type AssessmentReport struct {
	HighRiskPatients  []string `json:"high_risk_patients"`
	FeverPatients     []string `json:"fever_patients"`
	DataQualityIssues []string `json:"data_quality_issues"`
}

// NewAssessmentReport returns an empty report with initialised lists.
func NewAssessmentReport() *AssessmentReport {
	return &AssessmentReport{
		HighRiskPatients:  []string{},
		FeverPatients:     []string{},
		DataQualityIssues: []string{},
	}
}
