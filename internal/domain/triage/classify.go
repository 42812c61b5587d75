package triage

// Assessment is the full classification outcome for one record.
type Assessment struct {
	Record      PatientRecord
	Vitals      ParsedVitals
	Score       int
	HighRisk    bool
	Fever       bool
	DataQuality bool
}

// Assess parses and scores a single record. A record may belong to
// several categories at once: one malformed field flags data quality
// while the remaining fields can still push the score over the
// high-risk threshold.
func Assess(rec PatientRecord) Assessment {
	vitals := ParseVitals(rec)
	score := TotalScore(vitals)
	return Assessment{
		Record:      rec,
		Vitals:      vitals,
		Score:       score,
		HighRisk:    score >= HighRiskThreshold,
		Fever:       vitals.Temperature.Valid && vitals.Temperature.Value >= FeverThreshold,
		DataQuality: !vitals.Complete(),
	}
}

// Classify assesses every record in collection order and builds the
// assessment report. The report is a plain return value; no state is
// shared across runs.
func Classify(records []PatientRecord) *AssessmentReport {
	report := NewAssessmentReport()
	for _, rec := range records {
		a := Assess(rec)
		if a.HighRisk {
			report.HighRiskPatients = append(report.HighRiskPatients, rec.ID)
		}
		if a.Fever {
			report.FeverPatients = append(report.FeverPatients, rec.ID)
		}
		if a.DataQuality {
			report.DataQualityIssues = append(report.DataQualityIssues, rec.ID)
		}
	}
	return report
}
