package triage

// Clinical risk constants. These are fixed business rules, not tunables.
const (
	// HighRiskThreshold is the minimum total score that marks a patient
	// as high risk.
	HighRiskThreshold = 4

	// FeverThreshold is the minimum valid temperature (Fahrenheit) that
	// marks a patient as febrile.
	FeverThreshold = 99.6
)

// BloodPressureScore stages a blood pressure reading. Both sides must be
// valid, otherwise the sub-score is 0. The stages are evaluated top to
// bottom and the first match wins; the ranges are not disjoint by
// construction, so the order is the tie-break.
func BloodPressureScore(systolic, diastolic OptInt) int {
	if !systolic.Valid || !diastolic.Valid {
		return 0
	}
	sys, dia := systolic.Value, diastolic.Value
	switch {
	case sys < 120 && dia < 80:
		return 1
	case sys >= 120 && sys <= 129 && dia < 80:
		return 2
	case (sys >= 130 && sys <= 139) || (dia >= 80 && dia <= 89):
		return 3
	case sys >= 140 || dia >= 90:
		return 4
	default:
		return 0
	}
}

// TemperatureScore stages a temperature reading, or 0 when invalid.
func TemperatureScore(temp OptFloat) int {
	if !temp.Valid {
		return 0
	}
	switch {
	case temp.Value <= 99.5:
		return 0
	case temp.Value <= 100.9:
		return 1
	default:
		return 2
	}
}

// AgeScore stages a patient age, or 0 when invalid. The under-40 and
// 40-to-65 bands carry the same weight but are distinct stages in the
// clinical rubric, so they are kept separate here.
func AgeScore(age OptInt) int {
	if !age.Valid {
		return 0
	}
	switch {
	case age.Value < 40:
		return 1
	case age.Value >= 40 && age.Value <= 65:
		return 1
	default:
		return 2
	}
}

// TotalScore sums the three sub-scores. Invalid fields contribute 0;
// they never exclude a record from scoring.
func TotalScore(v ParsedVitals) int {
	return BloodPressureScore(v.Systolic, v.Diastolic) +
		TemperatureScore(v.Temperature) +
		AgeScore(v.Age)
}
