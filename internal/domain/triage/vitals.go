package triage

import (
	"math"
	"strconv"
	"strings"
)

// ParseVitals applies the field parsers to one record. Parsers never fail
// hard: a field that cannot be interpreted comes back as the invalid
// sentinel and the rest of the record is still parsed.
func ParseVitals(rec PatientRecord) ParsedVitals {
	systolic, diastolic := ParseBloodPressure(rec.BloodPressure)
	return ParsedVitals{
		Systolic:    systolic,
		Diastolic:   diastolic,
		Temperature: ParseTemperature(rec.Temperature),
		Age:         ParseAge(rec.Age),
	}
}

// ParseBloodPressure interprets a raw blood pressure value. The expected
// form is a "SYS/DIA" string with digit-only sides. Each side is parsed
// independently, so "150/" yields a valid systolic and an invalid
// diastolic. Anything that is not a string with exactly one slash yields
// two invalid sides.
func ParseBloodPressure(raw any) (systolic, diastolic OptInt) {
	s, ok := raw.(string)
	if !ok {
		return OptInt{}, OptInt{}
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return OptInt{}, OptInt{}
	}
	return parseDigits(parts[0]), parseDigits(parts[1])
}

// parseDigits accepts only a non-empty pure digit sequence.
func parseDigits(s string) OptInt {
	if s == "" {
		return OptInt{}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return OptInt{}
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return OptInt{}
	}
	return OptInt{Value: n, Valid: true}
}

// ParseTemperature interprets a raw temperature value. JSON numbers and
// numeric strings are accepted; NaN, infinities, non-numeric strings and
// every other type yield the invalid sentinel.
func ParseTemperature(raw any) OptFloat {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return OptFloat{}
		}
		return OptFloat{Value: v, Valid: true}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return OptFloat{}
		}
		return OptFloat{Value: f, Valid: true}
	default:
		return OptFloat{}
	}
}

// ParseAge interprets a raw age value. JSON numbers are truncated to an
// integer; strings must parse as a whole number. Everything else yields
// the invalid sentinel.
func ParseAge(raw any) OptInt {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return OptInt{}
		}
		return OptInt{Value: int(v), Valid: true}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return OptInt{}
		}
		return OptInt{Value: n, Valid: true}
	default:
		return OptInt{}
	}
}
