package remote

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/ehr/triage/internal/domain/collect"
	"github.com/ehr/triage/internal/domain/triage"
)

// envelope covers the known response shapes: the record collection under
// "data", "patients" or "records", each holding either an array of
// objects or a map of sub-objects. The shape is resolved once, here;
// anything unknown falls into the malformed/empty retry path.
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Patients   json.RawMessage `json:"patients"`
	Records    json.RawMessage `json:"records"`
	Pagination *struct {
		HasNext *bool `json:"hasNext"`
	} `json:"pagination"`
}

// normalizePage resolves a raw response body into a flat record list.
func normalizePage(body []byte) (*collect.Page, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrMalformedPage
	}

	var collection json.RawMessage
	for _, candidate := range []json.RawMessage{env.Data, env.Patients, env.Records} {
		if len(candidate) > 0 && string(candidate) != "null" {
			collection = candidate
			break
		}
	}
	if collection == nil {
		return nil, ErrMalformedPage
	}

	records, err := normalizeRecords(collection)
	if err != nil {
		return nil, err
	}

	page := &collect.Page{Records: records}
	if env.Pagination != nil {
		page.HasNext = env.Pagination.HasNext
	}
	return page, nil
}

// normalizeRecords accepts an array of record objects or a map of
// sub-objects. Entries without a usable patient identifier are filtered
// out, as are non-object entries.
func normalizeRecords(raw json.RawMessage) ([]triage.PatientRecord, error) {
	var asList []json.RawMessage
	if err := json.Unmarshal(raw, &asList); err == nil {
		records := make([]triage.PatientRecord, 0, len(asList))
		for _, item := range asList {
			if rec, ok := recordFromJSON(item); ok {
				records = append(records, rec)
			}
		}
		return records, nil
	}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err == nil {
		// Map iteration order is random; sort the keys so a keyed-map
		// page always yields the same record order.
		keys := make([]string, 0, len(asMap))
		for k := range asMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		records := make([]triage.PatientRecord, 0, len(asMap))
		for _, k := range keys {
			if rec, ok := recordFromJSON(asMap[k]); ok {
				records = append(records, rec)
			}
		}
		return records, nil
	}

	return nil, ErrMalformedPage
}

// recordFromJSON decodes one entry and extracts the required identifier.
func recordFromJSON(raw json.RawMessage) (triage.PatientRecord, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return triage.PatientRecord{}, false
	}
	id, ok := patientID(fields["patient_id"])
	if !ok {
		return triage.PatientRecord{}, false
	}
	return triage.PatientRecord{
		ID:            id,
		BloodPressure: fields["blood_pressure"],
		Temperature:   fields["temperature"],
		Age:           fields["age"],
	}, true
}

// patientID renders the opaque identifier as a string key. Null, missing
// and empty identifiers invalidate the record.
func patientID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", false
		}
		return id, true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	default:
		return "", false
	}
}
