package simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/triage/internal/domain/collect"
	"github.com/ehr/triage/internal/domain/triage"
	"github.com/ehr/triage/internal/platform/remote"
)

// quietConfig disables fault injection so handler tests see clean pages.
func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.RateLimitEvery = 0
	cfg.ServerErrorEvery = 0
	return cfg
}

func newTestServer(t *testing.T, cfg Config) (*Simulator, *httptest.Server) {
	t.Helper()
	sim := New(cfg, zerolog.Nop())
	e := echo.New()
	sim.Register(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return sim, srv
}

func getPage(t *testing.T, srv *httptest.Server, apiKey, query string) (int, map[string]json.RawMessage) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/patients?"+query, nil)
	req.Header.Set("x-api-key", apiKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]json.RawMessage
	json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestGeneratePatients_Deterministic(t *testing.T) {
	a := New(DefaultConfig(), zerolog.Nop())
	b := New(DefaultConfig(), zerolog.Nop())
	if !reflect.DeepEqual(a.Patients(), b.Patients()) {
		t.Error("expected identical populations for the same seed")
	}
	if len(a.Patients()) != 47 {
		t.Errorf("expected 47 patients, got %d", len(a.Patients()))
	}
	if a.ValidPatientCount() != 42 {
		t.Errorf("expected 42 patients with identifiers, got %d", a.ValidPatientCount())
	}
}

func TestHandlePatients_RequiresAPIKey(t *testing.T) {
	_, srv := newTestServer(t, quietConfig())
	status, _ := getPage(t, srv, "wrong-key", "page=1&limit=5")
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", status)
	}
}

func TestHandlePatients_DefaultShape(t *testing.T) {
	cfg := quietConfig()
	_, srv := newTestServer(t, cfg)

	status, body := getPage(t, srv, cfg.APIKey, "page=1&limit=5")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var records []map[string]any
	if err := json.Unmarshal(body["data"], &records); err != nil {
		t.Fatalf("expected data array: %v", err)
	}
	if len(records) != 5 {
		t.Errorf("expected 5 records, got %d", len(records))
	}
	var info struct {
		HasNext bool `json:"hasNext"`
	}
	if err := json.Unmarshal(body["pagination"], &info); err != nil {
		t.Fatalf("expected pagination block: %v", err)
	}
	if !info.HasNext {
		t.Error("expected hasNext=true on page 1")
	}
}

func TestHandlePatients_ShapeVariants(t *testing.T) {
	cfg := quietConfig()
	_, srv := newTestServer(t, cfg)

	// MapShapePage serves a keyed map under data.
	_, body := getPage(t, srv, cfg.APIKey, "page=3&limit=5")
	var keyed map[string]map[string]any
	if err := json.Unmarshal(body["data"], &keyed); err != nil {
		t.Fatalf("expected keyed map on page 3: %v", err)
	}
	if len(keyed) != 5 {
		t.Errorf("expected 5 keyed records, got %d", len(keyed))
	}

	// AltFieldPage serves the array under patients.
	_, body = getPage(t, srv, cfg.APIKey, "page=6&limit=5")
	if _, ok := body["data"]; ok {
		t.Error("expected no data field on the alternate-shape page")
	}
	var alt []map[string]any
	if err := json.Unmarshal(body["patients"], &alt); err != nil {
		t.Fatalf("expected patients array on page 6: %v", err)
	}
}

func TestHandlePatients_RateLimitCadence(t *testing.T) {
	cfg := quietConfig()
	cfg.RateLimitEvery = 2
	_, srv := newTestServer(t, cfg)

	first, _ := getPage(t, srv, cfg.APIKey, "page=1")
	second, _ := getPage(t, srv, cfg.APIKey, "page=1")
	if first != http.StatusOK {
		t.Errorf("expected first request to pass, got %d", first)
	}
	if second != http.StatusTooManyRequests {
		t.Errorf("expected second request rate limited, got %d", second)
	}
}

func TestHandleSubmit_ValidatesShape(t *testing.T) {
	cfg := quietConfig()
	_, srv := newTestServer(t, cfg)

	post := func(body string) int {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/submit-assessment", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", cfg.APIKey)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if status := post(`{"high_risk_patients":[]}`); status != http.StatusBadRequest {
		t.Errorf("expected 400 for missing lists, got %d", status)
	}
	ok := `{"high_risk_patients":["A"],"fever_patients":[],"data_quality_issues":["B"]}`
	if status := post(ok); status != http.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}
}

// TestPipelineAgainstSimulator runs the real fetcher, collector,
// classifier and submitter against the simulated service. The fault
// cadence never produces more than two consecutive faults, so a budget
// of three collects every page.
func TestPipelineAgainstSimulator(t *testing.T) {
	cfg := DefaultConfig()
	sim, srv := newTestServer(t, cfg)

	logger := zerolog.Nop()
	client := remote.NewClient(srv.URL, cfg.APIKey, logger,
		remote.WithBackoff(time.Millisecond, time.Millisecond))

	collector := collect.New(client, collect.Options{
		MaxPages:        10,
		FirstPassBudget: 3,
		RecoveryBudget:  5,
	}, logger)

	result := collector.Collect(context.Background())
	if len(result.LostPages) != 0 {
		t.Fatalf("expected no lost pages, got %v", result.LostPages)
	}
	if len(result.Records) != sim.ValidPatientCount() {
		t.Fatalf("expected %d records, got %d", sim.ValidPatientCount(), len(result.Records))
	}

	seen := make(map[string]bool, len(result.Records))
	for _, rec := range result.Records {
		if seen[rec.ID] {
			t.Errorf("duplicate patient id %q in final set", rec.ID)
		}
		seen[rec.ID] = true
	}

	report := triage.Classify(result.Records)
	if len(report.DataQualityIssues) == 0 {
		t.Error("expected the corrupted population to produce data quality issues")
	}
	if err := client.SubmitAssessment(context.Background(), report); err != nil {
		t.Fatalf("unexpected submission error: %v", err)
	}
}
