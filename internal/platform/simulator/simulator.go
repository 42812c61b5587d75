// Package simulator emulates the remote patient assessment service for
// development and integration testing. It serves reproducible synthetic
// patients with the same rough edges the real service exhibits:
// malformed vitals, records without identifiers, rate limiting, server
// errors, and shape-shifting page payloads.
package simulator

import (
	"fmt"
	"math/rand"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/triage/pkg/pagination"
)

// Config controls the volume, corruption, and fault cadence of the
// simulated service.
type Config struct {
	// APIKey is the key enforced on every endpoint.
	APIKey string
	// PatientCount is the total number of synthetic patients.
	PatientCount int
	// Seed makes the generated population reproducible.
	Seed int64
	// RateLimitEvery answers every Nth patients request with 429.
	// Zero disables rate limiting.
	RateLimitEvery int
	// ServerErrorEvery answers every Nth patients request with 500.
	// Zero disables server errors.
	ServerErrorEvery int
	// CorruptEvery corrupts one vitals field on every Nth patient.
	CorruptEvery int
	// MissingIDEvery drops the identifier from every Nth patient.
	MissingIDEvery int
	// MapShapePage serves this page as a keyed map instead of an array.
	MapShapePage int
	// AltFieldPage serves this page under "patients" instead of "data".
	AltFieldPage int
}

// DefaultConfig returns a population and fault cadence that a default
// pipeline run collects completely.
func DefaultConfig() Config {
	return Config{
		APIKey:           "sim-dev-key",
		PatientCount:     47,
		Seed:             1,
		RateLimitEvery:   4,
		ServerErrorEvery: 7,
		CorruptEvery:     6,
		MissingIDEvery:   9,
		MapShapePage:     3,
		AltFieldPage:     6,
	}
}

// Simulator is the simulated patient service. Handlers are safe for
// concurrent use; the fault cadence is driven by a request counter.
type Simulator struct {
	cfg      Config
	logger   zerolog.Logger
	patients []map[string]any

	mu       sync.Mutex
	requests int
}

// New generates the synthetic population and returns a ready Simulator.
func New(cfg Config, logger zerolog.Logger) *Simulator {
	if cfg.APIKey == "" {
		cfg.APIKey = DefaultConfig().APIKey
	}
	if cfg.PatientCount <= 0 {
		cfg.PatientCount = DefaultConfig().PatientCount
	}
	s := &Simulator{cfg: cfg, logger: logger}
	s.patients = generatePatients(cfg)
	return s
}

// generatePatients builds a reproducible population. Corruption rotates
// through the vitals fields so every failure mode appears.
func generatePatients(cfg Config) []map[string]any {
	r := rand.New(rand.NewSource(cfg.Seed))
	patients := make([]map[string]any, 0, cfg.PatientCount)

	for i := 1; i <= cfg.PatientCount; i++ {
		systolic := 95 + r.Intn(80)
		diastolic := 55 + r.Intn(50)
		temp := 97.0 + r.Float64()*6.0
		age := 18 + r.Intn(72)

		p := map[string]any{
			"patient_id":     fmt.Sprintf("SIM-%03d", i),
			"name":           fmt.Sprintf("Synthetic Patient %d", i),
			"blood_pressure": fmt.Sprintf("%d/%d", systolic, diastolic),
			"temperature":    float64(int(temp*10)) / 10,
			"age":            age,
		}

		// Some records carry numeric-looking strings, as upstream does.
		if i%5 == 0 {
			p["temperature"] = fmt.Sprintf("%.1f", temp)
			p["age"] = fmt.Sprintf("%d", age)
		}

		if cfg.CorruptEvery > 0 && i%cfg.CorruptEvery == 0 {
			switch (i / cfg.CorruptEvery) % 4 {
			case 0:
				p["blood_pressure"] = fmt.Sprintf("%d/", systolic)
			case 1:
				p["temperature"] = "N/A"
			case 2:
				p["age"] = "unknown"
			case 3:
				p["blood_pressure"] = nil
			}
		}

		if cfg.MissingIDEvery > 0 && i%cfg.MissingIDEvery == 0 {
			delete(p, "patient_id")
		}

		patients = append(patients, p)
	}
	return patients
}

// Register binds the simulated endpoints onto the echo instance.
func (s *Simulator) Register(e *echo.Echo) {
	e.GET("/patients", s.handlePatients)
	e.POST("/submit-assessment", s.handleSubmit)
}

// Patients exposes the generated population for tests.
func (s *Simulator) Patients() []map[string]any {
	return s.patients
}

// ValidPatientCount returns how many generated patients carry an
// identifier, i.e. how many a complete collection run should yield.
func (s *Simulator) ValidPatientCount() int {
	n := 0
	for _, p := range s.patients {
		if _, ok := p["patient_id"]; ok {
			n++
		}
	}
	return n
}

// nextRequest advances the fault cadence counter.
func (s *Simulator) nextRequest() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	return s.requests
}

func (s *Simulator) checkAPIKey(c echo.Context) error {
	if c.Request().Header.Get("x-api-key") != s.cfg.APIKey {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
	}
	return nil
}

// handlePatients serves one page, injecting faults and shape variations
// on a deterministic cadence.
func (s *Simulator) handlePatients(c echo.Context) error {
	if err := s.checkAPIKey(c); err != nil {
		return err
	}

	n := s.nextRequest()
	if s.cfg.RateLimitEvery > 0 && n%s.cfg.RateLimitEvery == 0 {
		return c.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "rate limit exceeded, please wait",
		})
	}
	if s.cfg.ServerErrorEvery > 0 && n%s.cfg.ServerErrorEvery == 0 {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	params := pagination.FromContext(c)
	start, end := params.Bounds(len(s.patients))
	slice := s.patients[start:end]
	info := pagination.NewInfo(params, len(s.patients))

	switch params.Page {
	case s.cfg.MapShapePage:
		keyed := make(map[string]map[string]any, len(slice))
		for i, p := range slice {
			keyed[fmt.Sprintf("rec%03d", start+i)] = p
		}
		return c.JSON(http.StatusOK, map[string]any{
			"data":       keyed,
			"pagination": info,
		})
	case s.cfg.AltFieldPage:
		return c.JSON(http.StatusOK, map[string]any{
			"patients":   slice,
			"pagination": info,
		})
	default:
		return c.JSON(http.StatusOK, map[string]any{
			"data":       slice,
			"pagination": info,
		})
	}
}

// submission mirrors the report payload for shape validation.
type submission struct {
	HighRiskPatients  []string `json:"high_risk_patients"`
	FeverPatients     []string `json:"fever_patients"`
	DataQualityIssues []string `json:"data_quality_issues"`
}

// handleSubmit validates the report shape and echoes the list sizes.
func (s *Simulator) handleSubmit(c echo.Context) error {
	if err := s.checkAPIKey(c); err != nil {
		return err
	}

	var sub submission
	if err := c.Bind(&sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if sub.HighRiskPatients == nil || sub.FeverPatients == nil || sub.DataQualityIssues == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing assessment lists")
	}

	s.logger.Info().
		Int("high_risk", len(sub.HighRiskPatients)).
		Int("fever", len(sub.FeverPatients)).
		Int("data_quality", len(sub.DataQualityIssues)).
		Msg("assessment received")

	return c.JSON(http.StatusOK, map[string]any{
		"status":             "accepted",
		"high_risk_count":    len(sub.HighRiskPatients),
		"fever_count":        len(sub.FeverPatients),
		"data_quality_count": len(sub.DataQualityIssues),
	})
}
