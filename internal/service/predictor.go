package service

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"racepredictor/internal/analysis"
	"racepredictor/internal/analytics"
)

// MsgWholeNumbers is reported when a time component has a fractional part
const MsgWholeNumbers = "Hours, minutes and seconds must be whole numbers"

// ErrUnsupportedDistance is returned for a distance outside the predictor's catalog
var ErrUnsupportedDistance = errors.New("distance not supported")

// TableProvider hands out the current VDOT table
type TableProvider interface {
	Table() (*analysis.Table, error)
}

// ValidationError lists every problem found with a request
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Request is a race result as entered by the user
type Request struct {
	Hours    float64
	Minutes  float64
	Seconds  float64
	Distance string
}

// Result is the outcome of a successful prediction
type Result struct {
	Distance     analysis.Distance
	InputSeconds int
	VDOT         float64
	Label        string
	Strategy     analysis.Strategy
	Predictions  []analysis.Prediction
}

// PredictorConfig holds the options for NewPredictor
type PredictorConfig struct {
	Strategy analysis.Strategy
	Catalog  analysis.Catalog // nil uses analysis.CanonicalCatalog
	Tracker  *analytics.Tracker
}

// Predictor runs the validate, resolve, predict pipeline
type Predictor struct {
	tables   TableProvider
	strategy analysis.Strategy
	catalog  analysis.Catalog
	tracker  *analytics.Tracker
}

// NewPredictor creates a predictor reading tables from tables
func NewPredictor(tables TableProvider, cfg PredictorConfig) *Predictor {
	catalog := cfg.Catalog
	if len(catalog) == 0 {
		catalog = analysis.CanonicalCatalog
	}
	return &Predictor{
		tables:   tables,
		strategy: cfg.Strategy,
		catalog:  catalog,
		tracker:  cfg.Tracker,
	}
}

// Catalog returns the distances this predictor accepts and predicts
func (p *Predictor) Catalog() analysis.Catalog {
	return p.catalog
}

// Strategy returns the VDOT resolution strategy in use
func (p *Predictor) Strategy() analysis.Strategy {
	return p.strategy
}

// Predict validates req, resolves a VDOT and predicts every other catalog
// distance. Failures are reported to the tracker before being returned.
func (p *Predictor) Predict(req Request) (*Result, error) {
	result, err := p.predict(req)
	if err != nil {
		p.tracker.TrackError(ErrorCategory(err), err.Error())
		return nil, err
	}

	p.tracker.TrackCalculation(string(result.Distance), result.InputSeconds, result.VDOT)
	return result, nil
}

func (p *Predictor) predict(req Request) (*Result, error) {
	msgs := analysis.ValidateInputs(req.Hours, req.Minutes, req.Seconds, req.Distance)
	if !isWhole(req.Hours) || !isWhole(req.Minutes) || !isWhole(req.Seconds) {
		msgs = append(msgs, MsgWholeNumbers)
	}
	if len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	distance := analysis.Distance(req.Distance)
	if !p.catalog.Contains(distance) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDistance, req.Distance)
	}

	table, err := p.tables.Table()
	if err != nil {
		return nil, err
	}

	// Optional distances the loaded table has no column for are left out
	catalog := p.catalog.Within(table)

	total := analysis.TimeToSeconds(int(req.Hours), int(req.Minutes), int(req.Seconds))

	vdot, err := analysis.Resolve(table, distance, float64(total), p.strategy)
	if err != nil {
		return nil, err
	}

	predictions, err := catalog.Predictions(table, vdot, distance)
	if err != nil {
		return nil, fmt.Errorf("generating predictions: %w", err)
	}

	return &Result{
		Distance:     distance,
		InputSeconds: total,
		VDOT:         vdot,
		Label:        analysis.GetVDOTLabel(vdot),
		Strategy:     p.strategy,
		Predictions:  predictions,
	}, nil
}

// ErrorCategory classifies a Predict error for telemetry
func ErrorCategory(err error) string {
	var validationErr *ValidationError
	var scopeErr *analysis.ScopeError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr), errors.Is(err, ErrUnsupportedDistance):
		return CategoryValidation
	case errors.As(err, &scopeErr):
		return CategoryVDOTExceeded
	case errors.Is(err, analysis.ErrDataNotLoaded), errors.Is(err, analysis.ErrUnknownDistance):
		return CategoryDataUnavailable
	default:
		return CategoryInternal
	}
}

// isWhole reports whether v has no fractional part. Non-finite values are
// left to ValidateInputs.
func isWhole(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v == math.Trunc(v)
}
