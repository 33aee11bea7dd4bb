package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/attribution"
	"github.com/sells-group/lift-cli/internal/baseline"
	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/ingest"
	"github.com/sells-group/lift-cli/internal/model"
	"github.com/sells-group/lift-cli/internal/report"
)

// AttributionRequest is the body of POST /v1/attribution and /v1/lift.
// Params overrides individual engine tunables; omitted fields keep the
// server defaults.
type AttributionRequest struct {
	Brands []requestSeries `json:"brands"`
	Models []string        `json:"models,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// requestSeries mirrors model.BrandSeries but tells an omitted amz_organic
// apart from an explicit zero.
type requestSeries struct {
	Brand   model.BrandKey  `json:"brand"`
	Records []requestRecord `json:"records"`
}

type requestRecord struct {
	model.MonthRecord
	AmazonOrganic *float64 `json:"amz_organic,omitempty"`
}

// series converts b, deriving organic sales from total and ad sales when
// the record omits them.
func (b requestSeries) series() model.BrandSeries {
	s := model.BrandSeries{Brand: b.Brand, Records: make([]model.MonthRecord, len(b.Records))}
	for i, r := range b.Records {
		rec := r.MonthRecord
		if r.AmazonOrganic != nil {
			rec.AmazonOrganic = *r.AmazonOrganic
		} else {
			rec.AmazonOrganic = model.DeriveOrganic(rec.AmazonSales, rec.AmazonAdSales)
		}
		s.Records[i] = rec
	}
	return s
}

// LiftResponse is the body returned by POST /v1/lift.
type LiftResponse struct {
	Window  int                     `json:"window"`
	Brands  []report.BrandLift      `json:"brands"`
	Summary []baseline.BrandSummary `json:"summary"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*AttributionRequest, *model.Portfolio, bool) {
	limit := s.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = 8 << 20
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, nil, false
		}
		writeError(w, http.StatusBadRequest, "read request body")
		return nil, nil, false
	}

	var req AttributionRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return nil, nil, false
	}
	if len(req.Brands) == 0 {
		writeError(w, http.StatusBadRequest, "brands is required")
		return nil, nil, false
	}

	resolver := ingest.NewBrandResolver()
	p := &model.Portfolio{Series: make([]model.BrandSeries, 0, len(req.Brands))}
	for _, b := range req.Brands {
		series := b.series()
		series.Brand = resolver.Resolve(string(b.Brand))
		p.Series = append(p.Series, series)
	}
	if err := ingest.Normalize(p); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid series", err.Error())
		return nil, nil, false
	}
	return &req, p, true
}

// params overlays raw onto a copy of the server defaults. Models is cloned
// so decoding never writes into the defaults' backing array.
func (s *Server) params(raw json.RawMessage) (config.EngineConfig, error) {
	params := s.engine
	params.Models = slices.Clone(s.engine.Models)
	if len(raw) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return config.EngineConfig{}, err
	}
	return params, nil
}

func (s *Server) attribution(w http.ResponseWriter, r *http.Request) {
	req, p, ok := s.decode(w, r)
	if !ok {
		return
	}

	params, err := s.params(req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid params", err.Error())
		return
	}
	if len(req.Models) > 0 {
		params.Models = req.Models
	}

	var src baseline.Source
	if s.source != nil {
		loaded, err := s.source(r.Context())
		if err != nil {
			zap.L().Error("api: load baseline", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "prior-year baseline unavailable")
			return
		}
		src = loaded
	}
	if s.selfHistory {
		src = baseline.Chain(src, baseline.FromSeries(p))
	}

	engine, err := attribution.NewEngine(params, src)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid params", eris.Cause(err).Error(), err.Error())
		return
	}

	start := time.Now()
	results, err := engine.Run(r.Context(), p)
	if err != nil {
		if errors.Is(err, model.ErrMisaligned) {
			writeError(w, http.StatusUnprocessableEntity, "invalid series", err.Error())
			return
		}
		zap.L().Error("api: attribution run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "attribution failed")
		return
	}
	s.metrics.ObserveRun(len(p.Series), results, time.Since(start))

	writeJSON(w, http.StatusOK, report.NewEnvelope(results, engine.Models(), params, s.now()))
}

func (s *Server) lift(w http.ResponseWriter, r *http.Request) {
	req, p, ok := s.decode(w, r)
	if !ok {
		return
	}

	params, err := s.params(req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid params", err.Error())
		return
	}
	window := params.Rolling.Window
	if window < baseline.MinWindow || window > baseline.MaxWindow {
		writeError(w, http.StatusUnprocessableEntity, "invalid params", "rolling.window must be between 2 and 12")
		return
	}

	resp := LiftResponse{Window: window, Summary: baseline.Summarize(p, window)}
	for i := range p.Series {
		resp.Brands = append(resp.Brands, report.BrandLift{
			Brand:  p.Series[i].Brand,
			Points: baseline.Lift(&p.Series[i], window),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
