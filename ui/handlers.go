package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gopvt/app"
	"gopvt/domain/core"
	"gopvt/domain/frame"
	"gopvt/domain/pvt"
	"gopvt/domain/run"
)

// measurementPayload is one raw trial in a process request.
type measurementPayload struct {
	UserID       string  `json:"user_id"`
	Session      string  `json:"session"`
	ResponseTime float64 `json:"response_time"`
}

// processOptions overrides the configured pipeline defaults per request.
type processOptions struct {
	SessionStatistic  string   `json:"session_statistic,omitempty"`
	BaselineStatistic string   `json:"baseline_statistic,omitempty"`
	FilteringFactor   *float64 `json:"filtering_factor,omitempty"`
	DisableFiltering  bool     `json:"disable_filtering,omitempty"`
}

type processRequest struct {
	Measurements []measurementPayload `json:"measurements"`
	Options      *processOptions      `json:"options,omitempty"`
}

type processResponse struct {
	Run    run.Run     `json:"run"`
	Scores []run.Score `json:"scores"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProcess scores a JSON batch of measurements in one pipeline run.
func (a *App) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Measurements) == 0 {
		respondError(w, http.StatusBadRequest, "measurements must not be empty")
		return
	}

	pipeline, err := a.buildPipeline(req.Options)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cols := pvt.DefaultColumns()
	table := frame.New(cols.User, cols.Session, cols.Response)
	for _, m := range req.Measurements {
		if err := table.AppendRow(m.UserID, m.Session, m.ResponseTime); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	service := app.NewAlertnessService(pipeline, a.repo)
	result, err := service.ProcessTable(r.Context(), "api", table)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	scores, err := app.ScoresFromTable(result.Run.ID.String(), result.Scores, cols)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, processResponse{Run: result.Run, Scores: scores})
}

// buildPipeline applies request overrides on top of the configured
// defaults. API requests always use the conventional column names since the
// JSON field names are fixed.
func (a *App) buildPipeline(opts *processOptions) (*pvt.Pipeline, error) {
	pipelineOpts := []pvt.Option{
		pvt.WithSessionStatistic(a.pipeline.SessionStatistic),
		pvt.WithBaselineStatistic(a.pipeline.BaselineStatistic),
	}
	if a.pipeline.FilteringFactor != nil {
		pipelineOpts = append(pipelineOpts, pvt.WithFilteringFactor(*a.pipeline.FilteringFactor))
	} else {
		pipelineOpts = append(pipelineOpts, pvt.WithoutFiltering())
	}

	if opts != nil {
		if opts.SessionStatistic != "" {
			s, err := pvt.ParseStatistic(opts.SessionStatistic)
			if err != nil {
				return nil, err
			}
			pipelineOpts = append(pipelineOpts, pvt.WithSessionStatistic(s))
		}
		if opts.BaselineStatistic != "" {
			s, err := pvt.ParseStatistic(opts.BaselineStatistic)
			if err != nil {
				return nil, err
			}
			pipelineOpts = append(pipelineOpts, pvt.WithBaselineStatistic(s))
		}
		if opts.DisableFiltering {
			pipelineOpts = append(pipelineOpts, pvt.WithoutFiltering())
		} else if opts.FilteringFactor != nil {
			if *opts.FilteringFactor <= 0 {
				return nil, core.ErrInvalidFactor
			}
			pipelineOpts = append(pipelineOpts, pvt.WithFilteringFactor(*opts.FilteringFactor))
		}
	}
	return pvt.NewPipeline(pipelineOpts...), nil
}

func (a *App) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if a.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	runs, err := a.repo.ListRuns(r.Context(), 50)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if a.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	id := core.RunID(chi.URLParam(r, "runID"))
	rn, err := a.repo.GetRun(r.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	scores, err := a.repo.GetScores(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, processResponse{Run: *rn, Scores: scores})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
