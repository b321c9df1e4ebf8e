package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/topsis/internal/adapters/tabular"
	"github.com/okian/topsis/internal/domain/types"
	"github.com/okian/topsis/pkg/logger"
)

// Multipart form field names.
const (
	fieldFile    = "file"
	fieldWeights = "weights"
	fieldImpacts = "impacts"
	fieldEmail   = "email"

	maxFieldBytes = 64 << 10
	resultName    = "result.csv"
)

// ProcessHandler serves the upload endpoints.
type ProcessHandler struct {
	deps           Dependencies
	maxUploadBytes int64
	logger         logger.Logger
}

// NewProcessHandler creates a new process handler.
func NewProcessHandler(deps Dependencies, maxUploadBytes int64, l logger.Logger) *ProcessHandler {
	return &ProcessHandler{deps: deps, maxUploadBytes: maxUploadBytes, logger: l}
}

// uploadForm is the decoded multipart request.
type uploadForm struct {
	source  tabular.Source
	weights string
	impacts string
	email   string
}

type queuedResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

type explainRow struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
	SPlus  float64 `json:"s_plus"`
	SMinus float64 `json:"s_minus"`
}

type explainResponse struct {
	RunID       string        `json:"run_id"`
	Criteria    []string      `json:"criteria"`
	Weights     []float64     `json:"weights"`
	Impacts     []string      `json:"impacts"`
	Norms       []float64     `json:"norms"`
	IdealBest   []float64     `json:"ideal_best"`
	IdealWorst  []float64     `json:"ideal_worst"`
	Rows        []explainRow  `json:"rows"`
	Leaderboard []types.Entry `json:"leaderboard"`
}

// HandleProcess handles POST /process. With an e-mail address the result is
// queued for delivery (202); otherwise it is returned as a CSV download.
func (h *ProcessHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := h.readForm(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if form.email != "" {
		jobID, err := h.deps.Submit(ctx, form.source, form.weights, form.impacts, form.email)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, queuedResponse{Status: "queued", JobID: jobID})
		return
	}

	var buf bytes.Buffer
	if err := h.deps.Run(ctx, form.source, form.weights, form.impacts, &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resultName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// HandleExplain handles POST /explain and returns every intermediate value.
func (h *ProcessHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	form, err := h.readForm(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rep, err := h.deps.Evaluate(r.Context(), form.source, form.weights, form.impacts)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := explainResponse{
		RunID:       rep.RunID,
		Criteria:    rep.Criteria,
		Weights:     rep.Weights,
		Impacts:     make([]string, len(rep.Impacts)),
		Norms:       rep.Trace.Norms,
		IdealBest:   rep.Trace.IdealBest,
		IdealWorst:  rep.Trace.IdealWorst,
		Leaderboard: types.Leaderboard(rep.Result),
	}
	for i, imp := range rep.Impacts {
		resp.Impacts[i] = imp.String()
	}
	for i, row := range rep.Result.Rows() {
		resp.Rows = append(resp.Rows, explainRow{
			ID:     row.ID,
			Score:  row.Score,
			Rank:   row.Rank,
			SPlus:  rep.Trace.SPlus[i],
			SMinus: rep.Trace.SMinus[i],
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// readForm streams the multipart body into memory. Nothing is written to disk.
func (h *ProcessHandler) readForm(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	form := &uploadForm{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapRead(err)
		}

		switch part.FormName() {
		case fieldFile:
			data, err := io.ReadAll(part)
			if err != nil {
				return nil, wrapRead(err)
			}
			form.source = tabular.BytesSource(part.FileName(), data)
		case fieldWeights, fieldImpacts, fieldEmail:
			data, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
			if err != nil {
				return nil, wrapRead(err)
			}
			if len(data) > maxFieldBytes {
				return nil, fmt.Errorf("%w: field %q exceeds %d bytes", ErrBadRequest, part.FormName(), maxFieldBytes)
			}
			value := strings.TrimSpace(string(data))
			switch part.FormName() {
			case fieldWeights:
				form.weights = value
			case fieldImpacts:
				form.impacts = value
			default:
				form.email = value
			}
		}
		_ = part.Close()
	}

	if form.source == nil || form.source.Name() == "" {
		return nil, ErrNoFile
	}
	return form, nil
}

func wrapRead(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBadRequest, err)
}

func (h *ProcessHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	log := h.logger.With(
		logger.String("path", r.URL.Path),
		logger.String("request_id", middleware.GetReqID(r.Context())),
		logger.String("code", code),
		logger.Int("status", status),
		logger.Error(err),
	)
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed")
	} else {
		log.Debug(r.Context(), "request rejected")
	}
	writeError(w, status, code, err)
}
