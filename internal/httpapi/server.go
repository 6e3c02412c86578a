package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/service"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

type Dependencies struct {
	Logger           *zap.SugaredLogger
	Addr             string
	CheckInService   *service.CheckInService
	AuditLogger      *service.AuditLogger
	HeartbeatService *service.HeartbeatService
	// Ping reports durable-store health on /healthz.  Optional.
	Ping func(ctx context.Context) error
}

type Server struct {
	httpServer       *http.Server
	logger           *zap.SugaredLogger
	checkIn          *service.CheckInService
	audit            *service.AuditLogger
	heartbeatService *service.HeartbeatService
	ping             func(ctx context.Context) error
}

func NewServer(d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Server{
		logger:           logger,
		checkIn:          d.CheckInService,
		audit:            d.AuditLogger,
		heartbeatService: d.HeartbeatService,
		ping:             d.Ping,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/checkin/scan", s.handleScan)
		r.Post("/checkin/manual", s.handleManual)
		r.Get("/entrance_logs", s.handleEntranceLogs)
		r.Post("/heartbeat", s.handleHeartbeat)
	})
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req types.ScanRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	switch req.Source {
	case "", "keyboard", "camera":
	default:
		writeError(w, r, http.StatusBadRequest, "invalid_source", "source must be keyboard or camera")
		return
	}

	resp, err := s.checkIn.Scan(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyToken) {
			writeError(w, r, http.StatusBadRequest, "empty_token", err.Error())
			return
		}
		s.logger.Errorw("scan failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeResponse(w, r, http.StatusOK, resp)
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	var req types.ManualRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	resp, err := s.checkIn.Manual(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMemberID) {
			writeError(w, r, http.StatusBadRequest, "invalid_member_id", err.Error())
			return
		}
		s.logger.Errorw("manual check-in failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeResponse(w, r, http.StatusOK, resp)
}

// handleEntranceLogs serves the audit trail newest-first.  At most one of
// member_id, status and type may be given.
func (s *Server) handleEntranceLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultLogLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "bad_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxLogLimit)
	}

	filters := 0
	for _, k := range []string{"member_id", "status", "type"} {
		if q.Get(k) != "" {
			filters++
		}
	}
	if filters > 1 {
		writeError(w, r, http.StatusBadRequest, "bad_filter", "use at most one of member_id, status, type")
		return
	}

	var (
		logs []types.EntranceLog
		err  error
		ctx  = r.Context()
	)
	switch {
	case q.Get("member_id") != "":
		id, perr := strconv.ParseInt(q.Get("member_id"), 10, 64)
		if perr != nil || id <= 0 {
			writeError(w, r, http.StatusBadRequest, "bad_filter", "member_id must be a positive integer")
			return
		}
		logs, err = s.audit.ListByMember(ctx, id)
	case q.Get("status") != "":
		st, ok := types.ParseValidationStatus(q.Get("status"))
		if !ok {
			writeError(w, r, http.StatusBadRequest, "bad_filter", "unknown status")
			return
		}
		logs, err = s.audit.ListByStatus(ctx, st)
	case q.Get("type") != "":
		et, ok := types.ParseEntranceType(q.Get("type"))
		if !ok {
			writeError(w, r, http.StatusBadRequest, "bad_filter", "unknown entrance type")
			return
		}
		logs, err = s.audit.ListByType(ctx, et)
	default:
		logs, err = s.audit.ListRecent(ctx, limit)
	}
	if err != nil {
		s.logger.Errorw("entrance log read failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	if len(logs) > limit {
		logs = logs[:limit]
	}
	if logs == nil {
		logs = []types.EntranceLog{}
	}
	writeResponse(w, r, http.StatusOK, entranceLogsResponse{Logs: logs})
}

type entranceLogsResponse struct {
	Logs []types.EntranceLog `json:"logs"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req types.HeartbeatRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	resp, err := s.heartbeatService.Record(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStationID) {
			writeError(w, r, http.StatusBadRequest, "invalid_station_id", err.Error())
			return
		}
		s.logger.Errorw("heartbeat failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeResponse(w, r, http.StatusOK, resp)
}

type healthResponse struct {
	OK              bool `json:"ok"`
	Durable         bool `json:"durable"`
	FallbackPending int  `json:"fallback_pending"`
}

// handleHealth reports 503 only when a configured durable store stops
// answering; fallback-only mode is healthy but flagged.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{OK: true}
	if s.audit != nil {
		resp.Durable = s.audit.Durable() != nil
		resp.FallbackPending = s.audit.Fallback().Len()
	}

	status := http.StatusOK
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			resp.OK = false
			status = http.StatusServiceUnavailable
		}
	}
	writeResponse(w, r, status, resp)
}
