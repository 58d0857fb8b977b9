package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-sales-service/internal/apperror"
	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/i18n"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/middleware"
	"github.com/fekuna/omnipos-sales-service/internal/returns"
	"github.com/fekuna/omnipos-sales-service/internal/returns/dto"
)

type ReportHandler struct {
	uc     returns.UseCase
	tr     *i18n.Translator
	logger logger.ZapLogger
}

func NewReportHandler(uc returns.UseCase, tr *i18n.Translator, log logger.ZapLogger) *ReportHandler {
	return &ReportHandler{uc: uc, tr: tr, logger: log}
}

// Routes mounts the health probe and the authenticated report and returns API.
func (h *ReportHandler) Routes(secret []byte) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.HTTPAuth(secret))
		r.Use(requireManager)

		r.Get("/reports/refunds", h.TotalRefunds)
		r.Get("/reports/refunds/periods", h.RefundsByPeriod)
		r.Get("/reports/net-revenue", h.NetRevenue)
		r.Get("/returns", h.ListReturns)
		r.Post("/returns", h.RecordReturn)
	})
	return r
}

func requireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := auth.SessionFromContext(r.Context())
		if sess.Role != auth.RoleAdmin && sess.Role != auth.RoleSuperAdmin {
			writeJSON(w, http.StatusForbidden, errorBody{Error: string(apperror.KindNotAuthorized), Message: "reports require an admin session"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *ReportHandler) TotalRefunds(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	total, err := h.uc.TotalRefunds(r.Context(), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"from": from, "to": to, "total": total})
}

func (h *ReportHandler) RefundsByPeriod(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	period := dto.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = dto.PeriodDay
	}
	totals, err := h.uc.RefundsByPeriod(r.Context(), from, to, period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"period": period, "totals": totals})
}

func (h *ReportHandler) NetRevenue(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	net, err := h.uc.NetRevenue(r.Context(), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, net)
}

func (h *ReportHandler) ListReturns(w http.ResponseWriter, r *http.Request) {
	const op = "handler.ListReturns"
	q := r.URL.Query()

	filters := &dto.ReturnFilters{
		Status:   model.ReturnStatus(q.Get("status")),
		Page:     atoiOr(q.Get("page"), 1),
		PageSize: atoiOr(q.Get("page_size"), 20),
	}
	if filters.Status != "" && !filters.Status.Valid() {
		h.writeError(w, r, apperror.Validation(op, "status", "unknown return status"))
		return
	}
	if v := q.Get("order_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.writeError(w, r, apperror.Validation(op, "order_id", "order_id must be an integer"))
			return
		}
		filters.OrderID = id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, r, apperror.Validation(op, "from", "from must be RFC3339"))
			return
		}
		filters.StartDate = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, r, apperror.Validation(op, "to", "to must be RFC3339"))
			return
		}
		filters.EndDate = &t
	}

	items, total, err := h.uc.ListReturns(r.Context(), filters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.ReturnOrder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "page": filters.Page, "page_size": filters.PageSize})
}

func (h *ReportHandler) RecordReturn(w http.ResponseWriter, r *http.Request) {
	var input dto.RecordReturnInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, r, apperror.Validation("handler.RecordReturn", "body", "body must be a JSON return record"))
		return
	}
	if input.ProcessedBy == "" {
		sess, _ := auth.SessionFromContext(r.Context())
		input.ProcessedBy = sess.OperatorID
	}

	ret, err := h.uc.RecordReturn(r.Context(), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ret)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var kindStatus = map[apperror.Kind]int{
	apperror.KindValidation:    http.StatusBadRequest,
	apperror.KindNotFound:      http.StatusNotFound,
	apperror.KindNotAuthorized: http.StatusForbidden,
	apperror.KindBusy:          http.StatusConflict,
}

func (h *ReportHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	lang := i18n.LanguageFrom(r.Context())

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		h.logger.Error("report request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   string(apperror.KindUnknown),
			Message: h.tr.Localize(apperror.MessageID(apperror.KindUnknown), nil, lang),
		})
		return
	}

	code, ok := kindStatus[appErr.Kind]
	if !ok {
		code = http.StatusInternalServerError
		h.logger.Error("report request failed", zap.String("op", appErr.Op), zap.Error(err))
	}
	writeJSON(w, code, errorBody{
		Error:   string(appErr.Kind),
		Message: h.tr.Localize(apperror.MessageID(appErr.Kind), appErr.Details, lang),
	})
}

func rangeParams(r *http.Request) (time.Time, time.Time, error) {
	const op = "handler.rangeParams"
	q := r.URL.Query()

	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, apperror.Validation(op, "from", "from must be RFC3339")
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, apperror.Validation(op, "to", "to must be RFC3339")
	}
	return from, to, nil
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
