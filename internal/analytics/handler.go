package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

const maxTopQueries = 100

// Handler serves the aggregator's statistics over HTTP.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats answers GET /api/v1/analytics. The optional top parameter sets the
// length of the top and zero-result query lists.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	top := DefaultTopQueries
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTopQueries {
			err := apperrors.Invalidf("top must be between 1 and %d", maxTopQueries)
			h.write(w, apperrors.HTTPStatusCode(err), map[string]string{"error": apperrors.Message(err)})
			return
		}
		top = n
	}
	h.write(w, http.StatusOK, h.aggregator.StatsTop(top))
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
