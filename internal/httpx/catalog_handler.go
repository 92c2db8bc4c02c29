package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/redisx"
)

// ReportStore is the read-only reporting slice of the catalog repo.
type ReportStore interface {
	ChildrenCount(ctx context.Context) ([]catalog.CategoryChildrenCount, error)
	TopProducts(ctx context.Context) ([]catalog.TopProduct, error)
}

type CatalogHandler struct {
	Repo  ReportStore
	Redis *redis.Client
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/categories/children-count", h.childrenCount)
	r.Get("/catalog/top-products", h.topProducts)
}

func (h *CatalogHandler) childrenCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rows, err := h.Repo.ChildrenCount(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rows == nil {
		rows = []catalog.CategoryChildrenCount{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *CatalogHandler) topProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, redisx.KeyTopProducts).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	// 2) fallback DB
	rows, err := h.Repo.TopProducts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rows == nil {
		rows = []catalog.TopProduct{}
	}

	b, err := json.Marshal(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, redisx.KeyTopProducts, b, redisx.TTLReportCache).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
