package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kindredhq/kindred/internal/ctxkeys"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/service"
)

const memoryListDefaultLimit = 20

type MemoryHandler struct {
	memoryService *service.MemoryService
}

func NewMemoryHandler(memoryService *service.MemoryService) *MemoryHandler {
	return &MemoryHandler{memoryService: memoryService}
}

// List returns the user's most recent memories.
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	limit := memoryListDefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	memories, err := h.memoryService.Recent(user.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"memories": memoryItems(memories, false)})
}

// Search runs a semantic search over the user's memories. Results carry a
// similarity score; when vector search is unavailable the service falls back
// to recency and the scores are zero.
func (h *MemoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit == 0 {
		req.Limit = memoryListDefaultLimit
	}

	memories, err := h.memoryService.Search(r.Context(), user.ID, req.Query, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"memories": memoryItems(memories, true)})
}

func memoryItems(memories []*model.Memory, withSimilarity bool) []map[string]any {
	items := make([]map[string]any, 0, len(memories))
	for _, m := range memories {
		item := map[string]any{
			"id":         m.ID,
			"content":    m.Content,
			"kind":       m.Kind,
			"category":   m.Category,
			"importance": m.Importance,
			"tags":       []string(m.Tags),
			"created_at": m.CreatedAt,
		}
		if withSimilarity {
			item["similarity"] = m.Similarity
		}
		items = append(items, item)
	}
	return items
}
