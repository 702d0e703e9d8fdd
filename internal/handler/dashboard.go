package handler

import (
	"log/slog"
	"net/http"

	"github.com/kindredhq/kindred/internal/ctxkeys"
	"github.com/kindredhq/kindred/internal/repository"
	"github.com/kindredhq/kindred/internal/service"
)

type DashboardHandler struct {
	companionService *service.CompanionService
	usageService     *service.UsageService
	memoryService    *service.MemoryService
	messageRepo      repository.MessageRepository
}

func NewDashboardHandler(
	companionService *service.CompanionService,
	usageService *service.UsageService,
	memoryService *service.MemoryService,
	messageRepo repository.MessageRepository,
) *DashboardHandler {
	return &DashboardHandler{
		companionService: companionService,
		usageService:     usageService,
		memoryService:    memoryService,
		messageRepo:      messageRepo,
	}
}

// Overview aggregates everything the dashboard page shows in one call.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	profile := ctxkeys.Profile(r.Context())
	subscription := ctxkeys.Subscription(r.Context())

	resp := map[string]any{
		"email": user.Email,
	}

	if profile != nil {
		resp["nickname"] = profile.Nickname
		resp["premium"] = profile.Premium
	}

	if subscription != nil {
		resp["subscription"] = map[string]any{
			"plan":               subscription.PlanID,
			"status":             subscription.Status,
			"current_period_end": subscription.CurrentPeriodEnd,
		}
	}

	if companion, err := h.companionService.ByUserID(user.ID); err == nil {
		resp["companion"] = map[string]any{
			"name":      companion.Name,
			"tone":      companion.Tone,
			"expertise": companion.Expertise,
		}
	}

	usage := map[string]any{"cap": h.usageService.FreeCap()}
	if used, err := h.usageService.UsedToday(user.ID); err == nil {
		usage["used_today"] = used
	} else {
		slog.Warn("failed to load usage", "error", err, "user_id", user.ID)
	}
	if remaining, err := h.usageService.Remaining(user.ID); err == nil {
		usage["remaining"] = remaining
	}
	resp["usage"] = usage

	if count, err := h.memoryService.Count(user.ID); err == nil {
		resp["memory_count"] = count
	}
	if count, err := h.messageRepo.CountByUser(user.ID); err == nil {
		resp["message_count"] = count
	}

	writeJSON(w, http.StatusOK, resp)
}
