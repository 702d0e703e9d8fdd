package handler

import (
	"net/http"

	"github.com/kindredhq/kindred/internal/ctxkeys"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/service"
)

type PreferencesHandler struct {
	preferencesService *service.PreferencesService
}

func NewPreferencesHandler(preferencesService *service.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferencesService: preferencesService}
}

func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	prefs, err := h.preferencesService.ByUserID(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	writeJSON(w, http.StatusOK, preferencesResponse(prefs))
}

// Update replaces the user's notification preferences. Missing fields take
// their zero values, so clients send the full settings object.
func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		DailyCheckin         bool   `json:"daily_checkin"`
		WeeklySummary        bool   `json:"weekly_summary"`
		MilestoneCelebration bool   `json:"milestone_celebrations"`
		MarketingEmails      bool   `json:"marketing_emails"`
		DailyCheckinTime     string `json:"daily_checkin_time"`
		DailyCheckinDays     string `json:"daily_checkin_days"`
		WeeklySummaryTime    string `json:"weekly_summary_time"`
		WeeklySummaryDay     string `json:"weekly_summary_day"`
		Timezone             string `json:"timezone"`
		ChannelEmail         bool   `json:"channel_email"`
		ChannelInapp         bool   `json:"channel_inapp"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prefs := &model.Preferences{
		UserID:               user.ID,
		DailyCheckin:         req.DailyCheckin,
		WeeklySummary:        req.WeeklySummary,
		MilestoneCelebration: req.MilestoneCelebration,
		MarketingEmails:      req.MarketingEmails,
		DailyCheckinTime:     req.DailyCheckinTime,
		DailyCheckinDays:     req.DailyCheckinDays,
		WeeklySummaryTime:    req.WeeklySummaryTime,
		WeeklySummaryDay:     req.WeeklySummaryDay,
		Timezone:             req.Timezone,
		ChannelEmail:         req.ChannelEmail,
		ChannelInapp:         req.ChannelInapp,
	}

	if err := h.preferencesService.Save(prefs); err != nil {
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	writeJSON(w, http.StatusOK, preferencesResponse(prefs))
}

func preferencesResponse(p *model.Preferences) map[string]any {
	return map[string]any{
		"daily_checkin":          p.DailyCheckin,
		"weekly_summary":         p.WeeklySummary,
		"milestone_celebrations": p.MilestoneCelebration,
		"marketing_emails":       p.MarketingEmails,
		"daily_checkin_time":     p.DailyCheckinTime,
		"daily_checkin_days":     p.DailyCheckinDays,
		"weekly_summary_time":    p.WeeklySummaryTime,
		"weekly_summary_day":     p.WeeklySummaryDay,
		"timezone":               p.Timezone,
		"channel_email":          p.ChannelEmail,
		"channel_inapp":          p.ChannelInapp,
	}
}
