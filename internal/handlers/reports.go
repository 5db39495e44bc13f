package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"guardian-backend/internal/models"
	"guardian-backend/internal/notify"
	"guardian-backend/internal/repository"
)

type ReportHandler struct {
	activityRepo *repository.ActivityRepo
	eventRepo    *repository.AlertEventRepo
	email        *notify.EmailService
}

func NewReportHandler(activityRepo *repository.ActivityRepo, eventRepo *repository.AlertEventRepo, email *notify.EmailService) *ReportHandler {
	return &ReportHandler{
		activityRepo: activityRepo,
		eventRepo:    eventRepo,
		email:        email,
	}
}

func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "childID")

	day := time.Now().UTC()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"date": "expected YYYY-MM-DD"}, r))
			return
		}
		day = parsed
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	totals, err := h.activityRepo.DayTotals(r.Context(), childID, dayStart)
	if err != nil {
		log.Printf("failed to load day totals for child %s: %v", childID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to build report", r))
		return
	}

	alerts, err := h.eventRepo.ListByChildBetween(r.Context(), childID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		log.Printf("failed to load alert events for child %s: %v", childID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to build report", r))
		return
	}

	report := buildDailyReport(childID, dayStart, totals, alerts)

	// Optional delivery to the parent's inbox
	if to := r.URL.Query().Get("email_to"); to != "" && h.email != nil {
		if err := h.email.SendDailyReportEmail(to, report); err != nil {
			log.Printf("failed to send daily report email to %s: %v", to, err)
		}
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "childID")

	now := time.Now().UTC()
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -6)
	if startStr := r.URL.Query().Get("week_start"); startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"week_start": "expected YYYY-MM-DD"}, r))
			return
		}
		weekStart = parsed
	}

	weekEnd := weekStart.AddDate(0, 0, 7)

	byDay, err := h.activityRepo.StudySecondsByDay(r.Context(), childID, weekStart, weekEnd)
	if err != nil {
		log.Printf("failed to load weekly totals for child %s: %v", childID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to build report", r))
		return
	}

	writeJSON(w, http.StatusOK, buildWeeklyReport(childID, weekStart, byDay))
}

// buildDailyReport assembles one child-day summary. The focus score is the
// studying share of all recorded time, 0-100.
func buildDailyReport(childID string, dayStart time.Time, totals map[models.ActivityLabel]int, alerts []models.AlertEvent) models.DailyReport {
	total := 0
	for _, seconds := range totals {
		total += seconds
	}

	focus := 0.0
	if total > 0 {
		focus = float64(totals[models.ActivityStudying]) / float64(total) * 100
	}

	if totals == nil {
		totals = map[models.ActivityLabel]int{}
	}
	if alerts == nil {
		alerts = []models.AlertEvent{}
	}

	return models.DailyReport{
		ChildID:           childID,
		Date:              dayStart.Format("2006-01-02"),
		TotalStudySeconds: totals[models.ActivityStudying],
		FocusScore:        focus,
		Activities:        totals,
		Alerts:            alerts,
		GeneratedAt:       time.Now().UTC(),
	}
}

// buildWeeklyReport assembles seven consecutive day totals starting at
// weekStart. The trend compares the back half of the week against the front
// half, with a 10% band counted as steady.
func buildWeeklyReport(childID string, weekStart time.Time, studyByDay map[string]int) models.WeeklyReport {
	days := make([]models.DayStudyTotal, 0, 7)
	total := 0
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i).Format("2006-01-02")
		seconds := studyByDay[date]
		days = append(days, models.DayStudyTotal{Date: date, StudySeconds: seconds})
		total += seconds
	}

	firstHalf := days[0].StudySeconds + days[1].StudySeconds + days[2].StudySeconds
	backHalf := days[4].StudySeconds + days[5].StudySeconds + days[6].StudySeconds

	trend := "steady"
	switch {
	case backHalf > firstHalf && float64(backHalf) > float64(firstHalf)*1.1:
		trend = "improving"
	case float64(backHalf) < float64(firstHalf)*0.9:
		trend = "declining"
	}

	return models.WeeklyReport{
		ChildID:             childID,
		WeekStart:           weekStart.Format("2006-01-02"),
		WeekEnd:             weekStart.AddDate(0, 0, 6).Format("2006-01-02"),
		TotalStudySeconds:   total,
		DailyAverageSeconds: total / 7,
		Trend:               trend,
		Days:                days,
		GeneratedAt:         time.Now().UTC(),
	}
}
