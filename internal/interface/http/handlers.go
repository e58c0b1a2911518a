// Package http implements the kiosk REST API for the studio.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/application/command"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/application/query"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Boksaem Yoga Kiosk API",
		"version":     "v1",
		"description": "Check-in and member self-service API for the studio kiosk",
		"endpoints": map[string]string{
			"health":  "/health",
			"checkin": "/api/v1/checkin",
			"lookup":  "/api/v1/members/lookup",
			"verify":  "/api/v1/instructors/verify",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// CHECK-IN HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// checkInRequest is the kiosk check-in payload.
type checkInRequest struct {
	MemberID   string `json:"member_id"`
	BranchID   string `json:"branch_id"`
	ClassTitle string `json:"class_title"`
	Instructor string `json:"instructor"`
	ClassTime  string `json:"class_time"`
}

// checkInResponse is the kiosk check-in result.
type checkInResponse struct {
	MemberID            string    `json:"member_id"`
	MemberName          string    `json:"member_name"`
	AttendanceID        string    `json:"attendance_id"`
	Date                string    `json:"date"`
	SessionNumber       int       `json:"session_number"`
	Streak              int       `json:"streak"`
	CreditsBefore       int       `json:"credits_before"`
	CreditsAfter        int       `json:"credits_after"`
	AttendanceCount     int       `json:"attendance_count"`
	MembershipActivated bool      `json:"membership_activated"`
	StartDate           string    `json:"start_date,omitempty"`
	EndDate             string    `json:"end_date,omitempty"`
	CheckedInAt         time.Time `json:"checked_in_at"`
}

// handleCheckIn handles POST /api/v1/checkin
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	if s.deps.CheckInHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Check-in handler not configured")
		return
	}

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	cmd := command.CheckInCommand{
		MemberID:      req.MemberID,
		BranchID:      req.BranchID,
		ClassTitle:    req.ClassTitle,
		Instructor:    req.Instructor,
		ClassTime:     req.ClassTime,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.CheckInHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "check-in failed")
		return
	}

	writeJSON(w, http.StatusOK, checkInResponse{
		MemberID:            result.MemberID,
		MemberName:          result.MemberName,
		AttendanceID:        result.AttendanceID,
		Date:                result.Date,
		SessionNumber:       result.SessionNumber,
		Streak:              result.Streak,
		CreditsBefore:       result.CreditsBefore,
		CreditsAfter:        result.CreditsAfter,
		AttendanceCount:     result.AttendanceCount,
		MembershipActivated: result.MembershipActivated,
		StartDate:           result.StartDate,
		EndDate:             result.EndDate,
		CheckedInAt:         result.CheckedInAt,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// lookupRequest is the phone-digit lookup payload. The kiosk identifies
// itself with a caller key so the lookup limiter can throttle per device.
type lookupRequest struct {
	PhoneLast4 string `json:"phone_last4"`
	CallerKey  string `json:"caller_key"`
}

// handleLookupMember handles POST /api/v1/members/lookup
func (s *Server) handleLookupMember(w http.ResponseWriter, r *http.Request) {
	if s.deps.LookupMemberHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Lookup handler not configured")
		return
	}

	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	callerKey := req.CallerKey
	if callerKey == "" {
		callerKey = getClientIP(r)
	}

	q := query.LookupMemberQuery{
		PhoneLast4: req.PhoneLast4,
		CallerKey:  callerKey,
	}

	result, err := s.deps.LookupMemberHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "member lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetMemberStatus handles GET /api/v1/members/{id}
func (s *Server) handleGetMemberStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetMemberStatusHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Member status handler not configured")
		return
	}

	memberID := r.PathValue("id")
	if memberID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Member ID is required")
		return
	}

	q := query.GetMemberStatusQuery{
		MemberID:     memberID,
		HistoryLimit: getQueryParamInt(r, "history", 0),
	}

	result, err := s.deps.GetMemberStatusHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "member status failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// INSTRUCTOR HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// verifyRequest is the instructor PIN verification payload.
type verifyRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

// handleVerifyInstructor handles POST /api/v1/instructors/verify
func (s *Server) handleVerifyInstructor(w http.ResponseWriter, r *http.Request) {
	if s.deps.VerifyInstructorHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Verify handler not configured")
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	q := query.VerifyInstructorQuery{
		Name: req.Name,
		PIN:  req.PIN,
	}

	result, err := s.deps.VerifyInstructorHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "instructor verification failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleDailyReport handles GET /api/v1/reports/daily
func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetDailyReportHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Report handler not configured")
		return
	}

	q := query.GetDailyReportQuery{
		Date: getQueryParam(r, "date", ""),
	}

	result, err := s.deps.GetDailyReportHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "daily report failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain errors to HTTP statuses. Check-in denials are
// business outcomes the kiosk must display, so they carry distinct codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, shared.ErrMembershipExpired):
		writeJSONError(w, http.StatusConflict, "membership_expired", "Membership has expired")
	case errors.Is(err, shared.ErrInsufficientCredits):
		writeJSONError(w, http.StatusConflict, "no_credits", "No remaining class credits")
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", "Not found")
	case shared.IsInvalidArgument(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Verification failed")
	case errors.Is(err, shared.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		writeJSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many attempts, please wait")
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusServiceUnavailable, "busy", "The kiosk is busy, please tap again")
	default:
		s.logger.Error(logMsg, logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
