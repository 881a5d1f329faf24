package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hams/portal-server-go/internal/audit"
	"github.com/hams/portal-server-go/internal/config"
	apperrors "github.com/hams/portal-server-go/internal/errors"
	"github.com/hams/portal-server-go/internal/middleware"
	"github.com/hams/portal-server-go/internal/model"
	"github.com/hams/portal-server-go/internal/schedule"
	"github.com/hams/portal-server-go/internal/upstream"
)

type DoctorHandler struct {
	upstream   *upstream.Client
	windowDays int
	now        func() time.Time
}

func NewDoctorHandler(up *upstream.Client, cfg *config.Config) *DoctorHandler {
	return &DoctorHandler{
		upstream:   up,
		windowDays: cfg.BookingWindowDays,
		now:        time.Now,
	}
}

func (h *DoctorHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/schedule", h.Schedule)
	r.Get("/schedule/records", h.ScheduleRecords)
	r.Get("/schedule/filter", h.FilterSchedule)
	r.Put("/schedule/toggle/{availabilityID}", h.ToggleAvailability)
	r.Get("/appointments/current", h.CurrentAppointments)
	r.Get("/appointments/past", h.PastAppointments)
	r.Put("/appointments/complete", h.CompleteAppointment)
	r.Put("/appointments/{appointmentID}/cancel", h.CancelAppointment)
	r.Get("/medical-history", h.MedicalHistory)
	r.Get("/patients/{patientID}/history", h.PatientHistory)

	return r
}

// GET /api/doctor/schedule
//
// The doctor's own calendar grid: toggle records merged with scheduled
// appointments over the booking window.
func (h *DoctorHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	records, err := h.upstream.DoctorSchedule(r.Context(), sess.Token, sess.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	appts, err := h.upstream.DoctorCurrentAppointments(r.Context(), sess.Token, sess.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}

	windowStart := schedule.StartOfDay(h.now())
	calendar := schedule.BuildCalendar(records, appts, windowStart, h.windowDays)
	writeJSON(w, http.StatusOK, calendar)
}

// GET /api/doctor/schedule/records
func (h *DoctorHandler) ScheduleRecords(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	records, err := h.upstream.DoctorSchedule(r.Context(), sess.Token, sess.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GET /api/doctor/schedule/filter?startDate=&endDate=
func (h *DoctorHandler) FilterSchedule(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	from := r.URL.Query().Get("startDate")
	to := r.URL.Query().Get("endDate")
	if from == "" || to == "" {
		writeError(w, apperrors.MissingRequired("startDate and endDate"))
		return
	}
	if _, err := time.Parse(config.DateFormat, from); err != nil {
		writeError(w, apperrors.InvalidInput("startDate", "must be yyyy-MM-dd"))
		return
	}
	if _, err := time.Parse(config.DateFormat, to); err != nil {
		writeError(w, apperrors.InvalidInput("endDate", "must be yyyy-MM-dd"))
		return
	}

	records, err := h.upstream.FilterDoctorSchedule(r.Context(), sess.Token, sess.SubjectID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// PUT /api/doctor/schedule/toggle/{availabilityID}
func (h *DoctorHandler) ToggleAvailability(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	availabilityID := chi.URLParam(r, "availabilityID")
	if availabilityID == "" {
		writeError(w, apperrors.MissingRequired("availabilityId"))
		return
	}

	record, err := h.upstream.ToggleAvailability(r.Context(), sess.Token, availabilityID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// GET /api/doctor/appointments/current?date=
func (h *DoctorHandler) CurrentAppointments(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	appts, err := h.upstream.DoctorCurrentAppointments(r.Context(), sess.Token, sess.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}

	if date := r.URL.Query().Get("date"); date != "" {
		if _, err := time.Parse(config.DateFormat, date); err != nil {
			writeError(w, apperrors.InvalidInput("date", "must be yyyy-MM-dd"))
			return
		}
		appts = schedule.FilterByDate(appts, date)
	}
	schedule.SortAppointments(appts)
	writeJSON(w, http.StatusOK, appts)
}

// GET /api/doctor/appointments/past?startDate=&endDate=&status=
func (h *DoctorHandler) PastAppointments(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	from, to, err := dateRangeParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	appts, err := h.upstream.DoctorPastAppointments(r.Context(), sess.Token, sess.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if from != "" {
		appts = schedule.FilterByDateRange(appts, from, to)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		appts = schedule.FilterByStatus(appts, model.AppointmentStatus(status))
	}
	schedule.SortAppointments(appts)
	writeJSON(w, http.StatusOK, appts)
}

// PUT /api/doctor/appointments/complete
//
// Completion requires the visit record; an appointment is never marked
// completed without one.
func (h *DoctorHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var visit model.VisitRecord
	if err := decodeJSON(r, &visit); err != nil {
		writeError(w, err)
		return
	}
	if visit.AppointmentID == "" {
		writeError(w, apperrors.MissingRequired("appointmentId"))
		return
	}
	if visit.Diagnosis == "" || visit.Treatment == "" || visit.Medications == "" {
		writeError(w, apperrors.ValidationError("diagnosis, treatment and medications are required to complete a visit"))
		return
	}

	if err := h.upstream.CompleteAppointment(r.Context(), sess.Token, visit); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventVisitComplete,
		SubjectID: sess.SubjectID,
		Details:   map[string]interface{}{"appointment_id": visit.AppointmentID},
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment completed"})
}

// PUT /api/doctor/appointments/{appointmentID}/cancel
func (h *DoctorHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	appointmentID := chi.URLParam(r, "appointmentID")
	if appointmentID == "" {
		writeError(w, apperrors.MissingRequired("appointmentId"))
		return
	}

	if err := h.upstream.DoctorCancelAppointment(r.Context(), sess.Token, appointmentID); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventBookingCancel,
		SubjectID: sess.SubjectID,
		Role:      string(sess.Role),
		Details:   map[string]interface{}{"appointment_id": appointmentID},
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment cancelled"})
}

// GET /api/doctor/medical-history
//
// Every visit record the doctor has written, across all patients.
func (h *DoctorHandler) MedicalHistory(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	records, err := h.upstream.DoctorMedicalHistory(r.Context(), sess.Token, sess.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GET /api/doctor/patients/{patientID}/history?startDate=&endDate=
func (h *DoctorHandler) PatientHistory(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	patientID := chi.URLParam(r, "patientID")
	if patientID == "" {
		writeError(w, apperrors.MissingRequired("patientId"))
		return
	}
	from, to, err := dateRangeParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var records []model.MedicalRecord
	if from != "" {
		records, err = h.upstream.FilterPatientHistory(r.Context(), sess.Token, patientID, from, to)
	} else {
		records, err = h.upstream.PatientHistoryForDoctor(r.Context(), sess.Token, patientID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
