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

type PatientHandler struct {
	upstream   *upstream.Client
	windowDays int
	now        func() time.Time
}

func NewPatientHandler(up *upstream.Client, cfg *config.Config) *PatientHandler {
	return &PatientHandler{
		upstream:   up,
		windowDays: cfg.BookingWindowDays,
		now:        time.Now,
	}
}

func (h *PatientHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/profile", h.Profile)
	r.Put("/profile", h.UpdateProfile)
	r.Get("/appointments/current", h.CurrentAppointments)
	r.Get("/appointments/past", h.PastAppointments)
	r.Post("/appointments", h.BookAppointment)
	r.Put("/appointments/reschedule", h.RescheduleAppointment)
	r.Put("/appointments/{appointmentID}/cancel", h.CancelAppointment)
	r.Get("/medical-history", h.MedicalHistory)
	r.Get("/specializations", h.Specializations)
	r.Get("/specializations/{specializationID}/doctors", h.DoctorsBySpecialization)
	r.Get("/doctors/{doctorID}/calendar", h.DoctorCalendar)

	return r
}

// GET /api/patient/profile
func (h *PatientHandler) Profile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	patient, err := h.upstream.GetPatient(r.Context(), sess.Token, sess.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// PUT /api/patient/profile
func (h *PatientHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var patient model.Patient
	if err := decodeJSON(r, &patient); err != nil {
		writeError(w, err)
		return
	}
	patient.PatientID = sess.SubjectID

	updated, err := h.upstream.UpdatePatient(r.Context(), sess.Token, sess.SubjectID, patient)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// GET /api/patient/appointments/current
func (h *PatientHandler) CurrentAppointments(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	appts, err := h.upstream.PatientCurrentAppointments(r.Context(), sess.Token, sess.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	schedule.SortAppointments(appts)
	writeJSON(w, http.StatusOK, appts)
}

// GET /api/patient/appointments/past
func (h *PatientHandler) PastAppointments(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	from, to, err := dateRangeParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	appts, err := h.upstream.PatientPastAppointments(r.Context(), sess.Token, sess.SubjectID)
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

// POST /api/patient/appointments
//
// The portal pre-validates the selection against a freshly built calendar
// so the common conflicts fail fast with a precise error; the appointment
// service remains the final arbiter and its rejection wins.
func (h *PatientHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req model.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	// The session, not the payload, says who is booking.
	req.PatientID = sess.SubjectID

	if err := schedule.ValidateBookingRequest(req); err != nil {
		writeError(w, err)
		return
	}

	slot, err := h.resolveSlot(r, sess.Token, req.DoctorID, model.SlotSelection{
		Date:    req.Date,
		Session: req.Session,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	appt, err := h.upstream.BookAppointment(r.Context(), sess.Token, req)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventBookingCreate,
		SubjectID: sess.SubjectID,
		Role:      string(sess.Role),
		Details: map[string]interface{}{
			"doctor_id":       req.DoctorID,
			"date":            req.Date,
			"session":         string(req.Session),
			"availability_id": slot.AvailabilityID,
		},
	})
	writeJSON(w, http.StatusCreated, appt)
}

// PUT /api/patient/appointments/reschedule
func (h *PatientHandler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req model.RescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := schedule.ValidateRescheduleRequest(req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.resolveSlot(r, sess.Token, req.DoctorID, model.SlotSelection{
		Date:    req.NewDate,
		Session: req.NewSession,
	}); err != nil {
		writeError(w, err)
		return
	}

	appt, err := h.upstream.RescheduleAppointment(r.Context(), sess.Token, req)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventBookingMove,
		SubjectID: sess.SubjectID,
		Details: map[string]interface{}{
			"appointment_id": req.AppointmentID,
			"new_date":       req.NewDate,
			"new_session":    string(req.NewSession),
		},
	})
	writeJSON(w, http.StatusOK, appt)
}

// PUT /api/patient/appointments/{appointmentID}/cancel
func (h *PatientHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	appointmentID := chi.URLParam(r, "appointmentID")
	if appointmentID == "" {
		writeError(w, apperrors.MissingRequired("appointmentId"))
		return
	}

	if err := h.upstream.CancelAppointment(r.Context(), sess.Token, appointmentID); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventBookingCancel,
		SubjectID: sess.SubjectID,
		Details:   map[string]interface{}{"appointment_id": appointmentID},
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment cancelled"})
}

// GET /api/patient/medical-history
func (h *PatientHandler) MedicalHistory(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	records, err := h.upstream.PatientMedicalHistory(r.Context(), sess.Token, sess.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GET /api/patient/specializations
func (h *PatientHandler) Specializations(w http.ResponseWriter, r *http.Request) {
	specs, err := h.upstream.Specializations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, specs)
}

// GET /api/patient/specializations/{specializationID}/doctors
func (h *PatientHandler) DoctorsBySpecialization(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	specializationID := chi.URLParam(r, "specializationID")
	if specializationID == "" {
		writeError(w, apperrors.MissingRequired("specializationId"))
		return
	}

	doctors, err := h.upstream.DoctorsBySpecialization(r.Context(), sess.Token, specializationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doctors)
}

// GET /api/patient/doctors/{doctorID}/calendar
//
// The merged grid the booking page renders: one entry per day in the
// booking window, both half-day slots resolved.
func (h *PatientHandler) DoctorCalendar(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	doctorID := chi.URLParam(r, "doctorID")
	if doctorID == "" {
		writeError(w, apperrors.MissingRequired("doctorId"))
		return
	}

	calendar, err := h.buildCalendar(r, sess.Token, doctorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calendar)
}

func (h *PatientHandler) buildCalendar(r *http.Request, token, doctorID string) ([]model.DayEntry, error) {
	records, err := h.upstream.DoctorSchedule(r.Context(), token, doctorID)
	if err != nil {
		return nil, err
	}
	appts, err := h.upstream.DoctorCurrentAppointments(r.Context(), token, doctorID)
	if err != nil {
		return nil, err
	}
	windowStart := schedule.StartOfDay(h.now())
	return schedule.BuildCalendar(records, appts, windowStart, h.windowDays), nil
}

func (h *PatientHandler) resolveSlot(r *http.Request, token, doctorID string, sel model.SlotSelection) (model.Slot, error) {
	calendar, err := h.buildCalendar(r, token, doctorID)
	if err != nil {
		return model.Slot{}, err
	}
	return schedule.SelectSlot(calendar, sel)
}
