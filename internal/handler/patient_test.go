package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hams/portal-server-go/internal/model"
	"github.com/hams/portal-server-go/internal/upstream"
)

func dateOffset(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

// fakeHospital stubs the doctor and appointment services behind one mux.
type fakeHospital struct {
	mux      *http.ServeMux
	booked   []model.BookingRequest
	bookFail string // when set, bookAppointment answers success=false with this message
}

func newFakeHospital(t *testing.T, records []model.AvailabilityRecord, appts []model.Appointment) *fakeHospital {
	t.Helper()
	f := &fakeHospital{mux: http.NewServeMux()}

	envelope := func(w http.ResponseWriter, data any) {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		json.NewEncoder(w).Encode(upstream.Envelope{Success: true, Data: raw})
	}

	f.mux.HandleFunc("GET /api/doctorAvailability/getSchedule/", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, records)
	})
	f.mux.HandleFunc("GET /api/doctors/current/appointments/", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, appts)
	})
	f.mux.HandleFunc("POST /api/patients/bookAppointment", func(w http.ResponseWriter, r *http.Request) {
		var req model.BookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if f.bookFail != "" {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(upstream.Envelope{Success: false, Message: f.bookFail})
			return
		}
		f.booked = append(f.booked, req)
		envelope(w, model.Appointment{
			AppointmentID: "ap-new",
			PatientID:     req.PatientID,
			DoctorID:      req.DoctorID,
			Date:          req.Date,
			Session:       req.Session,
			Status:        model.AppointmentScheduled,
		})
	})

	return f
}

func TestBookingFlow(t *testing.T) {
	records := []model.AvailabilityRecord{
		{AvailabilityID: "av-1", DoctorID: "d-1", Date: dateOffset(1), Session: model.HalfDayForenoon, IsAvailable: 0},
	}
	appts := []model.Appointment{
		{AppointmentID: "ap-1", DoctorID: "d-1", Date: dateOffset(2), Session: model.HalfDayForenoon, Status: model.AppointmentScheduled},
	}

	book := func(env *testEnv, cookie *http.Cookie, date string, session model.HalfDay) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/patient/appointments",
			jsonBody(t, model.BookingRequest{Date: date, Session: session, DoctorID: "d-1", SpecializationID: "s-1"}))
		req.AddCookie(cookie)
		return env.do(req)
	}

	t.Run("available slot books and carries the session patient id", func(t *testing.T) {
		hospital := newFakeHospital(t, records, appts)
		env := newTestEnv(t, hospital.mux)
		cookie := env.authenticate(t, "p-1", "ROLE_PATIENT")

		rec := book(env, cookie, dateOffset(3), model.HalfDayForenoon)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		appt := decodeBody[model.Appointment](t, rec)
		assert.Equal(t, "ap-new", appt.AppointmentID)
		require.Len(t, hospital.booked, 1)
		assert.Equal(t, "p-1", hospital.booked[0].PatientID)
	})

	t.Run("slot with a scheduled appointment is refused locally", func(t *testing.T) {
		hospital := newFakeHospital(t, records, appts)
		env := newTestEnv(t, hospital.mux)
		cookie := env.authenticate(t, "p-1", "ROLE_PATIENT")

		rec := book(env, cookie, dateOffset(2), model.HalfDayForenoon)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "SLOT_UNAVAILABLE")
		assert.Empty(t, hospital.booked)
	})

	t.Run("toggled-off slot is refused locally", func(t *testing.T) {
		hospital := newFakeHospital(t, records, appts)
		env := newTestEnv(t, hospital.mux)
		cookie := env.authenticate(t, "p-1", "ROLE_PATIENT")

		rec := book(env, cookie, dateOffset(1), model.HalfDayForenoon)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Empty(t, hospital.booked)
	})

	t.Run("missing session half-day is an incomplete selection", func(t *testing.T) {
		hospital := newFakeHospital(t, records, appts)
		env := newTestEnv(t, hospital.mux)
		cookie := env.authenticate(t, "p-1", "ROLE_PATIENT")

		rec := book(env, cookie, dateOffset(3), "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INCOMPLETE_SELECTION")
	})

	t.Run("remote rejection wins over local optimism", func(t *testing.T) {
		hospital := newFakeHospital(t, records, appts)
		hospital.bookFail = "Slot was booked a moment ago"
		env := newTestEnv(t, hospital.mux)
		cookie := env.authenticate(t, "p-1", "ROLE_PATIENT")

		rec := book(env, cookie, dateOffset(3), model.HalfDayForenoon)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Slot was booked a moment ago")
	})
}

func TestDoctorCalendar(t *testing.T) {
	records := []model.AvailabilityRecord{
		{AvailabilityID: "av-1", DoctorID: "d-1", Date: dateOffset(0), Session: model.HalfDayAfternoon, IsAvailable: 0},
	}
	appts := []model.Appointment{
		{AppointmentID: "ap-1", DoctorID: "d-1", Date: dateOffset(0), Session: model.HalfDayForenoon, Status: model.AppointmentScheduled},
	}
	hospital := newFakeHospital(t, records, appts)
	env := newTestEnv(t, hospital.mux)
	cookie := env.authenticate(t, "p-1", "ROLE_PATIENT")

	req := httptest.NewRequest(http.MethodGet, "/api/patient/doctors/d-1/calendar", nil)
	req.AddCookie(cookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	calendar := decodeBody[[]model.DayEntry](t, rec)
	require.Len(t, calendar, env.cfg.BookingWindowDays)
	assert.Equal(t, model.SlotBooked, calendar[0].Forenoon.State)
	assert.Equal(t, model.SlotUnavailable, calendar[0].Afternoon.State)
	assert.Equal(t, model.SlotAvailable, calendar[1].Forenoon.State)
}
