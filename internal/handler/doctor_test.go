package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hams/portal-server-go/internal/model"
	"github.com/hams/portal-server-go/internal/upstream"
)

func TestDoctorPastAppointmentFilters(t *testing.T) {
	past := []model.Appointment{
		{AppointmentID: "ap-1", DoctorID: "d-1", Date: "2026-03-04", Session: model.HalfDayForenoon, Status: model.AppointmentCompleted},
		{AppointmentID: "ap-2", DoctorID: "d-1", Date: "2026-03-02", Session: model.HalfDayAfternoon, Status: model.AppointmentCancelled},
		{AppointmentID: "ap-3", DoctorID: "d-1", Date: "2026-03-10", Session: model.HalfDayForenoon, Status: model.AppointmentCompleted},
	}

	hospital := newFakeHospital(t, nil, nil)
	hospital.mux.HandleFunc("GET /api/doctors/past/appointments/", func(w http.ResponseWriter, r *http.Request) {
		raw, err := json.Marshal(past)
		require.NoError(t, err)
		json.NewEncoder(w).Encode(upstream.Envelope{Success: true, Data: raw})
	})
	env := newTestEnv(t, hospital.mux)
	cookie := env.authenticate(t, "d-1", "ROLE_DOCTOR")

	get := func(target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.AddCookie(cookie)
		return env.do(req)
	}

	t.Run("unfiltered list comes back sorted", func(t *testing.T) {
		rec := get("/api/doctor/appointments/past")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		appts := decodeBody[[]model.Appointment](t, rec)
		require.Len(t, appts, 3)
		assert.Equal(t, "ap-2", appts[0].AppointmentID)
		assert.Equal(t, "ap-1", appts[1].AppointmentID)
		assert.Equal(t, "ap-3", appts[2].AppointmentID)
	})

	t.Run("date range narrows the list", func(t *testing.T) {
		rec := get("/api/doctor/appointments/past?startDate=2026-03-03&endDate=2026-03-09")
		require.Equal(t, http.StatusOK, rec.Code)
		appts := decodeBody[[]model.Appointment](t, rec)
		require.Len(t, appts, 1)
		assert.Equal(t, "ap-1", appts[0].AppointmentID)
	})

	t.Run("status narrows within the range", func(t *testing.T) {
		rec := get("/api/doctor/appointments/past?startDate=2026-03-01&endDate=2026-03-31&status=CANCELLED")
		require.Equal(t, http.StatusOK, rec.Code)
		appts := decodeBody[[]model.Appointment](t, rec)
		require.Len(t, appts, 1)
		assert.Equal(t, "ap-2", appts[0].AppointmentID)
	})

	t.Run("a lone startDate is refused", func(t *testing.T) {
		rec := get("/api/doctor/appointments/past?startDate=2026-03-03")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "both startDate and endDate")
	})

	t.Run("a malformed endDate is refused", func(t *testing.T) {
		rec := get("/api/doctor/appointments/past?startDate=2026-03-03&endDate=03-09-2026")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "endDate")
	})
}

func TestDoctorMedicalHistory(t *testing.T) {
	own := []model.MedicalRecord{
		{RecordID: "mr-1", AppointmentID: "ap-1", DoctorID: "d-1", Diagnosis: "flu"},
		{RecordID: "mr-2", AppointmentID: "ap-2", DoctorID: "d-1", Diagnosis: "sprain"},
	}
	filtered := []model.MedicalRecord{own[0]}

	var ownHits, filterHits int
	hospital := newFakeHospital(t, nil, nil)
	hospital.mux.HandleFunc("GET /api/doctors/medical-history/doctor/", func(w http.ResponseWriter, r *http.Request) {
		ownHits++
		raw, _ := json.Marshal(own)
		json.NewEncoder(w).Encode(upstream.Envelope{Success: true, Data: raw})
	})
	hospital.mux.HandleFunc("GET /api/doctors/medical-history/patient/", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := json.Marshal(own)
		json.NewEncoder(w).Encode(upstream.Envelope{Success: true, Data: raw})
	})
	hospital.mux.HandleFunc("GET /api/doctors/filterByDate/", func(w http.ResponseWriter, r *http.Request) {
		filterHits++
		assert.Equal(t, "/api/doctors/filterByDate/2026-03-01/2026-03-05/p-1", r.URL.Path)
		raw, _ := json.Marshal(filtered)
		json.NewEncoder(w).Encode(upstream.Envelope{Success: true, Data: raw})
	})
	env := newTestEnv(t, hospital.mux)
	cookie := env.authenticate(t, "d-1", "ROLE_DOCTOR")

	get := func(target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.AddCookie(cookie)
		return env.do(req)
	}

	t.Run("doctor sees every record they wrote", func(t *testing.T) {
		rec := get("/api/doctor/medical-history")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		records := decodeBody[[]model.MedicalRecord](t, rec)
		require.Len(t, records, 2)
		assert.Equal(t, 1, ownHits)
	})

	t.Run("patient history with a range uses the filtered lookup", func(t *testing.T) {
		rec := get("/api/doctor/patients/p-1/history?startDate=2026-03-01&endDate=2026-03-05")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		records := decodeBody[[]model.MedicalRecord](t, rec)
		require.Len(t, records, 1)
		assert.Equal(t, "mr-1", records[0].RecordID)
		assert.Equal(t, 1, filterHits)
	})
}
