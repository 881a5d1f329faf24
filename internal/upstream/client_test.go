package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hams/portal-server-go/internal/config"
	apperrors "github.com/hams/portal-server-go/internal/errors"
	"github.com/hams/portal-server-go/internal/model"
)

func newTestClient(url string) *Client {
	return NewClient(&config.Config{
		UserServiceURL:         url,
		DoctorServiceURL:       url,
		NotificationServiceURL: url,
		UpstreamTimeoutSeconds: 5,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func TestCallEnvelopeHandling(t *testing.T) {
	t.Run("success envelope decodes data and forwards the bearer token", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			data, _ := json.Marshal([]model.Appointment{{AppointmentID: "ap-1"}})
			writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: data})
		}))
		defer srv.Close()

		appts, err := newTestClient(srv.URL).PatientCurrentAppointments(context.Background(), "tok-123", "p-1")
		require.NoError(t, err)
		require.Len(t, appts, 1)
		assert.Equal(t, "ap-1", appts[0].AppointmentID)
		assert.Equal(t, "Bearer tok-123", gotAuth)
	})

	t.Run("success=false is a rejection carrying the nested message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := json.Marshal(map[string]string{"message": "slot already booked"})
			writeEnvelope(w, http.StatusConflict, Envelope{Success: false, Message: "booking failed", Data: data})
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).BookAppointment(context.Background(), "tok", model.BookingRequest{})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRemoteRejected))
		assert.Contains(t, err.Error(), "slot already booked")
	})

	t.Run("success=false without nested data falls back to the top-level message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, Envelope{Success: false, Message: "appointment not found"})
		}))
		defer srv.Close()

		err := newTestClient(srv.URL).CancelAppointment(context.Background(), "tok", "ap-404")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRemoteRejected))
		assert.Contains(t, err.Error(), "appointment not found")
	})

	t.Run("non-envelope error status is a remote failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).DoctorSchedule(context.Background(), "tok", "d-1")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRemoteFailure))
	})

	t.Run("transport error is a remote failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused

		_, err := newTestClient(srv.URL).DoctorSchedule(context.Background(), "tok", "d-1")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRemoteFailure))
	})
}

func TestLogin(t *testing.T) {
	t.Run("successful login returns the raw token text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/users/login", r.URL.Path)
			var req loginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "pat@example.com", req.Email)
			assert.Equal(t, "secret", req.Password)
			assert.Equal(t, model.RolePatient, req.Role.RoleName)
			w.Write([]byte("header.payload.signature\n"))
		}))
		defer srv.Close()

		token, err := newTestClient(srv.URL).Login(context.Background(), "pat@example.com", "secret", model.RolePatient)
		require.NoError(t, err)
		assert.Equal(t, "header.payload.signature", token)
	})

	t.Run("401 with envelope surfaces the service message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusUnauthorized, Envelope{Success: false, Message: "Invalid email or password"})
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Login(context.Background(), "pat@example.com", "wrong", model.RolePatient)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))
		assert.Contains(t, err.Error(), "Invalid email or password")
	})

	t.Run("empty token body is a remote failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("  \n"))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Login(context.Background(), "pat@example.com", "secret", model.RolePatient)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRemoteFailure))
	})
}

// The hospital splits its API across three hosts: the user-side gateway
// carries login, registration, profiles and every patient appointment
// operation; the doctor service carries availability and doctor
// appointment operations; the notification service only answers the
// mark-all call. Each client call must land on its host.
func TestServiceBaseRouting(t *testing.T) {
	newBase := func(name string, hits *[]string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*hits = append(*hits, name+" "+r.URL.Path)
			writeEnvelope(w, http.StatusOK, Envelope{Success: true})
		}))
	}

	var hits []string
	userSrv := newBase("user", &hits)
	defer userSrv.Close()
	doctorSrv := newBase("doctor", &hits)
	defer doctorSrv.Close()
	noteSrv := newBase("notification", &hits)
	defer noteSrv.Close()

	client := NewClient(&config.Config{
		UserServiceURL:         userSrv.URL,
		DoctorServiceURL:       doctorSrv.URL,
		NotificationServiceURL: noteSrv.URL,
		UpstreamTimeoutSeconds: 5,
	})
	ctx := context.Background()

	_ = client.RegisterPatient(ctx, model.RegisterPatientRequest{})
	_, _ = client.BookAppointment(ctx, "tok", model.BookingRequest{})
	_, _ = client.RescheduleAppointment(ctx, "tok", model.RescheduleRequest{})
	_ = client.CancelAppointment(ctx, "tok", "ap-1")
	_, _ = client.PatientCurrentAppointments(ctx, "tok", "p-1")
	_, _ = client.PatientPastAppointments(ctx, "tok", "p-1")
	_, _ = client.PatientMedicalHistory(ctx, "tok", "p-1")
	_, _ = client.Notifications(ctx, "tok", "p-1", model.RolePatient)
	_ = client.MarkNotificationRead(ctx, "tok", "n-1")
	_, _ = client.DoctorSchedule(ctx, "tok", "d-1")
	_, _ = client.FilterDoctorSchedule(ctx, "tok", "d-1", "2026-03-02", "2026-03-09")
	_, _ = client.Notifications(ctx, "tok", "d-1", model.RoleDoctor)
	_, _ = client.PatientHistoryForDoctor(ctx, "tok", "p-1")
	_, _ = client.FilterPatientHistory(ctx, "tok", "p-1", "2026-03-02", "2026-03-09")
	_, _ = client.DoctorMedicalHistory(ctx, "tok", "d-1")
	_ = client.MarkAllNotificationsRead(ctx, "tok", "p-1")

	assert.Equal(t, []string{
		"user /api/users/register/patient",
		"user /api/patients/bookAppointment",
		"user /api/patients/rescheduleAppointment",
		"user /api/patients/cancelAppointment/ap-1",
		"user /api/patients/current/patient/p-1",
		"user /api/patients/past/patient/p-1",
		"user /api/patients/medicalHistory/p-1",
		"user /api/patients/notifications/p-1",
		"user /api/patients/notifications/markAsRead/n-1",
		"doctor /api/doctorAvailability/getSchedule/d-1",
		"doctor /api/doctorAvailability/filterSchedule/2026-03-02/2026-03-09/d-1",
		"doctor /api/doctors/notifications/d-1",
		"doctor /api/doctors/medical-history/patient/p-1",
		"doctor /api/doctors/filterByDate/2026-03-02/2026-03-09/p-1",
		"doctor /api/doctors/medical-history/doctor/d-1",
		"notification /notification/markAllAsRead/p-1",
	}, hits)
}

func TestNotifications(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := json.Marshal([]model.Notification{{NotificationID: "n-1", Read: false}})
		writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: data})
	}))
	defer srv.Close()

	notes, err := newTestClient(srv.URL).Notifications(context.Background(), "tok", "u-1", model.RolePatient)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "n-1", notes[0].NotificationID)
	assert.Equal(t, "/api/patients/notifications/u-1", gotPath)

	_, err = newTestClient(srv.URL).Notifications(context.Background(), "tok", "d-1", model.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, "/api/doctors/notifications/d-1", gotPath)
}
