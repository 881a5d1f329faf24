package upstream

import (
	"context"
	"net/http"

	"github.com/hams/portal-server-go/internal/model"
)

// Patient appointment operations all travel through the user-side
// gateway, which fronts the appointment service for patients.

// BookAppointment submits a booking. The appointment service has the final
// word on slot availability; a double-booked slot comes back as a
// rejection with the service's message.
func (c *Client) BookAppointment(ctx context.Context, token string, req model.BookingRequest) (*model.Appointment, error) {
	var appt model.Appointment
	err := c.call(ctx, userService, http.MethodPost,
		c.userBase+"/api/patients/bookAppointment", token, req, &appt)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// RescheduleAppointment moves an existing appointment to a new slot.
func (c *Client) RescheduleAppointment(ctx context.Context, token string, req model.RescheduleRequest) (*model.Appointment, error) {
	var appt model.Appointment
	err := c.call(ctx, userService, http.MethodPut,
		c.userBase+"/api/patients/rescheduleAppointment", token, req, &appt)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// CancelAppointment cancels a patient's scheduled appointment.
func (c *Client) CancelAppointment(ctx context.Context, token, appointmentID string) error {
	return c.call(ctx, userService, http.MethodPut,
		c.userBase+"/api/patients/cancelAppointment/"+appointmentID, token, nil, nil)
}

// PatientCurrentAppointments lists a patient's upcoming scheduled
// appointments.
func (c *Client) PatientCurrentAppointments(ctx context.Context, token, patientID string) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := c.call(ctx, userService, http.MethodGet,
		c.userBase+"/api/patients/current/patient/"+patientID, token, nil, &appts)
	return appts, err
}

// PatientPastAppointments lists a patient's completed and cancelled
// appointments.
func (c *Client) PatientPastAppointments(ctx context.Context, token, patientID string) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := c.call(ctx, userService, http.MethodGet,
		c.userBase+"/api/patients/past/patient/"+patientID, token, nil, &appts)
	return appts, err
}

// PatientMedicalHistory lists the visit records attached to a patient's
// completed appointments.
func (c *Client) PatientMedicalHistory(ctx context.Context, token, patientID string) ([]model.MedicalRecord, error) {
	var records []model.MedicalRecord
	err := c.call(ctx, userService, http.MethodGet,
		c.userBase+"/api/patients/medicalHistory/"+patientID, token, nil, &records)
	return records, err
}
