package upstream

import (
	"context"
	"net/http"

	"github.com/hams/portal-server-go/internal/model"
)

const doctorService = "doctor-service"

// DoctorSchedule fetches a doctor's availability toggle records.
func (c *Client) DoctorSchedule(ctx context.Context, token, doctorID string) ([]model.AvailabilityRecord, error) {
	var records []model.AvailabilityRecord
	err := c.call(ctx, doctorService, http.MethodGet,
		c.doctorBase+"/api/doctorAvailability/getSchedule/"+doctorID, token, nil, &records)
	return records, err
}

// FilterDoctorSchedule fetches availability records within a date range.
// Dates travel as yyyy-MM-dd path segments.
func (c *Client) FilterDoctorSchedule(ctx context.Context, token, doctorID, from, to string) ([]model.AvailabilityRecord, error) {
	var records []model.AvailabilityRecord
	err := c.call(ctx, doctorService, http.MethodGet,
		c.doctorBase+"/api/doctorAvailability/filterSchedule/"+from+"/"+to+"/"+doctorID, token, nil, &records)
	return records, err
}

// ToggleAvailability flips one half-day toggle record.
func (c *Client) ToggleAvailability(ctx context.Context, token, availabilityID string) (*model.AvailabilityRecord, error) {
	var record model.AvailabilityRecord
	err := c.call(ctx, doctorService, http.MethodPut,
		c.doctorBase+"/api/doctorAvailability/toggle/"+availabilityID, token, nil, &record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DoctorCurrentAppointments lists a doctor's upcoming scheduled
// appointments.
func (c *Client) DoctorCurrentAppointments(ctx context.Context, token, doctorID string) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := c.call(ctx, doctorService, http.MethodGet,
		c.doctorBase+"/api/doctors/current/appointments/"+doctorID, token, nil, &appts)
	return appts, err
}

// DoctorPastAppointments lists a doctor's completed and cancelled
// appointments.
func (c *Client) DoctorPastAppointments(ctx context.Context, token, doctorID string) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := c.call(ctx, doctorService, http.MethodGet,
		c.doctorBase+"/api/doctors/past/appointments/"+doctorID, token, nil, &appts)
	return appts, err
}

// CompleteAppointment marks an appointment completed with its visit
// record. The service rejects completion without one.
func (c *Client) CompleteAppointment(ctx context.Context, token string, visit model.VisitRecord) error {
	return c.call(ctx, doctorService, http.MethodPut,
		c.doctorBase+"/api/doctors/markAsCompleted", token, visit, nil)
}

// DoctorCancelAppointment cancels an appointment on the doctor's side.
func (c *Client) DoctorCancelAppointment(ctx context.Context, token, appointmentID string) error {
	return c.call(ctx, doctorService, http.MethodPut,
		c.doctorBase+"/api/doctors/cancel/"+appointmentID, token, nil, nil)
}

// DoctorsBySpecialization lists the doctors holding a specialization.
func (c *Client) DoctorsBySpecialization(ctx context.Context, token, specializationID string) ([]model.Doctor, error) {
	var doctors []model.Doctor
	err := c.call(ctx, doctorService, http.MethodGet,
		c.doctorBase+"/api/doctors/specialization/id/"+specializationID, token, nil, &doctors)
	return doctors, err
}

// Specializations lists all specializations. Public; no token needed.
func (c *Client) Specializations(ctx context.Context) ([]model.Specialization, error) {
	var specs []model.Specialization
	err := c.call(ctx, doctorService, http.MethodGet,
		c.doctorBase+"/specialization/getAll", "", nil, &specs)
	return specs, err
}

// PatientHistoryForDoctor lets a treating doctor read a patient's visit
// records.
func (c *Client) PatientHistoryForDoctor(ctx context.Context, token, patientID string) ([]model.MedicalRecord, error) {
	var records []model.MedicalRecord
	err := c.call(ctx, doctorService, http.MethodGet,
		c.doctorBase+"/api/doctors/medical-history/patient/"+patientID, token, nil, &records)
	return records, err
}

// FilterPatientHistory narrows a patient's visit records to a date
// range. Dates travel as yyyy-MM-dd path segments.
func (c *Client) FilterPatientHistory(ctx context.Context, token, patientID, from, to string) ([]model.MedicalRecord, error) {
	var records []model.MedicalRecord
	err := c.call(ctx, doctorService, http.MethodGet,
		c.doctorBase+"/api/doctors/filterByDate/"+from+"/"+to+"/"+patientID, token, nil, &records)
	return records, err
}

// DoctorMedicalHistory lists every visit record the doctor has written.
func (c *Client) DoctorMedicalHistory(ctx context.Context, token, doctorID string) ([]model.MedicalRecord, error) {
	var records []model.MedicalRecord
	err := c.call(ctx, doctorService, http.MethodGet,
		c.doctorBase+"/api/doctors/medical-history/doctor/"+doctorID, token, nil, &records)
	return records, err
}
