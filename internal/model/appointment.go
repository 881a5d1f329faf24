package model

// Appointment mirrors the appointment record owned by the remote
// appointment service. Dates travel as yyyy-MM-dd strings on the wire.
type Appointment struct {
	AppointmentID  string            `json:"appointmentId"`
	PatientID      string            `json:"patientId"`
	DoctorID       string            `json:"doctorId"`
	Date           string            `json:"appointmentDate"`
	Session        HalfDay           `json:"session"`
	Status         AppointmentStatus `json:"status"`
	AvailabilityID string            `json:"availabilityId,omitempty"`
	PatientName    string            `json:"patientName,omitempty"`
	DoctorName     string            `json:"doctorName,omitempty"`
	Specialization string            `json:"specializationName,omitempty"`
}

// BookingRequest is the payload submitted to book a new appointment.
type BookingRequest struct {
	Date               string  `json:"appointmentDate"`
	Session            HalfDay `json:"session"`
	PatientID          string  `json:"patientId"`
	DoctorID           string  `json:"doctorId"`
	SpecializationName string  `json:"specializationName,omitempty"`
	SpecializationID   string  `json:"specializationId,omitempty"`
}

// RescheduleRequest moves an existing appointment to a new slot.
type RescheduleRequest struct {
	AppointmentID string  `json:"appointmentId"`
	DoctorID      string  `json:"doctorId"`
	NewDate       string  `json:"newAppointmentDate"`
	NewSession    HalfDay `json:"newSession"`
}

// VisitRecord is the medical outcome a doctor attaches when marking an
// appointment completed. Completion is rejected without one.
type VisitRecord struct {
	AppointmentID string `json:"appointmentId"`
	PatientID     string `json:"patientId,omitempty"`
	Diagnosis     string `json:"diagnosis"`
	Treatment     string `json:"treatment"`
	Medications   string `json:"medications"`
	BloodPressure string `json:"bloodPressure,omitempty"`
	HeartRate     string `json:"heartRate,omitempty"`
	Temperature   string `json:"temperature,omitempty"`
}
