package model

// Patient is the per-role profile served by the patient service.
type Patient struct {
	PatientID      string `json:"patientId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	DateOfBirth    string `json:"dateOfBirth,omitempty"`
	Gender         string `json:"gender,omitempty"`
	ContactDetails string `json:"contactDetails,omitempty"`
	HeightInCm     string `json:"heightInCm,omitempty"`
	WeightInKg     string `json:"weightInKg,omitempty"`
}

type Doctor struct {
	DoctorID         string `json:"doctorId"`
	Name             string `json:"name"`
	SpecializationID string `json:"specializationId,omitempty"`
	Email            string `json:"email,omitempty"`
}

type Specialization struct {
	SpecializationID   string `json:"specializationId"`
	SpecializationName string `json:"specializationName"`
}

// RegisterPatientRequest is the sign-up payload forwarded to the user
// service. The password travels under the passwordHash field name the
// remote contract uses.
type RegisterPatientRequest struct {
	RoleID         string `json:"roleId,omitempty"`
	Email          string `json:"email"`
	Password       string `json:"passwordHash"`
	Name           string `json:"name"`
	DateOfBirth    string `json:"dateOfBirth"`
	ContactDetails string `json:"contactDetails"`
	Gender         string `json:"gender"`
}

type Notification struct {
	NotificationID string `json:"notificationId"`
	UserID         string `json:"userId,omitempty"`
	Message        string `json:"message"`
	Read           bool   `json:"read"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// MedicalRecord is one completed-visit entry in a patient's history.
type MedicalRecord struct {
	RecordID      string `json:"recordId,omitempty"`
	AppointmentID string `json:"appointmentId"`
	PatientID     string `json:"patientId,omitempty"`
	DoctorID      string `json:"doctorId,omitempty"`
	Date          string `json:"date,omitempty"`
	Diagnosis     string `json:"diagnosis"`
	Treatment     string `json:"treatment"`
	Medications   string `json:"medications"`
	BloodPressure string `json:"bloodPressure,omitempty"`
	HeartRate     string `json:"heartRate,omitempty"`
	Temperature   string `json:"temperature,omitempty"`
}
