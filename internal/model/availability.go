package model

// AvailabilityRecord is one per-day, per-half-day toggle row owned by the
// doctor service. IsAvailable is 0/1 on the wire.
type AvailabilityRecord struct {
	AvailabilityID   string  `json:"availabilityId"`
	DoctorID         string  `json:"doctorId"`
	SpecializationID string  `json:"specializationId,omitempty"`
	Date             string  `json:"availableDate"`
	Session          HalfDay `json:"session"`
	IsAvailable      int     `json:"isAvailable"`
}

// Slot is one derived cell of the merged calendar grid. AvailabilityID is
// empty for dates with no underlying toggle record.
type Slot struct {
	State          SlotState `json:"state"`
	AvailabilityID string    `json:"availabilityId,omitempty"`
}

// DayEntry is one calendar day with both half-day slots resolved.
type DayEntry struct {
	Date      string `json:"date"`
	Forenoon  Slot   `json:"forenoon"`
	Afternoon Slot   `json:"afternoon"`
}

// SlotSelection is a validated (date, half-day) pick from the calendar.
type SlotSelection struct {
	Date    string  `json:"date"`
	Session HalfDay `json:"session"`
}
