package model

// Role is the wire value carried in the login token's role claim. The
// remote login service is the authority; the role a user picks on the
// sign-in form is only a hint.
type Role string

const (
	RolePatient Role = "ROLE_PATIENT"
	RoleDoctor  Role = "ROLE_DOCTOR"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// HalfDay is the half-day unit a slot or appointment occupies.
// FN (forenoon) always orders before AN (afternoon).
type HalfDay string

const (
	HalfDayForenoon  HalfDay = "FN"
	HalfDayAfternoon HalfDay = "AN"
)

func (h HalfDay) Valid() bool {
	return h == HalfDayForenoon || h == HalfDayAfternoon
}

// Order returns the intra-day sort rank of the half-day.
func (h HalfDay) Order() int {
	if h == HalfDayForenoon {
		return 0
	}
	return 1
}

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// SlotState is the derived state of a (date, half-day) cell in the
// availability grid. An existing appointment always wins over the raw
// availability toggle.
type SlotState string

const (
	SlotAvailable   SlotState = "available"
	SlotUnavailable SlotState = "unavailable"
	SlotBooked      SlotState = "booked"
)

// SessionState is the portal's belief about a browser session.
type SessionState string

const (
	// SessionLoggedOut means no credential is held. An expired session
	// collapses to this state once the expiry notice has been shown.
	SessionLoggedOut SessionState = "logged_out"
	// SessionAuthenticated means a decoded, unexpired credential is held.
	SessionAuthenticated SessionState = "authenticated"
	// SessionExpired is observably different from logged-out only for
	// one-time user messaging.
	SessionExpired SessionState = "expired"
)
