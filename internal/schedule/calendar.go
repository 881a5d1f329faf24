// Package schedule derives the bookable calendar grid from the two remote
// data sets that describe a doctor's time: availability toggle records and
// existing appointments. Everything here is pure computation over inputs;
// the remote services stay the source of truth and the final arbiter of
// every booking.
package schedule

import (
	"sort"
	"time"

	"github.com/hams/portal-server-go/internal/config"
	apperrors "github.com/hams/portal-server-go/internal/errors"
	"github.com/hams/portal-server-go/internal/model"
)

type halfDayKey struct {
	date    string
	session model.HalfDay
}

// BuildCalendar merges availability records and appointments into one
// day-by-day grid covering windowDays days starting at windowStart.
//
// Resolution order per (date, half-day) cell:
//  1. A SCHEDULED appointment forces the cell to booked. Appointments are
//     ground truth and override whatever the toggle record says.
//  2. A toggle record with IsAvailable != 1 makes the cell unavailable.
//  3. Otherwise the cell is available. Dates with no record at all default
//     to available; absence of a toggle means the doctor never opted out.
//
// The function is pure: same inputs, same grid, no matter how often it runs.
func BuildCalendar(records []model.AvailabilityRecord, appointments []model.Appointment, windowStart time.Time, windowDays int) []model.DayEntry {
	recordByKey := make(map[halfDayKey]model.AvailabilityRecord, len(records))
	for _, r := range records {
		recordByKey[halfDayKey{r.Date, r.Session}] = r
	}

	booked := make(map[halfDayKey]bool, len(appointments))
	for _, a := range appointments {
		if a.Status == model.AppointmentScheduled {
			booked[halfDayKey{a.Date, a.Session}] = true
		}
	}

	resolve := func(date string, session model.HalfDay) model.Slot {
		key := halfDayKey{date, session}
		slot := model.Slot{State: model.SlotAvailable}
		if r, ok := recordByKey[key]; ok {
			slot.AvailabilityID = r.AvailabilityID
			if r.IsAvailable != 1 {
				slot.State = model.SlotUnavailable
			}
		}
		if booked[key] {
			slot.State = model.SlotBooked
		}
		return slot
	}

	entries := make([]model.DayEntry, 0, windowDays)
	for i := 0; i < windowDays; i++ {
		date := windowStart.AddDate(0, 0, i).Format(config.DateFormat)
		entries = append(entries, model.DayEntry{
			Date:      date,
			Forenoon:  resolve(date, model.HalfDayForenoon),
			Afternoon: resolve(date, model.HalfDayAfternoon),
		})
	}
	return entries
}

// SelectSlot resolves a (date, half-day) pick against a built calendar.
// An empty date or session is an incomplete selection, a date outside the
// calendar window or a cell that is not available is unavailable. Only a
// selection that lands on an available cell comes back.
func SelectSlot(calendar []model.DayEntry, sel model.SlotSelection) (model.Slot, error) {
	if sel.Date == "" {
		return model.Slot{}, apperrors.IncompleteSelection("date")
	}
	if sel.Session == "" {
		return model.Slot{}, apperrors.IncompleteSelection("session")
	}
	if !sel.Session.Valid() {
		return model.Slot{}, apperrors.ValidationError("session must be FN or AN")
	}

	for _, day := range calendar {
		if day.Date != sel.Date {
			continue
		}
		slot := day.Forenoon
		if sel.Session == model.HalfDayAfternoon {
			slot = day.Afternoon
		}
		if slot.State != model.SlotAvailable {
			return model.Slot{}, apperrors.SlotUnavailable(sel.Date, string(sel.Session))
		}
		return slot, nil
	}
	return model.Slot{}, apperrors.SlotUnavailable(sel.Date, string(sel.Session))
}

// ValidateBookingRequest checks a booking payload before it is sent
// upstream. The remote appointment service re-validates everything; this
// only rejects requests that could never succeed.
func ValidateBookingRequest(req model.BookingRequest) error {
	if req.PatientID == "" {
		return apperrors.MissingRequired("patientId")
	}
	if req.SpecializationID == "" {
		return apperrors.IncompleteSelection("specialization")
	}
	if req.DoctorID == "" {
		return apperrors.IncompleteSelection("doctor")
	}
	if req.Date == "" {
		return apperrors.IncompleteSelection("date")
	}
	if req.Session == "" {
		return apperrors.IncompleteSelection("session")
	}
	if !req.Session.Valid() {
		return apperrors.ValidationError("session must be FN or AN")
	}
	if _, err := time.Parse(config.DateFormat, req.Date); err != nil {
		return apperrors.ValidationError("appointmentDate must be yyyy-MM-dd").WithCause(err)
	}
	return nil
}

// ValidateRescheduleRequest checks a reschedule payload the same way.
func ValidateRescheduleRequest(req model.RescheduleRequest) error {
	if req.AppointmentID == "" {
		return apperrors.IncompleteSelection("appointment")
	}
	if req.DoctorID == "" {
		return apperrors.IncompleteSelection("doctor")
	}
	if req.NewDate == "" {
		return apperrors.IncompleteSelection("date")
	}
	if req.NewSession == "" {
		return apperrors.IncompleteSelection("session")
	}
	if !req.NewSession.Valid() {
		return apperrors.ValidationError("newSession must be FN or AN")
	}
	if _, err := time.Parse(config.DateFormat, req.NewDate); err != nil {
		return apperrors.ValidationError("newAppointmentDate must be yyyy-MM-dd").WithCause(err)
	}
	return nil
}

// SortAppointments orders appointments chronologically: ascending by date,
// forenoon before afternoon within a day. The sort is stable so equal slots
// keep their upstream order.
func SortAppointments(appointments []model.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		if appointments[i].Date != appointments[j].Date {
			return appointments[i].Date < appointments[j].Date
		}
		return appointments[i].Session.Order() < appointments[j].Session.Order()
	})
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FilterByDateRange keeps only appointments with a date inside the
// inclusive [start, end] range. Dates compare lexicographically because
// they are yyyy-MM-dd.
func FilterByDateRange(appointments []model.Appointment, start, end string) []model.Appointment {
	out := make([]model.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if a.Date >= start && a.Date <= end {
			out = append(out, a)
		}
	}
	return out
}

// FilterByStatus keeps only appointments with the given status.
func FilterByStatus(appointments []model.Appointment, status model.AppointmentStatus) []model.Appointment {
	out := make([]model.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

// FilterByDate keeps only appointments on the given yyyy-MM-dd date.
func FilterByDate(appointments []model.Appointment, date string) []model.Appointment {
	out := make([]model.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}
