package logx

// Transition returns the fields every assignment lifecycle line carries, then extra.
// The event value is what log pipelines key on: job_offered, job_claimed and so on.
func Transition(event, assignmentID, bookingID, driverID string, extra ...Field) []Field {
	fields := make([]Field, 0, 4+len(extra))
	fields = append(fields,
		String("event", event),
		String("assignment_id", assignmentID),
		String("booking_id", bookingID),
		String("driver_id", driverID),
	)
	return append(fields, extra...)
}
