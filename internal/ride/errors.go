package ride

// ValidationError reports client input that fails a required-field or
// range check. No mutation has happened when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports a ride id with no record behind it.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return "ride " + e.ID + " not found" }
