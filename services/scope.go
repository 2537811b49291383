package services

// Scope filters a list fetch: by status, by submitting teacher, or neither
// ("all"). Limit caps the result count when positive.
type Scope struct {
	Status    string
	TeacherID uint
	Limit     int
}
