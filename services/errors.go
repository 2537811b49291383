package services

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy shared by the auth and request services. Handlers map these
// to status codes; messages are shown to the user as-is.
var (
	ErrInvalidCredentials = errors.New("اسم المستخدم أو كلمة المرور غير صحيحة")
	ErrUsernameTaken      = errors.New("اسم المستخدم موجود بالفعل")
	ErrNoChanges          = errors.New("لا توجد تغييرات للحفظ")
	ErrTimeout            = errors.New("Request timed out. Please retry.")
	ErrNotFound           = errors.New("not found")
)

// StoreError is an opaque passthrough from the database. Nothing retries it;
// the user re-clicks.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// fetchErr maps a bounded query failure: a blown deadline surfaces as
// ErrTimeout, distinct from whatever the store reported.
func fetchErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return &StoreError{Op: op, Err: err}
}
