package storage

import (
	"errors"
	"testing"

	"github.com/halcyon-studio/slotbook/libs/db"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/booking"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestInsertError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		overlap bool
		dup     bool
	}{
		{name: "exclusion", err: &pgconn.PgError{Code: db.CodeExclusionViolation}, overlap: true},
		{name: "unique", err: &pgconn.PgError{Code: db.CodeUniqueViolation, ConstraintName: "appointments_pkey"}, dup: true},
		{name: "other", err: errors.New("connection reset")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := insertError("a1", tc.err)
			if errors.Is(got, booking.ErrOverlapRejected) != tc.overlap {
				t.Fatalf("overlap classification wrong for %v", got)
			}
			if errors.Is(got, ErrDuplicateID) != tc.dup {
				t.Fatalf("duplicate classification wrong for %v", got)
			}
		})
	}
}
