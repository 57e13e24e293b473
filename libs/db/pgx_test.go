package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorClassification(t *testing.T) {
	excl := fmt.Errorf("insert appointment: %w", &pgconn.PgError{Code: CodeExclusionViolation})
	if !IsExclusionViolation(excl) {
		t.Fatal("expected wrapped 23P01 to be an exclusion violation")
	}
	if IsUniqueViolation(excl) {
		t.Fatal("23P01 is not a unique violation")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: CodeUniqueViolation}) {
		t.Fatal("expected 23505 to be a unique violation")
	}
	if IsExclusionViolation(errors.New("boom")) {
		t.Fatal("plain errors must not classify")
	}
	if !IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)) {
		t.Fatal("expected wrapped ErrNoRows to be not found")
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{MinConns: 50}.withDefaults()
	if o.MaxConns != 10 || o.MinConns != 1 {
		t.Fatalf("unexpected defaults: %+v", o)
	}
	if o.MaxConnLifetime == 0 || o.MaxConnIdleTime == 0 {
		t.Fatalf("lifetimes must be defaulted: %+v", o)
	}
}
