package storage

import (
	"context"

	"github.com/halcyon-studio/slotbook/libs/db"
)

// ExclusionConstraint keeps non-cancelled appointments from overlapping.
const ExclusionConstraint = "appointments_no_overlap"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS availability_settings (
	day_of_week SMALLINT PRIMARY KEY CHECK (day_of_week BETWEEN 0 AND 6),
	is_active BOOLEAN NOT NULL DEFAULT false,
	start_time TIME NOT NULL DEFAULT '09:00',
	end_time TIME NOT NULL DEFAULT '17:00',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT availability_settings_order CHECK (NOT is_active OR start_time < end_time)
);

INSERT INTO availability_settings (day_of_week, is_active, start_time, end_time)
VALUES (0, false, '09:00', '17:00'),
	(1, true, '09:00', '17:00'),
	(2, true, '09:00', '17:00'),
	(3, true, '09:00', '17:00'),
	(4, true, '09:00', '17:00'),
	(5, true, '09:00', '17:00'),
	(6, false, '09:00', '17:00')
ON CONFLICT (day_of_week) DO NOTHING;

CREATE TABLE IF NOT EXISTS appointments (
	id UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL DEFAULT 'confirmed' CHECK (status IN ('pending', 'confirmed', 'cancelled')),
	cancelled_at TIMESTAMPTZ,
	cancellation_reason TEXT,
	CONSTRAINT appointments_time_order CHECK (end_time > start_time),
	CONSTRAINT ` + ExclusionConstraint + ` EXCLUDE USING gist (
		tstzrange(start_time, end_time, '[)') WITH &&
	) WHERE (status <> 'cancelled')
);

CREATE INDEX IF NOT EXISTS idx_appointments_start ON appointments (start_time);

CREATE TABLE IF NOT EXISTS outbox_events (
	id BIGSERIAL PRIMARY KEY,
	event_id UUID NOT NULL UNIQUE,
	aggregate_type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	traceparent TEXT,
	tracestate TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_unpublished ON outbox_events (id) WHERE published_at IS NULL;
`

// Migrate creates the schema if missing. It is safe to run repeatedly.
func Migrate(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
