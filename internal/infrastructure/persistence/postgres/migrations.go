// Package postgres implements the PostgreSQL persistence layer.
package postgres

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_members",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_attendance",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_practice_events",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_instructors",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE MEMBERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create members table
-- Version: 001

CREATE TABLE IF NOT EXISTS members (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    phone VARCHAR(20) NOT NULL DEFAULT '',
    phone_last4 CHAR(4) NOT NULL DEFAULT '',
    language VARCHAR(5) NOT NULL DEFAULT 'ko',
    membership_type VARCHAR(20) NOT NULL,
    credits INTEGER NOT NULL DEFAULT 0,
    attendance_count INTEGER NOT NULL DEFAULT 0,
    streak INTEGER NOT NULL DEFAULT 0,
    -- Civil dates in Asia/Seoul, YYYY-MM-DD. start_date may be the
    -- literal 'TBD' until the first check-in fixes it.
    start_date VARCHAR(10) NOT NULL DEFAULT 'TBD',
    end_date VARCHAR(10) NOT NULL DEFAULT '',
    last_attendance_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_membership_type CHECK (
        membership_type IN ('monthly', 'quarterly', 'half_year', 'yearly')
    ),
    CONSTRAINT valid_language CHECK (language IN ('ko', 'en', 'ru', 'zh', 'ja'))
);

-- The kiosk lookup runs on the last four phone digits
CREATE INDEX IF NOT EXISTS idx_members_phone_last4 ON members(phone_last4);

-- Expiry sweep and anomaly count
CREATE INDEX IF NOT EXISTS idx_members_end_date ON members(end_date) WHERE end_date != '';
CREATE INDEX IF NOT EXISTS idx_members_negative_credits ON members(credits) WHERE credits < 0;
CREATE INDEX IF NOT EXISTS idx_members_created_at ON members(created_at);
`

const migration001Down = `
DROP TABLE IF EXISTS members;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ATTENDANCE
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create attendance table
-- Version: 002

-- Append-only attendance log. Denied check-ins are recorded too, with
-- status = 'denied' and the refusal reason; they never touch the member row.
CREATE TABLE IF NOT EXISTS attendance (
    id UUID PRIMARY KEY,
    member_id VARCHAR(64) NOT NULL,
    member_name VARCHAR(100) NOT NULL DEFAULT '',
    branch_id VARCHAR(64) NOT NULL,
    class_name VARCHAR(100) NOT NULL,
    instructor VARCHAR(100) NOT NULL DEFAULT '',
    class_time VARCHAR(20) NOT NULL DEFAULT '',
    date VARCHAR(10) NOT NULL,
    ts TIMESTAMP WITH TIME ZONE NOT NULL,
    session_number INTEGER NOT NULL DEFAULT 1,
    status VARCHAR(10) NOT NULL DEFAULT 'attended',
    denial_reason VARCHAR(20) NOT NULL DEFAULT '',
    streak_at_time INTEGER NOT NULL DEFAULT 0,
    credits_before INTEGER NOT NULL DEFAULT 0,

    CONSTRAINT valid_status CHECK (status IN ('attended', 'denied')),
    CONSTRAINT valid_denial_reason CHECK (denial_reason IN ('', 'expired', 'no_credits')),
    CONSTRAINT valid_session_number CHECK (session_number >= 1)
);

-- History reads: member's records before/on a date, newest first
CREATE INDEX IF NOT EXISTS idx_attendance_member_date ON attendance(member_id, date DESC);
CREATE INDEX IF NOT EXISTS idx_attendance_member_ts ON attendance(member_id, ts DESC);

-- Same-session counting for session_number
CREATE INDEX IF NOT EXISTS idx_attendance_session ON attendance(member_id, date, class_name);

-- Daily report
CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date);
`

const migration002Down = `
DROP TABLE IF EXISTS attendance;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE PRACTICE EVENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create practice_events table
-- Version: 003

CREATE TABLE IF NOT EXISTS practice_events (
    id UUID PRIMARY KEY,
    member_id VARCHAR(64) NOT NULL,
    attendance_id UUID NOT NULL,
    type VARCHAR(30) NOT NULL,
    gap_days INTEGER NOT NULL DEFAULT 0,
    streak INTEGER NOT NULL DEFAULT 0,
    time_band VARCHAR(10) NOT NULL,
    previous_time_band VARCHAR(10) NOT NULL DEFAULT '',
    shift_details VARCHAR(50) NOT NULL DEFAULT '',
    display_message TEXT NOT NULL,
    triggered_at TIMESTAMP WITH TIME ZONE NOT NULL,

    CONSTRAINT valid_type CHECK (
        type IN ('FLOW_MAINTAINED', 'GAP_DETECTED', 'FLOW_RESUMED', 'PATTERN_SHIFTED')
    ),
    CONSTRAINT valid_time_band CHECK (
        time_band IN ('morning', 'afternoon', 'evening', 'night')
    )
);

CREATE INDEX IF NOT EXISTS idx_practice_events_member ON practice_events(member_id, triggered_at DESC);
CREATE INDEX IF NOT EXISTS idx_practice_events_attendance ON practice_events(attendance_id);
`

const migration003Down = `
DROP TABLE IF EXISTS practice_events;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE INSTRUCTORS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create instructors table
-- Version: 004

CREATE TABLE IF NOT EXISTS instructors (
    name VARCHAR(100) PRIMARY KEY,
    pin_hash VARCHAR(100) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration004Down = `
DROP TABLE IF EXISTS instructors;
`
