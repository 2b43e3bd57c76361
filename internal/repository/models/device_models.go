package models

import "time"

type Device struct {
	ID       int64    `db:"id"`
	Name     string   `db:"name"`
	Type     string   `db:"type"`
	Status   bool     `db:"status"`
	Setpoint *float64 `db:"setpoint"`
}

type UsageReading struct {
	ID         int64     `db:"id"`
	DeviceID   int64     `db:"device_id"`
	RecordedAt time.Time `db:"recorded_at"`
	UsageValue float64   `db:"usage_value"`
}

type UsageTotal struct {
	Total float64
	Count int64
}
