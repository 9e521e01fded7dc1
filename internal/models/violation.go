package models

import (
	"math"
	"time"
)

// SyncState отражает, подтвердил ли сервер получение записи.
type SyncState int

const (
	// SyncPending запись создана локально и ещё не принята сервером
	SyncPending SyncState = iota
	// SyncSynced сервер подтвердил приём (2xx); обратно в Pending не возвращается
	SyncSynced
)

// String returns the lowercase state name used in logs and the CLI.
func (s SyncState) String() string {
	switch s {
	case SyncPending:
		return "pending"
	case SyncSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// Violation представляет одно нарушение, зафиксированное на устройстве.
// LocalID присваивается хранилищем при вставке, CapturedAt и OwnerID неизменяемы.
type Violation struct {
	CapturedAt  time.Time `json:"captured_at"`         // время фиксации, задаётся при создании
	RemoteID    *int64    `json:"remote_id,omitempty"` // ID на сервере, пуст пока запись не синхронизирована
	Description string    `json:"description"`         // непустое описание
	OwnerID     string    `json:"owner_id"`            // ID пользователя (онлайн или из офлайн-кэша)
	SyncKey     string    `json:"sync_key"`            // UUID, отправляется как Idempotency-Key при загрузке
	Image       []byte    `json:"image,omitempty"`     // сжатый payload (см. imagecodec), может отсутствовать
	LocalID     int64     `json:"local_id"`            // локальный идентификатор
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	SyncState   SyncState `json:"sync_state"`
}

// HasImage reports whether the record carries a photo payload.
func (v *Violation) HasImage() bool {
	return len(v.Image) > 0
}

// IsSynced reports whether the server has acknowledged the record.
func (v *Violation) IsSynced() bool {
	return v.SyncState == SyncSynced
}

// Fingerprint returns the content fingerprint used by the deletion queue.
func (v *Violation) Fingerprint() Fingerprint {
	return Fingerprint{
		Description: v.Description,
		CapturedAt:  v.CapturedAt,
		Latitude:    v.Latitude,
		Longitude:   v.Longitude,
	}
}

// LatLng is a geographic point in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsFinite reports whether both coordinates are finite numbers.
func (p LatLng) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// Fingerprint идентифицирует запись по содержимому, а не по ID:
// в момент удаления у записи может ещё не быть RemoteID.
type Fingerprint struct {
	CapturedAt  time.Time `json:"captured_at"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
}

// Matches compares two fingerprints. Timestamps are compared at second
// precision in UTC because the server round-trips dates as RFC 3339.
// When withCoordinates is set, coordinates rounded to 6 decimals must match too.
func (f Fingerprint) Matches(other Fingerprint, withCoordinates bool) bool {
	if f.Description != other.Description {
		return false
	}
	if !f.CapturedAt.UTC().Truncate(time.Second).Equal(other.CapturedAt.UTC().Truncate(time.Second)) {
		return false
	}
	if withCoordinates {
		return round6(f.Latitude) == round6(other.Latitude) &&
			round6(f.Longitude) == round6(other.Longitude)
	}
	return true
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// DeletionEntry: намерение удалить запись, которое не удалось сразу
// подтвердить на сервере. Хранится в очереди до успешного удаления.
type DeletionEntry struct {
	QueuedAt    time.Time   `json:"queued_at"`
	Fingerprint Fingerprint `json:"fingerprint"`
	ID          uint64      `json:"id"`       // порядковый номер в очереди
	Attempts    int         `json:"attempts"` // сколько циклов синхронизации запись не нашлась/не удалилась
}

// RemoteViolation: запись в том виде, в каком её вернул сервер.
// Хранится в кэше удалённого представления, локальные Pending-записи не затрагивает.
type RemoteViolation struct {
	CapturedAt  time.Time `json:"captured_at"`
	Description string    `json:"description"`
	UserID      string    `json:"user_id"`
	ImageURL    string    `json:"image_url,omitempty"`
	ID          int64     `json:"id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

// Fingerprint returns the content fingerprint of the remote record.
func (r *RemoteViolation) Fingerprint() Fingerprint {
	return Fingerprint{
		Description: r.Description,
		CapturedAt:  r.CapturedAt,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
	}
}
