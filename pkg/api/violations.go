package api

import "time"

// Multipart form field names for POST /violations.
const (
	FieldDescription = "description"
	FieldLatitude    = "latitude"
	FieldLongitude   = "longitude"
	FieldDate        = "date"
	FieldImage       = "image"
)

// HeaderIdempotencyKey carries the client-side sync key of a record.
// The server returns the same id for repeated uploads with the same key.
const HeaderIdempotencyKey = "Idempotency-Key"

// Violation представляет нарушение в том виде, в каком его отдаёт сервер
type Violation struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	UserID      string    `json:"userId"`
	ImageURL    string    `json:"imageUrl,omitempty"` // относительный или абсолютный URL фото
	ID          int64     `json:"id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

// CreateViolationResponse ответ на POST /violations
type CreateViolationResponse struct {
	ID int64 `json:"id"`
}
