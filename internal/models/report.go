package models

import "time"

// Report: нарушение, принятое сервером
type Report struct {
	CapturedAt     time.Time
	CreatedAt      time.Time
	UserID         string
	Description    string
	IdempotencyKey string // ключ повторной загрузки, может быть пустым
	ImageType      string // MIME тип фото
	Image          []byte // только для GetReport; списки фото не читают
	ID             int64
	Latitude       float64
	Longitude      float64
	HasImage       bool
}

// LoginEvent: вход, подтверждённый клиентом офлайн и доставленный позже
type LoginEvent struct {
	At         time.Time
	ReceivedAt time.Time
	LocalID    string
	UserID     string
	Email      string
}
