package api

import "time"

// OfflineLogin: запись о входе, подтверждённом только на устройстве
type OfflineLogin struct {
	At      time.Time `json:"at"`
	LocalID string    `json:"localId"`
	Email   string    `json:"email"`
	UserID  string    `json:"userId"`
}

// SyncLoginsRequest тело POST /sync/logins
type SyncLoginsRequest struct {
	Logins []OfflineLogin `json:"logins"`
}

// SyncLoginsResponse ответ на POST /sync/logins
type SyncLoginsResponse struct {
	Accepted int `json:"accepted"` // сколько записей сервер принял (повторы по localId не считаются)
}
