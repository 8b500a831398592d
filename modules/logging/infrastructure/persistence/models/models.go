package models

import "time"

type AuthenticationLog struct {
	ID        uint
	TenantID  string
	UserID    string
	Event     string
	IP        string
	UserAgent string
	CreatedAt time.Time
}

type ActionLog struct {
	ID        uint
	TenantID  string
	UserID    *string
	Method    string
	Path      string
	Status    int
	UserAgent string
	IP        string
	CreatedAt time.Time
}
