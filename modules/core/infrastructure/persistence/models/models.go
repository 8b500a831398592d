package models

import (
	"database/sql"
	"time"
)

type Tenant struct {
	ID        string
	Name      string
	Domain    sql.NullString
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID         string
	TenantID   string
	Email      string
	FirstName  string
	LastName   string
	Role       string
	EmployeeID sql.NullString
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type UserProperty struct {
	UserID     string
	PropertyID string
	CreatedAt  time.Time
}

type Session struct {
	Token     string
	TenantID  string
	UserID    string
	ExpiresAt time.Time
	IP        string
	UserAgent string
	CreatedAt time.Time
}

type Property struct {
	ID        string
	TenantID  string
	Name      string
	Timezone  string
	IsActive  bool
	CreatedAt time.Time
}
