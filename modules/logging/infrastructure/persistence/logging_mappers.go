package persistence

import (
	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/actionlog"
	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/authenticationlog"
	"github.com/lodgecrew/lodgecrew/modules/logging/infrastructure/persistence/models"
)

func toDBAuthenticationLog(log *authenticationlog.AuthenticationLog) *models.AuthenticationLog {
	return &models.AuthenticationLog{
		ID:        log.ID,
		TenantID:  log.TenantID.String(),
		UserID:    log.UserID.String(),
		Event:     log.Event,
		IP:        log.IP,
		UserAgent: log.UserAgent,
		CreatedAt: log.CreatedAt,
	}
}

func toDomainAuthenticationLog(dbLog *models.AuthenticationLog) *authenticationlog.AuthenticationLog {
	return &authenticationlog.AuthenticationLog{
		ID:        dbLog.ID,
		TenantID:  parseOrNil(dbLog.TenantID),
		UserID:    parseOrNil(dbLog.UserID),
		Event:     dbLog.Event,
		IP:        dbLog.IP,
		UserAgent: dbLog.UserAgent,
		CreatedAt: dbLog.CreatedAt,
	}
}

func toDBActionLog(log *actionlog.ActionLog) *models.ActionLog {
	var userID *string
	if log.UserID != nil {
		s := log.UserID.String()
		userID = &s
	}
	return &models.ActionLog{
		ID:        log.ID,
		TenantID:  log.TenantID.String(),
		UserID:    userID,
		Method:    log.Method,
		Path:      log.Path,
		Status:    log.Status,
		UserAgent: log.UserAgent,
		IP:        log.IP,
		CreatedAt: log.CreatedAt,
	}
}

func toDomainActionLog(dbLog *models.ActionLog) *actionlog.ActionLog {
	var userID *uuid.UUID
	if dbLog.UserID != nil {
		id := parseOrNil(*dbLog.UserID)
		userID = &id
	}
	return &actionlog.ActionLog{
		ID:        dbLog.ID,
		TenantID:  parseOrNil(dbLog.TenantID),
		UserID:    userID,
		Method:    dbLog.Method,
		Path:      dbLog.Path,
		Status:    dbLog.Status,
		UserAgent: dbLog.UserAgent,
		IP:        dbLog.IP,
		CreatedAt: dbLog.CreatedAt,
	}
}

func parseOrNil(v string) uuid.UUID {
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil
	}
	return id
}
