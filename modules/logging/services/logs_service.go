package services

import (
	"context"
	"errors"

	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/actionlog"
	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/authenticationlog"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

// LogsService reads the audit trail. Writes come in through the session
// subscriber and the request middleware, so only the read paths carry the
// viewer guard.
type LogsService struct {
	authRepo   authenticationlog.Repository
	actionRepo actionlog.Repository
}

func NewLogsService(
	authRepo authenticationlog.Repository,
	actionRepo actionlog.Repository,
) *LogsService {
	return &LogsService{authRepo: authRepo, actionRepo: actionRepo}
}

// ListAuthenticationLogs returns one page of login and logout records plus
// the total matching count.
func (s *LogsService) ListAuthenticationLogs(
	ctx context.Context,
	params *authenticationlog.FindParams,
) ([]*authenticationlog.AuthenticationLog, int64, error) {
	if err := authorizeLogging(ctx); err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = &authenticationlog.FindParams{}
	}

	var total int64
	logs, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*authenticationlog.AuthenticationLog, error) {
		items, err := s.authRepo.List(txCtx, params)
		if err != nil {
			return nil, err
		}
		total, err = s.authRepo.Count(txCtx, params)
		return items, err
	})
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// ListActionLogs returns one page of recorded mutating requests plus the
// total matching count.
func (s *LogsService) ListActionLogs(
	ctx context.Context,
	params *actionlog.FindParams,
) ([]*actionlog.ActionLog, int64, error) {
	if err := authorizeLogging(ctx); err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = &actionlog.FindParams{}
	}

	var total int64
	logs, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*actionlog.ActionLog, error) {
		items, err := s.actionRepo.List(txCtx, params)
		if err != nil {
			return nil, err
		}
		total, err = s.actionRepo.Count(txCtx, params)
		return items, err
	})
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (s *LogsService) CreateAuthenticationLog(ctx context.Context, log *authenticationlog.AuthenticationLog) error {
	if log == nil {
		return errors.New("authentication log payload is required")
	}
	return s.authRepo.Create(ctx, log)
}

func (s *LogsService) CreateActionLog(ctx context.Context, log *actionlog.ActionLog) error {
	if log == nil {
		return errors.New("action log payload is required")
	}
	return s.actionRepo.Create(ctx, log)
}
