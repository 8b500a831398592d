package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/actionlog"
	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/authenticationlog"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/repo"
)

func tenantTxCtx(tenantID uuid.UUID, tx repo.Tx) context.Context {
	return composables.WithTx(composables.WithTenantID(context.Background(), tenantID), tx)
}

// queryStub wires a Query interception: check sees the rendered SQL and args,
// rows is what the repository scans.
func queryStub(check func(sql string, args []any), rows *stubRows) *stubTx {
	return &stubTx{
		queryFunc: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
			check(sql, args)
			return rows, nil
		},
	}
}

// countStub wires a QueryRow interception that scans n into the single
// destination.
func countStub(check func(sql string, args []any), n int64) *stubTx {
	return &stubTx{
		queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
			check(sql, args)
			return stubRow{scan: func(dest ...any) error {
				*dest[0].(*int64) = n
				return nil
			}}
		},
	}
}

// insertStub wires a QueryRow interception for the RETURNING id, created_at
// shape both log inserts use. The created_at argument at position tsArg is
// echoed back.
func insertStub(check func(sql string, args []any), id uint, tsArg int) *stubTx {
	return &stubTx{
		queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
			check(sql, args)
			createdAt := args[tsArg].(time.Time)
			return stubRow{scan: func(dest ...any) error {
				*dest[0].(*uint) = id
				*dest[1].(*time.Time) = createdAt
				return nil
			}}
		},
	}
}

func TestAuthenticationLogRepository_List_ScopesToTenantAndMaps(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	tx := queryStub(func(sql string, args []any) {
		require.Contains(t, sql, "FROM authentication_logs")
		require.Contains(t, sql, "LIMIT 10 OFFSET 5")
		require.Equal(t, tenantID, args[0])
	}, &stubRows{data: [][]any{
		{uint(1), tenantID.String(), userID.String(), "logout", "127.0.0.1", "ua", now},
	}})

	result, err := NewAuthenticationLogRepository().List(
		tenantTxCtx(tenantID, tx),
		&authenticationlog.FindParams{Limit: 10, Offset: 5},
	)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, tenantID, result[0].TenantID)
	require.Equal(t, userID, result[0].UserID)
	require.Equal(t, authenticationlog.EventLogout, result[0].Event)
	require.Equal(t, now, result[0].CreatedAt)
}

func TestAuthenticationLogRepository_List_FiltersByEvent(t *testing.T) {
	tenantID := uuid.New()

	tx := queryStub(func(sql string, args []any) {
		require.Contains(t, sql, "event = $2")
		require.Equal(t, tenantID, args[0])
		require.Equal(t, authenticationlog.EventLogin, args[1])
	}, &stubRows{})

	result, err := NewAuthenticationLogRepository().List(
		tenantTxCtx(tenantID, tx),
		&authenticationlog.FindParams{Event: authenticationlog.EventLogin},
	)
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestAuthenticationLogRepository_Count_ScopesToTenant(t *testing.T) {
	tenantID := uuid.New()

	tx := countStub(func(sql string, args []any) {
		require.Contains(t, sql, "authentication_logs")
		require.Equal(t, tenantID, args[0])
	}, 3)

	count, err := NewAuthenticationLogRepository().Count(tenantTxCtx(tenantID, tx), nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
}

func TestAuthenticationLogRepository_Create_StampsDefaults(t *testing.T) {
	tenantID := uuid.New()

	tx := insertStub(func(sql string, args []any) {
		require.Contains(t, sql, "INSERT INTO authentication_logs")
		require.Equal(t, tenantID.String(), args[0])
		require.Equal(t, authenticationlog.EventLogin, args[2], "missing event defaults to login")
		require.Equal(t, "127.0.0.1", args[3])
	}, 11, 5)

	logEntry := &authenticationlog.AuthenticationLog{
		UserID:    uuid.New(),
		IP:        "127.0.0.1",
		UserAgent: "ua",
	}
	require.NoError(t, NewAuthenticationLogRepository().Create(tenantTxCtx(tenantID, tx), logEntry))
	require.Equal(t, tenantID, logEntry.TenantID)
	require.NotZero(t, logEntry.CreatedAt)
}

func TestActionLogRepository_List_ScopesToTenantAndMaps(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New().String()
	now := time.Now()

	tx := queryStub(func(sql string, args []any) {
		require.Contains(t, sql, "FROM action_logs")
		require.Equal(t, tenantID, args[0])
	}, &stubRows{data: [][]any{
		{uint(7), tenantID.String(), &userID, "POST", "/api/scheduling/v2/swap-requests", 201, "ua", "1.1.1.1", now},
	}})

	result, err := NewActionLogRepository().List(tenantTxCtx(tenantID, tx), &actionlog.FindParams{Limit: 5})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, tenantID, result[0].TenantID)
	require.Equal(t, "POST", result[0].Method)
	require.Equal(t, "/api/scheduling/v2/swap-requests", result[0].Path)
	require.Equal(t, 201, result[0].Status)
	require.Equal(t, now, result[0].CreatedAt)
	require.NotNil(t, result[0].UserID)
	require.Equal(t, userID, result[0].UserID.String())
}

func TestActionLogRepository_List_FiltersByStatus(t *testing.T) {
	tenantID := uuid.New()
	conflict := 409

	tx := queryStub(func(sql string, args []any) {
		require.Contains(t, sql, "status = $2")
		require.Equal(t, tenantID, args[0])
		require.Equal(t, conflict, args[1])
	}, &stubRows{})

	result, err := NewActionLogRepository().List(tenantTxCtx(tenantID, tx), &actionlog.FindParams{Status: &conflict})
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestActionLogRepository_Count_ScopesToTenant(t *testing.T) {
	tenantID := uuid.New()

	tx := countStub(func(sql string, args []any) {
		require.Contains(t, sql, "action_logs")
		require.Equal(t, tenantID, args[0])
	}, 8)

	count, err := NewActionLogRepository().Count(tenantTxCtx(tenantID, tx), nil)
	require.NoError(t, err)
	require.Equal(t, int64(8), count)
}

func TestActionLogRepository_Create_StampsTenantAndTime(t *testing.T) {
	tenantID := uuid.New()

	tx := insertStub(func(sql string, args []any) {
		require.Contains(t, sql, "INSERT INTO action_logs")
		require.Equal(t, tenantID.String(), args[0])
		require.Equal(t, "POST", args[1])
		require.Equal(t, "/api/scheduling/v2/shifts", args[2])
		require.Equal(t, 409, args[3])
	}, 55, 7)

	logEntry := &actionlog.ActionLog{
		Method:    "POST",
		Path:      "/api/scheduling/v2/shifts",
		Status:    409,
		UserAgent: "ua",
		IP:        "1.1.1.1",
	}
	require.NoError(t, NewActionLogRepository().Create(tenantTxCtx(tenantID, tx), logEntry))
	require.Equal(t, tenantID, logEntry.TenantID)
	require.NotZero(t, logEntry.CreatedAt)
}

type stubTx struct {
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.queryFunc == nil {
		return nil, errors.New("query not implemented")
	}
	return s.queryFunc(ctx, sql, args...)
}

func (s *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.queryRowFunc == nil {
		return stubRow{scan: func(dest ...any) error { return errors.New("query row not implemented") }}
	}
	return s.queryRowFunc(ctx, sql, args...)
}

type stubRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *stubRows) Next() bool {
	r.idx++
	return r.idx <= len(r.data)
}

func (r *stubRows) current() ([]any, error) {
	if r.idx < 1 || r.idx > len(r.data) {
		return nil, errors.New("no current row")
	}
	return r.data[r.idx-1], nil
}

func (r *stubRows) Scan(dest ...any) error {
	row, err := r.current()
	if err != nil {
		return err
	}
	if len(dest) != len(row) {
		return fmt.Errorf("scan destinations: got %d, row has %d", len(dest), len(row))
	}
	for i, target := range dest {
		if err := assignValue(target, row[i]); err != nil {
			return err
		}
	}
	return nil
}

func assignValue(target, value any) error {
	switch v := target.(type) {
	case *uint:
		*v = value.(uint)
	case *int:
		*v = value.(int)
	case *string:
		*v = value.(string)
	case **string:
		*v = value.(*string)
	case *time.Time:
		*v = value.(time.Time)
	default:
		return fmt.Errorf("unsupported scan target %T", target)
	}
	return nil
}

func (r *stubRows) Values() ([]any, error) {
	return r.current()
}

func (r *stubRows) RawValues() [][]byte { return nil }
func (r *stubRows) Err() error          { return r.err }
func (r *stubRows) Close()              {}
func (r *stubRows) CommandTag() pgconn.CommandTag {
	return pgconn.CommandTag{}
}
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return errors.New("scan not implemented")
	}
	return r.scan(dest...)
}
