package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lodgecrew/lodgecrew/modules/hrm/domain/aggregates/employee"
	"github.com/lodgecrew/lodgecrew/modules/hrm/permissions"
)

type mockEmployeeRepo struct {
	called bool
}

func (m *mockEmployeeRepo) mark() { m.called = true }
func (m *mockEmployeeRepo) Count(ctx context.Context) (int64, error) {
	m.mark()
	return 0, nil
}
func (m *mockEmployeeRepo) GetAll(ctx context.Context) ([]employee.Employee, error) {
	m.mark()
	return nil, nil
}
func (m *mockEmployeeRepo) GetByID(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	m.mark()
	return employee.Employee{}, nil
}
func (m *mockEmployeeRepo) GetByProperty(ctx context.Context, propertyID uuid.UUID) ([]employee.Employee, error) {
	m.mark()
	return nil, nil
}
func (m *mockEmployeeRepo) Create(ctx context.Context, data employee.Employee) (employee.Employee, error) {
	m.mark()
	return data, nil
}
func (m *mockEmployeeRepo) Update(ctx context.Context, data employee.Employee) error {
	m.mark()
	return nil
}
func (m *mockEmployeeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mark()
	return nil
}

type mockJobAssignmentRepo struct {
	called bool
}

func (m *mockJobAssignmentRepo) GetByEmployee(ctx context.Context, employeeID uuid.UUID) ([]employee.JobAssignment, error) {
	m.called = true
	return nil, nil
}
func (m *mockJobAssignmentRepo) Assign(ctx context.Context, a employee.JobAssignment) error {
	m.called = true
	return nil
}
func (m *mockJobAssignmentRepo) End(ctx context.Context, employeeID, jobRoleID uuid.UUID, endDate time.Time) error {
	m.called = true
	return nil
}

type stubPublisher struct{}

func (s *stubPublisher) Publish(args ...interface{})     {}
func (s *stubPublisher) Subscribe(handler interface{})   {}
func (s *stubPublisher) Unsubscribe(handler interface{}) {}
func (s *stubPublisher) Clear()                          {}
func (s *stubPublisher) SubscribersCount() int           { return 0 }

func TestEmployeeService_AuthorizeCreateDenied(t *testing.T) {
	t.Cleanup(func() { authorizeHRMFn = defaultAuthorizeHRM })

	repo := &mockEmployeeRepo{}
	svc := NewEmployeeService(repo, &mockJobAssignmentRepo{}, &stubPublisher{})

	authorizeHRMFn = func(ctx context.Context, scope string) error {
		require.Equal(t, permissions.EmployeesManage, scope)
		return errors.New("forbidden")
	}

	_, err := svc.Create(context.Background(), &employee.CreateDTO{})
	require.Error(t, err)
	require.False(t, repo.called, "repository should not be called when authorization fails")
}

func TestEmployeeService_AuthorizeUpdateDenied(t *testing.T) {
	t.Cleanup(func() { authorizeHRMFn = defaultAuthorizeHRM })

	repo := &mockEmployeeRepo{}
	svc := NewEmployeeService(repo, &mockJobAssignmentRepo{}, &stubPublisher{})

	authorizeHRMFn = func(ctx context.Context, scope string) error {
		require.Equal(t, permissions.EmployeesManage, scope)
		return errors.New("forbidden")
	}

	_, err := svc.Update(context.Background(), uuid.New(), &employee.UpdateDTO{})
	require.Error(t, err)
	require.False(t, repo.called, "repository should not be called when authorization fails")
}

func TestEmployeeService_AuthorizeAssignJobRoleDenied(t *testing.T) {
	t.Cleanup(func() { authorizeHRMFn = defaultAuthorizeHRM })

	repo := &mockEmployeeRepo{}
	assignments := &mockJobAssignmentRepo{}
	svc := NewEmployeeService(repo, assignments, &stubPublisher{})

	authorizeHRMFn = func(ctx context.Context, scope string) error {
		return errors.New("forbidden")
	}

	err := svc.AssignJobRole(context.Background(), uuid.New(), uuid.New(), time.Now(), nil)
	require.Error(t, err)
	require.False(t, assignments.called, "repository should not be called when authorization fails")
}
