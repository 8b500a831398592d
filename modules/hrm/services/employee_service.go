package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/hrm/domain/aggregates/employee"
	"github.com/lodgecrew/lodgecrew/modules/hrm/permissions"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/eventbus"
)

type EmployeeService struct {
	repo           employee.Repository
	jobAssignments employee.JobAssignmentRepository
	publisher      eventbus.EventBus
}

func NewEmployeeService(
	repo employee.Repository,
	jobAssignments employee.JobAssignmentRepository,
	publisher eventbus.EventBus,
) *EmployeeService {
	return &EmployeeService{
		repo:           repo,
		jobAssignments: jobAssignments,
		publisher:      publisher,
	}
}

func (s *EmployeeService) Count(ctx context.Context) (int64, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (int64, error) {
		return s.repo.Count(txCtx)
	})
}

func (s *EmployeeService) GetAll(ctx context.Context) ([]employee.Employee, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]employee.Employee, error) {
		return s.repo.GetAll(txCtx)
	})
}

func (s *EmployeeService) GetByID(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (employee.Employee, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *EmployeeService) GetByProperty(ctx context.Context, propertyID uuid.UUID) ([]employee.Employee, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]employee.Employee, error) {
		return s.repo.GetByProperty(txCtx, propertyID)
	})
}

func (s *EmployeeService) Create(ctx context.Context, data *employee.CreateDTO) (employee.Employee, error) {
	if err := authorizeHRM(ctx, permissions.EmployeesManage); err != nil {
		return employee.Employee{}, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (employee.Employee, error) {
		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return employee.Employee{}, err
		}
		entity, err := data.ToEntity(tenantID)
		if err != nil {
			return employee.Employee{}, err
		}
		created, err := s.repo.Create(txCtx, entity)
		if err != nil {
			return employee.Employee{}, err
		}
		ev, err := employee.NewCreatedEvent(txCtx, *data, created)
		if err != nil {
			return employee.Employee{}, err
		}
		s.publisher.Publish(ev)
		return created, nil
	})
}

func (s *EmployeeService) Update(ctx context.Context, id uuid.UUID, data *employee.UpdateDTO) (employee.Employee, error) {
	if err := authorizeHRM(ctx, permissions.EmployeesManage); err != nil {
		return employee.Employee{}, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (employee.Employee, error) {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return employee.Employee{}, err
		}
		updated, err := data.Apply(entity)
		if err != nil {
			return employee.Employee{}, err
		}
		if err := s.repo.Update(txCtx, updated); err != nil {
			return employee.Employee{}, err
		}
		ev, err := employee.NewUpdatedEvent(txCtx, updated)
		if err != nil {
			return employee.Employee{}, err
		}
		s.publisher.Publish(ev)
		return updated, nil
	})
}

func (s *EmployeeService) Delete(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	if err := authorizeHRM(ctx, permissions.EmployeesManage); err != nil {
		return employee.Employee{}, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (employee.Employee, error) {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return employee.Employee{}, err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return employee.Employee{}, err
		}
		ev, err := employee.NewDeletedEvent(txCtx, entity)
		if err != nil {
			return employee.Employee{}, err
		}
		s.publisher.Publish(ev)
		return entity, nil
	})
}

func (s *EmployeeService) JobAssignments(ctx context.Context, employeeID uuid.UUID) ([]employee.JobAssignment, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]employee.JobAssignment, error) {
		return s.jobAssignments.GetByEmployee(txCtx, employeeID)
	})
}

func (s *EmployeeService) AssignJobRole(ctx context.Context, employeeID, jobRoleID uuid.UUID, startDate time.Time, endDate *time.Time) error {
	if err := authorizeHRM(ctx, permissions.EmployeesManage); err != nil {
		return err
	}
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, employeeID); err != nil {
			return err
		}
		return s.jobAssignments.Assign(txCtx, employee.JobAssignment{
			EmployeeID: employeeID,
			JobRoleID:  jobRoleID,
			StartDate:  startDate,
			EndDate:    endDate,
		})
	})
}

func (s *EmployeeService) EndJobRole(ctx context.Context, employeeID, jobRoleID uuid.UUID, endDate time.Time) error {
	if err := authorizeHRM(ctx, permissions.EmployeesManage); err != nil {
		return err
	}
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.jobAssignments.End(txCtx, employeeID, jobRoleID, endDate)
	})
}
