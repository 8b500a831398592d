package employee

import (
	"time"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/pkg/constants"
)

type CreateDTO struct {
	PropertyID uuid.UUID `validate:"required"`
	FirstName  string    `validate:"required"`
	LastName   string    `validate:"required"`
	Email      string    `validate:"required,email"`
	HiredAt    time.Time
}

func (d *CreateDTO) Ok() error {
	return constants.Validate.Struct(d)
}

func (d *CreateDTO) ToEntity(tenantID uuid.UUID) (Employee, error) {
	if err := d.Ok(); err != nil {
		return Employee{}, err
	}
	e := New(tenantID, d.PropertyID, d.FirstName, d.LastName, d.Email)
	if !d.HiredAt.IsZero() {
		e = e.WithHiredAt(d.HiredAt)
	}
	return e, nil
}

type UpdateDTO struct {
	FirstName string
	LastName  string
	Status    Status
}

func (d *UpdateDTO) Apply(e Employee) (Employee, error) {
	if d.FirstName != "" || d.LastName != "" {
		first, last := e.FirstName(), e.LastName()
		if d.FirstName != "" {
			first = d.FirstName
		}
		if d.LastName != "" {
			last = d.LastName
		}
		e = e.WithName(first, last)
	}
	if d.Status != "" {
		if d.Status != StatusActive && d.Status != StatusInactive {
			return Employee{}, ErrInvalidStatus
		}
		e = e.WithStatus(d.Status)
	}
	return e, nil
}
