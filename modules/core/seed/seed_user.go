package seed

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/modules/core/infrastructure/persistence"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
)

type userSeeder struct {
	user user.User
}

// UserSeedFunc returns a get-or-create seed for the given account. The
// account's tenant must already be bound to the context.
func UserSeedFunc(usr user.User) application.SeedFunc {
	s := &userSeeder{user: usr}
	return s.CreateUser
}

func (s *userSeeder) CreateUser(ctx context.Context, app application.Application) error {
	userRepository := persistence.NewUserRepository()
	logger := configuration.Use().Logger()

	found, err := userRepository.GetByEmail(ctx, s.user.Email())
	if err != nil && !errors.Is(err, persistence.ErrUserNotFound) {
		return err
	}
	if found != nil {
		logger.Infof("User %s already exists", s.user.Email())
		return nil
	}

	logger.Infof("Creating user %s", s.user.Email())
	_, err = userRepository.Create(ctx, s.user)
	return err
}
