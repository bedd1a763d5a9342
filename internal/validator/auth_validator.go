package validator

import (
	"context"
	"errors"
	"fmt"

	"merkado/internal/domain/model"
	"merkado/internal/repository"
	"merkado/internal/usecase"

	"github.com/go-playground/validator/v10"
)

// EmailLookup は登録時の重複確認に使う
type EmailLookup interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type authValidator struct {
	users EmailLookup
	v     *validator.Validate
}

func NewAuthValidator(users EmailLookup) usecase.AuthValidator {
	return &authValidator{users: users, v: newValidate()}
}

// タグ検証のあとにemail重複を見る。DBの一意制約でも最終的に弾かれる
func (a *authValidator) ValidateRegister(ctx context.Context, req usecase.AuthRegisterRequest) error {
	if err := validateStruct(a.v, req); err != nil {
		return err
	}

	u, err := a.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil && u != nil:
		return fmt.Errorf("%w: email already registered", usecase.ErrConflict)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return usecase.ErrInternal
	}
	return nil
}

func (a *authValidator) ValidateLogin(ctx context.Context, req usecase.AuthLoginRequest) error {
	return validateStruct(a.v, req)
}

func (a *authValidator) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	if targetUserID <= 0 {
		return fmt.Errorf("%w: invalid user id", usecase.ErrValidation)
	}
	return nil
}
