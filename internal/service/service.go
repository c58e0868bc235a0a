package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput checks struct tags and reports every failed field in one ValidationError
func validateInput(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := fe.Field()
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[name] = rule
		msgs = append(msgs, fmt.Sprintf("%s failed %s", name, rule))
	}

	return apperrors.NewValidationError(strings.Join(msgs, "; ")).WithContext("fields", fields)
}

// mapRepoError turns a repository error into the AppError the API reports. entity names
// the record in NotFound and Conflict messages.
func mapRepoError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFoundError(entity + " not found")
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflictError(entity + " already exists")
	case errors.Is(err, repository.ErrStaleStatus):
		return apperrors.NewConflictError(entity + " was modified by another request")
	default:
		e := apperrors.NewInternalError("internal server error")
		e.Err = fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
		return e
	}
}
