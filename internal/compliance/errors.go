package compliance

import (
	"net/http"

	"go-paystub/internal/shared/apperror"
)

var ErrInvalidStatement = apperror.New(
	apperror.CodeInvalidInput,
	"pay stub cannot be checked: state jurisdiction is missing",
	http.StatusUnprocessableEntity,
)
