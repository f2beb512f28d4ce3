package paystub

import (
	"errors"
	"strings"

	paystuberrors "go-paystub/internal/paystub/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueEmployeePeriod = "uq_pay_stub_employee_period"

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return paystuberrors.ErrPayStubNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return paystuberrors.ErrDuplicatePayStub.WithCause(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == uniqueEmployeePeriod {
		return paystuberrors.ErrDuplicatePayStub.WithCause(err)
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, uniqueEmployeePeriod) {
		return paystuberrors.ErrDuplicatePayStub.WithCause(err)
	}

	return err
}
