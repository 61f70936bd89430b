package repositories

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslateErrorNil(t *testing.T) {
	require.NoError(t, translateError(nil))
}

func TestTranslateErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "orders_pkey",
	}

	err := translateError(errors.Wrap(pgErr, "failed to insert order header"))
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.NotErrorIs(t, err, ErrStorage)
}

func TestTranslateErrorGormDuplicatedKey(t *testing.T) {
	err := translateError(gorm.ErrDuplicatedKey)
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestTranslateErrorOtherFaultIsStorage(t *testing.T) {
	err := translateError(errors.New("connection refused"))
	require.ErrorIs(t, err, ErrStorage)
	require.NotErrorIs(t, err, ErrDuplicateKey)
}
