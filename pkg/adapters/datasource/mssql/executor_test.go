package mssql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("SET SHOWPLAN_ALL ON").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"StmtText"}).AddRow("SELECT * FROM users"))
	mock.ExpectExec("SET SHOWPLAN_ALL OFF").WillReturnResult(sqlmock.NewResult(0, 0))

	executor := NewExecutorWithDB(db, zap.NewNop())
	assert.NoError(t, executor.ValidateQuery(context.Background(), "SELECT * FROM users;"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateQuery_InvalidSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("SET SHOWPLAN_ALL ON").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM missing").
		WillReturnError(errors.New("Invalid object name 'missing'"))
	mock.ExpectExec("SET SHOWPLAN_ALL OFF").WillReturnResult(sqlmock.NewResult(0, 0))

	executor := NewExecutorWithDB(db, zap.NewNop())
	err = executor.ValidateQuery(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dry run failed")
}

func TestValidateQuery_ShowplanUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("SET SHOWPLAN_ALL ON").
		WillReturnError(errors.New("SHOWPLAN permission denied"))

	executor := NewExecutorWithDB(db, zap.NewNop())
	err = executor.ValidateQuery(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enable showplan")
}

func TestExplainQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("SET SHOWPLAN_ALL ON").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"StmtText"}).
			AddRow("SELECT COUNT(*) FROM orders").
			AddRow("  |--Stream Aggregate"))
	mock.ExpectExec("SET SHOWPLAN_ALL OFF").WillReturnResult(sqlmock.NewResult(0, 0))

	executor := NewExecutorWithDB(db, zap.NewNop())
	result, err := executor.ExplainQuery(context.Background(), "SELECT COUNT(*) FROM orders")
	require.NoError(t, err)
	require.Len(t, result.Plan, 2)
	assert.Contains(t, result.Plan[1], "Stream Aggregate")
}

func TestStripTrailingSemicolons(t *testing.T) {
	assert.Equal(t, "SELECT 1", stripTrailingSemicolons("SELECT 1;"))
	assert.Equal(t, "SELECT 1", stripTrailingSemicolons("  SELECT 1 ;; \n"))
	assert.Equal(t, "SELECT 1", stripTrailingSemicolons("SELECT 1"))
}
