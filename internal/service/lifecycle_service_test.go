package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everkeep/lifecycle-management-api/internal/models"
	"github.com/everkeep/lifecycle-management-api/internal/serviceerror"
)

func TestGetLifecycle_AbsentRowReportsActive(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "member-1").
		WillReturnRows(membershipRow("creator-1", "member-1", models.RoleMember))
	env.mock.ExpectQuery(qCountReps).
		WithArgs("creator-1", string(models.RoleRepresentative)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnError(sql.ErrNoRows)

	response, svcErr := env.lifecycle.GetLifecycle(context.Background(), "creator-1", "member-1")

	require.Nil(t, svcErr)
	assert.Equal(t, models.StatusActive, response.Status)
	assert.False(t, response.MutationBlocked)
	assert.True(t, response.HasRepresentative)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestReportDeath_CreatesRecordAndAudits(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "member-1").
		WillReturnRows(membershipRow("creator-1", "member-1", models.RoleMember))

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnError(sql.ErrNoRows)
	env.mock.ExpectExec(qInsertLifecycle).
		WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectExec(qInsertActionLog).
		WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectCommit()

	env.mock.ExpectQuery(qCountReps).
		WithArgs("creator-1", string(models.RoleRepresentative)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

	// Deceased-member sweep: creator-1 votes nowhere else
	env.mock.ExpectQuery(qSelectMemberOf).
		WithArgs("creator-1").
		WillReturnRows(sqlmock.NewRows(membershipCols))

	response, svcErr := env.lifecycle.ReportDeath(context.Background(), "creator-1", "member-1")

	require.Nil(t, svcErr)
	assert.Equal(t, models.StatusDeathReported, response.Status)
	assert.False(t, response.AlreadyReported)
	assert.True(t, response.MutationBlocked)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestReportDeath_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "member-1").
		WillReturnRows(membershipRow("creator-1", "member-1", models.RoleMember))

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnRows(lifecycleRow("LIFECYCLE-1", "creator-1", models.StatusDeathReported, nil))
	env.mock.ExpectCommit()

	env.mock.ExpectQuery(qCountReps).
		WithArgs("creator-1", string(models.RoleRepresentative)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

	response, svcErr := env.lifecycle.ReportDeath(context.Background(), "creator-1", "member-1")

	require.Nil(t, svcErr)
	assert.True(t, response.AlreadyReported)
	assert.Equal(t, models.StatusDeathReported, response.Status)
	// No second audit entry, no sweep
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestReportDeath_RejectedWhenOpened(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "member-1").
		WillReturnRows(membershipRow("creator-1", "member-1", models.RoleMember))

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnRows(lifecycleRow("LIFECYCLE-1", "creator-1", models.StatusOpened, nil))
	env.mock.ExpectRollback()

	_, svcErr := env.lifecycle.ReportDeath(context.Background(), "creator-1", "member-1")

	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.InvalidStateTransitionError.Code, svcErr.Code)
}

func TestCancelDeathReport_RevertsToActive(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "rep-1").
		WillReturnRows(membershipRow("creator-1", "rep-1", models.RoleRepresentative))

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnRows(lifecycleRow("LIFECYCLE-1", "creator-1", models.StatusDeathReported, nil))
	env.mock.ExpectExec(qMarkActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec(qInsertActionLog).
		WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectCommit()

	// Reversion sweep finds nothing auto-resolved for this person
	env.mock.ExpectQuery(qAutoResolvedOf).
		WithArgs("creator-1").
		WillReturnRows(sqlmock.NewRows(consentCols))
	env.mock.ExpectQuery(qDelAutoResolvedOf).
		WithArgs("creator-1").
		WillReturnRows(sqlmock.NewRows(consentCols))

	env.mock.ExpectQuery(qCountReps).
		WithArgs("creator-1", string(models.RoleRepresentative)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))

	response, svcErr := env.lifecycle.CancelDeathReport(context.Background(), "creator-1", "rep-1")

	require.Nil(t, svcErr)
	assert.Equal(t, models.StatusActive, response.Status)
	assert.Nil(t, response.DeathReportedAt)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCancelDeathReport_RejectedWhenAlreadyActive(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "rep-1").
		WillReturnRows(membershipRow("creator-1", "rep-1", models.RoleRepresentative))

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnRows(lifecycleRow("LIFECYCLE-1", "creator-1", models.StatusActive, nil))
	env.mock.ExpectExec(qMarkActive).
		WillReturnResult(sqlmock.NewResult(0, 0))
	env.mock.ExpectRollback()

	_, svcErr := env.lifecycle.CancelDeathReport(context.Background(), "creator-1", "rep-1")

	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.InvalidStateTransitionError.Code, svcErr.Code)
}
