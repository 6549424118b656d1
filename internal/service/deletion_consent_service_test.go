package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everkeep/lifecycle-management-api/internal/models"
	"github.com/everkeep/lifecycle-management-api/internal/serviceerror"
)

const deletionGathering = string(models.DeletionStatusConsentGathering)

func TestInitiateDeletion_RequiresRepresentative(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "member-1").
		WillReturnRows(membershipRow("creator-1", "member-1", models.RoleMember))

	_, svcErr := env.deletion.InitiateDeletion(context.Background(), "creator-1", "member-1")

	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ForbiddenError.Code, svcErr.Code)
}

func TestInitiateDeletion_RejectedBeforeOpened(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "rep-1").
		WillReturnRows(membershipRow("creator-1", "rep-1", models.RoleRepresentative))
	env.mock.ExpectQuery(qSelectMembers).
		WithArgs("creator-1").
		WillReturnRows(membershipRow("creator-1", "member-1", models.RoleMember))

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnRows(lifecycleRow("LIFECYCLE-1", "creator-1", models.StatusConsentGathering, nil))
	env.mock.ExpectExec(qMarkDelGathering).
		WillReturnResult(sqlmock.NewResult(0, 0))
	env.mock.ExpectRollback()

	_, svcErr := env.deletion.InitiateDeletion(context.Background(), "creator-1", "rep-1")

	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.InvalidStateTransitionError.Code, svcErr.Code)
}

func TestSubmitDeletionConsent_DeclineResetsRoundInSameTransaction(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "member-1").
		WillReturnRows(membershipRow("creator-1", "member-1", models.RoleMember))

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnRows(lifecycleRow("LIFECYCLE-1", "creator-1", models.StatusOpened, deletionGathering))
	env.mock.ExpectExec(qUpdateDelConsent).
		WithArgs(string(models.DecisionDeclined), sqlmock.AnyArg(), "LIFECYCLE-1", "member-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec(qClearDelStatus).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec(qDeleteDelConsents).
		WithArgs("LIFECYCLE-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	env.mock.ExpectExec(qInsertActionLog).
		WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectCommit()

	// Status readback: sub-state cleared, no vote records remain
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnRows(lifecycleRow("LIFECYCLE-1", "creator-1", models.StatusOpened, nil))
	env.mock.ExpectQuery(qSelectDelConsents).
		WithArgs("LIFECYCLE-1").
		WillReturnRows(sqlmock.NewRows(consentCols))
	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "member-1").
		WillReturnRows(membershipRow("creator-1", "member-1", models.RoleMember))
	env.mock.ExpectQuery(qCountReps).
		WithArgs("creator-1", string(models.RoleRepresentative)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))

	response, svcErr := env.deletion.SubmitDeletionConsent(context.Background(), "creator-1", "member-1", false)

	require.Nil(t, svcErr)
	assert.Equal(t, models.StatusOpened, response.Status)
	assert.Nil(t, response.DeletionStatus)
	assert.Equal(t, 0, response.Summary.Total)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSubmitDeletionConsent_UnanimousErasesEverything(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "member-2").
		WillReturnRows(membershipRow("creator-1", "member-2", models.RoleMember))

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnRows(lifecycleRow("LIFECYCLE-1", "creator-1", models.StatusOpened, deletionGathering))
	env.mock.ExpectExec(qUpdateDelConsent).
		WithArgs(string(models.DecisionAgreed), sqlmock.AnyArg(), "LIFECYCLE-1", "member-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec(qInsertActionLog).
		WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectQuery(qCountDelNotAgreed).
		WithArgs("LIFECYCLE-1", string(models.DecisionAgreed)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

	// Terminal erasure, all inside the same transaction
	env.mock.ExpectExec(qDeleteLifecycle).
		WithArgs("LIFECYCLE-1", deletionGathering).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec(qDeleteLifeRecords).
		WithArgs("creator-1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	env.mock.ExpectExec(qDeleteDelConsents).
		WithArgs("LIFECYCLE-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	env.mock.ExpectExec(qDeleteConsents).
		WithArgs("LIFECYCLE-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	env.mock.ExpectExec(qDeleteActionLog).
		WithArgs("LIFECYCLE-1").
		WillReturnResult(sqlmock.NewResult(0, 8))
	env.mock.ExpectCommit()

	response, svcErr := env.deletion.SubmitDeletionConsent(context.Background(), "creator-1", "member-2", true)

	require.Nil(t, svcErr)
	assert.Equal(t, models.StatusActive, response.Status)
	assert.Empty(t, response.Votes)
	assert.Equal(t, []string{"creator-1"}, env.purger.calls)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSubmitDeletionConsent_RejectedWithoutRunningRound(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "member-1").
		WillReturnRows(membershipRow("creator-1", "member-1", models.RoleMember))

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnRows(lifecycleRow("LIFECYCLE-1", "creator-1", models.StatusOpened, nil))
	env.mock.ExpectRollback()

	_, svcErr := env.deletion.SubmitDeletionConsent(context.Background(), "creator-1", "member-1", true)

	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.InvalidStateTransitionError.Code, svcErr.Code)
}

func TestCancelDeletion_ClearsSubState(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "rep-1").
		WillReturnRows(membershipRow("creator-1", "rep-1", models.RoleRepresentative))

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(qSelectLifecycle).
		WithArgs("creator-1").
		WillReturnRows(lifecycleRow("LIFECYCLE-1", "creator-1", models.StatusOpened, deletionGathering))
	env.mock.ExpectExec(qClearDelStatus).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec(qDeleteDelConsents).
		WithArgs("LIFECYCLE-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	env.mock.ExpectExec(qInsertActionLog).
		WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectCommit()

	env.mock.ExpectQuery(qCountReps).
		WithArgs("creator-1", string(models.RoleRepresentative)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))

	response, svcErr := env.deletion.CancelDeletion(context.Background(), "creator-1", "rep-1")

	require.Nil(t, svcErr)
	assert.Equal(t, models.StatusOpened, response.Status)
	assert.Nil(t, response.DeletionStatus)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCancelDeletion_MemberForbiddenEvenWithoutRep(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(qSelectMembership).
		WithArgs("creator-1", "member-1").
		WillReturnRows(membershipRow("creator-1", "member-1", models.RoleMember))

	_, svcErr := env.deletion.CancelDeletion(context.Background(), "creator-1", "member-1")

	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ForbiddenError.Code, svcErr.Code)
}
