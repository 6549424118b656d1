package service

import (
	"context"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/everkeep/lifecycle-management-api/internal/audit"
	"github.com/everkeep/lifecycle-management-api/internal/dao"
	"github.com/everkeep/lifecycle-management-api/internal/database"
	"github.com/everkeep/lifecycle-management-api/internal/models"
	"github.com/everkeep/lifecycle-management-api/internal/notification"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// noopDispatcher satisfies notification.Dispatcher for tests
type noopDispatcher struct{}

func (noopDispatcher) Notify(_ context.Context, _ *notification.Event) {}

// stubPurger records purge calls and optionally fails
type stubPurger struct {
	err   error
	calls []string
}

func (p *stubPurger) PurgeCreator(_ context.Context, creatorID string) error {
	p.calls = append(p.calls, creatorID)
	return p.err
}

// testEnv wires the full service graph over a sqlmock connection
type testEnv struct {
	mock      sqlmock.Sqlmock
	purger    *stubPurger
	lifecycle *LifecycleService
	opening   *OpeningConsentService
	deletion  *DeletionConsentService
	resolver  *DeceasedMemberResolver
	authz     *AuthorizationResolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := testLogger()
	db := database.New(sqlx.NewDb(mockDB, "sqlmock"), logger)

	lifecycleDAO := dao.NewLifecycleDAO(db)
	membershipDAO := dao.NewFamilyMembershipDAO(db)
	consentDAO := dao.NewConsentRecordDAO(db)
	deletionDAO := dao.NewDeletionConsentRecordDAO(db)
	actionLogDAO := dao.NewActionLogDAO(db)
	lifeRecordDAO := dao.NewLifeRecordDAO(db)

	auditor := audit.NewAuditor(actionLogDAO, logger)
	authz := NewAuthorizationResolver(membershipDAO, logger)
	purger := &stubPurger{}
	dispatcher := noopDispatcher{}

	deletionService := NewDeletionConsentService(
		lifecycleDAO, deletionDAO, consentDAO, lifeRecordDAO, actionLogDAO,
		membershipDAO, authz, auditor, purger, dispatcher, db, logger,
	)
	resolver := NewDeceasedMemberResolver(
		lifecycleDAO, consentDAO, deletionDAO, membershipDAO,
		auditor, deletionService, dispatcher, db, logger,
	)
	lifecycleService := NewLifecycleService(
		lifecycleDAO, membershipDAO, authz, auditor, resolver, dispatcher, db, logger,
	)
	openingService := NewOpeningConsentService(
		lifecycleDAO, consentDAO, membershipDAO, authz, auditor, dispatcher, db, logger,
	)

	return &testEnv{
		mock:      mock,
		purger:    purger,
		lifecycle: lifecycleService,
		opening:   openingService,
		deletion:  deletionService,
		resolver:  resolver,
		authz:     authz,
	}
}

var lifecycleCols = []string{
	"LIFECYCLE_ID", "CREATOR_ID", "STATUS", "DELETION_STATUS",
	"DEATH_REPORTED_AT", "DEATH_REPORTED_BY", "CONSENT_INITIATED_BY",
	"OPENED_AT", "CREATED_TIME", "UPDATED_TIME",
}

func lifecycleRow(lifecycleID, creatorID string, status models.LifecycleStatus, deletionStatus interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(lifecycleCols).
		AddRow(lifecycleID, creatorID, string(status), deletionStatus, nil, nil, nil, nil, int64(1000), int64(1000))
}

var membershipCols = []string{"CREATOR_ID", "MEMBER_ID", "ROLE", "IS_ACTIVE", "CREATED_TIME"}

func membershipRow(creatorID, memberID string, role models.FamilyRole) *sqlmock.Rows {
	return sqlmock.NewRows(membershipCols).
		AddRow(creatorID, memberID, string(role), true, int64(1000))
}

var consentCols = []string{
	"CONSENT_ID", "LIFECYCLE_ID", "MEMBER_ID", "DECISION",
	"DECIDED_TIME", "AUTO_RESOLVED", "CREATED_TIME",
}

// Distinctive query fragments. Precise enough that the fire-and-forget
// notifier goroutine can never consume an expectation meant for the
// request path.
const (
	qSelectLifecycle    = `SELECT (.+) FROM LC_LIFECYCLE WHERE CREATOR_ID = \?`
	qSelectMembership   = `FROM LC_FAMILY_MEMBER WHERE CREATOR_ID = \? AND MEMBER_ID = \? AND IS_ACTIVE`
	qCountReps          = `SELECT COUNT\(\*\) FROM LC_FAMILY_MEMBER WHERE CREATOR_ID = \? AND ROLE = \?`
	qSelectMembers      = `FROM LC_FAMILY_MEMBER WHERE CREATOR_ID = \? AND IS_ACTIVE = TRUE ORDER BY CREATED_TIME`
	qSelectMemberOf     = `FROM LC_FAMILY_MEMBER WHERE MEMBER_ID = \? AND IS_ACTIVE = TRUE ORDER BY CREATOR_ID`
	qSelectConsents     = `FROM LC_CONSENT_RECORD WHERE LIFECYCLE_ID = \? ORDER BY CREATED_TIME`
	qSelectDelConsents  = `FROM LC_DELETION_CONSENT_RECORD WHERE LIFECYCLE_ID = \? ORDER BY CREATED_TIME`
	qAutoResolvedOf     = `FROM LC_CONSENT_RECORD WHERE MEMBER_ID = \? AND AUTO_RESOLVED = TRUE`
	qDelAutoResolvedOf  = `FROM LC_DELETION_CONSENT_RECORD WHERE MEMBER_ID = \? AND AUTO_RESOLVED = TRUE`
	qCountNotAgreed     = `SELECT COUNT\(\*\) FROM LC_CONSENT_RECORD WHERE LIFECYCLE_ID = \? AND DECISION <> \?`
	qCountDelNotAgreed  = `SELECT COUNT\(\*\) FROM LC_DELETION_CONSENT_RECORD WHERE LIFECYCLE_ID = \? AND DECISION <> \?`
	qInsertLifecycle    = `INSERT INTO LC_LIFECYCLE`
	qInsertActionLog    = `INSERT INTO LC_ACTION_LOG`
	qInsertConsent      = `INSERT INTO LC_CONSENT_RECORD`
	qInsertDelConsent   = `INSERT INTO LC_DELETION_CONSENT_RECORD`
	qUpdateConsent      = `UPDATE LC_CONSENT_RECORD SET DECISION = \?, DECIDED_TIME = \?, AUTO_RESOLVED = FALSE`
	qAutoResolveConsent = `UPDATE LC_CONSENT_RECORD SET DECISION = \?, DECIDED_TIME = \?, AUTO_RESOLVED = TRUE`
	qRevertConsent      = `UPDATE LC_CONSENT_RECORD SET DECISION = \?, DECIDED_TIME = NULL, AUTO_RESOLVED = FALSE`
	qUpdateDelConsent   = `UPDATE LC_DELETION_CONSENT_RECORD SET DECISION = \?, DECIDED_TIME = \?, AUTO_RESOLVED = FALSE`
	qMarkOpened         = `UPDATE LC_LIFECYCLE SET STATUS = \?, OPENED_AT = \?`
	qMarkActive         = `UPDATE LC_LIFECYCLE SET STATUS = \?, DEATH_REPORTED_AT = NULL`
	qRevertGathering    = `UPDATE LC_LIFECYCLE SET STATUS = \?, CONSENT_INITIATED_BY = NULL`
	qMarkDelGathering   = `UPDATE LC_LIFECYCLE SET DELETION_STATUS = \?, UPDATED_TIME = \?`
	qClearDelStatus     = `UPDATE LC_LIFECYCLE SET DELETION_STATUS = NULL`
	qDeleteLifecycle    = `DELETE FROM LC_LIFECYCLE WHERE LIFECYCLE_ID = \? AND DELETION_STATUS = \?`
	qDeleteConsents     = `DELETE FROM LC_CONSENT_RECORD WHERE LIFECYCLE_ID = \?`
	qDeleteDelConsents  = `DELETE FROM LC_DELETION_CONSENT_RECORD WHERE LIFECYCLE_ID = \?`
	qDeleteActionLog    = `DELETE FROM LC_ACTION_LOG WHERE LIFECYCLE_ID = \?`
	qDeleteLifeRecords  = `DELETE FROM LC_LIFE_RECORD WHERE CREATOR_ID = \?`
)
