// internal/service/membership_test.go
//
// Owner-seat governance scenarios: second owner refused, demotion needs
// an admin, the sole owner can be neither suspended nor removed.

package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/membership"
)

var (
	identityTakenRe = `tenant_id = \$1 AND external_id = \$2\)`
	emailTakenRe    = `lower\(email\) = lower\(\$2\)`
	ownerExistsRe   = `role = 'owner' AND id <> \$2`
	activeAdminsRe  = `role = 'admin' AND status = 'active' AND id <> \$2`
	byIDRe          = `FROM\s+tenant_users\s+WHERE\s+tenant_id = \$1 AND id = \$2`
)

func TestCreateMembership_SecondOwnerFails(t *testing.T) {
	svc, mock := newTestService(t)
	tid := uuid.New()

	expectScope(mock, tid)
	mock.ExpectQuery(identityTakenRe).
		WithArgs(tid, "ext_2").
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(emailTakenRe).
		WithArgs(tid, "b@acme.com").
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(ownerExistsRe).
		WithArgs(tid, uuid.Nil).
		WillReturnRows(existsRow(true))
	mock.ExpectRollback()

	_, err := svc.CreateMembership(context.Background(), Actor{}, tid, CreateMembershipInput{
		ExternalID: "ext_2",
		Email:      "b@acme.com",
		Role:       membership.RoleOwner,
	})
	require.Equal(t, apperr.BusinessRuleViolation, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMembership_Member(t *testing.T) {
	svc, mock := newTestService(t)
	tid := uuid.New()

	expectScope(mock, tid)
	mock.ExpectQuery(identityTakenRe).
		WithArgs(tid, "ext_2").
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(emailTakenRe).
		WithArgs(tid, "b@acme.com").
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(`INSERT INTO tenant_users`).
		WillReturnRows(memberRow(uuid.New(), tid, "ext_2", "b@acme.com", "member", "active"))
	expectAudit(mock)
	mock.ExpectCommit()

	m, err := svc.CreateMembership(context.Background(), Actor{}, tid, CreateMembershipInput{
		ExternalID: "ext_2",
		Email:      "B@Acme.com", // folded to lower before any query
		Role:       membership.RoleMember,
	})
	require.NoError(t, err)
	require.Equal(t, membership.RoleMember, m.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMembershipRole_DemoteOwnerWithoutAdminFails(t *testing.T) {
	svc, mock := newTestService(t)
	tid, mid := uuid.New(), uuid.New()

	expectScope(mock, tid)
	mock.ExpectQuery(byIDRe).
		WithArgs(tid, mid).
		WillReturnRows(memberRow(mid, tid, "ext_1", "a@acme.com", "owner", "active"))
	mock.ExpectQuery(activeAdminsRe).
		WithArgs(tid, mid).
		WillReturnRows(countRow(0))
	mock.ExpectRollback()

	_, err := svc.UpdateMembershipRole(context.Background(), Actor{}, tid, mid, membership.RoleAdmin)
	require.Equal(t, apperr.BusinessRuleViolation, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMembershipRole_DemoteOwnerWithAdmin(t *testing.T) {
	svc, mock := newTestService(t)
	tid, mid := uuid.New(), uuid.New()

	expectScope(mock, tid)
	mock.ExpectQuery(byIDRe).
		WithArgs(tid, mid).
		WillReturnRows(memberRow(mid, tid, "ext_1", "a@acme.com", "owner", "active"))
	mock.ExpectQuery(activeAdminsRe).
		WithArgs(tid, mid).
		WillReturnRows(countRow(1))
	mock.ExpectQuery(`UPDATE tenant_users\s+SET\s+role = \$3`).
		WithArgs(tid, mid, "member").
		WillReturnRows(memberRow(mid, tid, "ext_1", "a@acme.com", "member", "active"))
	expectAudit(mock)
	mock.ExpectCommit()

	m, err := svc.UpdateMembershipRole(context.Background(), Actor{}, tid, mid, membership.RoleMember)
	require.NoError(t, err)
	require.Equal(t, membership.RoleMember, m.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMembershipRole_PromoteToSecondOwnerFails(t *testing.T) {
	svc, mock := newTestService(t)
	tid, mid := uuid.New(), uuid.New()

	expectScope(mock, tid)
	mock.ExpectQuery(byIDRe).
		WithArgs(tid, mid).
		WillReturnRows(memberRow(mid, tid, "ext_2", "b@acme.com", "member", "active"))
	mock.ExpectQuery(ownerExistsRe).
		WithArgs(tid, mid).
		WillReturnRows(existsRow(true))
	mock.ExpectRollback()

	_, err := svc.UpdateMembershipRole(context.Background(), Actor{}, tid, mid, membership.RoleOwner)
	require.Equal(t, apperr.BusinessRuleViolation, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMembershipStatus_SuspendOwnerFails(t *testing.T) {
	svc, mock := newTestService(t)
	tid, mid := uuid.New(), uuid.New()

	expectScope(mock, tid)
	mock.ExpectQuery(byIDRe).
		WithArgs(tid, mid).
		WillReturnRows(memberRow(mid, tid, "ext_1", "a@acme.com", "owner", "active"))
	mock.ExpectRollback()

	_, err := svc.UpdateMembershipStatus(context.Background(), Actor{}, tid, mid, membership.StatusSuspended)
	require.Equal(t, apperr.BusinessRuleViolation, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMembership_OwnerFails(t *testing.T) {
	svc, mock := newTestService(t)
	tid, mid := uuid.New(), uuid.New()

	expectScope(mock, tid)
	mock.ExpectQuery(byIDRe).
		WithArgs(tid, mid).
		WillReturnRows(memberRow(mid, tid, "ext_1", "a@acme.com", "owner", "active"))
	mock.ExpectRollback()

	err := svc.DeleteMembership(context.Background(), Actor{}, tid, mid)
	require.Equal(t, apperr.BusinessRuleViolation, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMembership_Member(t *testing.T) {
	svc, mock := newTestService(t)
	tid, mid := uuid.New(), uuid.New()

	expectScope(mock, tid)
	mock.ExpectQuery(byIDRe).
		WithArgs(tid, mid).
		WillReturnRows(memberRow(mid, tid, "ext_3", "c@acme.com", "viewer", "active"))
	mock.ExpectExec(`DELETE FROM tenant_users WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(tid, mid).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock)
	mock.ExpectCommit()

	err := svc.DeleteMembership(context.Background(), Actor{}, tid, mid)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLogin(t *testing.T) {
	svc, mock := newTestService(t)
	tid, mid := uuid.New(), uuid.New()

	expectScope(mock, tid)
	mock.ExpectExec(`UPDATE tenant_users SET last_login_at = now\(\)`).
		WithArgs(tid, mid).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.RecordLogin(context.Background(), tid, mid))
	require.NoError(t, mock.ExpectationsWereMet())
}
