package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/membership"
)

func TestCreateTenant_RoundTrip(t *testing.T) {
	svc, mock := newTestService(t)
	tid := uuid.New()

	expectScopeAny(mock)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM tenants WHERE slug = \$1\)`).
		WithArgs("acme").
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(`INSERT INTO tenants`).
		WillReturnRows(tenantRow(tid, "acme", "Acme Inc", "active"))
	mock.ExpectQuery(`INSERT INTO tenant_users`).
		WillReturnRows(memberRow(uuid.New(), tid, "ext_1", "a@acme.com", "owner", "active"))
	expectAudit(mock)
	mock.ExpectCommit()

	tn, owner, err := svc.CreateTenant(context.Background(), Actor{}, CreateTenantInput{
		Slug:            "acme",
		Name:            "Acme Inc",
		OwnerExternalID: "ext_1",
		OwnerEmail:      "a@acme.com",
	})
	require.NoError(t, err)
	require.Equal(t, "acme", tn.Slug)
	require.Equal(t, membership.RoleOwner, owner.Role)
	require.Equal(t, membership.StatusActive, owner.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTenant_SlugTaken(t *testing.T) {
	svc, mock := newTestService(t)

	expectScopeAny(mock)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM tenants WHERE slug = \$1\)`).
		WithArgs("acme").
		WillReturnRows(existsRow(true))
	mock.ExpectRollback()

	_, _, err := svc.CreateTenant(context.Background(), Actor{}, CreateTenantInput{
		Slug:            "acme",
		Name:            "Acme Inc",
		OwnerExternalID: "ext_1",
		OwnerEmail:      "a@acme.com",
	})
	require.Equal(t, apperr.BusinessRuleViolation, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTenant_InvalidPayload(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.CreateTenant(context.Background(), Actor{}, CreateTenantInput{
		Slug:            "-bad-",
		Name:            "",
		OwnerExternalID: "",
		OwnerEmail:      "nope",
	})
	require.Equal(t, apperr.ValidationError, apperr.KindOf(err))
	fields := apperr.FieldsOf(err)
	require.Contains(t, fields, "slug")
	require.Contains(t, fields, "name")
	require.Contains(t, fields, "owner_external_id")
	require.Contains(t, fields, "owner_email")
}

func TestCreateTenant_SlugDerivedFromName(t *testing.T) {
	svc, mock := newTestService(t)
	tid := uuid.New()

	expectScopeAny(mock)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM tenants WHERE slug = \$1\)`).
		WithArgs("acme-travel-co").
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(`INSERT INTO tenants`).
		WillReturnRows(tenantRow(tid, "acme-travel-co", "Acme Travel Co!", "active"))
	mock.ExpectQuery(`INSERT INTO tenant_users`).
		WillReturnRows(memberRow(uuid.New(), tid, "ext_1", "a@acme.com", "owner", "active"))
	expectAudit(mock)
	mock.ExpectCommit()

	tn, _, err := svc.CreateTenant(context.Background(), Actor{}, CreateTenantInput{
		Name:            "Acme Travel Co!",
		OwnerExternalID: "ext_1",
		OwnerEmail:      "a@acme.com",
	})
	require.NoError(t, err)
	require.Equal(t, "acme-travel-co", tn.Slug)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTenant_WithMembershipsFails(t *testing.T) {
	svc, mock := newTestService(t)
	tid := uuid.New()

	expectScope(mock, tid)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tenant_users WHERE tenant_id = \$1`).
		WithArgs(tid).
		WillReturnRows(countRow(2))
	mock.ExpectRollback()

	err := svc.DeleteTenant(context.Background(), tid)
	require.Equal(t, apperr.BusinessRuleViolation, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSuspendTenant(t *testing.T) {
	svc, mock := newTestService(t)
	tid := uuid.New()

	expectScope(mock, tid)
	mock.ExpectQuery(`UPDATE tenants\s+SET\s+status = \$2`).
		WithArgs(tid, "suspended").
		WillReturnRows(tenantRow(tid, "acme", "Acme Inc", "suspended"))
	expectAudit(mock)
	mock.ExpectCommit()

	tn, err := svc.SuspendTenant(context.Background(), Actor{}, tid)
	require.NoError(t, err)
	require.Equal(t, "suspended", string(tn.Status))
	require.NoError(t, mock.ExpectationsWereMet())
}
