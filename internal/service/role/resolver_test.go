package role_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirecircle/internal/domain"
	"hirecircle/internal/gateway"
	"hirecircle/internal/service/role"
	"hirecircle/internal/testutil"
)

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	r := role.NewResolver(gateway.NewSQLGateway(db))

	employer := testutil.SeedProfile(t, db, "Acme", domain.RoleEmployer)
	employee := testutil.SeedProfile(t, db, "Jane", domain.RoleEmployee)

	t.Run("Employer", func(t *testing.T) {
		got, err := r.Resolve(ctx, testutil.SessionFor(employer))
		require.NoError(t, err)
		assert.Equal(t, domain.RoleEmployer, got)
	})

	t.Run("Employee", func(t *testing.T) {
		got, err := r.Resolve(ctx, testutil.SessionFor(employee))
		require.NoError(t, err)
		assert.Equal(t, domain.RoleEmployee, got)
	})

	t.Run("No Session", func(t *testing.T) {
		got, err := r.Resolve(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		assert.Empty(t, got)
	})

	t.Run("Profile Missing", func(t *testing.T) {
		id := testutil.SeedCredential(t, db)

		got, err := r.Resolve(ctx, &domain.Session{UserID: id})
		assert.ErrorIs(t, err, domain.ErrProfileMissing)
		assert.Empty(t, got)
	})
}

func TestResolver_Require(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	r := role.NewResolver(gateway.NewSQLGateway(db))

	employee := testutil.SeedProfile(t, db, "Jane", domain.RoleEmployee)

	profile, err := r.Require(ctx, testutil.SessionFor(employee), domain.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.FullName)

	_, err = r.Require(ctx, testutil.SessionFor(employee), domain.RoleEmployer)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
