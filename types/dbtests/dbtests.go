// Package dbtests holds store conformance tests shared by the integration
// suites of every types.DB backend. Each test expects an empty store.
package dbtests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/civicpulse/mayoralert/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SeedUsersFunc inserts one user per role into the backend's user store.
type SeedUsersFunc func(ctx context.Context, roles ...types.Role) error

func createAlerts(ctx context.Context, t *testing.T, store types.AlertStore, n int, base time.Time) []*types.Alert {
	t.Helper()

	alerts := make([]*types.Alert, 0, n)

	for i := range n {
		alert, err := types.NewAlert(types.CreateAlertInput{
			Title:   fmt.Sprintf("alert %02d", i),
			Message: "message",
		}, "mayor-1", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.NoError(t, store.CreateAlert(ctx, alert))
		require.NotEmpty(t, alert.ID)

		alerts = append(alerts, alert)
	}

	return alerts
}

// TestAlertLifecycle creates 25 alerts, pages through them newest first and
// deletes one of them.
func TestAlertLifecycle(t *testing.T, store types.AlertStore) {
	ctx := context.Background()

	created := createAlerts(ctx, t, store, 25, time.Now().Add(-time.Hour).Truncate(time.Millisecond))

	count, err := store.CountAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(25), count)

	page, err := store.FindAlerts(ctx, 10, 10)
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, "alert 14", page[0].Title)
	assert.Equal(t, "alert 05", page[9].Title)

	last, err := store.FindAlerts(ctx, 20, 10)
	require.NoError(t, err)
	assert.Len(t, last, 5)

	found, err := store.FindAlertByID(ctx, created[3].ID)
	require.NoError(t, err)
	assert.Equal(t, created[3].ID, found.ID)
	assert.Equal(t, "alert 03", found.Title)
	assert.Equal(t, "mayor-1", found.SentBy)
	assert.True(t, created[3].CreatedAt.Equal(found.CreatedAt))

	require.NoError(t, store.DeleteAlert(ctx, created[3].ID))

	_, err = store.FindAlertByID(ctx, created[3].ID)
	require.ErrorIs(t, err, types.ErrAlertNotFound)

	require.ErrorIs(t, store.DeleteAlert(ctx, created[3].ID), types.ErrAlertNotFound)

	count, err = store.CountAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(24), count)
}

// TestUnknownAlertID checks that malformed and unknown IDs are reported as
// not found and leave the store unchanged.
func TestUnknownAlertID(t *testing.T, store types.AlertStore) {
	ctx := context.Background()

	before, err := store.CountAlerts(ctx)
	require.NoError(t, err)

	for _, id := range []string{"abc123", "", "00000000-0000-0000-0000-000000000000", "000000000000000000000000"} {
		_, err := store.FindAlertByID(ctx, id)
		require.ErrorIs(t, err, types.ErrAlertNotFound, "find %q", id)

		err = store.DeleteAlert(ctx, id)
		require.ErrorIs(t, err, types.ErrAlertNotFound, "delete %q", id)
	}

	after, err := store.CountAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// TestCountUsersByRole seeds users with mixed roles and counts alert
// recipients.
func TestCountUsersByRole(t *testing.T, dir types.UserDirectory, seed SeedUsersFunc) {
	ctx := context.Background()

	require.NoError(t, seed(ctx, types.RoleCitizen, types.RoleCitizen, types.RoleAdmin, types.RoleMayor))

	n, err := dir.CountUsersByRole(ctx, types.AlertRecipientRoles...)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = dir.CountUsersByRole(ctx, types.RoleMayor)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
