package permissions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-iam/internal/platform/memstore"
	"github.com/odyssey-erp/odyssey-iam/internal/permissions"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

func TestServiceCreateRequiresName(t *testing.T) {
	service := permissions.NewService(memstore.New().Permissions(), nil)
	_, err := service.Create(context.Background(), permissions.CreateInput{})
	require.ErrorIs(t, err, shared.ErrMissingField)
}

func TestServiceUpdateKeepsAbsentFields(t *testing.T) {
	ctx := context.Background()
	service := permissions.NewService(memstore.New().Permissions(), nil)
	created, err := service.Create(ctx, permissions.CreateInput{Name: "viewer", Description: "read only"})
	require.NoError(t, err)

	name := "reader"
	updated, err := service.Update(ctx, created.ID, permissions.UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "reader", updated.Name)
	require.Equal(t, "read only", updated.Description)
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestServiceExistingIDs(t *testing.T) {
	ctx := context.Background()
	service := permissions.NewService(memstore.New().Permissions(), nil)
	created, err := service.Create(ctx, permissions.CreateInput{Name: "a"})
	require.NoError(t, err)

	ids, err := service.ExistingIDs(ctx, []int64{created.ID, created.ID + 1})
	require.NoError(t, err)
	require.Equal(t, []int64{created.ID}, ids)
}
