package roles_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-iam/internal/platform/memstore"
	"github.com/odyssey-erp/odyssey-iam/internal/roles"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

func TestServiceCreateRequiresName(t *testing.T) {
	service := roles.NewService(memstore.New().Roles(), nil)
	_, err := service.Create(context.Background(), roles.CreateInput{})
	require.ErrorIs(t, err, shared.ErrMissingField)
}

func TestServiceUpdateKeepsAbsentFields(t *testing.T) {
	ctx := context.Background()
	service := roles.NewService(memstore.New().Roles(), nil)
	created, err := service.Create(ctx, roles.CreateInput{Name: "viewer", Description: "read only"})
	require.NoError(t, err)

	name := "reader"
	updated, err := service.Update(ctx, created.ID, roles.UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "reader", updated.Name)
	require.Equal(t, "read only", updated.Description)
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestServiceExistingIDs(t *testing.T) {
	ctx := context.Background()
	service := roles.NewService(memstore.New().Roles(), nil)
	created, err := service.Create(ctx, roles.CreateInput{Name: "a"})
	require.NoError(t, err)

	ids, err := service.ExistingIDs(ctx, []int64{created.ID, created.ID + 1})
	require.NoError(t, err)
	require.Equal(t, []int64{created.ID}, ids)
}
