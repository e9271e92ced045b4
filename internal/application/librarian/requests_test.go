package librarian

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/domain/librarian"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

func TestRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserStore()
	uc := NewRequestUseCase(memory.NewLibrarianRequestStore(), users)

	admin := user.NewUser("admin@example.com", "hash", "A", "D", 0)
	admin.Role = user.RoleAdmin
	require.NoError(t, users.Create(ctx, admin))
	alice := user.NewUser("alice@example.com", "hash", "Alice", "A", 0)
	require.NoError(t, users.Create(ctx, alice))
	bob := user.NewUser("bob@example.com", "hash", "Bob", "B", 0)
	require.NoError(t, users.Create(ctx, bob))

	asAdmin := access.NewCaller(admin.ID, admin.Role)
	asAlice := access.NewCaller(alice.ID, alice.Role)
	asBob := access.NewCaller(bob.ID, bob.Role)

	_, err := uc.Submit(ctx, asAlice, "   ")
	assert.ErrorIs(t, err, librarian.ErrInvalidReason)

	ra, err := uc.Submit(ctx, asAlice, "I run the book club")
	require.NoError(t, err)
	_, err = uc.Submit(ctx, asAlice, "again")
	assert.ErrorIs(t, err, librarian.ErrPendingRequest)

	rb, err := uc.Submit(ctx, asBob, "please")
	require.NoError(t, err)

	_, err = uc.ListPending(ctx, asAlice)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = uc.Approve(ctx, asAlice, ra.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	pending, err := uc.ListPending(ctx, asAdmin)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "alice@example.com", pending[0].UserEmail)

	approved, err := uc.Approve(ctx, asAdmin, ra.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsProcessed)
	assert.True(t, approved.Approved)
	assert.NotEmpty(t, approved.ProcessedAt)

	got, _ := users.FindByID(ctx, alice.ID)
	assert.Equal(t, user.RoleLibrarian, got.Role)

	rejected, err := uc.Reject(ctx, asAdmin, rb.ID)
	require.NoError(t, err)
	assert.False(t, rejected.Approved)
	got, _ = users.FindByID(ctx, bob.ID)
	assert.Equal(t, user.RoleUser, got.Role)

	_, err = uc.Approve(ctx, asAdmin, rb.ID)
	assert.ErrorIs(t, err, librarian.ErrAlreadyProcessed)
	_, err = uc.Approve(ctx, asAdmin, 999)
	assert.ErrorIs(t, err, librarian.ErrRequestNotFound)

	// 处理后可以重新申请;已是馆员的不能再申请
	_, err = uc.Submit(ctx, asBob, "second try")
	assert.NoError(t, err)
	_, err = uc.Submit(ctx, access.NewCaller(alice.ID, user.RoleLibrarian), "more")
	assert.ErrorIs(t, err, apperrors.ErrInvalidParams)

	pending, err = uc.ListPending(ctx, asAdmin)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
