package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/memory"
)

func TestRun_IsRepeatable(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserStore()
	books := memory.NewBookStore()
	s := NewSeeder(users, memory.NewAuthorStore(), books)

	require.NoError(t, s.Run(ctx))
	require.NoError(t, s.Run(ctx))

	n, _ := users.Count(ctx)
	assert.Equal(t, int64(len(DefaultAccounts)), n)
	nb, _ := books.Count(ctx)
	assert.Equal(t, int64(len(defaultBooks)), nb)

	admin, err := users.FindByEmail(ctx, "admin@bookstore.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, admin.Role)
	assert.Equal(t, int64(100000), admin.Credits)

	// 种子密码可以正常登录
	svc := user.NewService(users, -1)
	_, err = svc.Login(ctx, "user@bookstore.com", "User12345")
	assert.NoError(t, err)
}
