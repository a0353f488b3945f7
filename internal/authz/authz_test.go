package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zeawatch/zeawatch-backend/internal/authz"
)

func TestPermit(t *testing.T) {
	owner := authz.Authenticated("uid-owner", "owner@example.com", "user")
	stranger := authz.Authenticated("uid-stranger", "stranger@example.com", "user")
	admin := authz.Authenticated("uid-admin", "admin@example.com", "admin")
	anon := authz.Anonymous()

	tests := []struct {
		name      string
		principal authz.Principal
		action    authz.Action
		ownerUID  string
		want      bool
	}{
		{
			name:      "owner reads own record",
			principal: owner,
			action:    authz.ActionRead,
			ownerUID:  "uid-owner",
			want:      true,
		},
		{
			name:      "owner deletes own record",
			principal: owner,
			action:    authz.ActionDelete,
			ownerUID:  "uid-owner",
			want:      true,
		},
		{
			name:      "owner shares own record",
			principal: owner,
			action:    authz.ActionShare,
			ownerUID:  "uid-owner",
			want:      true,
		},
		{
			name:      "non-owner reads foreign record",
			principal: stranger,
			action:    authz.ActionRead,
			ownerUID:  "uid-owner",
			want:      false,
		},
		{
			name:      "non-owner deletes foreign record",
			principal: stranger,
			action:    authz.ActionDelete,
			ownerUID:  "uid-owner",
			want:      false,
		},
		{
			name:      "admin reads any record",
			principal: admin,
			action:    authz.ActionRead,
			ownerUID:  "uid-owner",
			want:      true,
		},
		{
			name:      "admin deletes any record",
			principal: admin,
			action:    authz.ActionDelete,
			ownerUID:  "uid-owner",
			want:      true,
		},
		{
			name:      "anonymous is never permitted",
			principal: anon,
			action:    authz.ActionRead,
			ownerUID:  "uid-owner",
			want:      false,
		},
		{
			name:      "anonymous with matching empty owner is still denied",
			principal: anon,
			action:    authz.ActionRead,
			ownerUID:  "",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := authz.Permit(tt.principal, tt.action, tt.ownerUID)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPermit_DenyAllNonAdminNonOwners(t *testing.T) {
	// Для всех комбинаций (роль != admin, uid != owner) delete запрещён.
	actions := []authz.Action{authz.ActionRead, authz.ActionUpdate, authz.ActionDelete, authz.ActionShare}
	principals := []authz.Principal{
		authz.Anonymous(),
		authz.Authenticated("uid-a", "a@example.com", "user"),
		authz.Authenticated("uid-b", "b@example.com", "user"),
	}

	for _, p := range principals {
		for _, action := range actions {
			assert.False(t, authz.Permit(p, action, "uid-owner"),
				"principal %q must not %s a foreign record", p.UID, action)
		}
	}
}

func TestPrincipal_Flags(t *testing.T) {
	assert.False(t, authz.Anonymous().IsAuthenticated())
	assert.False(t, authz.Anonymous().IsAdmin())

	user := authz.Authenticated("uid", "u@example.com", "user")
	assert.True(t, user.IsAuthenticated())
	assert.False(t, user.IsAdmin())

	admin := authz.Authenticated("uid", "a@example.com", "admin")
	assert.True(t, admin.IsAdmin())
}
