package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTenantID(t *testing.T) {
	tenant := "5f7f5af1-6d19-4e3e-b5ab-9d6dbd9a40a3"
	firebaseTenant := "tenant-firebase"

	testCases := []struct {
		name   string
		claims map[string]interface{}
		want   *string
	}{
		{
			name:   "top level tenantId",
			claims: map[string]interface{}{"tenantId": tenant},
			want:   &tenant,
		},
		{
			name: "firebase tenant claim",
			claims: map[string]interface{}{
				"firebase": map[string]interface{}{"tenant": firebaseTenant},
			},
			want: &firebaseTenant,
		},
		{
			name: "top level wins over firebase claim",
			claims: map[string]interface{}{
				"tenantId": tenant,
				"firebase": map[string]interface{}{"tenant": firebaseTenant},
			},
			want: &tenant,
		},
		{
			name:   "missing tenant",
			claims: map[string]interface{}{},
			want:   nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractTenantID(tc.claims)
			if tc.want == nil {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.Equal(t, *tc.want, *got)
		})
	}
}

func TestDefaultCredentialExtractorWithTenantID(t *testing.T) {
	creds, err := DefaultCredentialExtractor(map[string]interface{}{
		"uid":            "user-123",
		"email":          "user@example.com",
		"tenantId":       "5f7f5af1-6d19-4e3e-b5ab-9d6dbd9a40a3",
		"isAdmin":        true,
		"email_verified": true,
	})
	require.NoError(t, err)
	require.NotNil(t, creds.TenantID)
	require.Equal(t, "5f7f5af1-6d19-4e3e-b5ab-9d6dbd9a40a3", *creds.TenantID)
	require.True(t, creds.IsAdmin)
}

func TestDefaultCredentialExtractorWithoutTenant(t *testing.T) {
	creds, err := DefaultCredentialExtractor(map[string]interface{}{
		"uid":   "platform-admin",
		"email": "ops@example.com",
	})
	require.NoError(t, err)
	require.Nil(t, creds.TenantID)
}
