package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSensitiveAction_URLs(t *testing.T) {
	cases := []struct {
		url   string
		label string
	}{
		{"https://example.com/admin/delete-user?id=5", "a destructive action"},
		{"https://app.example.com/settings/remove-member", "a destructive action"},
		{"https://example.com/reset-password", "credential entry"},
		{"https://api.example.com/page?token=abc123", "credential entry"},
		{"https://shop.example.com/checkout", "a payment flow"},
		{"https://example.com/account/billing", "a payment flow"},
	}

	for _, tc := range cases {
		label, ok := SensitiveAction(tc.url, "")
		assert.True(t, ok, tc.url)
		assert.Equal(t, tc.label, label, tc.url)
	}
}

func TestSensitiveAction_CommandText(t *testing.T) {
	label, ok := SensitiveAction("https://example.com/repo", "click the Delete repository button")
	assert.True(t, ok)
	assert.Equal(t, "a destructive action", label)
}

func TestSensitiveAction_HostNotScanned(t *testing.T) {
	// A vendor name in the host is not an action.
	_, ok := SensitiveAction("https://password-manager.example.com/", "")
	assert.False(t, ok)

	_, ok = SensitiveAction("https://checkout.example.com/", "")
	assert.False(t, ok)
}

func TestSensitiveAction_Clean(t *testing.T) {
	_, ok := SensitiveAction("https://example.com/docs/getting-started", "navigate")
	assert.False(t, ok)
}
