package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPermission_Valid(t *testing.T) {
	assert.True(t, PermissionView.Valid())
	assert.True(t, PermissionEdit.Valid())
	assert.False(t, Permission("owner").Valid())
	assert.False(t, Permission("").Valid())
}

func TestDocument_Pending(t *testing.T) {
	d := &Document{}
	assert.True(t, d.Pending())

	v := "version-id"
	d.CurrentVersionID = &v
	assert.False(t, d.Pending())
}

func TestShare_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, (&Share{}).Expired(now))
	assert.True(t, (&Share{ExpiresAt: &past}).Expired(now))
	assert.True(t, (&Share{ExpiresAt: &now}).Expired(now))
	assert.False(t, (&Share{ExpiresAt: &future}).Expired(now))
}
