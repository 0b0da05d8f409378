package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewLifecycle(reg)
	require.NoError(t, err)

	m.UploadsBegun.Inc()
	m.StorageDeleteFailures.Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsBegun))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StorageDeleteFailures))

	n, err := testutil.GatherAndCount(reg, "docvault_uploads_begun_total", "docvault_storage_delete_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewLifecycle_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewLifecycle(reg)
	require.NoError(t, err)

	_, err = NewLifecycle(reg)
	assert.Error(t, err)
}
