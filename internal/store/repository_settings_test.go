package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository(t *testing.T) {
	ctx := testContext()
	s := newTestStorages(t)

	_, ok, err := s.Settings.GetTime(ctx, SettingLastForegroundSync)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Settings.SetTime(ctx, SettingLastForegroundSync, testEpoch))
	require.NoError(t, s.Settings.SetTime(ctx, SettingLastForegroundSync, testEpoch.Add(time.Hour)))

	got, ok, err := s.Settings.GetTime(ctx, SettingLastForegroundSync)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, testEpoch.Add(time.Hour).Equal(got))

	_, ok, err = s.Settings.GetTime(ctx, SettingLastSuccessfulSync)
	require.NoError(t, err)
	assert.False(t, ok, "keys are independent")

	require.NoError(t, s.Settings.Delete(ctx, SettingLastForegroundSync))
	_, ok, err = s.Settings.GetTime(ctx, SettingLastForegroundSync)
	require.NoError(t, err)
	assert.False(t, ok)
}
