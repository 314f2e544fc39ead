package policy

import (
	"testing"
	"time"

	"github.com/jon4hz/episweep/config"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		cfg    *config.Config
		series string
		want   Resolution
	}{
		{
			name: "no overrides",
			cfg: &config.Config{
				GraceDays:            2,
				UnmonitorAfterDelete: true,
			},
			series: "Foo",
			want:   Resolution{GraceDays: 2, UnmonitorAfterDelete: true},
		},
		{
			name: "full override",
			cfg: &config.Config{
				GraceDays:            2,
				UnmonitorAfterDelete: true,
				SeriesSettings: map[string]*config.SeriesSettings{
					"Foo": {
						GraceDays:            lo.ToPtr(0),
						UnmonitorAfterDelete: lo.ToPtr(false),
					},
				},
			},
			series: "Foo",
			want:   Resolution{GraceDays: 0, UnmonitorAfterDelete: false},
		},
		{
			name: "partial override keeps global unmonitor",
			cfg: &config.Config{
				GraceDays:            2,
				UnmonitorAfterDelete: true,
				SeriesSettings: map[string]*config.SeriesSettings{
					"Foo": {GraceDays: lo.ToPtr(7)},
				},
			},
			series: "Foo",
			want:   Resolution{GraceDays: 7, UnmonitorAfterDelete: true},
		},
		{
			name: "partial override keeps global grace",
			cfg: &config.Config{
				GraceDays: 2,
				SeriesSettings: map[string]*config.SeriesSettings{
					"Foo": {UnmonitorAfterDelete: lo.ToPtr(true)},
				},
			},
			series: "Foo",
			want:   Resolution{GraceDays: 2, UnmonitorAfterDelete: true},
		},
		{
			name: "override for other series does not apply",
			cfg: &config.Config{
				GraceDays: 2,
				SeriesSettings: map[string]*config.SeriesSettings{
					"Bar": {GraceDays: lo.ToPtr(0)},
				},
			},
			series: "Foo",
			want:   Resolution{GraceDays: 2},
		},
		{
			name: "nil series entry treated as no override",
			cfg: &config.Config{
				GraceDays: 2,
				SeriesSettings: map[string]*config.SeriesSettings{
					"Foo": nil,
				},
			},
			series: "Foo",
			want:   Resolution{GraceDays: 2},
		},
		{
			name: "case insensitive series lookup",
			cfg: &config.Config{
				GraceDays: 2,
				SeriesSettings: map[string]*config.SeriesSettings{
					"foo": {GraceDays: lo.ToPtr(0)},
				},
			},
			series: "FOO",
			want:   Resolution{GraceDays: 0},
		},
		{
			name: "negative override clamped to zero",
			cfg: &config.Config{
				GraceDays: 2,
				SeriesSettings: map[string]*config.SeriesSettings{
					"Foo": {GraceDays: lo.ToPtr(-5)},
				},
			},
			series: "Foo",
			want:   Resolution{GraceDays: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.series, tt.cfg))
		})
	}
}

func TestResolutionDueAt(t *testing.T) {
	watchedAt := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

	res := Resolution{GraceDays: 2}
	dueAt := res.DueAt(watchedAt)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), dueAt)

	// not due the day before the boundary
	assert.False(t, res.IsDue(watchedAt, time.Date(2025, 6, 2, 23, 59, 59, 0, time.UTC)))
	// due on the boundary day
	assert.True(t, res.IsDue(watchedAt, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)))
	assert.True(t, res.IsDue(watchedAt, time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)))
}

func TestResolutionDueAtZeroGrace(t *testing.T) {
	watchedAt := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

	res := Resolution{GraceDays: 0}
	// same-day deletion: due immediately after being watched
	assert.True(t, res.IsDue(watchedAt, watchedAt))
}
