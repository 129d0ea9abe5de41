package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 12, 345000000, time.UTC)
	endOf := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 23, 59, 59, 999000000, time.UTC)
	}
	startOf := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		want DateRange
	}{
		{PresetToday, DateRange{From: startOf(2024, 6, 15), To: startOf(2024, 6, 16)}},
		{PresetLast7Days, DateRange{From: startOf(2024, 6, 9), To: endOf(2024, 6, 15)}},
		{PresetLast30Days, DateRange{From: startOf(2024, 5, 17), To: endOf(2024, 6, 15)}},
		{PresetThisMonth, DateRange{From: startOf(2024, 6, 1), To: endOf(2024, 6, 30)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolvePreset(tt.name, now)
			require.True(t, ok)
			assert.True(t, got.Equal(tt.want), "got %+v, want %+v", got, tt.want)
			assert.True(t, got.Bounded(), "presets always set both bounds")
		})
	}
}

func TestThisMonthFebruaryLeapYear(t *testing.T) {
	got := ThisMonth(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-29", got.To.Format("2006-01-02"))
	got = ThisMonth(time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2023-12-01", got.From.Format("2006-01-02"))
	assert.Equal(t, "2023-12-31", got.To.Format("2006-01-02"))
}

func TestTodayIsDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, Today(now), Today(now))
}

func TestPresetsKeepLocation(t *testing.T) {
	rome := time.FixedZone("CEST", 2*60*60)
	now := time.Date(2024, 6, 1, 0, 30, 0, 0, rome)
	got := Last7Days(now)
	assert.Equal(t, rome, got.From.Location())
	assert.Equal(t, time.Date(2024, 5, 26, 0, 0, 0, 0, rome), got.From)
}

func TestResolvePresetUnknown(t *testing.T) {
	_, ok := ResolvePreset("yesterday", time.Now())
	assert.False(t, ok)

	got, ok := ResolvePreset("  LAST7DAYS ", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 9, got.From.Day())
}

func TestPresetsCatalogIsCopy(t *testing.T) {
	p := Presets()
	require.Len(t, p, 4)
	p[0].Name = "mutated"
	assert.Equal(t, PresetToday, Presets()[0].Name)
}

func TestCustomRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "both bounds",
			from:     "2024-06-01",
			to:       "2024-06-02",
			wantFrom: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 6, 2, 23, 59, 59, 999000000, time.UTC),
		},
		{
			name:     "only from",
			from:     "2024-06-01",
			wantFrom: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "unparsable from is open",
			from:   "01/06/2024",
			to:     "2024-06-02",
			wantTo: time.Date(2024, 6, 2, 23, 59, 59, 999000000, time.UTC),
		},
		{
			name: "both empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CustomRange(tt.from, tt.to, time.UTC)
			assert.True(t, got.From.Equal(tt.wantFrom), "from = %v", got.From)
			assert.True(t, got.To.Equal(tt.wantTo), "to = %v", got.To)
		})
	}
}

func TestDateRangeContainsAndOverlaps(t *testing.T) {
	r := DateRange{From: at(2, 0, 0), To: at(3, 0, 0)}

	assert.True(t, r.Contains(at(2, 0, 0)), "lower bound inclusive")
	assert.True(t, r.Contains(at(3, 0, 0)), "upper bound inclusive")
	assert.False(t, r.Contains(at(1, 23, 59)))
	assert.False(t, r.Contains(at(3, 0, 1)))

	assert.True(t, r.Overlaps(at(1, 0, 0), at(2, 0, 0)), "touching start")
	assert.True(t, r.Overlaps(at(1, 0, 0), at(5, 0, 0)), "spanning")
	assert.False(t, r.Overlaps(at(3, 0, 1), at(5, 0, 0)))

	open := DateRange{}
	assert.True(t, open.Contains(time.Time{}))
	assert.True(t, DateRange{From: at(2, 0, 0)}.Contains(at(30, 0, 0)))

	inverted := DateRange{From: at(3, 0, 0), To: at(2, 0, 0)}
	assert.False(t, inverted.Contains(at(2, 12, 0)))
	assert.True(t, inverted.Inverted())
	assert.False(t, r.Inverted())
	assert.False(t, inverted.Overlaps(at(2, 12, 0), at(2, 13, 0)))
	assert.False(t, inverted.Overlaps(at(1, 0, 0), at(10, 0, 0)), "span covering the gap")
}

func TestResolveRange(t *testing.T) {
	now := at(15, 14, 30)

	got := ResolveRange(" Last7Days ", "2024-01-01", "2024-01-02", now, time.UTC)
	assert.True(t, got.Equal(Last7Days(now)), "known preset wins")

	got = ResolveRange("tomorrow", "2024-06-01", "", now, time.UTC)
	assert.True(t, got.Equal(CustomRange("2024-06-01", "", time.UTC)), "unknown preset falls back")

	assert.True(t, ResolveRange("", "", "", now, time.UTC).IsZero())
}
