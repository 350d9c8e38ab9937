package holidays

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNationalHolidaysUS(t *testing.T) {
	list, err := NationalHolidays(" us ", 2026)
	require.NoError(t, err)
	require.Len(t, list, 9)

	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].Date.Before(list[i].Date), "sorted by date")
	}
	dates := map[time.Time]bool{}
	for _, in := range list {
		assert.Equal(t, CategoryNational, in.Category)
		dates[in.Date] = true
	}
	assert.True(t, dates[time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)])
	assert.True(t, dates[time.Date(2026, time.July, 3, 0, 0, 0, 0, time.UTC)], "July 4th on a Saturday is observed Friday")
	assert.True(t, dates[time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC)])
}

func TestNationalHolidaysUnknownRegion(t *testing.T) {
	_, err := NationalHolidays("XX", 2026)
	assert.ErrorIs(t, err, ErrUnknownRegion)
	assert.Equal(t, []string{"GB", "US"}, Regions())
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("regional")
	require.NoError(t, err)
	assert.Equal(t, CategoryRegional, c)

	c, err = ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, CategoryCompany, c)

	_, err = ParseCategory("floating")
	assert.Error(t, err)
}

func TestSetUsesCivilDate(t *testing.T) {
	set := NewSet([]Holiday{{Name: "Founders", Date: time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)}})
	assert.True(t, set.IsHoliday(time.Date(2026, 5, 4, 17, 30, 0, 0, time.UTC)))
	assert.False(t, set.IsHoliday(time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)))
}
