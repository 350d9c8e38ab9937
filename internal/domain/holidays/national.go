package holidays

import (
	"sort"
	"strings"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/us"
)

var regions = map[string][]*cal.Holiday{
	"US": {
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	},
	"GB": {
		gb.NewYear,
		gb.GoodFriday,
		gb.EasterMonday,
		gb.EarlyMay,
		gb.SpringHoliday,
		gb.SummerHoliday,
		gb.ChristmasDay,
		gb.BoxingDay,
	},
}

func Regions() []string {
	out := make([]string, 0, len(regions))
	for code := range regions {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// NationalHolidays returns the observed public holidays of region for year.
func NationalHolidays(region string, year int) ([]CreateInput, error) {
	list, ok := regions[strings.ToUpper(strings.TrimSpace(region))]
	if !ok {
		return nil, ErrUnknownRegion
	}
	out := make([]CreateInput, 0, len(list))
	for _, h := range list {
		_, observed := h.Calc(year)
		if observed.IsZero() {
			continue
		}
		out = append(out, CreateInput{
			Name:     h.Name,
			Date:     Day(observed),
			Category: CategoryNational,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
