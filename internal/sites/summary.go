package sites

import (
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/survey"
)

// Summary is the calorie total of one site in one year. A field record
// bracketed into low and high variants adds its low variant to CaloriesLow
// and its high variant to CaloriesHigh; other records add to both.
type Summary struct {
	Site         string  `json:"site"`
	Year         int     `json:"year"`
	Plants       int     `json:"plants"`
	Defined      int     `json:"defined"`
	Missing      int     `json:"missing"`
	CaloriesLow  float64 `json:"calories_low"`
	CaloriesHigh float64 `json:"calories_high"`
}

type siteYear struct {
	site string
	year int
}

// Summarize groups plant rows by site and year. A field record counts as
// defined only when every variant of it has defined calories; undefined
// variants add nothing to the totals.
func Summarize(plants []model.PlantCalories) []Summary {
	groups := make(map[siteYear]*Summary)
	records := make(map[siteYear]map[int]bool)

	for _, p := range plants {
		k := siteYear{site: normalizeSite(p.Site), year: p.Year}
		s, ok := groups[k]
		if !ok {
			s = &Summary{Site: k.site, Year: k.year}
			groups[k] = s
			records[k] = make(map[int]bool)
		}

		defined, seen := records[k][p.RowID]
		if !seen {
			s.Plants++
			defined = true
		}
		if p.CaloriesPerPlant.Valid {
			v := p.CaloriesPerPlant.V
			switch p.Bound {
			case model.BoundLow:
				s.CaloriesLow += v
			case model.BoundHigh:
				s.CaloriesHigh += v
			default:
				s.CaloriesLow += v
				s.CaloriesHigh += v
			}
		} else {
			defined = false
		}
		records[k][p.RowID] = defined
	}

	out := make([]Summary, 0, len(groups))
	for k, s := range groups {
		for _, ok := range records[k] {
			if ok {
				s.Defined++
			} else {
				s.Missing++
			}
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Site != out[j].Site {
			return out[i].Site < out[j].Site
		}
		return out[i].Year < out[j].Year
	})

	zap.L().Info("sites: site summaries computed",
		zap.Int("plants", len(plants)),
		zap.Int("site_years", len(out)),
	)
	return out
}

// SummaryColumns is the site summary table header.
var SummaryColumns = []string{"site", "year", "plants", "defined", "missing", "calories_low", "calories_high"}

// Render renders summaries as the site_summary table.
func Render(summaries []Summary) survey.Rendered {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		year := "NA"
		if s.Year != 0 {
			year = strconv.Itoa(s.Year)
		}
		rows = append(rows, []string{
			s.Site,
			year,
			strconv.Itoa(s.Plants),
			strconv.Itoa(s.Defined),
			strconv.Itoa(s.Missing),
			strconv.FormatFloat(s.CaloriesLow, 'f', -1, 64),
			strconv.FormatFloat(s.CaloriesHigh, 'f', -1, 64),
		})
	}
	return survey.Rendered{Name: "site_summary", Header: SummaryColumns, Rows: rows}
}
