package service

import (
	"math"
	"regexp"
	"time"

	"github.com/jjenkins/motreport/internal/model"
)

// PassSummary counts decisive test results
type PassSummary struct {
	Passes int `json:"passes"`
	Fails  int `json:"fails"`
}

// Rate returns passes/(passes+fails) as a whole percent, rounding half to even
func (p PassSummary) Rate() (int, error) {
	total := p.Passes + p.Fails
	if total == 0 {
		return 0, ErrInsufficientData
	}
	return int(math.RoundToEven(float64(p.Passes) / float64(total) * 100)), nil
}

// FaultGroup is a defect text seen more than once across the history
type FaultGroup struct {
	// Category is CategoryAdvisory or CategoryMajor (which also covers PRM and DANGEROUS)
	Category model.DefectCategory `json:"category"`
	Text     string               `json:"text"`
	// Label is Text with trailing parenthetical annotations removed
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MileageBucket counts defects found at an odometer reading rounded to the nearest thousand
type MileageBucket struct {
	Mileage    int `json:"mileage"`
	Advisories int `json:"advisories"`
	Majors     int `json:"majors"`
}

// MileagePoint is one odometer reading for charting
type MileagePoint struct {
	CompletedAt time.Time `json:"completedAt"`
	Mileage     int       `json:"mileage"`
}

// Summary bundles the derived metrics handed to the report
type Summary struct {
	AverageAnnualMileage float64         `json:"averageAnnualMileage"`
	HasMileage           bool            `json:"hasMileage"`
	Results              PassSummary     `json:"results"`
	RecurringFaults      []FaultGroup    `json:"recurringFaults"`
	DefectsByMileage     []MileageBucket `json:"defectsByMileage"`
	MileageSeries        []MileagePoint  `json:"mileageSeries"`
}

// Summarize computes every derived metric for a most-recent-first history
func Summarize(tests []model.TestRecord) (*Summary, error) {
	if len(tests) == 0 {
		return nil, ErrInsufficientData
	}

	summary := &Summary{
		Results:          TallyResults(tests),
		RecurringFaults:  RecurringFaults(tests),
		DefectsByMileage: DefectsByMileage(tests),
		MileageSeries:    MileageSeries(tests),
	}

	avg, err := AverageAnnualMileage(tests)
	if err == nil {
		summary.AverageAnnualMileage = avg
		summary.HasMileage = true
	}

	return summary, nil
}

// AverageAnnualMileage anchors on the latest reading and adds each
// year-over-year delta, divided by the number of readings. Tests without a
// numeric reading are skipped.
func AverageAnnualMileage(tests []model.TestRecord) (float64, error) {
	readings := validReadings(tests)
	if len(readings) == 0 {
		return 0, ErrInsufficientData
	}

	total := readings[0]
	for i := 1; i < len(readings); i++ {
		total += readings[i-1] - readings[i]
	}

	return float64(total) / float64(len(readings)), nil
}

// TallyResults counts PASSED and FAILED tests; other results count as neither
func TallyResults(tests []model.TestRecord) PassSummary {
	var summary PassSummary
	for _, t := range tests {
		switch t.Result {
		case model.ResultPassed:
			summary.Passes++
		case model.ResultFailed:
			summary.Fails++
		}
	}
	return summary
}

// RecurringFaults groups defects by exact text within the major and advisory
// partitions and keeps only texts seen more than once. Majors come first,
// each partition in order of first occurrence.
func RecurringFaults(tests []model.TestRecord) []FaultGroup {
	majors := newTextCounter()
	advisories := newTextCounter()

	for _, t := range tests {
		for _, d := range t.Defects {
			switch {
			case d.IsAdvisory():
				advisories.add(d.Text)
			case d.IsMajor():
				majors.add(d.Text)
			}
		}
	}

	groups := majors.recurring(model.CategoryMajor)
	return append(groups, advisories.recurring(model.CategoryAdvisory)...)
}

// DefectsByMileage buckets tests that recorded defects by rounded odometer
// reading. A later test in the sequence replaces an earlier one landing in
// the same bucket. Buckets are returned oldest first.
func DefectsByMileage(tests []model.TestRecord) []MileageBucket {
	var order []int
	buckets := make(map[int]MileageBucket)

	for _, t := range tests {
		if len(t.Defects) == 0 || !t.Odometer.Valid {
			continue
		}

		mileage := int(math.RoundToEven(float64(t.Odometer.Value)/1000) * 1000)
		bucket := MileageBucket{Mileage: mileage}
		for _, d := range t.Defects {
			switch d.Category {
			case model.CategoryAdvisory:
				bucket.Advisories++
			case model.CategoryMajor:
				bucket.Majors++
			}
		}

		if _, seen := buckets[mileage]; !seen {
			order = append(order, mileage)
		}
		buckets[mileage] = bucket
	}

	result := make([]MileageBucket, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		result = append(result, buckets[order[i]])
	}
	return result
}

// MileageSeries returns valid readings oldest first. The input is not modified.
func MileageSeries(tests []model.TestRecord) []MileagePoint {
	points := make([]MileagePoint, 0, len(tests))
	for i := len(tests) - 1; i >= 0; i-- {
		t := tests[i]
		if !t.Odometer.Valid {
			continue
		}
		points = append(points, MileagePoint{CompletedAt: t.CompletedAt, Mileage: t.Odometer.Value})
	}
	return points
}

// annotationPattern matches one trailing parenthetical, allowing one level of nesting
var annotationPattern = regexp.MustCompile(`\s*\((?:[^()]|\([^()]*\))*\)\s*$`)

// StripAnnotations removes trailing parenthetical annotations such as "(5.2.3 (e))"
func StripAnnotations(text string) string {
	for {
		stripped := annotationPattern.ReplaceAllString(text, "")
		if stripped == text || stripped == "" {
			return text
		}
		text = stripped
	}
}

func validReadings(tests []model.TestRecord) []int {
	readings := make([]int, 0, len(tests))
	for _, t := range tests {
		if t.Odometer.Valid {
			readings = append(readings, t.Odometer.Value)
		}
	}
	return readings
}

// textCounter counts texts while remembering first-seen order
type textCounter struct {
	order  []string
	counts map[string]int
}

func newTextCounter() *textCounter {
	return &textCounter{counts: make(map[string]int)}
}

func (c *textCounter) add(text string) {
	if _, seen := c.counts[text]; !seen {
		c.order = append(c.order, text)
	}
	c.counts[text]++
}

func (c *textCounter) recurring(category model.DefectCategory) []FaultGroup {
	var groups []FaultGroup
	for _, text := range c.order {
		if c.counts[text] > 1 {
			groups = append(groups, FaultGroup{
				Category: category,
				Text:     text,
				Label:    StripAnnotations(text),
				Count:    c.counts[text],
			})
		}
	}
	return groups
}
