package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/motreport/internal/model"
)

func reading(miles int) model.TestRecord {
	return model.TestRecord{Odometer: model.Odometer{Value: miles, Unit: "MI", Valid: true}}
}

func withResult(result model.TestResult) model.TestRecord {
	return model.TestRecord{Result: result}
}

func withDefects(miles int, defects ...model.Defect) model.TestRecord {
	t := reading(miles)
	t.Defects = defects
	return t
}

func advisory(text string) model.Defect {
	return model.Defect{Text: text, Category: model.CategoryAdvisory}
}

func major(text string) model.Defect {
	return model.Defect{Text: text, Category: model.CategoryMajor}
}

func TestAverageAnnualMileage(t *testing.T) {
	t.Run("single reading", func(t *testing.T) {
		avg, err := AverageAnnualMileage([]model.TestRecord{reading(50000)})
		require.NoError(t, err)
		assert.Equal(t, 50000.0, avg)
	})

	t.Run("telescoping deltas", func(t *testing.T) {
		avg, err := AverageAnnualMileage([]model.TestRecord{reading(60000), reading(50000), reading(40000)})
		require.NoError(t, err)
		assert.InDelta(t, 26666.67, avg, 0.01)
	})

	t.Run("invalid readings are skipped", func(t *testing.T) {
		tests := []model.TestRecord{reading(60000), {Result: model.ResultFailed}, reading(50000)}
		avg, err := AverageAnnualMileage(tests)
		require.NoError(t, err)
		assert.Equal(t, 35000.0, avg)
	})

	t.Run("empty history", func(t *testing.T) {
		_, err := AverageAnnualMileage(nil)
		assert.ErrorIs(t, err, ErrInsufficientData)

		_, err = AverageAnnualMileage([]model.TestRecord{{Result: model.ResultPassed}})
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestTallyResultsAndRate(t *testing.T) {
	tests := []model.TestRecord{
		withResult(model.ResultPassed),
		withResult(model.ResultFailed),
		withResult(model.ResultPassed),
		withResult("ABANDONED"),
		withResult(model.ResultPassed),
	}

	summary := TallyResults(tests)
	assert.Equal(t, PassSummary{Passes: 3, Fails: 1}, summary)

	rate, err := summary.Rate()
	require.NoError(t, err)
	assert.Equal(t, 75, rate)
}

func TestPassRateRounding(t *testing.T) {
	tests := []struct {
		summary PassSummary
		want    int
	}{
		{PassSummary{Passes: 1, Fails: 2}, 33},
		{PassSummary{Passes: 2, Fails: 1}, 67},
		{PassSummary{Passes: 1, Fails: 7}, 12},
		{PassSummary{Passes: 3, Fails: 5}, 38},
		{PassSummary{Passes: 1, Fails: 0}, 100},
	}

	for _, tt := range tests {
		rate, err := tt.summary.Rate()
		require.NoError(t, err)
		assert.Equal(t, tt.want, rate, "%+v", tt.summary)
	}

	_, err := PassSummary{}.Rate()
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRecurringFaults(t *testing.T) {
	t.Run("advisories seen once are excluded", func(t *testing.T) {
		tests := []model.TestRecord{
			withDefects(1000, advisory("Tyre worn"), advisory("Brake pad low")),
			withDefects(2000, advisory("Tyre worn")),
		}

		groups := RecurringFaults(tests)
		require.Len(t, groups, 1)
		assert.Equal(t, FaultGroup{Category: model.CategoryAdvisory, Text: "Tyre worn", Label: "Tyre worn", Count: 2}, groups[0])
	})

	t.Run("PRM and DANGEROUS group with MAJOR", func(t *testing.T) {
		tests := []model.TestRecord{
			withDefects(3000,
				model.Defect{Text: "Headlamp aim too high (1.8 (b) (i))", Category: model.CategoryPRM},
				advisory("Oil leak"),
			),
			withDefects(2000,
				major("Headlamp aim too high (1.8 (b) (i))"),
				advisory("Oil leak"),
				model.Defect{Text: "Minor chip", Category: model.CategoryMinor},
				model.Defect{Text: "Minor chip", Category: model.CategoryMinor},
			),
			withDefects(1000,
				model.Defect{Text: "Headlamp aim too high (1.8 (b) (i))", Category: model.CategoryDangerous},
			),
		}

		groups := RecurringFaults(tests)
		require.Len(t, groups, 2)
		assert.Equal(t, model.CategoryMajor, groups[0].Category)
		assert.Equal(t, 3, groups[0].Count)
		assert.Equal(t, "Headlamp aim too high", groups[0].Label)
		assert.Equal(t, model.CategoryAdvisory, groups[1].Category)
		assert.Equal(t, "Oil leak", groups[1].Text)
	})

	t.Run("text match is exact", func(t *testing.T) {
		tests := []model.TestRecord{
			withDefects(1000, advisory("Tyre worn")),
			withDefects(2000, advisory("tyre worn")),
		}
		assert.Empty(t, RecurringFaults(tests))
	})
}

func TestDefectsByMileage(t *testing.T) {
	tests := []model.TestRecord{
		withDefects(30400, major("Brake"), advisory("Tyre")),
		withDefects(29600, advisory("Wiper")),
		withDefects(20500, advisory("Tyre"), model.Defect{Text: "Lamp", Category: model.CategoryDangerous}),
		reading(10000),
	}

	buckets := DefectsByMileage(tests)

	assert.Equal(t, []MileageBucket{
		{Mileage: 20000, Advisories: 1, Majors: 0},
		{Mileage: 30000, Advisories: 1, Majors: 0},
	}, buckets)
}

func TestMileageSeries(t *testing.T) {
	recent := reading(60000)
	recent.CompletedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := reading(50000)
	older.CompletedAt = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []model.TestRecord{recent, {}, older}

	series := MileageSeries(tests)

	assert.Equal(t, []MileagePoint{
		{CompletedAt: older.CompletedAt, Mileage: 50000},
		{CompletedAt: recent.CompletedAt, Mileage: 60000},
	}, series)
	assert.Equal(t, 60000, tests[0].Odometer.Value, "input order is untouched")
}

func TestStripAnnotations(t *testing.T) {
	tests := map[string]string{
		"Tyre worn close to legal limit (5.2.3 (e))": "Tyre worn close to legal limit",
		"Brake disc worn (1.1.14 (a) (ii)) (rear)":   "Brake disc worn",
		"Oil leak":                                   "Oil leak",
		"(1.2)":                                      "(1.2)",
		"Exhaust (front section) has a minor leak":   "Exhaust (front section) has a minor leak",
	}

	for in, want := range tests {
		assert.Equal(t, want, StripAnnotations(in), in)
	}
}

func TestSummarize(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	tests := []model.TestRecord{
		{Result: model.ResultPassed, Odometer: model.Odometer{Value: 60000, Valid: true}},
		{Result: model.ResultFailed},
	}

	summary, err := Summarize(tests)
	require.NoError(t, err)
	assert.True(t, summary.HasMileage)
	assert.Equal(t, 60000.0, summary.AverageAnnualMileage)
	assert.Equal(t, PassSummary{Passes: 1, Fails: 1}, summary.Results)

	summary, err = Summarize([]model.TestRecord{{Result: model.ResultPassed}})
	require.NoError(t, err)
	assert.False(t, summary.HasMileage)
}
