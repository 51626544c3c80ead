package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jjenkins/motreport/internal/model"
)

// completedLayouts are tried in order when parsing a test completion timestamp
var completedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	model.DateLayout,
}

// NormalizeTests converts provider A's raw test list into TestRecords.
// Order and membership are preserved exactly; missing sub-fields are defaulted.
func NormalizeTests(raw any) ([]model.TestRecord, error) {
	if raw == nil {
		return []model.TestRecord{}, nil
	}

	entries, ok := raw.([]any)
	if !ok {
		return nil, &MalformedTestDataError{Index: -1, Reason: fmt.Sprintf("expected a list, got %T", raw)}
	}

	tests := make([]model.TestRecord, 0, len(entries))
	for idx, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, &MalformedTestDataError{Index: idx, Reason: fmt.Sprintf("expected an object, got %T", entry)}
		}

		test, err := normalizeTest(idx, fields)
		if err != nil {
			return nil, err
		}
		tests = append(tests, test)
	}

	return tests, nil
}

func normalizeTest(idx int, fields map[string]any) (model.TestRecord, error) {
	test := model.TestRecord{
		TestNumber:   textOr(fields["motTestNumber"], model.Unavailable),
		CompletedRaw: textOr(fields["completedDate"], ""),
		ExpiryDate:   textOr(fields["expiryDate"], model.Unavailable),
		Result:       model.TestResult(textOr(fields["testResult"], model.Unavailable)),
		DataSource:   textOr(fields["dataSource"], model.Unavailable),
		Location:     textOr(fields["location"], model.Unavailable),
		Odometer:     parseOdometer(fields),
	}
	test.CompletedAt = parseCompleted(test.CompletedRaw)

	defects, err := normalizeDefects(idx, fields["defects"])
	if err != nil {
		return model.TestRecord{}, err
	}
	test.Defects = defects

	return test, nil
}

// normalizeDefects converts one test's defect list; no defects yields an empty, non-nil slice
func normalizeDefects(idx int, raw any) ([]model.Defect, error) {
	if raw == nil {
		return []model.Defect{}, nil
	}

	entries, ok := raw.([]any)
	if !ok {
		return nil, &MalformedTestDataError{Index: idx, Reason: fmt.Sprintf("defects: expected a list, got %T", raw)}
	}

	defects := make([]model.Defect, 0, len(entries))
	for _, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, &MalformedTestDataError{Index: idx, Reason: fmt.Sprintf("defect: expected an object, got %T", entry)}
		}

		category := model.DefectCategory(model.Unavailable)
		if text := scalarString(fields["type"]); text != "" {
			category = model.DefectCategory(strings.ToUpper(text))
		}

		dangerous, _ := fields["dangerous"].(bool)
		defects = append(defects, model.Defect{
			Text:      textOr(fields["text"], model.Unavailable),
			Category:  category,
			Dangerous: dangerous,
		})
	}

	return defects, nil
}

func parseOdometer(fields map[string]any) model.Odometer {
	odometer := model.Odometer{
		Unit:       textOr(fields["odometerUnit"], model.Unavailable),
		ResultType: textOr(fields["odometerResultType"], model.Unavailable),
	}

	text := strings.TrimSpace(scalarString(fields["odometerValue"]))
	if text == "" {
		return odometer
	}
	value, err := strconv.Atoi(text)
	if err != nil {
		// Some readings arrive as "12345.0"
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || math.IsNaN(f) || math.Abs(f) > math.MaxInt32 {
			return odometer
		}
		value = int(f)
	}
	odometer.Value = value
	odometer.Valid = true

	return odometer
}

func parseCompleted(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range completedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// textOr returns the scalar text of raw, or def when raw is absent, null or empty
func textOr(raw any, def string) string {
	if s := scalarString(raw); s != "" {
		return s
	}
	return def
}
