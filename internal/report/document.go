// Package report assembles a vehicle record and its derived metrics into a printable document
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jjenkins/motreport/internal/model"
	"github.com/jjenkins/motreport/internal/service"
)

const displayDate = "02/01/2006"

// Tone selects the colour of a line
type Tone int

const (
	ToneNormal Tone = iota
	ToneBold
	ToneAmber
	ToneRed
)

// Line is one "Label: Value" row
type Line struct {
	Label string
	Value string
	Tone  Tone
}

// Section is a titled list of lines
type Section struct {
	Title string
	Lines []Line
}

// History holds everything rendered when the vehicle has test history
type History struct {
	Information     Section
	RecurringFaults []Line
	MileageSeries   []service.MileagePoint
	DefectBuckets   []service.MileageBucket
	// Rows are Date, Mileage, Comments, Result
	Rows [][4]string
}

// Document is the content of one report, independent of layout
type Document struct {
	Registration   string
	Identification Section
	Condition      Section
	// History is nil when the vehicle has never been tested
	History *History
	// Notice replaces History for untested vehicles
	Notice []Line
}

var printer = message.NewPrinter(language.BritishEnglish)

// Build derives the report content. now decides whether the latest test is still valid.
func Build(vehicle *model.VehicleRecord, summary *service.Summary, now time.Time) *Document {
	doc := &Document{
		Registration: vehicle.Registration.Or(model.Unavailable),
		Identification: Section{
			Title: "Vehicle Identification and Registration",
			Lines: []Line{
				{Label: "Registration", Value: vehicle.Registration.String()},
				{Label: "Make & Model", Value: fmt.Sprintf("%s %s", vehicle.Make, vehicle.Model)},
				{Label: "Colour", Value: vehicle.Colour.String()},
				{Label: "Wheel Plan", Value: vehicle.WheelPlan.String()},
				{Label: "Registration Date", Value: formatDate(vehicle.RegistrationDate)},
				{Label: "First Used Date", Value: formatDate(vehicle.FirstUsedDate)},
				{Label: "Last V5C Issued", Value: formatDate(vehicle.LastV5CIssued)},
				{Label: "Type Approval", Value: vehicle.TypeApproval.String()},
				{Label: "Marked for Export", Value: yesNo(vehicle.MarkedForExport)},
			},
		},
		Condition: Section{
			Title: "Vehicle Condition and Inspection",
			Lines: []Line{
				{Label: "Fuel Type", Value: vehicle.FuelType.String()},
				{Label: "Engine Capacity", Value: withUnit(vehicle.EngineSize, "cc")},
				{Label: "Co2 Emissions", Value: withUnit(vehicle.CO2Emissions, "g/km")},
				{Label: "MOT Due", Value: formatDate(vehicle.TestDueDate)},
				{Label: "MOT Expiry Date", Value: formatDate(vehicle.TestExpiryDate)},
				{Label: "Recalls?", Value: recallText(vehicle.OutstandingRecall)},
				{Label: "Tax Status", Value: vehicle.TaxStatus.String()},
				{Label: "Tax Due", Value: formatDate(vehicle.TaxDueDate)},
			},
		},
	}

	latest, ok := vehicle.LatestTest()
	if !ok || summary == nil {
		if due, ok := vehicle.TestDueDate.Date(); ok {
			doc.Notice = []Line{
				{Value: "MOT due: " + due.Format(displayDate), Tone: ToneBold},
				{Value: "MOT data will be available after the vehicle's first MOT test"},
			}
		} else {
			doc.Notice = []Line{{Value: "No MOT data available", Tone: ToneBold}}
		}
		return doc
	}

	doc.History = buildHistory(vehicle, latest, summary, now)
	return doc
}

func buildHistory(vehicle *model.VehicleRecord, latest model.TestRecord, summary *service.Summary, now time.Time) *History {
	passRate := model.Unavailable
	if rate, err := summary.Results.Rate(); err == nil {
		passRate = fmt.Sprintf("%d%%", rate)
	}

	avgMileage := model.Unavailable
	if summary.HasMileage {
		avgMileage = printer.Sprintf("%d", int64(math.RoundToEven(summary.AverageAnnualMileage)))
	}

	history := &History{
		Information: Section{
			Title: "MOT Information",
			Lines: []Line{
				{Label: "MOT Status", Value: vehicle.TestStatus.String()},
				{Label: "MOT Valid", Value: boolText(testValid(latest, now))},
				{Label: "Recent Test Date", Value: formatTimestamp(latest, displayDate)},
				{Label: "Recent Result", Value: string(latest.Result)},
				{Label: "Recent Odometer Reading", Value: formatReading(latest.Odometer)},
				{Label: "Odometer Unit", Value: latest.Odometer.UnitName()},
				{Label: "Recent Location", Value: latest.Location},
				{Label: "Total No. Passes", Value: fmt.Sprint(summary.Results.Passes)},
				{Label: "Total No. Fails", Value: fmt.Sprint(summary.Results.Fails)},
				{Label: "Pass Rate", Value: passRate},
				{Label: "Average Annual Mileage", Value: avgMileage},
			},
		},
		MileageSeries: summary.MileageSeries,
		DefectBuckets: summary.DefectsByMileage,
	}

	for _, group := range summary.RecurringFaults {
		line := Line{Value: fmt.Sprintf("%s (x%d)", group.Label, group.Count)}
		if group.Category == model.CategoryAdvisory {
			line.Label = "ADVISE"
			line.Tone = ToneAmber
		} else {
			line.Label = "MAJOR"
			line.Tone = ToneRed
		}
		history.RecurringFaults = append(history.RecurringFaults, line)
	}

	for _, t := range vehicle.Tests {
		history.Rows = append(history.Rows, [4]string{
			formatTimestamp(t, displayDate+" 15:04"),
			formatReading(t.Odometer),
			fmt.Sprint(len(t.Defects)),
			string(t.Result),
		})
	}

	return history
}

// testValid reports whether the latest test passed and has not yet expired
func testValid(latest model.TestRecord, now time.Time) bool {
	if latest.Result != model.ResultPassed {
		return false
	}
	expiry, ok := latest.Expiry()
	if !ok {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !expiry.Before(today)
}

func formatDate(v model.Value) string {
	if d, ok := v.Date(); ok {
		return d.Format(displayDate)
	}
	if text, ok := v.Get(); ok && text != "" {
		return text
	}
	return model.Unavailable
}

func formatTimestamp(t model.TestRecord, layout string) string {
	if t.CompletedAt.IsZero() {
		if t.CompletedRaw != "" {
			return t.CompletedRaw
		}
		return model.Unavailable
	}
	return t.CompletedAt.Format(layout)
}

func formatReading(o model.Odometer) string {
	if !o.Valid {
		return model.Unavailable
	}
	return printer.Sprintf("%d", o.Value)
}

func withUnit(v model.Value, unit string) string {
	text, ok := v.Get()
	if !ok || text == "" {
		return v.String()
	}
	return text + " " + unit
}

// recallText shows "Unknown" (the provider's usual answer) as "No"
func recallText(v model.Value) string {
	if text, ok := v.Get(); ok && strings.EqualFold(text, "Unknown") {
		return "No"
	}
	return v.String()
}

func yesNo(v model.Value) string {
	text, ok := v.Get()
	if !ok {
		return v.String()
	}
	switch strings.ToLower(text) {
	case "true":
		return "Yes"
	case "false":
		return "No"
	}
	return text
}

func boolText(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
