package service

import "github.com/jjenkins/motreport/internal/model"

// fieldRule reconciles one VehicleRecord attribute. Provider A's key wins
// whenever A defines it; an empty key means that provider never carries the field.
type fieldRule struct {
	Name    string
	AKey    string
	BKey    string
	Default string
	set     func(v *model.VehicleRecord, val model.Value)
}

// vehicleFields lists every scalar attribute of model.VehicleRecord exactly once
var vehicleFields = []fieldRule{
	// Carried by both providers under different names
	{Name: "registration", AKey: "registration", BKey: "registrationNumber", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.Registration = val }},
	{Name: "make", AKey: "make", BKey: "make", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.Make = val }},
	{Name: "model", AKey: "model", BKey: "model", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.Model = val }},
	{Name: "colour", AKey: "primaryColour", BKey: "colour", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.Colour = val }},
	{Name: "fuelType", AKey: "fuelType", BKey: "fuelType", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.FuelType = val }},
	{Name: "engineSize", AKey: "engineSize", BKey: "engineCapacity", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.EngineSize = val }},

	// MOT history only
	{Name: "firstUsedDate", AKey: "firstUsedDate",
		set: func(v *model.VehicleRecord, val model.Value) { v.FirstUsedDate = val }},
	{Name: "registrationDate", AKey: "registrationDate",
		set: func(v *model.VehicleRecord, val model.Value) { v.RegistrationDate = val }},
	{Name: "manufactureDate", AKey: "manufactureDate",
		set: func(v *model.VehicleRecord, val model.Value) { v.ManufactureDate = val }},
	{Name: "testDueDate", AKey: "motTestDueDate",
		set: func(v *model.VehicleRecord, val model.Value) { v.TestDueDate = val }},
	{Name: "outstandingRecall", AKey: "hasOutstandingRecall", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.OutstandingRecall = val }},

	// Vehicle enquiry only
	{Name: "wheelPlan", BKey: "wheelplan", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.WheelPlan = val }},
	{Name: "yearOfManufacture", BKey: "yearOfManufacture", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.YearOfManufacture = val }},
	{Name: "monthOfFirstRegistration", BKey: "monthOfFirstRegistration", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.MonthOfFirstRegistration = val }},
	{Name: "monthOfFirstDvlaRegistration", BKey: "monthOfFirstDvlaRegistration", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.MonthOfFirstDVLARegistration = val }},
	{Name: "taxStatus", BKey: "taxStatus", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.TaxStatus = val }},
	{Name: "taxDueDate", BKey: "taxDueDate",
		set: func(v *model.VehicleRecord, val model.Value) { v.TaxDueDate = val }},
	{Name: "testStatus", BKey: "motStatus", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.TestStatus = val }},
	{Name: "testExpiryDate", BKey: "motExpiryDate",
		set: func(v *model.VehicleRecord, val model.Value) { v.TestExpiryDate = val }},
	{Name: "typeApproval", BKey: "typeApproval", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.TypeApproval = val }},
	{Name: "markedForExport", BKey: "markedForExport", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.MarkedForExport = val }},
	{Name: "co2Emissions", BKey: "co2Emissions", Default: model.Unavailable,
		set: func(v *model.VehicleRecord, val model.Value) { v.CO2Emissions = val }},
	{Name: "dateOfLastV5CIssued", BKey: "dateOfLastV5CIssued",
		set: func(v *model.VehicleRecord, val model.Value) { v.LastV5CIssued = val }},
}

// testKeys are the provider A keys that may hold the test history, in lookup order
var testKeys = []string{"motTests", "tests"}
