package model

import "time"

// DateLayout is the provider date format (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// Payload is a raw provider response decoded from JSON.
// Numbers are kept as json.Number so their literal text survives.
type Payload map[string]any

// VehicleRecord is the reconciled view of one vehicle
type VehicleRecord struct {
	// Identity
	Registration Value `json:"registration"`
	Make         Value `json:"make"`
	Model        Value `json:"model"`

	// Physical attributes
	Colour     Value `json:"colour"`
	FuelType   Value `json:"fuelType"`
	EngineSize Value `json:"engineSize"`
	WheelPlan  Value `json:"wheelPlan"`

	// Regulatory attributes
	FirstUsedDate                Value `json:"firstUsedDate"`
	RegistrationDate             Value `json:"registrationDate"`
	ManufactureDate              Value `json:"manufactureDate"`
	YearOfManufacture            Value `json:"yearOfManufacture"`
	MonthOfFirstRegistration     Value `json:"monthOfFirstRegistration"`
	MonthOfFirstDVLARegistration Value `json:"monthOfFirstDvlaRegistration"`
	TaxStatus                    Value `json:"taxStatus"`
	TaxDueDate                   Value `json:"taxDueDate"`
	TestStatus                   Value `json:"testStatus"`
	TestDueDate                  Value `json:"testDueDate"`
	TestExpiryDate               Value `json:"testExpiryDate"`
	OutstandingRecall            Value `json:"outstandingRecall"`
	TypeApproval                 Value `json:"typeApproval"`
	MarkedForExport              Value `json:"markedForExport"`
	CO2Emissions                 Value `json:"co2Emissions"`
	LastV5CIssued                Value `json:"dateOfLastV5CIssued"`

	// Tests is ordered most-recent-first, as provider A returns it
	Tests []TestRecord `json:"tests"`
}

// HasHistory reports whether the vehicle has any recorded tests
func (v *VehicleRecord) HasHistory() bool {
	return len(v.Tests) > 0
}

// LatestTest returns the most recent test, if any
func (v *VehicleRecord) LatestTest() (TestRecord, bool) {
	if len(v.Tests) == 0 {
		return TestRecord{}, false
	}
	return v.Tests[0], true
}

// TestResult is the outcome of a test
type TestResult string

const (
	ResultPassed TestResult = "PASSED"
	ResultFailed TestResult = "FAILED"
)

// Odometer is the reading taken during a test
type Odometer struct {
	Value      int    `json:"value"`
	Unit       string `json:"unit"`
	ResultType string `json:"resultType"`
	// Valid is false when the provider did not supply a numeric reading
	Valid bool `json:"valid"`
}

// UnitName returns the human readable unit
func (o Odometer) UnitName() string {
	if o.Unit == "MI" {
		return "Miles"
	}
	return "Kilometers"
}

// TestRecord is one historical inspection event
type TestRecord struct {
	TestNumber string `json:"testNumber"`
	// CompletedRaw is the timestamp exactly as the provider sent it
	CompletedRaw string `json:"completedDate"`
	// CompletedAt is zero when CompletedRaw could not be parsed
	CompletedAt time.Time  `json:"completedAt"`
	ExpiryDate  string     `json:"expiryDate"`
	Odometer    Odometer   `json:"odometer"`
	Result      TestResult `json:"result"`
	DataSource  string     `json:"dataSource"`
	Defects     []Defect   `json:"defects"`
	Location    string     `json:"location"`
}

// Expiry parses ExpiryDate
func (t TestRecord) Expiry() (time.Time, bool) {
	e, err := time.Parse(DateLayout, t.ExpiryDate)
	if err != nil {
		return time.Time{}, false
	}
	return e, true
}

// DefectCategory classifies a defect
type DefectCategory string

const (
	CategoryAdvisory  DefectCategory = "ADVISORY"
	CategoryMajor     DefectCategory = "MAJOR"
	CategoryDangerous DefectCategory = "DANGEROUS"
	CategoryPRM       DefectCategory = "PRM"
	CategoryMinor     DefectCategory = "MINOR"
	CategoryFail      DefectCategory = "FAIL"
)

// Defect is one fault noted during a test
type Defect struct {
	Text      string         `json:"text"`
	Category  DefectCategory `json:"category"`
	Dangerous bool           `json:"dangerous"`
}

// IsAdvisory reports whether the defect is an advisory note
func (d Defect) IsAdvisory() bool {
	return d.Category == CategoryAdvisory
}

// IsMajor reports whether the defect is safety relevant (MAJOR, PRM or DANGEROUS)
func (d Defect) IsMajor() bool {
	switch d.Category {
	case CategoryMajor, CategoryPRM, CategoryDangerous:
		return true
	default:
		return false
	}
}
