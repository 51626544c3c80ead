package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/jjenkins/motreport/internal/model"
	"github.com/jjenkins/motreport/internal/service"
	"github.com/jjenkins/motreport/internal/telemetry"
)

// Style holds the page and typography settings of a report
type Style struct {
	Font        string
	TitleSize   float64
	HeadingSize float64
	BodySize    float64
	LineHeight  float64
	PlateWidth  float64
	PlateHeight float64
	// ChartWidth and ChartHeight are in pixels; charts are scaled to the page width
	ChartWidth  int
	ChartHeight int
}

// DefaultStyle is an A4 portrait layout in Helvetica
var DefaultStyle = Style{
	Font:        "Helvetica",
	TitleSize:   28,
	HeadingSize: 14,
	BodySize:    10,
	LineHeight:  5.5,
	PlateWidth:  70,
	PlateHeight: 16,
	ChartWidth:  1000,
	ChartHeight: 600,
}

var (
	plateYellow = [3]int{247, 195, 30}
	rowBeige    = [3]int{245, 245, 220}
	headerGrey  = [3]int{128, 128, 128}
	toneColours = map[Tone][3]int{
		ToneNormal: {0, 0, 0},
		ToneBold:   {0, 0, 0},
		ToneAmber:  {255, 69, 0},
		ToneRed:    {200, 0, 0},
	}
)

// Renderer draws documents as PDF. It holds no per-report state and may be
// shared between goroutines.
type Renderer struct {
	style   Style
	metrics *telemetry.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewRenderer creates a renderer. metrics and logger may be nil.
func NewRenderer(style Style, metrics *telemetry.Metrics, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		style:   style,
		metrics: metrics,
		logger:  logger.Named("report"),
		now:     time.Now,
	}
}

// Render builds the report for vehicle and writes the PDF to w. summary may be
// nil when the vehicle has no test history.
func (r *Renderer) Render(w io.Writer, vehicle *model.VehicleRecord, summary *service.Summary) error {
	start := time.Now()
	doc := Build(vehicle, summary, r.now())

	if err := r.Write(w, doc); err != nil {
		return err
	}

	r.metrics.ObserveReport(time.Since(start))
	r.logger.Debug("Report rendered",
		zap.String("registration", doc.Registration),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Write lays out an already built document
func (r *Renderer) Write(w io.Writer, doc *Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("MOT Report "+doc.Registration, true)
	pdf.SetCreator("motreport", true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	p := &page{pdf: pdf, style: r.style, tr: tr}
	pdf.AddPage()

	p.plate(doc.Registration)
	p.section(doc.Identification)
	p.section(doc.Condition)

	if doc.History == nil {
		for _, line := range doc.Notice {
			p.line(line)
		}
	} else if err := r.writeHistory(p, doc.History); err != nil {
		return err
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func (r *Renderer) writeHistory(p *page, h *History) error {
	p.section(h.Information)

	p.heading(fmt.Sprintf("Recurring faults (%d)", len(h.RecurringFaults)))
	for _, fault := range h.RecurringFaults {
		p.line(fault)
	}

	mileage, err := mileageChart(h.MileageSeries, r.style.ChartWidth, r.style.ChartHeight)
	if err != nil {
		return err
	}
	defects, err := defectsChart(h.DefectBuckets, r.style.ChartWidth, r.style.ChartHeight)
	if err != nil {
		return err
	}
	if mileage != nil || defects != nil {
		p.pdf.AddPage()
		p.heading("Visual Insights")
		p.image("mileage", mileage)
		p.image("defects", defects)
	}

	p.pdf.AddPage()
	p.heading("MOT History")
	p.table([4]string{"Date", "Mileage", "Comments", "Result"}, h.Rows)

	return p.pdf.Error()
}

// page wraps one fpdf document during layout
type page struct {
	pdf   *fpdf.Fpdf
	style Style
	tr    func(string) string
}

func (p *page) contentWidth() float64 {
	w, _ := p.pdf.GetPageSize()
	left, _, right, _ := p.pdf.GetMargins()
	return w - left - right
}

func (p *page) plate(registration string) {
	left, top, _, _ := p.pdf.GetMargins()
	x := left + (p.contentWidth()-p.style.PlateWidth)/2

	p.pdf.SetFillColor(plateYellow[0], plateYellow[1], plateYellow[2])
	p.pdf.SetDrawColor(0, 0, 0)
	p.pdf.Rect(x, top, p.style.PlateWidth, p.style.PlateHeight, "FD")

	p.pdf.SetXY(x, top)
	p.pdf.SetFont(p.style.Font, "B", p.style.TitleSize)
	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.CellFormat(p.style.PlateWidth, p.style.PlateHeight, p.tr(registration), "", 1, "CM", false, 0, "")
	p.pdf.Ln(6)
}

func (p *page) heading(title string) {
	p.pdf.SetFont(p.style.Font, "B", p.style.HeadingSize)
	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.CellFormat(0, p.style.LineHeight*1.6, p.tr(title), "B", 1, "L", false, 0, "")
	p.pdf.Ln(2)
}

func (p *page) section(s Section) {
	p.heading(s.Title)
	for _, line := range s.Lines {
		p.line(line)
	}
	p.pdf.Ln(4)
}

func (p *page) line(l Line) {
	colour := toneColours[l.Tone]
	p.pdf.SetTextColor(colour[0], colour[1], colour[2])

	if l.Label != "" {
		p.pdf.SetFont(p.style.Font, "B", p.style.BodySize)
		label := p.tr(l.Label + ": ")
		p.pdf.CellFormat(p.pdf.GetStringWidth(label)+1, p.style.LineHeight, label, "", 0, "L", false, 0, "")
	}

	style := ""
	if l.Tone == ToneBold {
		style = "B"
	}
	p.pdf.SetFont(p.style.Font, style, p.style.BodySize)
	p.pdf.MultiCell(0, p.style.LineHeight, p.tr(l.Value), "", "L", false)
	p.pdf.SetTextColor(0, 0, 0)
}

func (p *page) image(name string, png []byte) {
	if png == nil {
		return
	}
	options := fpdf.ImageOptions{ImageType: "PNG"}
	p.pdf.RegisterImageOptionsReader(name, options, bytes.NewReader(png))

	width := p.contentWidth()
	height := width * float64(p.style.ChartHeight) / float64(p.style.ChartWidth)
	left, _, _, _ := p.pdf.GetMargins()
	p.pdf.ImageOptions(name, left, p.pdf.GetY(), width, height, true, options, 0, "")
	p.pdf.Ln(4)
}

func (p *page) table(header [4]string, rows [][4]string) {
	width := p.contentWidth()
	cols := []float64{width * 0.3, width * 0.25, width * 0.2, width * 0.25}

	p.pdf.SetFont(p.style.Font, "B", p.style.BodySize)
	p.pdf.SetFillColor(headerGrey[0], headerGrey[1], headerGrey[2])
	p.pdf.SetTextColor(255, 255, 255)
	for i, text := range header {
		p.pdf.CellFormat(cols[i], p.style.LineHeight*1.4, p.tr(text), "1", 0, "C", true, 0, "")
	}
	p.pdf.Ln(-1)

	p.pdf.SetFont(p.style.Font, "", p.style.BodySize)
	p.pdf.SetFillColor(rowBeige[0], rowBeige[1], rowBeige[2])
	p.pdf.SetTextColor(0, 0, 0)
	for _, row := range rows {
		for i, text := range row {
			p.pdf.CellFormat(cols[i], p.style.LineHeight*1.4, p.tr(text), "1", 0, "C", true, 0, "")
		}
		p.pdf.Ln(-1)
	}
}
