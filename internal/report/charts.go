package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/jjenkins/motreport/internal/service"
)

var (
	amber = drawing.Color{R: 255, G: 69, B: 0, A: 255}
	red   = drawing.Color{R: 200, G: 0, B: 0, A: 255}
)

// mileageChart plots odometer readings over time. It returns nil when there
// are too few distinct points to draw a line.
func mileageChart(points []service.MileagePoint, width, height int) ([]byte, error) {
	var xs []time.Time
	var ys []float64
	for _, p := range points {
		if p.CompletedAt.IsZero() {
			continue
		}
		xs = append(xs, p.CompletedAt)
		ys = append(ys, float64(p.Mileage))
	}
	if len(xs) < 2 || !spread(ys) || xs[0].Equal(xs[len(xs)-1]) {
		return nil, nil
	}

	graph := chart.Chart{
		Title:  "Vehicle Mileage by Year (yy)",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return time.Unix(0, int64(f)).UTC().Format("06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return printer.Sprintf("%d", int64(f))
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Mileage",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorBlack,
					StrokeWidth: 2,
					DotColor:    drawing.ColorBlack,
					DotWidth:    3,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render mileage chart: %w", err)
	}
	return buf.Bytes(), nil
}

// defectsChart stacks major and advisory counts per mileage bucket. It
// returns nil when no bucket has any defects.
func defectsChart(buckets []service.MileageBucket, width, height int) ([]byte, error) {
	var bars []chart.StackedBar
	for _, b := range buckets {
		if b.Advisories+b.Majors == 0 {
			continue
		}
		var values []chart.Value
		if b.Advisories > 0 {
			values = append(values, chart.Value{
				Label: "Advisories",
				Value: float64(b.Advisories),
				Style: chart.Style{FillColor: amber, StrokeColor: amber},
			})
		}
		if b.Majors > 0 {
			values = append(values, chart.Value{
				Label: "Majors",
				Value: float64(b.Majors),
				Style: chart.Style{FillColor: red, StrokeColor: red},
			})
		}
		bars = append(bars, chart.StackedBar{
			Name:   strconv.Itoa(b.Mileage),
			Values: values,
		})
	}
	if len(bars) == 0 {
		return nil, nil
	}

	graph := chart.StackedBarChart{
		Title:  "Majors & Advisories by Mileage",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render defects chart: %w", err)
	}
	return buf.Bytes(), nil
}

func spread(ys []float64) bool {
	for _, y := range ys[1:] {
		if y != ys[0] {
			return true
		}
	}
	return false
}
