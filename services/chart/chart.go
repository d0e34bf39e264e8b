// Package chartsvc renders chart contexts to PNG images.
package chartsvc

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/escolado/escolado/core"
)

// color hints used by the grade book projections
var colors = map[string]drawing.Color{
	"red":     {R: 0xdc, G: 0x35, B: 0x45, A: 0xff},
	"skyblue": {R: 0x87, G: 0xce, B: 0xeb, A: 0xff},
}

var defaultColor = colors["skyblue"]

type chartService struct{}

var _ core.ChartService = (*chartService)(nil)

func NewChartService() *chartService {
	return &chartService{}
}

func (svc chartService) RenderBarChart(ctx context.Context, bc core.BarChart) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bc.Labels) == 0 {
		return nil, errors.New("no data to chart")
	}

	bars := make([]gochart.Value, 0, len(bc.Labels))
	for i, label := range bc.Labels {
		bar := gochart.Value{Label: label, Value: bc.Values[i]}
		color := defaultColor
		if i < len(bc.Colors) {
			if c, ok := colors[bc.Colors[i]]; ok {
				color = c
			}
		}
		bar.Style = gochart.Style{FillColor: color, StrokeColor: color}
		bars = append(bars, bar)
	}

	yMax := bc.YMax
	if yMax == 0 {
		for _, v := range bc.Values {
			if v > yMax {
				yMax = v
			}
		}
	}

	graph := gochart.BarChart{
		Title:    bc.Title,
		Width:    80 * len(bars),
		Height:   512,
		BarWidth: 50,
		YAxis: gochart.YAxis{
			Name:  bc.YLabel,
			Range: &gochart.ContinuousRange{Min: 0, Max: yMax},
		},
		Bars: bars,
	}
	if graph.Width < 512 {
		graph.Width = 512
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, errors.Wrap(err, "rendering chart")
	}
	return buf.Bytes(), nil
}
