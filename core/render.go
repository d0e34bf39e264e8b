package core

import "context"

type (
	// Document is a populated rendering context: the core fills it in,
	// the rendering service owns the layout.
	Document struct {
		Title      string
		Subtitle   string
		Meta       []DocumentField
		Paragraphs []string
		Table      DocumentTable
		Footer     string
	}

	DocumentField struct {
		Label string
		Value string
	}

	DocumentTable struct {
		Header []string
		Rows   [][]string
	}

	// DocumentService renders a populated Document to a byte stream (PDF).
	DocumentService interface {
		RenderDocument(ctx context.Context, doc Document) ([]byte, error)
	}

	// BarChart carries parallel label/value/color arrays for one chart.
	BarChart struct {
		Title  string
		YLabel string
		Labels []string
		Values []float64
		Colors []string // per-bar color hints, eg. "red", "skyblue"
		YMax   float64  // 0 = auto
	}

	// ChartService renders a BarChart to an image (PNG).
	ChartService interface {
		RenderBarChart(ctx context.Context, chart BarChart) ([]byte, error)
	}
)
