package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sensepath-app/sensepath/internal/telemetry"
)

// SectorPlotter accumulates per-frame records during a run and renders
// offline PNG plots afterwards: one of the three sector distances, one of
// urgency and hole ratio. Useful for comparing tuning changes across
// replays of the same log.
type SectorPlotter struct {
	mu        sync.Mutex
	outputDir string
	records   []telemetry.FrameRecord
}

// NewSectorPlotter creates a plotter writing into outputDir.
func NewSectorPlotter(outputDir string) *SectorPlotter {
	return &SectorPlotter{outputDir: outputDir}
}

// Consume records one frame. Implements pipeline.Sink.
func (sp *SectorPlotter) Consume(rec telemetry.FrameRecord) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.records = append(sp.records, rec)
	return nil
}

// GeneratePlots renders the accumulated records and returns the paths of
// the written files.
func (sp *SectorPlotter) GeneratePlots() ([]string, error) {
	sp.mu.Lock()
	records := sp.records
	sp.mu.Unlock()

	if len(records) == 0 {
		return nil, fmt.Errorf("no records to plot")
	}
	if err := os.MkdirAll(sp.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	start := records[0].Timestamp
	elapsed := func(i int) float64 {
		return records[i].Timestamp.Sub(start).Seconds()
	}

	leftPts := make(plotter.XYs, len(records))
	centerPts := make(plotter.XYs, len(records))
	rightPts := make(plotter.XYs, len(records))
	urgencyPts := make(plotter.XYs, len(records))
	holePts := make(plotter.XYs, len(records))
	for i, rec := range records {
		x := elapsed(i)
		leftPts[i] = plotter.XY{X: x, Y: rec.Left}
		centerPts[i] = plotter.XY{X: x, Y: rec.Center}
		rightPts[i] = plotter.XY{X: x, Y: rec.Right}
		urgencyPts[i] = plotter.XY{X: x, Y: rec.Urgency}
		holePts[i] = plotter.XY{X: x, Y: rec.InvalidRatio}
	}

	var written []string

	pDist := plot.New()
	pDist.Title.Text = "Sector Distances"
	pDist.X.Label.Text = "Time (s)"
	pDist.Y.Label.Text = "Distance (m)"
	series := []struct {
		name  string
		pts   plotter.XYs
		color color.RGBA
	}{
		{"left", leftPts, color.RGBA{R: 66, G: 135, B: 245, A: 255}},
		{"center", centerPts, color.RGBA{R: 245, G: 66, B: 66, A: 255}},
		{"right", rightPts, color.RGBA{R: 66, G: 245, B: 135, A: 255}},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return written, err
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		pDist.Add(line)
		pDist.Legend.Add(s.name, line)
	}
	pDist.Legend.Top = true

	distFile := filepath.Join(sp.outputDir, "sector_distances.png")
	if err := pDist.Save(14*vg.Inch, 6*vg.Inch, distFile); err != nil {
		return written, fmt.Errorf("failed to save distance plot: %w", err)
	}
	written = append(written, distFile)

	pQual := plot.New()
	pQual.Title.Text = "Urgency and Hole Ratio"
	pQual.X.Label.Text = "Time (s)"
	pQual.Y.Label.Text = "Ratio"

	urgencyLine, err := plotter.NewLine(urgencyPts)
	if err != nil {
		return written, err
	}
	urgencyLine.Color = color.RGBA{R: 245, G: 66, B: 66, A: 255}
	urgencyLine.Width = vg.Points(1)
	pQual.Add(urgencyLine)
	pQual.Legend.Add("urgency", urgencyLine)

	holeLine, err := plotter.NewLine(holePts)
	if err != nil {
		return written, err
	}
	holeLine.Color = color.RGBA{R: 180, G: 180, B: 180, A: 255}
	holeLine.Width = vg.Points(1)
	pQual.Add(holeLine)
	pQual.Legend.Add("hole ratio", holeLine)
	pQual.Legend.Top = true

	qualFile := filepath.Join(sp.outputDir, "urgency.png")
	if err := pQual.Save(14*vg.Inch, 6*vg.Inch, qualFile); err != nil {
		return written, fmt.Errorf("failed to save urgency plot: %w", err)
	}
	written = append(written, qualFile)

	return written, nil
}
