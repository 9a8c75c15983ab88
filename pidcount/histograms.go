package main

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	pid "github.com/ribf-analysis/pid_go/pkg"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// groupHistos are the PID spectra of the last segment of a spectrometer
// group, filled for events passing the plastic gate with single hit
// reference plastics.
type groupHistos struct {
	Group      *pid.GroupConfig
	Segment    int
	Gate       []int
	AoQ        *hbook.H1D
	CorrAoQ    *hbook.H1D
	ZvsCorrAoQ *hbook.H2D
}

func named[T interface{ Annotation() hbook.Annotation }](h T, name string) T {
	h.Annotation()["name"] = name
	h.Annotation()["title"] = name
	return h
}

func newGroupHistos(config Configuration, group *pid.GroupConfig, gate []int) *groupHistos {
	segment := group.Segments[len(group.Segments)-1]
	aoqLo, aoqHi := config.AoQRange[0], config.AoQRange[1]
	zLo, zHi := config.ZRange[0], config.ZRange[1]
	return &groupHistos{
		Group:   group,
		Segment: segment,
		Gate:    gate,
		AoQ:     named(hbook.NewH1D(config.AoQBins, aoqLo, aoqHi), fmt.Sprintf("aoq%d_h1", segment)),
		CorrAoQ: named(hbook.NewH1D(config.AoQBins, aoqLo, aoqHi), fmt.Sprintf("aoq%d_corr_h1", segment)),
		ZvsCorrAoQ: named(hbook.NewH2D(config.AoQBins, aoqLo, aoqHi, config.ZBins, zLo, zHi),
			fmt.Sprintf("z_vs_aoq%d_corr", segment)),
	}
}

func (h *groupHistos) Fill(event *pid.EventType, cutPlanes []int) {
	if !pid.GatePassed(event.Mask, cutPlanes, h.Gate) || !h.Group.ReferencesSingleHit(event.FocalPlanes) {
		return
	}
	seg := event.Beam.Segments[h.Segment]
	if aoq, ok := seg.DriftAoQ.Get(); ok {
		h.AoQ.Fill(aoq, 1)
	}
	corr, ok := seg.CorrAoQ.Get()
	if !ok {
		return
	}
	h.CorrAoQ.Fill(corr, 1)
	if z, ok := seg.CorrZ.Get(); ok {
		h.ZvsCorrAoQ.Fill(corr, z, 1)
	}
}

func writeHistograms(filename string, histos []*groupHistos) error {
	f, err := groot.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", filename, err)
	}

	var errs []error
	for _, h := range histos {
		if err := f.Put(h.AoQ.Name(), rhist.NewH1DFrom(h.AoQ)); err != nil {
			errs = append(errs, err)
		}
		if err := f.Put(h.CorrAoQ.Name(), rhist.NewH1DFrom(h.CorrAoQ)); err != nil {
			errs = append(errs, err)
		}
		if err := f.Put(h.ZvsCorrAoQ.Name(), rhist.NewH2DFrom(h.ZvsCorrAoQ)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := f.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing %s: %w", filename, err))
	}
	return errors.Join(errs...)
}

func maxContent(h *hbook.H2D) float64 {
	grid := h.GridXYZ()
	nx, ny := grid.Dims()
	max := 0.0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			if z := grid.Z(i, j); z > max {
				max = z
			}
		}
	}
	return max
}

func plotHistograms(dir string, histos []*groupHistos) error {
	for _, h := range histos {
		p := hplot.New()
		p.Title.Text = fmt.Sprintf("%s A/Q, segment %d", h.Group.Name, h.Segment)
		p.X.Label.Text = "A/Q"
		for i, hist := range []*hbook.H1D{h.AoQ, h.CorrAoQ} {
			hh := hplot.NewH1D(hist)
			hh.FillColor = nil
			hh.Infos.Style = hplot.HInfoNone
			if i == 1 {
				hh.LineStyle.Color = color.RGBA{R: 255, A: 255}
			}
			p.Add(hh)
		}
		path := filepath.Join(dir, fmt.Sprintf("aoq%d.png", h.Segment))
		if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return fmt.Errorf("error saving %s: %w", path, err)
		}

		max := maxContent(h.ZvsCorrAoQ)
		if max == 0 {
			logger.Warn(fmt.Sprintf("%s is empty, not plotted", h.ZvsCorrAoQ.Name()), "plot")
			continue
		}
		p = hplot.New()
		p.Title.Text = fmt.Sprintf("%s Z vs A/Q, segment %d", h.Group.Name, h.Segment)
		p.X.Label.Text = "A/Q"
		p.Y.Label.Text = "Z"
		colorMap := moreland.ExtendedBlackBody()
		colorMap.SetMin(0)
		colorMap.SetMax(max)
		p.Add(plotter.NewHeatMap(h.ZvsCorrAoQ.GridXYZ(), colorMap.Palette(255)))
		path = filepath.Join(dir, fmt.Sprintf("z_vs_aoq%d.png", h.Segment))
		if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return fmt.Errorf("error saving %s: %w", path, err)
		}
	}
	return nil
}
