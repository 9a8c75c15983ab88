package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pid "github.com/ribf-analysis/pid_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
)

func TestLoadConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{"file_in": "run0077.jsonl", "pid_cut_dir": "cuts/pid", "aoq_bins": 200, "cut_id": -1}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	config, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, "run0077.jsonl", config.FileIn)
	assert.Equal(t, -1, config.CutID)
	assert.Equal(t, 200, config.AoQBins)
	assert.Equal(t, 500, config.ZBins)
	assert.Len(t, config.PIDCuts, 4)
	assert.False(t, config.WriteData)

	assert.Equal(t, filepath.Join("cuts/pid", "77_50Ca20_pid2.cxx"), pidCutPath(config, config.PIDCuts[0], 77))
	own := PIDCutConfig{Name: "x", File: "/tmp/x.cxx"}
	assert.Equal(t, "/tmp/x.cxx", pidCutPath(config, own, 77))

	require.NoError(t, os.WriteFile(path, []byte(`{"z_bins": 0}`), 0o644))
	_, err = LoadConfiguration(path)
	assert.Error(t, err)
}

func histoEvent(aoq, z float64, coarse1 int) *pid.EventType {
	single := pid.PlasticPulse{MultihitL: 1, MultihitR: 1}
	event := &pid.EventType{
		FocalPlanes: map[int]pid.FocalPlane{3: {ID: 3, Plastic: single}, 7: {ID: 7, Plastic: single}},
		Mask:        pid.CutMask{Coarse1: coarse1},
	}
	event.Beam.Segments[2] = pid.Segment{
		DriftAoQ: pid.Valid(aoq),
		CorrAoQ:  pid.Valid(aoq + 0.01),
		CorrZ:    pid.Valid(z),
	}
	return event
}

func TestGroupHistos(t *testing.T) {
	config := Configuration{AoQBins: 100, AoQRange: [2]float64{2, 3}, ZBins: 50, ZRange: [2]float64{5, 30}}
	group := &pid.GroupConfig{Name: "BigRIPS", Segments: []int{0, 1, 2}, ReferencePlanes: [2]int{3, 7}}
	cutPlanes := []int{3, 7, 8, 11}
	h := newGroupHistos(config, group, []int{3, 7})
	assert.Equal(t, 2, h.Segment)

	h.Fill(histoEvent(2.5, 20, 0b0011), cutPlanes)
	h.Fill(histoEvent(2.4, 19, 0b1111), cutPlanes)
	h.Fill(histoEvent(2.5, 20, 0b0001), cutPlanes)
	noRef := histoEvent(2.5, 20, 0b0011)
	delete(noRef.FocalPlanes, 7)
	h.Fill(noRef, cutPlanes)

	assert.Equal(t, int64(2), h.AoQ.Entries())
	assert.Equal(t, int64(2), h.CorrAoQ.Entries())
	assert.Equal(t, int64(2), h.ZvsCorrAoQ.Entries())

	filename := filepath.Join(t.TempDir(), "histos.root")
	require.NoError(t, writeHistograms(filename, []*groupHistos{h}))

	f, err := groot.Open(filename)
	require.NoError(t, err)
	defer f.Close()
	obj, err := f.Get("aoq2_corr_h1")
	require.NoError(t, err)
	h1, ok := obj.(interface {
		rhist.H1
		NbinsX() int
	})
	require.True(t, ok)
	assert.Equal(t, 100, h1.NbinsX())
	assert.Equal(t, 2.0, h1.Entries())

	plots := t.TempDir()
	require.NoError(t, plotHistograms(plots, []*groupHistos{h}))
	assert.FileExists(t, filepath.Join(plots, "aoq2.png"))
	assert.FileExists(t, filepath.Join(plots, "z_vs_aoq2.png"))
}

func TestCountRunUsesDatabase(t *testing.T) {
	config := Configuration{Configuration: pid.DefaultConfiguration()}
	config.NoDB = false
	config.Host = "db:unreachable"

	_, _, err := countRun(context.Background(), strings.NewReader(`{"run": 77}`+"\n"), config)
	assert.ErrorContains(t, err, "database")
}
