package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/stepboard/render"
	"github.com/jpalmerr/stepboard/series"
)

func mountedSurface(t *testing.T) (*Surface, *render.Handle) {
	t.Helper()
	s := NewSurface()
	h, err := render.Init(s, render.DefaultConfig())
	require.NoError(t, err)
	return s, h
}

// nextFrame runs the surface's pending frame command through the model.
func nextFrame(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.surface.waitForFrame()()
	updated, cmd := m.Update(msg)
	require.NotNil(t, cmd, "model should keep listening for frames")
	return updated.(Model)
}

func TestSurface_MountQueuesEmptyFrame(t *testing.T) {
	s, _ := mountedSurface(t)

	require.Len(t, s.frames, 1)
	snap := <-s.frames
	assert.Equal(t, 0, snap.Len())
	assert.Equal(t, render.DefaultElementID, snap.Config.ElementID)
}

func TestSurface_MountTwice(t *testing.T) {
	s := NewSurface()
	require.NoError(t, s.Mount(render.DefaultConfig()))
	assert.Error(t, s.Mount(render.DefaultConfig()))
}

func TestSurface_RedrawBeforeMount(t *testing.T) {
	s := NewSurface()
	assert.Error(t, s.Redraw(render.View{}))
}

func TestSurface_KeepsNewestFrame(t *testing.T) {
	s, h := mountedSurface(t)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, h.Update(series.Sample{ElapsedSeconds: i, Value: float64(i * 10)}))
	}

	require.Len(t, s.frames, 1)
	snap := <-s.frames
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, snap.Labels)
	assert.Equal(t, []float64{10, 20, 30, 40, 50}, snap.Data)
	assert.Equal(t, 5, s.Redraws())
}

func TestSurface_FrameIsDetached(t *testing.T) {
	s, h := mountedSurface(t)
	require.NoError(t, h.Update(series.Sample{ElapsedSeconds: 1, Value: 1}))
	snap := <-s.frames

	require.NoError(t, h.Update(series.Sample{ElapsedSeconds: 2, Value: 2}))
	assert.Len(t, snap.Data, 1)
}

func TestModel_FrameUpdatesView(t *testing.T) {
	s, h := mountedSurface(t)
	m := NewModel(s, "Walk", "http://localhost:5000")

	m = nextFrame(t, m)
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Walk")
	assert.Contains(t, view, "waiting for data")
	assert.Contains(t, view, "Time (s)")

	require.NoError(t, h.Update(series.Sample{ElapsedSeconds: 1, Value: 10}))
	require.NoError(t, h.Update(series.Sample{ElapsedSeconds: 2, Value: 15}))
	m = nextFrame(t, m)

	view = ansi.Strip(m.View())
	assert.Contains(t, view, "2 points | last 15 at 2s")
}

func TestModel_Status(t *testing.T) {
	s, _ := mountedSurface(t)
	m := NewModel(s, "", "http://src")

	assert.Contains(t, ansi.Strip(m.View()), "connecting")

	s.Report(errors.New("transport: connection refused"))
	updated, _ := m.Update(m.surface.waitForStatus()())
	m = updated.(Model)
	assert.Contains(t, ansi.Strip(m.View()), "error: transport: connection refused")

	s.Report(nil)
	updated, _ = m.Update(m.surface.waitForStatus()())
	m = updated.(Model)
	assert.Contains(t, ansi.Strip(m.View()), "live")
}

func TestModel_Keys(t *testing.T) {
	s, _ := mountedSurface(t)
	m := NewModel(s, "", "")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.True(t, updated.(Model).showHelp)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_Resize(t *testing.T) {
	s, _ := mountedSurface(t)
	m := NewModel(s, "", "")

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	m = updated.(Model)
	m = nextFrame(t, m)

	for _, line := range strings.Split(m.View(), "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 40, "line %q", ansi.Strip(line))
	}
}

func TestPlot(t *testing.T) {
	snap := render.Snapshot{
		Config: render.DefaultConfig(),
		Labels: []int64{1, 2, 3, 4},
		Data:   []float64{0, 10, 5, 20},
	}

	out := ansi.Strip(Plot(snap, 60, 15))
	lines := strings.Split(out, "\n")

	assert.Len(t, lines, 15)
	assert.Contains(t, lines[0], "Steps")
	assert.Contains(t, out, "20")
	assert.Contains(t, out, "Time (s)")
	assert.Equal(t, 4, strings.Count(out, string(pointRune)))
	assert.True(t, strings.HasSuffix(strings.TrimRight(lines[len(lines)-1], " "), "4"))
}

func TestPlot_EmptyUsesPlaceholders(t *testing.T) {
	snap := render.View{Config: render.DefaultConfig()}.Snapshot()

	out := ansi.Strip(Plot(snap, 60, 10))
	last := strings.Fields(strings.Split(out, "\n")[9])
	assert.Equal(t, "1", last[0])
	assert.Equal(t, "100", last[len(last)-1])
	assert.Equal(t, 0, strings.Count(out, string(pointRune)))
}

func TestPlot_TooSmall(t *testing.T) {
	snap := render.View{Config: render.DefaultConfig()}.Snapshot()
	assert.Contains(t, ansi.Strip(Plot(snap, 5, 2)), "too small")
}
