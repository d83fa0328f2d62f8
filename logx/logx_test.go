package logx

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromVerbosity(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LevelFromVerbosity(0))
	assert.Equal(t, slog.LevelWarn, LevelFromVerbosity(-1))
	assert.Equal(t, slog.LevelInfo, LevelFromVerbosity(1))
	assert.Equal(t, slog.LevelDebug, LevelFromVerbosity(2))
	assert.Equal(t, slog.LevelDebug, LevelFromVerbosity(5))
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 0)
	l.Info("hidden")
	l.Warnf("shown %d", 1)
	assert.Equal(t, "  ⚠ shown 1\n", buf.String())

	buf.Reset()
	l = New(&buf, 1)
	l.Infof("Found illuminant: '%s'.", "d55")
	l.Debug("hidden")
	assert.Equal(t, "  • Found illuminant: 'd55'.\n", buf.String())
	assert.Equal(t, 1, l.Verbosity())
}

func TestAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 2)
	l.With("cache", "wb").WithGroup("fit").Debug("step", "iter", 3)
	assert.Equal(t, "  · step cache=wb fit.iter=3\n", buf.String())

	buf.Reset()
	l.WithGroup("fit").With("lambda", 0.5).WithGroup("step").Debug("accepted", "n", 2)
	assert.Equal(t, "  · accepted fit.lambda=0.5 fit.step.n=2\n", buf.String())
}

func TestPrintfAndSteps(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 0)
	l.Printf("Solver Summary\n")
	l.Step("求解", "d55")
	l.Done("完成")
	assert.Equal(t, "Solver Summary\n[求解] d55 ... → 完成\n", buf.String())
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Warn("nothing")
	l.Printf("nothing")
	assert.Equal(t, 0, l.Verbosity())
}
