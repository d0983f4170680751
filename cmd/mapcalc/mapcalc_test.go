package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"telemetry_map/core-go/internal/projection"
	"telemetry_map/core-go/internal/viewport"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRect(t *testing.T) {
	out, err := run(t, "rect", "--width", "2000", "--height", "1000")
	require.NoError(t, err)
	require.Equal(t, "949x852 top=0 left=526\n", out)

	out, err = run(t, "rect", "--width", "1400", "--height", "1500", "--json")
	require.NoError(t, err)
	var rect viewport.MapRect
	require.NoError(t, json.Unmarshal([]byte(out), &rect))
	require.Equal(t, viewport.MapRect{Width: 1400, Height: 1256, Top: 48, Left: 0}, rect)
}

func TestRect_requiresSize(t *testing.T) {
	_, err := run(t, "rect", "--width", "2000")
	require.Error(t, err)
	require.Contains(t, err.Error(), "height")
}

func TestProject(t *testing.T) {
	out, err := run(t, "project", "--lat", "0", "--lon", "0",
		"--container-width", "1000", "--container-height", "500", "--screen-width", "1200")
	require.NoError(t, err)
	require.Equal(t, "left=500 top=290 quarter=0\n", out)

	out, err = run(t, "project", "--lat", "-33.8", "--lon", "151.2",
		"--container-width", "1000", "--container-height", "500", "--screen-width", "300", "--json")
	require.NoError(t, err)
	var res struct {
		Quarter projection.Quarter `json:"quarter"`
		East    bool               `json:"east"`
		South   bool               `json:"south"`
		Adjust  float64            `json:"vertical_adjust"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, projection.QuarterSouthEast, res.Quarter)
	require.True(t, res.East)
	require.True(t, res.South)
	require.Equal(t, 20.0, res.Adjust)
}

func TestProject_withoutContainer(t *testing.T) {
	_, err := run(t, "project", "--lat", "10", "--lon", "10")
	require.True(t, errors.Is(err, projection.ErrNoContainer))

	_, err = run(t, "project", "--lat", "95", "--lon", "10", "--container-width", "10", "--container-height", "10")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "out of range"))
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.yaml")
	body := `
layout:
  header_height: 100
  vertical_tiers:
    - min_screen_width: 400
      adjust: 10
    - min_screen_width: 1000
      adjust: 30
  vertical_fallback: 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestConfigFileDrivesLayout(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, "rect", "--config", path, "--width", "2000", "--height", "1000")
	require.NoError(t, err)
	require.Equal(t, "1003x900 top=0 left=499\n", out)

	out, err = run(t, "rect", "--config", path, "--width", "2000", "--height", "1000", "--header-height", "148")
	require.NoError(t, err)
	require.Equal(t, "949x852 top=0 left=526\n", out, "explicit flags win over the file")

	out, err = run(t, "project", "--config", path, "--lat", "0", "--lon", "0",
		"--container-width", "1000", "--container-height", "500", "--screen-width", "1200")
	require.NoError(t, err)
	require.Equal(t, "left=500 top=280 quarter=0\n", out)
}

func TestConfigFileMissing(t *testing.T) {
	_, err := run(t, "rect", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--width", "10", "--height", "10")
	require.Error(t, err)
	require.Contains(t, err.Error(), "absent.yaml")
}
