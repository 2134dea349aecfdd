package georef

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shinji-kodama/jp2gml/internal/model"
	"github.com/shinji-kodama/jp2gml/internal/tree"
)

// Metrics are the bounding-box measurements, formatted with two decimals.
// Either all five values are known or all five are model.Unknown.
type Metrics struct {
	XLength    string
	YLength    string
	AreaKm2    string
	Hypotenuse string
	Azimuth    string

	// Source names the element pair the extents came from: "corner" for
	// upperCorner/lowerCorner, "grid" for high/low. Empty when unknown.
	Source string
}

// Known reports whether the metrics were derived.
func (m Metrics) Known() bool {
	return m.Source != ""
}

// unknownMetrics is the all-or-nothing failure value.
func unknownMetrics() Metrics {
	return Metrics{
		XLength:    model.Unknown,
		YLength:    model.Unknown,
		AreaKm2:    model.Unknown,
		Hypotenuse: model.Unknown,
		Azimuth:    model.Unknown,
	}
}

// extentSources lists the high/low element pairs in the order they are tried.
var extentSources = []struct {
	name      string
	high, low string
}{
	{"corner", "upperCorner", "lowerCorner"},
	{"grid", "high", "low"},
}

// DeriveMetrics computes axis lengths, area in square kilometres, the
// corner-to-corner distance and its azimuth in gradians. The envelope
// corners are preferred; the pixel grid limits are the fallback.
func DeriveMetrics(root *tree.Node) Metrics {
	for _, src := range extentSources {
		x, y, err := extent(root, src.high, src.low)
		if err != nil {
			continue
		}
		return Metrics{
			XLength:    format2(x),
			YLength:    format2(y),
			AreaKm2:    format2(x * y / 1e6),
			Hypotenuse: format2(math.Hypot(x, y)),
			Azimuth:    format2(400 / (2 * math.Pi) * math.Atan2(y, x)),
			Source:     src.name,
		}
	}
	return unknownMetrics()
}

// extent returns the X and Y lengths between occurrence 0 of the high and
// low keys.
func extent(root *tree.Node, highKey, lowKey string) (float64, float64, error) {
	high, err := pair(root, highKey)
	if err != nil {
		return 0, 0, err
	}
	low, err := pair(root, lowKey)
	if err != nil {
		return 0, 0, err
	}
	return high[0] - low[0], high[1] - low[1], nil
}

// pair parses the first two whitespace-separated numbers of key.
func pair(root *tree.Node, key string) ([2]float64, error) {
	var out [2]float64
	text, ok := tree.LookupText(root, key, 0)
	if !ok {
		return out, fmt.Errorf("no %s element", key)
	}
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return out, fmt.Errorf("%s holds %d values, want 2", key, len(fields))
	}
	for i := range out {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return out, fmt.Errorf("%s: %w", key, err)
		}
		out[i] = f
	}
	return out, nil
}

func format2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
