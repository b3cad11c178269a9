package export

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/spawn"
)

// SnapshotSVG draws a frame as filled circles inside the world box. World
// coordinates are centred with +y up; the image is width pixels wide and
// keeps the world aspect ratio.
func SnapshotSVG(frame []dynamo.Drawable, worldSize r2.Vec, width int) string {
	if width <= 0 || worldSize.X <= 0 || worldSize.Y <= 0 {
		return ""
	}

	scale := float64(width) / worldSize.X
	height := int(math.Round(worldSize.Y * scale))

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, d := range frame {
		if !d.Visible {
			continue
		}
		cx := (d.Position.X + worldSize.X/2) * scale
		cy := (worldSize.Y/2 - d.Position.Y) * scale
		r := d.Radius * scale

		stroke := ""
		if d.Fixed {
			stroke = ` stroke="#ffffff" stroke-width="0.5"`
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"%s/>
`, cx, cy, r, spawn.Hex(d.Color), stroke))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG plots values against times as a polyline.
func SeriesToSVG(times, values []float64, width, height int, strokeColor string) string {
	n := min(len(times), len(values))
	if n < 2 {
		return ""
	}

	minX, maxX := times[0], times[0]
	minY, maxY := values[0], values[0]
	for i := 0; i < n; i++ {
		minX = math.Min(minX, times[i])
		maxX = math.Max(maxX, times[i])
		minY = math.Min(minY, values[i])
		maxY = math.Max(maxY, values[i])
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i := 0; i < n; i++ {
		x := (times[i] - minX) / rangeX * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
