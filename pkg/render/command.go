// Package render turns tag overlay geometry into draw commands.
package render

import (
	"fmt"
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/teslashibe/go-fiducial/pkg/tag"
)

// Kind identifies the shape a Command draws.
type Kind int

const (
	Rectangle Kind = iota
	Line
	Circle
)

func (k Kind) String() string {
	switch k {
	case Rectangle:
		return "rectangle"
	case Line:
		return "line"
	case Circle:
		return "circle"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText lets Kind serialise by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Command is one draw instruction. Only the fields for its Kind are set.
type Command struct {
	Kind      Kind            `json:"kind"`
	Rect      image.Rectangle `json:"rect,omitempty"`
	From      image.Point     `json:"from,omitempty"`
	To        image.Point     `json:"to,omitempty"`
	Center    image.Point     `json:"center,omitempty"`
	Radius    int             `json:"radius,omitempty"`
	Color     color.RGBA      `json:"color"`
	Thickness int             `json:"thickness"`
}

// Style configures overlay colours (hex, e.g. "#00ffff") and stroke widths.
type Style struct {
	BoxColor        string `yaml:"box_color" json:"box_color"`
	BoxThickness    int    `yaml:"box_thickness" json:"box_thickness"`
	EdgeColor       string `yaml:"edge_color" json:"edge_color"`
	EdgeThickness   int    `yaml:"edge_thickness" json:"edge_thickness"`
	CenterColor     string `yaml:"center_color" json:"center_color"`
	CenterRadius    int    `yaml:"center_radius" json:"center_radius"`
	CenterThickness int    `yaml:"center_thickness" json:"center_thickness"`
}

// DefaultStyle returns a thin blue box, thick cyan edges and a cyan centre ring.
func DefaultStyle() Style {
	return Style{
		BoxColor:        "#0000ff",
		BoxThickness:    1,
		EdgeColor:       "#00ffff",
		EdgeThickness:   4,
		CenterColor:     "#00ffff",
		CenterRadius:    5,
		CenterThickness: 2,
	}
}

// Painter emits commands with a parsed Style.
type Painter struct {
	style  Style
	box    color.RGBA
	edge   color.RGBA
	center color.RGBA
}

// NewPainter parses the style colours.
func NewPainter(s Style) (*Painter, error) {
	box, err := parseColor("box_color", s.BoxColor)
	if err != nil {
		return nil, err
	}
	edge, err := parseColor("edge_color", s.EdgeColor)
	if err != nil {
		return nil, err
	}
	center, err := parseColor("center_color", s.CenterColor)
	if err != nil {
		return nil, err
	}
	if s.BoxThickness < 1 || s.EdgeThickness < 1 || s.CenterThickness < 1 || s.CenterRadius < 1 {
		return nil, fmt.Errorf("render: thickness and radius must be positive")
	}
	return &Painter{style: s, box: box, edge: edge, center: center}, nil
}

func parseColor(field, hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("render: %s %q: %w", field, hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Overlay returns the commands for one tag: the box, the four edges in
// extractor order, then the centre marker.
func (p *Painter) Overlay(ov tag.Overlay) []Command {
	return p.AppendOverlay(make([]Command, 0, 6), ov)
}

// AppendOverlay appends the commands for one tag to dst.
func (p *Painter) AppendOverlay(dst []Command, ov tag.Overlay) []Command {
	dst = append(dst, Command{
		Kind:      Rectangle,
		Rect:      ov.Box,
		Color:     p.box,
		Thickness: p.style.BoxThickness,
	})
	for _, e := range ov.Edges {
		dst = append(dst, Command{
			Kind:      Line,
			From:      e.From,
			To:        e.To,
			Color:     p.edge,
			Thickness: p.style.EdgeThickness,
		})
	}
	return append(dst, Command{
		Kind:      Circle,
		Center:    ov.Center,
		Radius:    p.style.CenterRadius,
		Color:     p.center,
		Thickness: p.style.CenterThickness,
	})
}

// Counts tallies commands by kind.
func Counts(cmds []Command) map[Kind]int {
	out := make(map[Kind]int, 3)
	for _, c := range cmds {
		out[c.Kind]++
	}
	return out
}
