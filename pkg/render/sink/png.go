package sink

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	svg   svgRenderer
	width int
}

// WithPNGWidth sets the image width in pixels (default 800).
func WithPNGWidth(w int) PNGOption { return func(r *pngRenderer) { r.width = w } }

// WithPNGSVGOptions applies SVG options (style, planets, labels, fleets,
// background) to the raster picture.
func WithPNGSVGOptions(opts ...SVGOption) PNGOption {
	return func(r *pngRenderer) {
		for _, opt := range opts {
			opt(&r.svg)
		}
	}
}

// RenderPNG rasterises m in-process. It draws the same layers as RenderSVG;
// labels use a fixed bitmap face.
func RenderPNG(m Map, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{svg: newSVGRenderer(), width: 800}
	for _, opt := range opts {
		opt(&r)
	}
	if r.width <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png width must be positive, got %d", r.width)
	}

	box := m.Box()
	scale := float64(r.width) / box.Width()
	height := max(1, int(math.Ceil(box.Height()*scale)))
	c := &canvas{
		img:   image.NewNRGBA(image.Rect(0, 0, r.width, height)),
		z:     vector.NewRasterizer(r.width, height),
		box:   box,
		scale: scale,
	}
	c.z.DrawOp = draw.Over

	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(parseColor(r.svg.background, 1)), image.Point{}, draw.Src)

	if r.svg.style == StyleCells || len(m.Layers) == 0 {
		if m.Diagram != nil {
			for _, cell := range m.Diagram.Cells {
				c.fill(parseColor(m.color(cell.Owner), 1), cell.Polygon())
			}
		}
	} else {
		alpha := 1 / float64(len(m.Layers))
		for _, regions := range m.Layers {
			for _, reg := range regions {
				if reg.Owner == "" {
					continue
				}
				c.fill(parseColor(m.color(reg.Owner), alpha), reg.Rings...)
			}
		}
	}

	if m.State != nil {
		if r.svg.fleets {
			for _, e := range m.State.Expeditions {
				if pos, ok := m.State.Position(e); ok {
					c.fill(parseColor(m.color(e.Owner), 1), circle(pos, 0.6))
				}
			}
		}
		if r.svg.planets {
			sizes := m.State.PlanetSizes()
			for _, p := range m.State.Planets {
				c.fill(parseColor(m.color(p.Owner), 1), circle(p.Point(), sizes[p.Name]))
				if r.svg.labels {
					c.label(p.Point(), strconv.Itoa(p.ShipCount))
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// canvas maps map coordinates onto an image.
type canvas struct {
	img   *image.NRGBA
	z     *vector.Rasterizer
	box   geom.BBox
	scale float64
}

func (c *canvas) xy(p geom.Point) (float32, float32) {
	return float32((p.X - c.box.MinX) * c.scale), float32((p.Y - c.box.MinY) * c.scale)
}

// fill paints rings as one shape. Holes run opposite to their outline, so
// they cancel under the rasteriser's winding accumulation.
func (c *canvas) fill(col color.Color, rings ...[]geom.Point) {
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	c.z.DrawOp = draw.Over
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		c.z.MoveTo(c.xy(ring[0]))
		for _, p := range ring[1:] {
			c.z.LineTo(c.xy(p))
		}
		c.z.ClosePath()
	}
	c.z.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

func (c *canvas) label(at geom.Point, s string) {
	x, y := c.xy(at)
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	w := d.MeasureString(s)
	d.Dot = fixed.Point26_6{
		X: fixed.I(int(x)) - w/2,
		Y: fixed.I(int(y) + basicfont.Face7x13.Ascent/2),
	}
	d.DrawString(s)
}

func circle(center geom.Point, r float64) []geom.Point {
	const segments = 24
	pts := make([]geom.Point, segments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / segments
		pts[i] = geom.Pt(center.X+r*math.Cos(a), center.Y+r*math.Sin(a))
	}
	return pts
}

// parseColor reads #rgb and #rrggbb colours. "none" is transparent and
// anything else is black.
func parseColor(s string, alpha float64) color.NRGBA {
	if s == "none" {
		return color.NRGBA{}
	}
	c := color.NRGBA{A: uint8(math.Round(geom.Clamp(alpha, 0, 1) * 255))}
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return c
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return c
	}
	c.R, c.G, c.B = uint8(v>>16), uint8(v>>8), uint8(v)
	return c
}
