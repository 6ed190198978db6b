package render

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/couchcryptid/sdo-composite/internal/domain"
)

// Figure geometry.
const (
	FigureWidth  = 10 * vg.Inch
	FigureHeight = 5 * vg.Inch
	DefaultDPI   = 100

	labelSize = 16
)

var (
	labelColor     = color.White
	cropLineColor  = color.White
	backgroundFill = color.Black
)

// Panel is one drawn region of the figure.
type Panel struct {
	Wavelength domain.Wavelength
	Slot       domain.Slot
	Rect       image.Rectangle // pixel bounds in the figure image
	Axes       domain.Box      // world range of the panel
	Label      domain.Label
	Style      Style
	Plot       *plot.Plot
	Map        *domain.Map
}

// Figure is a rendered composite.
type Figure struct {
	Panels []Panel
	img    image.Image
}

// Image returns the rasterized figure.
func (f *Figure) Image() image.Image {
	return f.img
}

// Panel returns the panel showing the given wavelength.
func (f *Figure) Panel(w domain.Wavelength) (Panel, bool) {
	for _, p := range f.Panels {
		if p.Wavelength == w {
			return p, true
		}
	}
	return Panel{}, false
}

// Renderer draws cropped maps onto the 9-region layout.
type Renderer struct {
	scene  domain.Scene
	dpi    int
	logger *slog.Logger
}

// NewRenderer creates a Renderer for the scene at the given resolution.
func NewRenderer(scene domain.Scene, dpi int, logger *slog.Logger) *Renderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Renderer{scene: scene, dpi: dpi, logger: logger}
}

// Render draws every assigned wavelength into its region. Each panel shows
// its map at world coordinates without ticks; the centre panel also shows the
// crop box outline.
func (r *Renderer) Render(maps map[domain.Wavelength]*domain.Map, a *domain.Assignment) (*Figure, error) {
	c := vgimg.NewWith(
		vgimg.UseWH(FigureWidth, FigureHeight),
		vgimg.UseDPI(r.dpi),
		vgimg.UseBackgroundColor(backgroundFill),
	)
	bounds := c.Image().Bounds()

	fig := &Figure{Panels: make([]Panel, 0, a.Len())}
	for _, w := range a.Order() {
		m, ok := maps[w]
		if !ok {
			return nil, &domain.MissingWavelengthError{Wavelength: w, Stage: "render"}
		}
		slot, _ := a.Slot(w)

		panel, err := r.panel(w, slot, m, a)
		if err != nil {
			return nil, fmt.Errorf("panel %s: %w", w, err)
		}
		panel.Rect = pixelRect(slot.Region, bounds)

		panel.Plot.Draw(draw.Canvas{Canvas: c, Rectangle: canvasRect(slot.Region)})
		fig.Panels = append(fig.Panels, panel)

		r.logger.Debug("panel drawn",
			"wavelength", w.String(),
			"position", slot.Position.String(),
			"row", slot.Row,
			"label", panel.Label.Text,
		)
	}
	fig.img = c.Image()
	return fig, nil
}

func (r *Renderer) panel(w domain.Wavelength, slot domain.Slot, m *domain.Map, a *domain.Assignment) (Panel, error) {
	style, err := StyleFor(m)
	if err != nil {
		return Panel{}, err
	}

	axes := r.scene.CropBox
	if slot.Position == domain.PositionCentre {
		axes = r.scene.FullBox
	}

	p := plot.New()
	p.BackgroundColor = backgroundFill
	p.HideAxes()
	p.X.Tick.Marker = plot.ConstantTicks{}
	p.Y.Tick.Marker = plot.ConstantTicks{}
	p.X.Padding, p.Y.Padding = 0, 0
	p.X.Min, p.X.Max = axes.X, axes.MaxX()
	p.Y.Min, p.Y.Max = axes.Y, axes.MaxY()

	ext := m.Extent()
	p.Add(plotter.NewImage(style.Image(m), ext.X, ext.Y, ext.MaxX(), ext.MaxY()))

	if slot.Position == domain.PositionCentre {
		outline, err := boxOutline(r.scene.CropBox)
		if err != nil {
			return Panel{}, err
		}
		p.Add(outline)
	}

	label := domain.PanelLabel(w, a, r.scene)
	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: label.Position.X, Y: label.Position.Y}},
		Labels: []string{label.Text},
	})
	if err != nil {
		return Panel{}, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = labelColor
		labels.TextStyle[i].Font.Size = vg.Points(labelSize)
	}
	p.Add(labels)

	return Panel{
		Wavelength: w,
		Slot:       slot,
		Axes:       axes,
		Label:      label,
		Style:      style,
		Plot:       p,
		Map:        m,
	}, nil
}

func boxOutline(b domain.Box) (*plotter.Line, error) {
	corners := b.Corners()
	xys := make(plotter.XYs, 0, len(corners)+1)
	for _, c := range corners {
		xys = append(xys, plotter.XY{X: c.X, Y: c.Y})
	}
	xys = append(xys, xys[0])

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = cropLineColor
	line.LineStyle.Width = vg.Points(1)
	return line, nil
}

// canvasRect converts a figure-relative region to canvas units (origin at the
// bottom left).
func canvasRect(r domain.Region) vg.Rectangle {
	return vg.Rectangle{
		Min: vg.Point{X: vg.Length(r.Left) * FigureWidth, Y: vg.Length(r.Bottom) * FigureHeight},
		Max: vg.Point{X: vg.Length(r.Left+r.Width) * FigureWidth, Y: vg.Length(r.Bottom+r.Height) * FigureHeight},
	}
}

// pixelRect converts a figure-relative region to image pixels (origin at the
// top left).
func pixelRect(r domain.Region, bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	return image.Rect(
		int(math.Round(r.Left*w)),
		int(math.Round((1-r.Bottom-r.Height)*h)),
		int(math.Round((r.Left+r.Width)*w)),
		int(math.Round((1-r.Bottom)*h)),
	)
}
