package panorama

import(
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/abworrall/panorama/pkg/fimage"
)

// Panorama holds the loaded photos, and stitches them left to right:
// each layer is registered against the composite so far.
type Panorama struct {
	Layers  []Layer  // In load order
	Config

	Composite fimage.Image
	Results   []Result  // One per layer after the first
}

func NewPanorama() Panorama {
	return Panorama{
		Layers: []Layer{},
		Config: NewConfig(),
	}
}

func (pano Panorama)String() string {
	str := fmt.Sprintf("Panorama %s [\n", pano.Composite)
	for _, l := range pano.Layers {
		str += fmt.Sprintf("  %s\n", l)
	}
	return str + "]\n"
}

func (pano *Panorama)AddLayer(l Layer) {
	pano.Layers = append(pano.Layers, l)
}

// Stitch composites all the layers. It needs at least two.
func (pano *Panorama)Stitch(ctx context.Context) error {
	if len(pano.Layers) < 2 {
		return fmt.Errorf("need at least two images to stitch, have %d", len(pano.Layers))
	}

	// Each layer goes onto the cylinder once; the composite is already there
	first, err := project(pano.Config, pano.Layers[0].Image)
	if err != nil {
		return fmt.Errorf("projecting %s: %w", pano.Layers[0].Filename(), err)
	}
	pano.Composite = first
	pano.Results = pano.Results[:0]
	for i:=1; i<len(pano.Layers); i++ {
		log.Infof("Stitching %s", pano.Layers[i])

		next, err := project(pano.Config, pano.Layers[i].Image)
		if err != nil {
			return fmt.Errorf("projecting %s: %w", pano.Layers[i].Filename(), err)
		}
		res, err := stitchProjected(ctx, pano.Config, pano.Composite, next)
		if err != nil {
			return fmt.Errorf("stitching %s: %w", pano.Layers[i].Filename(), err)
		}
		pano.Results = append(pano.Results, res)
		pano.Composite = res.Composite
	}

	log.Infof("Layers stitched: %s", pano)
	return nil
}

// WriteOutputs saves the composite as <prefix>.png, and if asked, as
// <prefix>.hdr and the match images as <prefix>-matches-N.png.
func (pano *Panorama)WriteOutputs(prefix string, withHDR bool) error {
	if err := WritePNG(pano.Composite, prefix + ".png"); err != nil {
		return err
	}
	if withHDR {
		if err := WriteHDR(pano.Composite, prefix + ".hdr"); err != nil {
			return err
		}
	}
	for i, res := range pano.Results {
		if res.Debug.Empty() {
			continue
		}
		if err := WritePNG(res.Debug, fmt.Sprintf("%s-matches-%d.png", prefix, i+1)); err != nil {
			return err
		}
	}
	return nil
}
