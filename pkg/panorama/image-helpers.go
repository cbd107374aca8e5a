package panorama

// A few helper routines for writing images out

import(
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
)

// rgbe only encodes images that declare an HDR colour model; fimage
// says RGBA64 so PNG encoding clamps the way we want.
type hdrRGB struct {
	hdr.Image
}

func (hdrRGB)ColorModel() color.Model { return hdrcolor.RGBModel }

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

// WriteHDR outputs a Radiance HDR image, for tools that want the
// unclamped float values.
func WriteHDR(img hdr.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		if err := rgbe.Encode(writer, hdrRGB{img}); err != nil {
			return fmt.Errorf("encoding RGBE '%s': %v", filename, err)
		}
		return nil
	}
}
