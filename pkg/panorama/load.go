package panorama

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/abworrall/panorama/pkg/fimage"
)

var decoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
	".bmp":  bmp.Decode,
}

// LoadFilesAndDirs loads every image it's given, recursing into dirs
// (whose contents are taken in name order). A .yaml file replaces the
// config.
func (pano *Panorama)LoadFilesAndDirs(args ...string) (error) {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := os.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				if err := pano.LoadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return fmt.Errorf("load %s: %v", arg, err)
				}
			}

		default: // is a file, load it
			if err := pano.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %v", arg, err)
			}
		}
	}

	return nil
}

func (pano *Panorama)loadFile(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))

	if ext == ".yaml" || ext == ".yml" {
		cfg, err := LoadConfig(filename)
		if err != nil {
			return fmt.Errorf("Loading %s as config YAML failed: %v", filename, err)
		}
		pano.Config = cfg
		log.Infof("Loaded base configuration from %s", filename)
		return nil
	}

	if _, ok := decoders[ext]; !ok {
		log.Debug("skipping", "file", filename)
		return nil
	}

	layer, err := LoadLayer(filename)
	if err != nil {
		return err
	}
	pano.AddLayer(layer)
	return nil
}

// LoadLayer decodes an image file by its extension. EXIF metadata is
// picked up if the file has any; not having it is fine.
func LoadLayer(filename string) (Layer, error) {
	l := Layer{LoadFilename: filename}

	decode, ok := decoders[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return l, fmt.Errorf("no decoder for '%s'", filename)
	}

	if reader, err := os.Open(filename); err != nil {
		return l, fmt.Errorf("open+r img '%s': %v", filename, err)
	} else {
		defer reader.Close()
		img, err := decode(reader)
		if err != nil {
			return l, fmt.Errorf("decoding '%s': %v", filename, err)
		}
		l.Image = fimage.FromImage(img)
	}

	loadExif(&l)
	return l, nil
}

func loadExif(l *Layer) {
	reader, err := os.Open(l.LoadFilename)
	if err != nil {
		return
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return
	}
	if tag, err := ex.Get(exif.Model); err == nil {
		if val, err := tag.StringVal(); err == nil {
			l.Model = strings.TrimSpace(val)
		}
	}
	if t, err := ex.DateTime(); err == nil {
		l.Taken = t
	}
}
