package panorama

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/abworrall/panorama/pkg/fimage"
)

// A Layer is one input photo, plus what we could dig out of its EXIF
type Layer struct {
	LoadFilename string
	Model        string     // camera model, if known
	Taken        time.Time  // capture time, if known

	fimage.Image
}

func (l Layer)String() string {
	str := fmt.Sprintf("%s: %s", l.Filename(), l.Image)
	if l.Model != "" {
		str += fmt.Sprintf(", %s", l.Model)
	}
	if !l.Taken.IsZero() {
		str += fmt.Sprintf(", taken %s", l.Taken.Format(time.RFC3339))
	}
	return str
}

func (l Layer)Filename() string {
	return filepath.Base(l.LoadFilename)
}
