package panorama

import(
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/panorama/pkg/fimage"
	"github.com/abworrall/panorama/pkg/harris"
	"github.com/abworrall/panorama/pkg/homography"
)

type Config struct {
	Verbosity       int

	// Corner detection
	Sigma           float64  // structure tensor blur
	CornerThresh    float64  // cornerness needed to count as a corner
	NMSWindow       int      // half-width of the non-max suppression window
	Alpha           float64  // Harris-Stephens trace weighting
	PatchSize       int      // descriptor patch side
	DetectScale     float64  // detect on images scaled by this much (0 or 1 means full size)
	Resampler       string   // "bilinear" or "nearest", used when scaling

	// Homography estimation
	InlierThresh    float64  // pixels
	RansacIters     int
	InlierCutoff    int      // stop RANSAC once a model has more inliers than this
	Seed            int64    // 0 means seed from the clock
	Deadline        time.Duration  // give up on RANSAC after this long; 0 means no limit

	// Output
	FocalLength     float64  // if >0, project images onto a cylinder of this focal length (pixels) first
	MaxCanvasPixels int      // refuse to allocate composites bigger than this
	DrawDebug       bool     // also render the matches image

	Workers         int      // goroutines for the per-pixel work; 0 means one per CPU
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

// LoadConfig reads a YAML config file; any fields it doesn't mention
// keep their defaults.
func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}

	c, err := newConfigFromYaml(contents)
	if err != nil {
		return Config{}, fmt.Errorf("config parse %s: %v", filename, err)
	}
	return c, c.Validate()
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

func NewConfig() Config {
	return Config{
		Sigma:           2,
		CornerThresh:    2,
		NMSWindow:       3,
		Alpha:           0.06,
		PatchSize:       5,
		DetectScale:     1,
		Resampler:       "bilinear",
		InlierThresh:    2,
		RansacIters:     10000,
		InlierCutoff:    30,
		MaxCanvasPixels: 200 * 1000 * 1000,
	}
}

func (c Config)Validate() error {
	switch {
	case c.Sigma <= 0:
		return fmt.Errorf("sigma must be >0, got %v", c.Sigma)
	case c.NMSWindow < 0:
		return fmt.Errorf("nmswindow must be >=0, got %d", c.NMSWindow)
	case c.PatchSize < 1:
		return fmt.Errorf("patchsize must be >=1, got %d", c.PatchSize)
	case c.InlierThresh < 0:
		return fmt.Errorf("inlierthresh must be >=0, got %v", c.InlierThresh)
	case c.RansacIters < 1:
		return fmt.Errorf("ransaciters must be >=1, got %d", c.RansacIters)
	case c.DetectScale < 0 || c.DetectScale > 1:
		return fmt.Errorf("detectscale must be in (0,1], got %v", c.DetectScale)
	case c.FocalLength < 0:
		return fmt.Errorf("focallength must be >=0, got %v", c.FocalLength)
	case c.Deadline < 0:
		return fmt.Errorf("deadline must be >=0, got %v", c.Deadline)
	}
	if _, err := c.GetResampler(); err != nil {
		return err
	}
	return nil
}

func (c Config)GetResampler() (fimage.Resampler, error) {
	return fimage.ParseResampler(c.Resampler)
}

func (c Config)HarrisParams() harris.Params {
	return harris.Params{
		Sigma:     c.Sigma,
		Thresh:    c.CornerThresh,
		Alpha:     c.Alpha,
		NMSWindow: c.NMSWindow,
		PatchSize: c.PatchSize,
		Workers:   c.Workers,
	}
}

func (c Config)RansacParams() homography.Params {
	return homography.Params{
		InlierThresh: c.InlierThresh,
		Iterations:   c.RansacIters,
		Cutoff:       c.InlierCutoff,
		Workers:      c.Workers,
	}
}

func (c Config)seed() int64 {
	if c.Seed == 0 {
		return time.Now().UnixNano()
	}
	return c.Seed
}
