// Command panorama stitches overlapping photos into one image.
//
//	panorama stitch left.jpg right.jpg -o pano
//	panorama corners photo.png -o corners.png
//	panorama matches left.jpg right.jpg -o matches.png
//	panorama cylinder photo.png -f 1200 -o flat.png
package main

import(
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/abworrall/panorama/pkg/panorama"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// flags holds the command line overrides; only flags the user actually
// set are applied over the config file.
type flags struct {
	verbosity    int
	configFile   string

	sigma        float64
	cornerThresh float64
	nmsWindow    int
	inlierThresh float64
	iters        int
	cutoff       int
	seed         int64
	deadline     string
	focal        float64
	scale        float64
	workers      int
	debug        bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:          "panorama",
		Short:        "panorama registers and stitches overlapping photos",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if f.verbosity > 0 {
				level = log.DebugLevel
			}
			log.SetDefault(newLogger(os.Stderr, level))
		},
	}

	pf := root.PersistentFlags()
	pf.CountVarP(&f.verbosity, "verbose", "v", "how verbose to get (repeat for debug dumps)")
	pf.StringVar(&f.configFile, "config", "", "YAML config file")
	pf.Float64Var(&f.sigma, "sigma", 2, "structure tensor blur")
	pf.Float64Var(&f.cornerThresh, "thresh", 2, "cornerness threshold")
	pf.IntVar(&f.nmsWindow, "nms", 3, "non-max suppression half-width")
	pf.Float64Var(&f.inlierThresh, "inlier-thresh", 2, "RANSAC inlier distance, in pixels")
	pf.IntVar(&f.iters, "iters", 10000, "max RANSAC iterations")
	pf.IntVar(&f.cutoff, "cutoff", 30, "stop RANSAC once a model has more inliers than this")
	pf.Int64Var(&f.seed, "seed", 0, "RANSAC random seed (0 means use the clock)")
	pf.StringVar(&f.deadline, "deadline", "", "give up on RANSAC after this long (e.g. 10s)")
	pf.Float64VarP(&f.focal, "focal", "f", 0, "project onto a cylinder with this focal length (pixels) first")
	pf.Float64Var(&f.scale, "detect-scale", 1, "detect corners on images scaled by this much")
	pf.IntVar(&f.workers, "workers", 0, "goroutines for per-pixel work (0 means one per CPU)")
	pf.BoolVar(&f.debug, "debug", false, "also write the matches image")

	root.AddCommand(newStitchCmd(f))
	root.AddCommand(newCornersCmd(f))
	root.AddCommand(newMatchesCmd(f))
	root.AddCommand(newCylinderCmd(f))
	root.AddCommand(newConfigCmd(f))

	return root
}

func (f *flags)config(cmd *cobra.Command) (panorama.Config, error) {
	return f.configOver(cmd, panorama.NewConfig())
}

// configOver starts from base (or the --config file, if given), then
// applies any flags that were set.
func (f *flags)configOver(cmd *cobra.Command, base panorama.Config) (panorama.Config, error) {
	cfg := base
	if f.configFile != "" {
		var err error
		if cfg, err = panorama.LoadConfig(f.configFile); err != nil {
			return cfg, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("sigma")         { cfg.Sigma = f.sigma }
	if changed("thresh")        { cfg.CornerThresh = f.cornerThresh }
	if changed("nms")           { cfg.NMSWindow = f.nmsWindow }
	if changed("inlier-thresh") { cfg.InlierThresh = f.inlierThresh }
	if changed("iters")         { cfg.RansacIters = f.iters }
	if changed("cutoff")        { cfg.InlierCutoff = f.cutoff }
	if changed("seed")          { cfg.Seed = f.seed }
	if changed("focal")         { cfg.FocalLength = f.focal }
	if changed("detect-scale")  { cfg.DetectScale = f.scale }
	if changed("workers")       { cfg.Workers = f.workers }
	if changed("debug")         { cfg.DrawDebug = f.debug }
	if changed("deadline") {
		d, err := parseDuration(f.deadline)
		if err != nil {
			return cfg, err
		}
		cfg.Deadline = d
	}
	if f.verbosity > cfg.Verbosity {
		cfg.Verbosity = f.verbosity
	}

	if cfg.Verbosity > 0 {
		log.Debugf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}
	return cfg, cfg.Validate()
}
