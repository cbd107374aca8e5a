package main

import(
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/abworrall/panorama/pkg/harris"
	"github.com/abworrall/panorama/pkg/panorama"
)

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("deadline '%s': %v", s, err)
	}
	return d, nil
}

func newStitchCmd(f *flags) *cobra.Command {
	var out string
	var withHDR bool

	cmd := &cobra.Command{
		Use:   "stitch FILE|DIR...",
		Short: "stitch two or more overlapping images, left to right",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pano := panorama.NewPanorama()
			// Config files given as args get loaded first; flags still win
			if err := pano.LoadFilesAndDirs(args...); err != nil {
				return err
			}
			cfg, err := f.configOver(cmd, pano.Config)
			if err != nil {
				return err
			}
			pano.Config = cfg

			start := time.Now()
			if err := pano.Stitch(cmd.Context()); err != nil {
				return err
			}
			log.Infof("Stitched %d images (%s)", len(pano.Layers), time.Since(start).Round(time.Millisecond))

			return pano.WriteOutputs(out, withHDR)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "panorama", "output filename prefix")
	cmd.Flags().BoolVar(&withHDR, "hdr", false, "also write a Radiance .hdr file")
	return cmd
}

func newCornersCmd(f *flags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "corners IMAGE",
		Short: "draw the detected corners on an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			l, err := panorama.LoadLayer(args[0])
			if err != nil {
				return err
			}

			det, err := harris.Detect(l.Image, cfg.HarrisParams())
			if err != nil {
				return err
			}
			log.Infof("%s: %d corners", l, len(det.Descriptors))
			if cfg.Verbosity > 1 {
				det.Response.ToImg("cornerness "+l.Filename(), "cornerness.png")
			}

			return panorama.WritePNG(harris.DrawCorners(l.Image, det.Descriptors), out)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "corners.png", "output PNG")
	return cmd
}

func newMatchesCmd(f *flags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "matches IMAGE_A IMAGE_B",
		Short: "draw the raw descriptor matches between two images",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			a, err := panorama.LoadLayer(args[0])
			if err != nil {
				return err
			}
			b, err := panorama.LoadLayer(args[1])
			if err != nil {
				return err
			}

			img, err := panorama.FindAndDrawMatches(a.Image, b.Image, cfg)
			if err != nil {
				return err
			}
			return panorama.WritePNG(img, out)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "matches.png", "output PNG")
	return cmd
}

func newCylinderCmd(f *flags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "cylinder IMAGE",
		Short: "project an image onto a cylinder and unroll it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			if cfg.FocalLength <= 0 {
				return fmt.Errorf("cylinder needs --focal")
			}
			l, err := panorama.LoadLayer(args[0])
			if err != nil {
				return err
			}

			img, err := panorama.CylindricalProject(l.Image, cfg.FocalLength, cfg.Workers)
			if err != nil {
				return err
			}
			return panorama.WritePNG(img, out)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "cylinder.png", "output PNG")
	return cmd
}

func newConfigCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.AsYaml())
			return nil
		},
	}
}
