package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/df07/go-sequential-optics/pkg/analysis"
	"github.com/df07/go-sequential-optics/pkg/config"
	"github.com/df07/go-sequential-optics/pkg/trace"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	verbose bool
	lensDir string
	spans   bool
	metrics bool
	workers int

	logger   *slog.Logger
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "seqoptics",
		Short: "Sequential ray tracing of lens prescriptions",
		Long: `seqoptics traces rays through a sequence of optical interfaces and
derives clear apertures, transverse ray fans and wavefront errors.

A LENS argument is a built-in lens id (see "seqoptics lenses") or the
path of a YAML lens file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.finish(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log batch progress at debug level")
	pf.StringVar(&opts.lensDir, "lens-dir", "lenses", "Directory searched for *.yaml lens files")
	pf.BoolVar(&opts.spans, "spans", false, "Write OpenTelemetry spans of analysis batches to stderr")
	pf.BoolVar(&opts.metrics, "metrics", false, "Print ray counters in Prometheus text format when done")
	pf.IntVar(&opts.workers, "workers", -1, "Parallel tracers, 0 for one per CPU (default from the lens file)")

	root.AddCommand(
		newLensesCmd(opts),
		newListCmd(opts),
		newTraceCmd(opts),
		newAperturesCmd(opts),
		newFanCmd(opts),
		newOPDCmd(opts),
	)
	return root
}

func (o *globalOptions) setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if o.spans {
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(cmd.ErrOrStderr()),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return fmt.Errorf("create span exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		otel.SetTracerProvider(tp)
		o.shutdown = tp.Shutdown
	}
	return nil
}

func (o *globalOptions) finish(cmd *cobra.Command) error {
	if o.shutdown != nil {
		if err := o.shutdown(cmd.Context()); err != nil {
			return fmt.Errorf("flush spans: %w", err)
		}
	}
	if o.metrics {
		return writeMetrics(cmd.OutOrStdout())
	}
	return nil
}

// writeMetrics prints this program's Prometheus metrics
func writeMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "seqoptics_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// loadSystem resolves and builds the lens named by the command argument
func (o *globalOptions) loadSystem(name string) (*config.System, error) {
	doc, err := config.Load(name)
	if err != nil {
		return nil, err
	}
	if o.workers >= 0 {
		doc.Settings.Workers = o.workers
	}
	sys, err := doc.Build(o.logger)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("lens built",
		slog.String("lens", sys.Name),
		slog.Int("surfaces", sys.Model.NumSurfaces()),
		slog.Int("fields", sys.Spec.FieldCount()))
	return sys, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func newLensesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lenses",
		Short: "List built-in lenses and lens files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lenses, err := config.ListLenses(opts.lensDir)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tGROUP\tDESCRIPTION")
			for _, l := range lenses {
				id := l.ID
				if l.Type == "file" {
					id = l.FilePath
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, l.Name, l.Group, l.Description)
			}
			return tw.Flush()
		},
	}
}

func newListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list LENS",
		Short: "Print the prescription with clear apertures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := opts.loadSystem(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", sys.Name)

			tw := newTable(out)
			fmt.Fprintln(tw, "#\tLABEL\tMODE\tCURVATURE\tTHICKNESS\tMEDIUM\tSEMI-DIAM\t")
			for _, r := range sys.Model.Rows() {
				idx := fmt.Sprint(r.Index)
				if r.Stop {
					idx += "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.6g\t%.6g\t%s\t%.4f\t\n",
					idx, r.Label, r.Mode, r.Curvature, r.Thickness, r.Medium, r.SemiDiameter)
			}
			return tw.Flush()
		},
	}
}

func newTraceCmd(opts *globalOptions) *cobra.Command {
	var (
		field int
		pupil []float64
		wvl   float64
	)
	cmd := &cobra.Command{
		Use:   "trace LENS",
		Short: "Trace one ray and print it surface by surface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(pupil) != 2 {
				return fmt.Errorf("--pupil takes two values, got %d", len(pupil))
			}
			sys, err := opts.loadSystem(args[0])
			if err != nil {
				return err
			}
			if wvl == 0 {
				wvl = sys.Spec.ReferenceWavelength()
			}

			res, err := analysis.TraceRay(sys.Model, sys.Spec, field, [2]float64{pupil[0], pupil[1]}, wvl, sys.Analysis)
			if err != nil {
				opts.logger.Error("ray failed", slog.String("outcome", trace.Outcome(err)))
				return err
			}
			tfrms, err := sys.Model.GlobalCoords(0)
			if err != nil {
				return err
			}
			global, err := res.GlobalPoints(tfrms)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := newTable(out)
			fmt.Fprintln(tw, "#\tX\tY\tZ\tL\tM\tN\tDIST\tGLOBAL X\tGLOBAL Y\tGLOBAL Z\t")
			for i, seg := range res.Ray {
				fmt.Fprintf(tw, "%d\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t\n",
					i, seg.Point.X, seg.Point.Y, seg.Point.Z, seg.Dir.X, seg.Dir.Y, seg.Dir.Z,
					seg.Dist, global[i].X, global[i].Y, global[i].Z)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nwavelength %g nm, optical path delta %.9g\n", res.Wavelength, res.OpDelta)
			return nil
		},
	}
	cmd.Flags().IntVarP(&field, "field", "f", 0, "Field index")
	cmd.Flags().Float64SliceVarP(&pupil, "pupil", "p", []float64{0, 1}, "Normalized pupil coordinates x,y")
	cmd.Flags().Float64VarP(&wvl, "wavelength", "w", 0, "Wavelength in nm (default the reference wavelength)")
	return cmd
}

func newAperturesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apertures LENS",
		Short: "Trace the boundary rays and print the clear aperture of every surface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := opts.loadSystem(args[0])
			if err != nil {
				return err
			}
			samples, err := analysis.TraceBoundaryRays(cmd.Context(), sys.Model, sys.Spec, sys.Analysis)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "#\tLABEL\tSEMI-DIAM\tLIMITED BY\t")
			for i := 0; i < sys.Model.NumSurfaces(); i++ {
				best := -1.0
				var by analysis.RaySample
				for _, s := range samples {
					if r := s.Result.Ray[i].Point.Radial(); r > best {
						best, by = r, s
					}
				}
				fmt.Fprintf(tw, "%d\t%s\t%.4f\tf%d %gnm (%g,%g)\t\n",
					i, sys.Model.Surface(i).Label, sys.Model.Surface(i).SemiDiameter(),
					by.Field, by.Wavelength, by.Pupil[0], by.Pupil[1])
			}
			return tw.Flush()
		},
	}
}

func newFanCmd(opts *globalOptions) *cobra.Command {
	var (
		field   int
		axis    string
		samples int
	)
	cmd := &cobra.Command{
		Use:   "fan LENS",
		Short: "Print the transverse ray fan of a field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fanAxis, err := analysis.ParseFanAxis(axis)
			if err != nil {
				return err
			}
			sys, err := opts.loadSystem(args[0])
			if err != nil {
				return err
			}
			cfg := sys.Analysis
			if samples > 0 {
				cfg.FanSamples = samples
			}

			fans, err := analysis.TraceFan(cmd.Context(), sys.Model, sys.Spec, field, fanAxis, cfg)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "P%s", strings.ToUpper(fanAxis.String()))
			for _, fan := range fans {
				fmt.Fprintf(tw, "\t%gnm", fan.Wavelength)
			}
			fmt.Fprintln(tw, "\t")
			for j := range fans[0].Pupil {
				fmt.Fprintf(tw, "%.3f", fans[0].Pupil[j])
				for _, fan := range fans {
					fmt.Fprintf(tw, "\t%.6e", fan.Deviation[j])
				}
				fmt.Fprintln(tw, "\t")
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&field, "field", "f", 0, "Field index")
	cmd.Flags().StringVarP(&axis, "axis", "a", "y", "Pupil axis, x or y")
	cmd.Flags().IntVarP(&samples, "samples", "n", 0, "Pupil samples (default from the lens file)")
	return cmd
}

func newOPDCmd(opts *globalOptions) *cobra.Command {
	var (
		field int
		wvl   float64
		pupil []float64
		grid  int
	)
	cmd := &cobra.Command{
		Use:   "opd LENS",
		Short: "Print the wavefront error of a field",
		Long: `Without --pupil the optical path difference is sampled on a square
grid over the pupil and printed as a map with its RMS. With --pupil a
single ray is evaluated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := opts.loadSystem(args[0])
			if err != nil {
				return err
			}
			if wvl == 0 {
				wvl = sys.Spec.ReferenceWavelength()
			}
			out := cmd.OutOrStdout()

			if len(pupil) > 0 {
				if len(pupil) != 2 {
					return fmt.Errorf("--pupil takes two values, got %d", len(pupil))
				}
				opd, err := analysis.ComputeOPD(sys.Model, sys.Spec, field, wvl, [2]float64{pupil[0], pupil[1]}, sys.Analysis)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "opd %.9g  e1 %.9g  ekp %.9g  ep %.9g\n", opd.OPD, opd.E1, opd.EKp, opd.Ep)
				return nil
			}

			wf, err := analysis.TraceWavefront(cmd.Context(), sys.Model, sys.Spec, field, wvl, grid, sys.Analysis)
			if err != nil {
				return err
			}
			tw := newTable(out)
			for i := len(wf.OPD) - 1; i >= 0; i-- {
				for _, v := range wf.OPD[i] {
					if math.IsNaN(v) {
						fmt.Fprint(tw, ".\t")
						continue
					}
					fmt.Fprintf(tw, "%.3e\t", v)
				}
				fmt.Fprintln(tw)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nrms %.6e at %g nm\n", wf.RMS(), wf.Wavelength)
			return nil
		},
	}
	cmd.Flags().IntVarP(&field, "field", "f", 0, "Field index")
	cmd.Flags().Float64VarP(&wvl, "wavelength", "w", 0, "Wavelength in nm (default the reference wavelength)")
	cmd.Flags().Float64SliceVarP(&pupil, "pupil", "p", nil, "Evaluate a single ray at pupil x,y")
	cmd.Flags().IntVarP(&grid, "grid", "g", 9, "Samples across the pupil")
	return cmd
}
