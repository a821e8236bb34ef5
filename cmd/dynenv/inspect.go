package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynenv/internal/analysis"
	"github.com/san-kum/dynenv/internal/env"
	"github.com/san-kum/dynenv/internal/experiment"
	"github.com/san-kum/dynenv/internal/export"
	"github.com/san-kum/dynenv/internal/storage"
)

var (
	pngPath    string
	svgPath    string
	xAxis      int
	yAxis      int
	demoCount  int
	demoNoise  float64
	maxPlots   int
	outputPath string
	sectionIdx int
	sectionAt  float64
)

func inspectCommands() []*cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot joint positions of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngPath, "png", "", "also write a PNG plot to this path")
	plotCmd.Flags().IntVar(&maxPlots, "max", 6, "maximum number of joints to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run trajectory to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "dominant frequency per joint",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	phaseCmd.Flags().StringVar(&svgPath, "svg", "", "also write an SVG plot to this path")
	phaseCmd.Flags().IntVar(&sectionIdx, "section", -1, "also plot the poincare section where this state index rises through --threshold")
	phaseCmd.Flags().Float64Var(&sectionAt, "threshold", 0, "poincare section threshold")

	demosCmd := &cobra.Command{
		Use:   "demos [run_id]",
		Short: "write noisy position demonstrations of a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  writeDemonstrations,
	}
	demosCmd.Flags().IntVar(&demoCount, "count", 2, "number of demonstrations; the first is noise free")
	demosCmd.Flags().Float64Var(&demoNoise, "noise", 0.01, "standard deviation of the added noise")
	demosCmd.Flags().Int64Var(&seed, "seed", 0, "noise seed")
	demosCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (stdout when empty)")

	return []*cobra.Command{listCmd, plotCmd, exportCmd, exportJSONCmd, analyzeCmd, phaseCmd, demosCmd}
}

func loadRun(runID string) (*storage.RunMetadata, env.Trajectory, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, env.Trajectory{}, err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, env.Trajectory{}, err
	}
	if traj.Len() == 0 {
		return nil, env.Trajectory{}, fmt.Errorf("run %s has no entries", runID)
	}
	return meta, traj, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSTEPS\tDT\tINTEG\tPOLICY\tSEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%s\t%s\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Integrator,
			run.Policy,
			run.Seed,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	positions, err := analysis.PositionMatrix(traj)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("entries: %d\n\n", traj.Len())

	numJoints := min(meta.NQ, maxPlots)
	var series []export.Series
	for j := 0; j < numJoints; j++ {
		data, err := analysis.Column(positions, j)
		if err != nil {
			return err
		}
		caption := fmt.Sprintf("q%d vs step", j)
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
		series = append(series, export.Series{Name: fmt.Sprintf("q%d", j), Values: data})
	}

	if pngPath == "" {
		return nil
	}
	f, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := export.DefaultPlotOptions()
	opts.Title = meta.ID
	opts.Dt = meta.Dt
	if err := export.TimeSeriesPNG(f, series, opts); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", pngPath)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, traj)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	positions, err := analysis.PositionMatrix(traj)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("model: %s\n\n", meta.Model)

	first, err := analysis.Column(positions, 0)
	if err != nil {
		return err
	}
	spectrum := analysis.Spectrum(first)
	if len(spectrum) > 4 {
		graph := asciigraph.Plot(spectrum[:len(spectrum)/2],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("magnitude spectrum (q0)"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOINT\tFREQ (HZ)\tPERIOD (S)\tMAGNITUDE")
	for j := 0; j < meta.NQ; j++ {
		col, err := analysis.Column(positions, j)
		if err != nil {
			return err
		}
		freq, mag := analysis.DominantFrequency(col, meta.Dt)
		period := "-"
		if freq > 0 {
			period = fmt.Sprintf("%.3f", 1.0/freq)
		}
		fmt.Fprintf(w, "q%d\t%.3f\t%s\t%.4g\n", j, freq, period, mag)
	}
	return w.Flush()
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	portrait, err := analysis.PhasePortrait(traj, xAxis, yAxis)
	if err != nil {
		return err
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("x-axis: x%d, y-axis: x%d\n\n", xAxis, yAxis)
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 70, 20))

	if sectionIdx >= 0 {
		section, err := analysis.GeneratePoincareSection(traj, sectionIdx, sectionAt, xAxis, yAxis)
		if err != nil {
			return err
		}
		fmt.Printf("poincare section: x%d = %g, %d crossings\n\n", sectionIdx, sectionAt, len(section.Points))
		fmt.Println(analysis.PoincareSectionToASCII(section, 70, 20))
	}

	if svgPath == "" {
		return nil
	}
	if err := os.WriteFile(svgPath, []byte(export.PhaseSVG(portrait, 600, 400, "#00d7ff")), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgPath)
	return nil
}

func writeDemonstrations(cmd *cobra.Command, args []string) error {
	_, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	demos, err := experiment.Demonstrations(traj, demoCount, demoNoise, seed)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return json.NewEncoder(out).Encode(demos)
}
