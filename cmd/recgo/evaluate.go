package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/recgo/codec"
	"github.com/hupe1980/recgo/evaluation"
	"github.com/hupe1980/recgo/table"
	"github.com/spf13/cobra"
)

var evaluateFlags struct {
	heldOut    string
	recs       string
	cutoffs    string
	perEntity  bool
	outputJSON bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Precision and recall of stored recommendations",
	Long: `Compare a result table stored by 'recommend' (output.format=table)
against held-out interactions and report precision and recall per cutoff,
averaged over the held-out entities.`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.heldOut, "held-out", "", "held-out interactions CSV (required)")
	f.StringVar(&evaluateFlags.recs, "recs", "", "result table blob name (required)")
	f.StringVar(&evaluateFlags.cutoffs, "cutoffs", "", "comma-separated cutoffs (overrides cutoffs)")
	f.BoolVar(&evaluateFlags.perEntity, "per-entity", false, "print one line per entity and cutoff")
	f.BoolVar(&evaluateFlags.outputJSON, "json", false, "output as JSON")
	_ = evaluateCmd.MarkFlagRequired("held-out")
	_ = evaluateCmd.MarkFlagRequired("recs")
}

func parseCutoffs(s string) ([]int, error) {
	var out []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		c, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid cutoff %q: %w", p, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fl := evaluateFlags

	if fl.cutoffs != "" {
		cutoffs, err := parseCutoffs(fl.cutoffs)
		if err != nil {
			return err
		}
		cfg.Cutoffs = cutoffs
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	heldOut, err := readFrame(fl.heldOut, numericColumns(s.bundle.Schema()))
	if err != nil {
		return err
	}
	recs, err := table.Read(ctx, s.store, fl.recs)
	if err != nil {
		return fmt.Errorf("read %s: %w", fl.recs, err)
	}

	results, err := s.engine.PrecisionRecall(ctx, heldOut, recs, cfg.Cutoffs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if fl.outputJSON {
		var v any = evaluation.Summarize(results)
		if fl.perEntity {
			v = results
		}
		data, err := codec.Default.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	if fl.perEntity {
		for _, r := range results {
			fmt.Fprintf(out, "%s\t@%d\tprecision=%.4f\trecall=%.4f\theld_out=%d\n",
				r.Entity, r.Cutoff, r.Precision, r.Recall, r.Count)
		}
		return nil
	}
	for _, sum := range evaluation.Summarize(results) {
		fmt.Fprintf(out, "@%d\tprecision=%.4f\trecall=%.4f\tentities=%d\n",
			sum.Cutoff, sum.Precision, sum.Recall, sum.Entities)
	}
	return nil
}
