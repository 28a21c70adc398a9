package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/codec"
	"github.com/hupe1980/recgo/frame"
	"github.com/hupe1980/recgo/internal/compress"
	"github.com/hupe1980/recgo/table"
	"github.com/spf13/cobra"
)

var recommendFlags struct {
	query           string
	restrict        string
	exclude         string
	observations    string
	entityData      string
	itemData        string
	output          string
	topK            int
	excludeTraining bool
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Compute top-K recommendations",
	Long: `Compute top-K recommendations for the entities selected by --query.

Without --query every known entity is queried. A one-column query table
lists entity keys; a table with more columns supplies contextual features
per row. With output.format=table the result is stored as a compressed
table blob named by --output.`,
	RunE: runRecommend,
}

func init() {
	f := recommendCmd.Flags()
	f.StringVarP(&recommendFlags.query, "query", "q", "", "query CSV (entity keys or feature rows)")
	f.StringVar(&recommendFlags.restrict, "restrict", "", "restriction CSV (item, or entity and item)")
	f.StringVar(&recommendFlags.exclude, "exclude", "", "exclusion CSV (entity and item)")
	f.StringVar(&recommendFlags.observations, "observations", "", "new observations CSV")
	f.StringVar(&recommendFlags.entityData, "entity-data", "", "new entity side data CSV")
	f.StringVar(&recommendFlags.itemData, "item-data", "", "new item side data CSV")
	f.StringVarP(&recommendFlags.output, "output", "o", "", "output file or table blob name (default: stdout)")
	f.IntVarP(&recommendFlags.topK, "top-k", "k", 0, "results per entity (overrides top_k)")
	f.BoolVar(&recommendFlags.excludeTraining, "exclude-training", false, "exclude training interactions (overrides exclude_training)")
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fl := recommendFlags

	if cmd.Flags().Changed("top-k") {
		cfg.TopK = fl.topK
	}
	if cmd.Flags().Changed("exclude-training") {
		cfg.ExcludeTraining = fl.excludeTraining
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	numeric := numericColumns(s.bundle.Schema())
	req := recgo.Request{
		Query:                       recgo.QueryAll{},
		TopK:                        cfg.TopK,
		ExcludeTrainingInteractions: cfg.ExcludeTraining,
		DiversityFactor:             cfg.DiversityFactor,
		RandomSeed:                  cfg.Seed,
	}

	q, err := readFrame(fl.query, numeric)
	if err != nil {
		return err
	}
	if q != nil {
		req.Query = recgo.QueryFromFrame(q)
	}
	for _, in := range []struct {
		path string
		dst  **frame.Frame
	}{
		{fl.restrict, &req.Restriction},
		{fl.exclude, &req.Exclusion},
		{fl.observations, &req.NewObservations},
		{fl.entityData, &req.NewEntityData},
		{fl.itemData, &req.NewItemData},
	} {
		if *in.dst, err = readFrame(in.path, numeric); err != nil {
			return err
		}
	}

	t, err := s.engine.Recommend(ctx, req)
	if err != nil {
		return err
	}

	if cfg.Output.Format == "table" {
		if fl.output == "" {
			return fmt.Errorf("--output names the table blob and is required for output.format=table")
		}
		c, ok := codec.ByName(cfg.Output.Codec)
		if !ok {
			return fmt.Errorf("unknown codec %q", cfg.Output.Codec)
		}
		ct, err := compress.ParseType(cfg.Output.Compression)
		if err != nil {
			return err
		}
		return table.Write(ctx, s.store, fl.output, t, c, ct)
	}

	if fl.output == "" {
		return t.WriteCSV(cmd.OutOrStdout())
	}
	f, err := os.Create(fl.output)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
