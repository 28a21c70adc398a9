package main

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"

	"github.com/hupe1980/recgo/blobstore"

	"github.com/hupe1980/recgo/interactions"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show bundle schema and interaction statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		m := s.engine.Model()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "model:        %s\n", cfg.Model)
		fmt.Fprintf(out, "entities:     %d\n", m.Entities().Len())
		fmt.Fprintf(out, "items:        %d\n", m.Items().Len())
		fmt.Fprintf(out, "factor dim:   %d\n", s.bundle.Factorization().Params().Dim)
		fmt.Fprintf(out, "interactions: %d\n", m.Interactions().NumInteractions())
		fmt.Fprintln(out, "columns:")
		for _, c := range m.Schema().Columns() {
			fmt.Fprintf(out, "  %-20s %-12s %s\n", c.Name, c.Kind, c.Role)
		}

		st, err := interactions.Counts(ctx, m.Interactions())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "items per entity:  max %d\n", maxOf(st.ItemsPerEntity))
		fmt.Fprintf(out, "entities per item: max %d\n", maxOf(st.EntitiesPerItem))

		fmt.Fprintln(out, "blobs:")
		return listBlobs(ctx, out, s.store, cfg.Model)
	},
}

func listBlobs(ctx context.Context, out io.Writer, store blobstore.BlobStore, prefix string) error {
	names, err := store.List(ctx, path.Clean(prefix)+"/")
	if err != nil {
		return err
	}
	for _, name := range names {
		b, err := store.Open(ctx, name)
		if err != nil {
			return err
		}
		size := b.Size()
		_ = b.Close()
		fmt.Fprintf(out, "  %-30s %d bytes\n", path.Base(name), size)
	}
	return nil
}

func maxOf(s []int) int {
	if len(s) == 0 {
		return 0
	}
	return slices.Max(s)
}
