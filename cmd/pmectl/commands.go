package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pme"
	"github.com/hupe1980/pme/internal/manifest"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <table.yaml>",
		Short: "Validate a classifier table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := pme.LoadTable(args[0])
			if err != nil {
				return err
			}

			reserved := 0
			for _, c := range table.Classifiers {
				reserved += c.MaxPatterns
			}
			build := table.BuildConfigOrDefault()
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d classifiers, %d of %d result slots reserved\n",
				len(table.Classifiers), reserved, build.ResultArenaCapacity)
			return nil
		},
	}
}

func newInitCmd(g *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init <table.yaml>",
		Short: "Create an empty model from a classifier table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			table, err := pme.LoadTable(args[0])
			if err != nil {
				return err
			}
			store, err := openStore(ctx, g.store)
			if err != nil {
				return err
			}

			_, err = manifest.NewStore(store).Load(ctx)
			switch {
			case err == nil && !force:
				return fmt.Errorf("model already exists in %s (use --force to replace it)", g.store)
			case err != nil && !errors.Is(err, manifest.ErrNotFound):
				return err
			}

			opts, err := g.engineOptions()
			if err != nil {
				return err
			}
			e, err := pme.New(table.Classifiers, append(opts, pme.WithBuildConfig(table.BuildConfigOrDefault()))...)
			if err != nil {
				return err
			}
			defer e.Close()

			v, err := e.Save(ctx, store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model %s version %d\n", e.ModelID(), v)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "publish a new empty version over an existing model")
	return cmd
}

func newInspectCmd(g *globalFlags) *cobra.Command {
	var (
		versionID uint64
		versions  bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the manifest of a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, g.store)
			if err != nil {
				return err
			}
			ms := manifest.NewStore(store)
			out := cmd.OutOrStdout()

			if versions {
				all, err := ms.ListVersions(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tCREATED\tCLASSIFIERS\tPATTERNS")
				for _, m := range all {
					fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", m.ID, m.CreatedAt.Format(time.RFC3339), len(m.Classifiers), m.Patterns())
				}
				return w.Flush()
			}

			m, err := ms.LoadVersion(ctx, versionID)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(m, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintf(out, "model:    %s\n", m.ModelID)
			fmt.Fprintf(out, "version:  %d\n", m.ID)
			fmt.Fprintf(out, "created:  %s\n", m.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "patterns: %d\n\n", m.Patterns())

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSIZE\tCHANNELS\tCLASSES\tDISTANCE\tMODE\tPATTERNS\tCOMPRESSION\tBYTES")
			for _, c := range m.Classifiers {
				channels := max(c.NumChannels, 1)
				fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\t%s\t%d/%d\t%s\t%d\n",
					c.ID, c.PatternSize, channels, c.NumClasses, c.Distance, c.Mode,
					c.Patterns, c.MaxPatterns, c.Compression, c.Size)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Uint64Var(&versionID, "version", 0, "manifest version, 0 for the current one")
	cmd.Flags().BoolVar(&versions, "versions", false, "list all saved versions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the manifest as JSON")
	return cmd
}

func newPruneCmd(g *globalFlags) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old model versions and their packs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 1 {
				return fmt.Errorf("--keep must be at least 1, got %d", keep)
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, g.store)
			if err != nil {
				return err
			}
			ms := manifest.NewStore(store)

			current, err := ms.Load(ctx)
			if err != nil {
				return err
			}
			all, err := ms.ListVersions(ctx)
			if err != nil {
				return err
			}

			deleted := 0
			for i := 0; i < len(all)-keep; i++ {
				if all[i].ID == current.ID {
					continue
				}
				if err := ms.DeleteVersion(ctx, all[i].ID); err != nil {
					return fmt.Errorf("version %d: %w", all[i].ID, err)
				}
				deleted++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d versions, current is %d\n", deleted, current.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 1, "number of most recent versions to keep")
	return cmd
}

func newLearnCmd(g *globalFlags) *cobra.Command {
	var (
		classifier uint16
		category   uint16
		influence  uint32
	)

	cmd := &cobra.Command{
		Use:     "learn <vector>",
		Short:   "Teach one vector to a classifier and save a new version",
		Example: `  pmectl learn --classifier 1 --category 2 --influence 400 12,40,255,0`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			vector, err := parseVector(args[0])
			if err != nil {
				return err
			}
			store, err := openStore(ctx, g.store)
			if err != nil {
				return err
			}
			opts, err := g.engineOptions()
			if err != nil {
				return err
			}
			e, err := pme.Load(ctx, store, opts...)
			if err != nil {
				return err
			}
			defer e.Close()

			outcome, err := e.Learn(ctx, classifier, vector, category, influence)
			if err != nil {
				return err
			}
			if outcome == pme.LearnNoop {
				fmt.Fprintln(cmd.OutOrStdout(), outcome)
				return nil
			}

			v, err := e.Save(ctx, store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (version %d)\n", outcome, v)
			return nil
		},
	}

	cmd.Flags().Uint16Var(&classifier, "classifier", 0, "classifier id")
	cmd.Flags().Uint16Var(&category, "category", 0, "category of the vector")
	cmd.Flags().Uint32Var(&influence, "influence", 0, "initial influence field")
	_ = cmd.MarkFlagRequired("classifier")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("influence")
	return cmd
}

type classifyOutput struct {
	Status      string         `json:"status"`
	Category    uint16         `json:"category"`
	PatternID   int32          `json:"pattern_id"`
	Influence   uint32         `json:"influence"`
	Distance    uint32         `json:"distance"`
	Neighbors   []pme.Neighbor `json:"neighbors,omitempty"`
	Diagnostics [4]float32     `json:"diagnostics"`
}

func newClassifyCmd(g *globalFlags) *cobra.Command {
	var (
		classifier uint16
		k          int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:     "classify <vector>",
		Short:   "Classify one vector",
		Example: `  pmectl classify --classifier 1 -k 3 12,40,255,0`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			vector, err := parseVector(args[0])
			if err != nil {
				return err
			}
			store, err := openStore(ctx, g.store)
			if err != nil {
				return err
			}
			opts, err := g.engineOptions()
			if err != nil {
				return err
			}
			e, err := pme.Load(ctx, store, opts...)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.ClassifyK(ctx, classifier, vector, k)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(classifyOutput{
					Status:      res.Status.String(),
					Category:    res.Category,
					PatternID:   res.PatternID,
					Influence:   res.Influence,
					Distance:    res.Distance,
					Neighbors:   res.Neighbors,
					Diagnostics: res.Diagnostics(),
				}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintf(out, "%s category=%d pattern=%d influence=%d distance=%d\n",
				res.Status, res.Category, res.PatternID, res.Influence, res.Distance)
			return nil
		},
	}

	cmd.Flags().Uint16Var(&classifier, "classifier", 0, "classifier id")
	cmd.Flags().IntVarP(&k, "neighbors", "k", 1, "number of neighbors")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("classifier")
	return cmd
}
