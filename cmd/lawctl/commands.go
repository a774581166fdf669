package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"altar/internal/law"
	"altar/internal/law/catalog"
)

func rootCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:           "lawctl",
		Short:         "Inspect and evaluate law catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Catalog file or directory (default: embedded catalog)")

	load := func() (*law.Catalog, error) {
		return catalog.LoadOrDefault(catalogPath)
	}

	cmd.AddCommand(
		validateCmd(),
		protocolCmd(load),
		searchCmd(load),
		exportCmd(load),
	)
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Load and validate a catalog, printing rule counts per category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("catalog")
			if len(args) == 1 {
				path = args[0]
			}
			c, err := catalog.LoadOrDefault(path)
			if err != nil {
				var ce *law.CatalogError
				if errors.As(err, &ce) {
					out := cmd.ErrOrStderr()
					for _, p := range ce.Problems {
						fmt.Fprintf(out, "  - %v\n", p)
					}
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog %s: %d rules\n", c.Version(), c.Len())
			counts := c.CountByCategory()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, cat := range law.Categories() {
				if n := counts[cat]; n > 0 {
					fmt.Fprintf(tw, "  %s\t%d\n", cat, n)
				}
			}
			return tw.Flush()
		},
	}
}

func protocolCmd(load func() (*law.Catalog, error)) *cobra.Command {
	var (
		tribe, sex, location, feast string
		age                         int
	)
	cmd := &cobra.Command{
		Use:   "protocol",
		Short: "Evaluate the daily protocol for a subject",
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc, err := law.NewUserContext(tribe, sex, age, location, feast)
			if err != nil {
				return err
			}
			c, err := load()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), law.Brief(uc, c.Evaluate(uc)))
			return err
		},
	}
	cmd.Flags().StringVar(&tribe, "tribe", "", "Tribe of the subject")
	cmd.Flags().StringVar(&sex, "sex", "", "Male or Female")
	cmd.Flags().IntVar(&age, "age", 0, "Age in years (0-120)")
	cmd.Flags().StringVar(&location, "location", "exile", "land or exile")
	cmd.Flags().StringVar(&feast, "feast", "", "Feast currently kept (empty for none)")
	_ = cmd.MarkFlagRequired("tribe")
	_ = cmd.MarkFlagRequired("sex")
	_ = cmd.MarkFlagRequired("age")
	return cmd
}

func searchCmd(load func() (*law.Catalog, error)) *cobra.Command {
	var text, category, severity, authority string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List catalog rules matching the filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := law.Query{Text: text}
			var err error
			if category != "" {
				if q.Category, err = law.ParseCategory(category); err != nil {
					return err
				}
			}
			if severity != "" {
				if q.Severity, err = law.ParseSeverity(severity); err != nil {
					return err
				}
			}
			if authority != "" {
				if q.Authority, err = law.ParseAuthority(authority); err != nil {
					return err
				}
			}
			c, err := load()
			if err != nil {
				return err
			}
			return printRules(cmd.OutOrStdout(), law.Search(c.Rules(), q))
		},
	}
	cmd.Flags().StringVarP(&text, "q", "q", "", "Text in title or citation, or an exact id")
	cmd.Flags().StringVar(&category, "category", "", "Category filter")
	cmd.Flags().StringVar(&severity, "severity", "", "Severity filter")
	cmd.Flags().StringVar(&authority, "authority", "", "Authority filter")
	return cmd
}

func exportCmd(load func() (*law.Catalog, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as normalized YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			return catalog.Encode(cmd.OutOrStdout(), c.Version(), c.Rules())
		},
	}
}

func printRules(w io.Writer, rules []law.Rule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tCATEGORY\tTITLE\tCITATION")
	for _, r := range rules {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Severity, r.Category, r.Title, r.Citation)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d rules\n", len(rules))
	return err
}
