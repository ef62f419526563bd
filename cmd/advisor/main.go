package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/productadvisor/backend/config"
	"github.com/productadvisor/backend/internal/app"
	"github.com/productadvisor/backend/internal/domain"
	"github.com/productadvisor/backend/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// builder creates the services a command runs against
type builder func(ctx context.Context) (*app.App, error)

func main() {
	if err := execute(newRootCmd(buildFromConfig)); err != nil {
		os.Exit(1)
	}
}

// execute runs the command tree and prints errors that no alert has shown yet
func execute(root *cobra.Command) error {
	err := root.Execute()
	if err != nil && !alerted(err) {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// alerted reports whether the search already raised an alert for err
func alerted(err error) bool {
	var verr *domain.ValidationError
	return errors.As(err, &verr) || errors.Is(err, domain.ErrRequestFailed)
}

func buildFromConfig(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// The CLI stays quiet unless something goes wrong
	logger, err := zap.NewProduction(zap.IncreaseLevel(zap.WarnLevel))
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, logger)
}

func newRootCmd(build builder) *cobra.Command {
	root := &cobra.Command{
		Use:           "advisor",
		Short:         "Ask an LLM for product recommendations from the catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRecommendCmd(build), newCatalogCmd(build))
	return root
}

// terminalAlerts prints alerts as "title: message"
type terminalAlerts struct {
	w io.Writer
}

func (t terminalAlerts) Notify(title, message string, actions ...domain.AlertAction) {
	fmt.Fprintf(t.w, "%s: %s\n", title, message)
}

func newRecommendCmd(build builder) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "recommend <query>",
		Short: "Recommend products for a natural-language query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")
			result, err := a.Advisor.Search(cmd.Context(), query, terminalAlerts{w: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printResult(w io.Writer, result *domain.SearchResult) {
	if result.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", result.Summary)
	}
	if len(result.Recommendations) == 0 {
		fmt.Fprintln(w, "No matching products found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tBRAND\tPRODUCT\tPRICE\tMATCH\tREASON")
	for i, r := range result.Recommendations {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d%%\t%s\n",
			i+1, r.Brand, r.ProductName, usecase.FormatPriceINR(r.Price),
			usecase.ConfidencePercent(r.Confidence), r.Reason)
	}
	tw.Flush()
}

func newCatalogCmd(build builder) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the product catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			products := a.Catalog.Products()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(products)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tBRAND\tPRODUCT\tCATEGORY\tPRICE")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Brand, p.ProductName, p.Category, usecase.FormatPriceINR(p.Price))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}
