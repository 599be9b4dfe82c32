package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/fetcher"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from an XLSX or CSV export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		path, _ := cmd.Flags().GetString("file")
		sheet, _ := cmd.Flags().GetString("sheet")

		_, st, err := initService(ctx, "resolve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := fetcher.ReadLeadSheet(ctx, path, fetcher.SheetOptions{Sheet: sheet})
		if err != nil {
			return eris.Wrap(err, "import")
		}
		if len(res.Problems) > 0 {
			formatProblems(os.Stderr, res.Problems)
		}

		n, err := st.UpsertLeads(ctx, res.Leads)
		if err != nil {
			return eris.Wrap(err, "import: upsert leads")
		}

		zap.L().Info("import complete",
			zap.String("file", path),
			zap.Int("read", len(res.Leads)),
			zap.Int64("upserted", n),
			zap.Int("problems", len(res.Problems)),
		)
		return nil
	},
}

func formatProblems(out io.Writer, problems []fetcher.RowProblem) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROW\tFIELD\tVALUE\tPROBLEM")
	for _, p := range problems {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.Row, p.Field, p.Value, p.Reason)
	}
	_ = w.Flush()
}

func init() {
	importCmd.Flags().String("file", "", "path to .xlsx or .csv export (required)")
	importCmd.Flags().String("sheet", "", "worksheet name (default: first sheet)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
