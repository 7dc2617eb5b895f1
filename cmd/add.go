package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/odysseus/internal/enrich"
)

var (
	addDomains []string
	addGroup   string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add companies by domain",
	Long:  "Inserts the given domains with status New. Domains are normalized first; re-adding an existing domain updates its group label without resetting its status.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		seen := make(map[string]struct{}, len(addDomains))
		var domains []string
		for _, d := range addDomains {
			norm := enrich.NormalizeDomain(d)
			if norm == "" {
				return eris.Errorf("invalid domain: %q", d)
			}
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			domains = append(domains, norm)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.AddCompanies(ctx, domains, addGroup)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %d of %d companies\n", n, len(domains))
		return nil
	},
}

func init() {
	addCmd.Flags().StringSliceVar(&addDomains, "domains", nil, "company domains to add (required)")
	addCmd.Flags().StringVar(&addGroup, "group", "", "group label for the added companies")
	_ = addCmd.MarkFlagRequired("domains")
	rootCmd.AddCommand(addCmd)
}
