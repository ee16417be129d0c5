package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sells-group/evmap/internal/model"
)

var tokenLabel string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API write tokens",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return cfg.Validate("token")
	},
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a new write token",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tok := model.Token{Value: uuid.NewString(), Label: tokenLabel}
		if err := st.CreateToken(cmd.Context(), &tok); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok.Value)
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issued write tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		toks, err := st.ListTokens(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOKEN\tLABEL\tCREATED")
		for _, t := range toks {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Value, t.Label, t.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Revoke a write token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteToken(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "revoked")
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenLabel, "label", "", "note stored with the token")
	tokenCmd.AddCommand(tokenIssueCmd, tokenListCmd, tokenRevokeCmd)
	rootCmd.AddCommand(tokenCmd)
}
