package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyClearAll bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved chat transcripts",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory(GetConfig(), GetRootDir())
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.ListSessions()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved sessions.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SESSION\tMESSAGES\tUPDATED")
		for _, s := range sessions {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", s.ID, s.Turns, s.UpdatedAt.Format(time.DateTime))
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Print a saved transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory(GetConfig(), GetRootDir())
		if err != nil {
			return err
		}
		defer st.Close()

		turns, err := st.LoadTurns(args[0])
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			return fmt.Errorf("no transcript for session %s", args[0])
		}
		for _, t := range turns {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n\n", capitalizeRole(t.Role), t.Content)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear [session]",
	Short: "Delete one session, or all with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !historyClearAll {
			return errors.New("name a session or pass --all")
		}

		st, err := openHistory(GetConfig(), GetRootDir())
		if err != nil {
			return err
		}
		defer st.Close()

		if historyClearAll {
			if err := st.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All sessions deleted.")
			return nil
		}
		if err := st.DeleteSession(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s deleted.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyClearCmd)
	historyClearCmd.Flags().BoolVar(&historyClearAll, "all", false, "delete every session")
}
