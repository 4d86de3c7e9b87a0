package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/remyxai/remyxai-cli/internal/deploy"
)

func newDeployCmd(st *rootState) *cobra.Command {
	var model string
	deployCmd := &cobra.Command{Use: "deploy", Short: "Manage local serving stacks", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("deploy requires a subcommand: up|down|status|list")
	}}
	deployCmd.PersistentFlags().StringVar(&model, "model_name", "", "Name of the trained model")

	up := &cobra.Command{Use: "up", Short: "Bring a model's serving stack up and wait until it is ready", Example: "  remyxai deploy up --model_name=my-llm", RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireModel(model); err != nil {
			return err
		}
		svc, err := st.service()
		if err != nil {
			return err
		}
		s, err := svc.BringUp(cmd.Context(), model)
		if err != nil {
			return err
		}
		return report(st.stdout, st.stderr, s, deploy.PhaseReady)
	}}
	down := &cobra.Command{Use: "down", Short: "Tear a model's serving stack down", Example: "  remyxai deploy down --model_name=my-llm", RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireModel(model); err != nil {
			return err
		}
		svc, err := st.service()
		if err != nil {
			return err
		}
		s, err := svc.BringDown(cmd.Context(), model)
		if err != nil {
			return err
		}
		return report(st.stdout, st.stderr, s, deploy.PhaseAbsent)
	}}
	status := &cobra.Command{Use: "status", Short: "Show the observed state of a model's stack", RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireModel(model); err != nil {
			return err
		}
		svc, err := st.service()
		if err != nil {
			return err
		}
		printStatuses(st.stdout, []deploy.DeploymentStatus{svc.Status(cmd.Context(), model)})
		return nil
	}}
	list := &cobra.Command{Use: "list", Short: "List models with a local stack", RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := st.service()
		if err != nil {
			return err
		}
		all, err := svc.Deployments(cmd.Context())
		if err != nil {
			return err
		}
		printStatuses(st.stdout, all)
		return nil
	}}
	deployCmd.AddCommand(up, down, status, list)
	return deployCmd
}

func requireModel(model string) error {
	if model == "" {
		return fmt.Errorf("--model_name is required")
	}
	return nil
}

// report prints s and fails with exit code 1 unless it reached want.
func report(stdout, stderr io.Writer, s deploy.DeploymentStatus, want deploy.Phase) error {
	if s.Phase != want {
		fmt.Fprintf(stderr, "%s: %s", s.Model, s.Phase)
		if s.LastError != "" {
			fmt.Fprintf(stderr, ": %s", s.LastError)
		}
		fmt.Fprintln(stderr)
		return exitError{code: 1}
	}
	if s.Endpoint != "" {
		fmt.Fprintf(stdout, "%s: %s at %s\n", s.Model, s.Phase, s.Endpoint)
		return nil
	}
	fmt.Fprintf(stdout, "%s: %s\n", s.Model, s.Phase)
	return nil
}

func printStatuses(w io.Writer, list []deploy.DeploymentStatus) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tPHASE\tENDPOINT\tLAST ERROR")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Model, s.Phase, dash(s.Endpoint), dash(s.LastError))
	}
	_ = tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
