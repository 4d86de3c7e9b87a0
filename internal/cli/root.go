package cli

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/remyxai/remyxai-cli/internal/config"
)

// dotenvFile is read from the working directory when present.
const dotenvFile = ".env"

// rootState carries what PersistentPreRunE resolves to the subcommands.
type rootState struct {
	configPath string
	logLevel   string
	logFormat  string

	stdout io.Writer
	stderr io.Writer

	cfg config.Config
	log zerolog.Logger
	svc Service
}

// service builds the Service on first use.
func (s *rootState) service() (Service, error) {
	if s.svc != nil {
		return s.svc, nil
	}
	svc, err := newService(s.cfg, s.log)
	if err != nil {
		return nil, err
	}
	s.svc = svc
	return svc, nil
}

func buildRootCmd(stdout, stderr io.Writer) *cobra.Command {
	st := &rootState{stdout: stdout, stderr: stderr, log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "remyxai",
		Short:         "Deploy trained models locally and query them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&st.configPath, "config", "", "Config file (.yaml, .yml, .json or .toml)")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults REMYXAI_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&st.logFormat, "log-format", "", "Log format: console|json (defaults REMYXAI_LOG_FORMAT or console)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(st.configPath, dotenvFile)
		if err != nil {
			return err
		}
		if st.logLevel != "" {
			cfg.LogLevel = st.logLevel
		}
		if st.logFormat != "" {
			cfg.LogFormat = st.logFormat
		}
		log, err := newLogger(st.stderr, cfg.LogFormat, cfg.LogLevel)
		if err != nil {
			return err
		}
		st.cfg, st.log = cfg, log
		return nil
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if st.svc != nil {
			st.svc.Close()
		}
	}

	root.AddCommand(newDeployCmd(st), newInferCmd(st), newServeCmd(st))

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(st.stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(st.stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(st.stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(st.stdout) }})
	root.AddCommand(completionCmd)
	root.CompletionOptions.DisableDefaultCmd = true

	return root
}
