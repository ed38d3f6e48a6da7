package cli

import (
	"github.com/spf13/cobra"
)

// NewEnvCommand creates the env command.
func NewEnvCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the environment westpa.sh produces",
		Long: `Source the WESTPA setup script and print the captured variables
(WEST_ROOT, WEST_PYTHON, WEST_BIN, PATH, LD_LIBRARY_PATH).

Example:
  westrun env --env-script /opt/westpa/westpa.sh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				return runEnv(cmd, s)
			})
		},
	}
}

func runEnv(cmd *cobra.Command, s *session) error {
	if s.cfg.EnvScript == "" {
		return NewExitError(ExitCommandError, "no setup script (use --env-script or env_script)")
	}
	env, err := s.loader().Load(cmd.Context(), s.cfg.EnvScript)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load WESTPA environment", err)
	}

	t := Table{Header: []string{"name", "value"}}
	for _, name := range env.Names {
		t.Rows = append(t.Rows, []string{name, env.Values[name]})
	}
	return s.out.Table(t)
}
