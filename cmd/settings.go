package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/crm-autosync/internal/model"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change extraction settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEnv(cmd.Context(), "local")
		if err != nil {
			return err
		}
		defer env.Close()

		return writeSettings(os.Stdout, env.Orch.Settings().Get())
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEnv(cmd.Context(), "local")
		if err != nil {
			return err
		}
		defer env.Close()

		return writeSettings(os.Stdout, env.Orch.Settings().Reset(cmd.Context()))
	},
}

var settingsExportCmd = &cobra.Command{
	Use:   "export <file.yaml>",
	Short: "Write the current settings to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "local")
		if err != nil {
			return err
		}
		defer env.Close()

		f, err := os.Create(args[0])
		if err != nil {
			return eris.Wrap(err, "settings export: create file")
		}
		defer f.Close() //nolint:errcheck

		return writeSettings(f, env.Orch.Settings().Get())
	},
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Load settings from a YAML file",
	Long:  "Reads a YAML settings file over the current settings. Keys missing from the file keep their current value.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "local")
		if err != nil {
			return err
		}
		defer env.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrap(err, "settings import: open file")
		}
		defer f.Close() //nolint:errcheck

		next, err := readSettings(f, env.Orch.Settings().Get())
		if err != nil {
			return err
		}
		env.Orch.Settings().Save(cmd.Context(), next)
		return writeSettings(os.Stdout, next)
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	settingsCmd.AddCommand(settingsExportCmd)
	settingsCmd.AddCommand(settingsImportCmd)
	rootCmd.AddCommand(settingsCmd)
}

func writeSettings(w io.Writer, s model.Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "settings: encode yaml")
	}
	return enc.Close()
}

// readSettings decodes YAML over base and checks the value ranges.
func readSettings(r io.Reader, base model.Settings) (model.Settings, error) {
	next := base.Clone()
	if err := yaml.NewDecoder(r).Decode(&next); err != nil && err != io.EOF {
		return model.Settings{}, eris.Wrap(err, "settings: decode yaml")
	}
	if err := next.CheckRanges(); err != nil {
		return model.Settings{}, err
	}
	return next, nil
}
