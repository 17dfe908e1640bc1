package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jholhewres/examclaw/pkg/examclaw/config"
	"github.com/jholhewres/examclaw/pkg/examclaw/credential"
)

// newConfigCmd groups config file and API key management.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration and the API key",
		Long: `Manage the config file and the stored Gemini API key.

Examples:
  examclaw config init
  examclaw config show
  examclaw config set-key
  examclaw config delete-key`,
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigPathCmd(),
		newConfigSetKeyCmd(),
		newConfigDeleteKeyCmd(),
	)

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			cfg.API.APIKey = "${GEMINI_API_KEY}"
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			printSuccess("Конфигурация создана: " + path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintln(os.Stderr, dimStyle.Render("Файл конфигурации не найден, показаны значения по умолчанию"))
			} else {
				fmt.Fprintln(os.Stderr, dimStyle.Render("# "+path))
			}

			if cfg.API.APIKey != "" {
				cfg.API.APIKey = maskKey(cfg.API.APIKey)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, path, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if path == "" {
				path = config.DefaultPath()
			}
			fmt.Println(path)
			return nil
		},
	}
}

func newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the API key in the keyring (or the encrypted vault)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			var key string
			if len(args) == 1 {
				key = args[0]
			} else if key, err = promptAPIKey(); err != nil {
				return err
			}

			store, err := a.resolver.Save(key)
			if err != nil {
				return friendly(err)
			}
			printSuccess(fmt.Sprintf("Ключ сохранён (%s): %s", store, maskKey(key)))
			if store != "keyring" && !credential.NewKeyringStore().Available() {
				fmt.Fprintln(os.Stderr, dimStyle.Render("Системное хранилище ключей недоступно"))
			}
			return nil
		},
	}
}

func newConfigDeleteKeyCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-key",
		Short: "Remove the API key from the keyring and the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				ok, err := confirm("Удалить сохранённый ключ API?")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := a.resolver.Forget(); err != nil && !errors.Is(err, credential.ErrNotFound) {
				return friendly(err)
			}
			printSuccess("Ключ удалён")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// maskKey keeps the first and last four characters.
func maskKey(key string) string {
	if config.IsEnvReference(key) {
		return key
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}
