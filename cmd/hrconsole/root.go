package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/hr-console/internal/app"
	"github.com/nhle/hr-console/internal/model"
)

type rootOptions struct {
	ConfigPath string
	APIURL     string
	Debug      bool
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "hrconsole",
		Short:         "Terminal admin console for the HR API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			svc, err := openServices(cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			p := tea.NewProgram(app.New(svc.Deps()), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				svc.Logger.Error("program exited with error", zap.Error(err))
				return fmt.Errorf("running console: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", model.DefaultConfigPath(), "path to the config file")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "HR API base URL (overrides config)")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "write debug entries to the log file")

	cmd.AddCommand(newLogoutCmd(&opts))
	cmd.AddCommand(newConfigCmd(&opts))
	return cmd
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts rootOptions) (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.APIURL) != "" {
		cfg.API.BaseURL = strings.TrimRight(opts.APIURL, "/")
	}
	if opts.Debug {
		cfg.Log.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
