package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nhle/hr-console/internal/credential"
	"github.com/nhle/hr-console/internal/logging"
	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/session"
)

func newLogoutCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*root)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.File, cfg.Log.Debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			creds, err := credential.Open(filepath.Join(model.ConfigDir(), "credentials"))
			if err != nil {
				return err
			}

			sess := session.New(creds, nil, nil, logger)
			sess.Bootstrap()
			wasAuthenticated := sess.IsAuthenticated()
			sess.Logout()

			if wasAuthenticated {
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored session.")
			}
			return nil
		},
	}
}
