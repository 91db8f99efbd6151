package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/fidash/internal/app"
	"github.com/bobmcallan/fidash/internal/clients/fitool"
	"github.com/bobmcallan/fidash/internal/common"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var sessionID, phone string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Bind a session ID to a phone number on the Fi tool server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := common.LoadConfig(app.ResolveConfigPath(opts.configPath))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if sessionID != "" {
				config.Gateway.SessionID = sessionID
			}
			if phone != "" {
				config.Gateway.PhoneNumber = phone
			}
			if config.Gateway.SessionID == "" || config.Gateway.PhoneNumber == "" {
				return fmt.Errorf("session id and phone number are required (flags or gateway config)")
			}

			logger := common.NewLoggerFromConfig(config.Logging)
			client := fitool.NewClient(config.Gateway.SessionID,
				fitool.WithBaseURL(config.Gateway.BaseURL),
				fitool.WithLogger(logger),
				fitool.WithTimeout(config.Gateway.GetTimeout()),
			)
			if err := client.Login(cmd.Context(), config.Gateway.PhoneNumber); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Session %s logged in as %s\n", config.Gateway.SessionID, config.Gateway.PhoneNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session ID (default: gateway.session_id)")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number (default: gateway.phone_number)")

	return cmd
}
