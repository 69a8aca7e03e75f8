package cmd

import (
	"dutchthrift_server/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dutchthrift",
		Short:         "Dutch Thrift consignment API",
		Long:          "Consignment intake, tracking and back-office API for Dutch Thrift.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			envErr := godotenv.Load()
			logger := config.InitializeLogger()
			if envErr != nil {
				logger.Warn("No .env file found or error loading .env file, proceeding with system environment variables")
			}
		},
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newRecalcTotalsCmd())
	cmd.AddCommand(newCreateAdminCmd())
	return cmd
}

func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		config.GetLogger().Error(err.Error())
	}
	return err
}
