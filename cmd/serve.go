package cmd

import (
	"github.com/emrgen/studydoc/internal/config"
	"github.com/emrgen/studydoc/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the studydoc server",
	Run: func(cmd *cobra.Command, args []string) {
		if err := server.Start(config.LoadConfig()); err != nil {
			logrus.Fatal(err)
		}
	},
}
