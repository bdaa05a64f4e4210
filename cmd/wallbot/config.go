package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wallbot/wallbot/pkg/config"
)

// NewConfigCommand .
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Inspect the config file",
		GroupID: gCalibration,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration, defaults included",
			RunE: func(cmd *cobra.Command, _ []string) error {
				conf, err := config.NewFile(configPath)
				if err != nil {
					return err
				}
				raw, err := config.NewRawFileConfigFromConfig(conf)
				if err != nil {
					return err
				}
				b, err := json.MarshalIndent(raw, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(b))
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check that a run can start with the config file",
			RunE: func(cmd *cobra.Command, _ []string) error {
				conf, err := config.NewFile(configPath)
				if err != nil {
					return err
				}
				if err := conf.Validate(); err != nil {
					return fmt.Errorf("%s: %w", configPath, err)
				}
				logrus.WithFields(conf.LogrusFields()).Debug("config is valid")
				cmd.Printf("%s is valid\n", configPath)
				return nil
			},
		},
	)

	return cmd
}
