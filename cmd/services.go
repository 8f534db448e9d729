package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AidanDelaney/cpr/internal/prompt"
	"github.com/AidanDelaney/cpr/internal/service"
)

var (
	servicesCmd = &cobra.Command{
		Use:   "services",
		Short: "Manage the git services templates are fetched from",
	}

	servicesAddCmd = &cobra.Command{
		Use:   "add <prefix> <url>",
		Short: "Add a new service",
		Long: `Add a service. url must contain one {{ repo }} placeholder, which is replaced
with the repository path, e.g. https://github.com/{{ repo }}.git`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editServices(cmd, func(cfg *service.Config) error {
				return cfg.Add(args[0], args[1])
			})
		},
	}

	servicesRemoveCmd = &cobra.Command{
		Use:   "remove <prefix>",
		Short: "Remove a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editServices(cmd, func(cfg *service.Config) error {
				return cfg.Remove(args[0])
			})
		},
	}

	servicesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List available services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			cfg, _, err := loadConfig(cmd, logger)
			if err != nil {
				return err
			}
			listServices(cmd.OutOrStdout(), cfg)
			return nil
		},
	}

	servicesDefaultCmd = &cobra.Command{
		Use:   "default [prefix]",
		Short: "Set the default service",
		Long:  `Set the service used when a template reference has no prefix. Without prefix, choose one interactively.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editServices(cmd, func(cfg *service.Config) error {
				prefix := ""
				if len(args) == 1 {
					prefix = args[0]
				} else {
					chosen, err := prompt.Default().Select("Select the default service", prefixes(*cfg), cfg.DefaultService)
					if err != nil {
						return err
					}
					prefix = chosen
				}
				return cfg.SetDefault(prefix)
			})
		},
	}
)

func init() {
	servicesCmd.AddCommand(servicesAddCmd)
	servicesCmd.AddCommand(servicesRemoveCmd)
	servicesCmd.AddCommand(servicesListCmd)
	servicesCmd.AddCommand(servicesDefaultCmd)
}

// editServices loads the configuration, applies edit and writes it back.
func editServices(cmd *cobra.Command, edit func(*service.Config) error) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	cfg, path, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}
	if err := edit(&cfg); err != nil {
		return err
	}
	return service.Save(path, cfg)
}

func prefixes(cfg service.Config) []string {
	out := make([]string, 0, len(cfg.Services))
	for p := range cfg.Services {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func listServices(w io.Writer, cfg service.Config) {
	for _, p := range prefixes(cfg) {
		marker := ""
		if p == cfg.DefaultService {
			marker = " (default)"
		}
		fmt.Fprintf(w, "`%s`: %s%s\n", p, cfg.Services[p].URL, marker)
	}
}
