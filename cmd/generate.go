package cmd

import (
	"github.com/spf13/cobra"

	cpr "github.com/AidanDelaney/cpr/pkg"
)

var (
	initCmd = &cobra.Command{
		Use:   "init <directory> <template>",
		Short: "Initialize a directory with a template",
		Long: `Render a template into directory, which may already exist.
The template is a local directory or a reference such as gh:cpr-rs/cpp or cpr-rs/cpp.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := generator(cmd)
			if err != nil {
				return err
			}
			_, err = g.Generate(cmd.Context(), args[1], args[0])
			return err
		},
	}

	newCmd = &cobra.Command{
		Use:   "new <template> [name]",
		Short: "Create a new project with a template",
		Long: `Create a new project directory and render a template into it. The directory
is named after the last segment of the template reference unless name is given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := cpr.ProjectName(args[0])
			if len(args) == 2 {
				name = args[1]
			}
			g, err := generator(cmd)
			if err != nil {
				return err
			}
			_, err = g.New(cmd.Context(), args[0], name)
			return err
		},
	}
)

func init() {
	for _, c := range []*cobra.Command{initCmd, newCmd} {
		c.Flags().StringToStringP(setFlag, "s", map[string]string{}, "answer questions as key=value pairs")
		c.Flags().Bool(overwriteFlag, false, "replace files that already exist in the target")
	}
}

func generator(cmd *cobra.Command) (*cpr.Generator, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	cfg, _, err := loadConfig(cmd, logger)
	if err != nil {
		return nil, err
	}

	opts := []cpr.Option{cpr.WithConfig(cfg), cpr.WithLogger(logger)}
	if overrides, err := cmd.Flags().GetStringToString(setFlag); err == nil {
		opts = append(opts, cpr.WithOverrides(overrides))
	}
	if overwrite, err := cmd.Flags().GetBool(overwriteFlag); err == nil {
		opts = append(opts, cpr.WithOverwrite(overwrite))
	}
	return cpr.NewGenerator(opts...), nil
}
