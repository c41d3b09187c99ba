package main

import (
	"io"

	"github.com/jacoelho/docq/internal/config"
	"github.com/jacoelho/docq/internal/logging"
	"github.com/jacoelho/docq/internal/run"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func newRootCommand(s streams) *cobra.Command {
	root := &cobra.Command{
		Use:           "docq",
		Short:         "Query, update and validate documents with MongoDB-style specifications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.err)

	config.RegisterFlags(root.PersistentFlags())
	root.AddCommand(
		newFindCommand(s),
		newUpdateCommand(s),
		newValidateCommand(s),
	)
	return root
}

func newFindCommand(s streams) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "find [DOCS...]",
		Short: "Write the documents matching a query",
		Long:  "Reads extended JSON or YAML documents from the given files, or stdin when none or - is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := run.LoadSpec(query)
			if err != nil {
				return err
			}
			return withRunner(cmd, s, func(r *run.Runner) error {
				_, err := r.Find(cmd.Context(), q, args)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "{}", "query file or inline extended JSON")
	cmd.Flags().String("select", "", "JSONPath selecting what to write from each document")
	cmd.Flags().Int("limit", 0, "stop after this many output documents (0 for unlimited)")
	return cmd
}

func newUpdateCommand(s streams) *cobra.Command {
	var query, update string
	cmd := &cobra.Command{
		Use:   "update --update SPEC [DOCS...]",
		Short: "Apply an update to the documents matching a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := run.LoadSpec(query)
			if err != nil {
				return err
			}
			u, err := run.LoadSpec(update)
			if err != nil {
				return err
			}
			return withRunner(cmd, s, func(r *run.Runner) error {
				_, err := r.Update(cmd.Context(), q, u, args)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "{}", "query file or inline extended JSON")
	cmd.Flags().StringVarP(&update, "update", "u", "", "update file or inline extended JSON")
	cmd.Flags().Bool("upsert", false, "insert a document built from the query when nothing matches")
	cmd.Flags().Bool("diff", false, "write only updated documents as {before, after}")
	cmd.Flags().String("select", "", "JSONPath selecting what to write from each document")
	cmd.Flags().Int("limit", 0, "stop after this many output documents (0 for unlimited)")
	_ = cmd.MarkFlagRequired("update")
	return cmd
}

func newValidateCommand(s streams) *cobra.Command {
	var schema string
	cmd := &cobra.Command{
		Use:   "validate --schema SPEC [DOCS...]",
		Short: "Write the documents failing a JSON Schema, exiting 1 when any does",
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := run.LoadSpec(schema)
			if err != nil {
				return err
			}
			return withRunner(cmd, s, func(r *run.Runner) error {
				_, err := r.Validate(cmd.Context(), sch, args)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&schema, "schema", "s", "", "schema file or inline extended JSON")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

// withRunner resolves the configuration for cmd and runs fn with a Runner
// built from it.
func withRunner(cmd *cobra.Command, s streams, fn func(r *run.Runner) error) error {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, s.err)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	r, err := run.New(cfg, logger, s.out, s.in)
	if err != nil {
		return err
	}

	logger.Debug("running", zap.String("command", cmd.Name()), zap.Float64("rate", r.Rate()), zap.Int("limit", cfg.Limit))
	return fn(r)
}
