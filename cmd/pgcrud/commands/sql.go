package commands

import (
	"github.com/spf13/cobra"

	"pgcrud/data/db/dialect"
	"pgcrud/data/named"
)

// newRewriteCommand 输出命名参数语句的位置参数形式，不连接数据库
func (a *app) newRewriteCommand() *cobra.Command {
	var (
		params       string
		skipLiterals bool
	)

	cmd := &cobra.Command{
		Use:   "rewrite <sql>",
		Short: "Rewrite :name parameters into positional placeholders",
		Example: `  pgcrud rewrite "SELECT * FROM users WHERE id = :id AND status = :status" --params '{"id": 1, "status": "active"}'
  pgcrud --driver mysql rewrite "UPDATE t SET a = :a"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := parseParams("params", params)
			if err != nil {
				return err
			}

			opts := []named.Option{named.WithPlaceholder(dialect.New(cfg.Driver).Placeholder)}
			if cfg.StrictParams {
				opts = append(opts, named.Strict())
			}
			if skipLiterals {
				opts = append(opts, named.SkipStringLiterals())
			}
			q, values, err := named.Rewrite(args[0], p, opts...)
			if err != nil {
				return err
			}
			printSQL(cmd.OutOrStdout(), q, values)
			return nil
		},
	}

	cmd.Flags().StringVar(&params, "params", "", "bind map as a JSON object")
	cmd.Flags().BoolVar(&skipLiterals, "skip-literals", false, "leave :name inside quoted literals and identifiers untouched")
	return cmd
}

func (a *app) newQueryCommand() *cobra.Command {
	var params string

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a named-parameter query and print the rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams("params", params)
			if err != nil {
				return err
			}
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := db.Query(cmd.Context(), args[0], p)
			if err != nil {
				return a.dbError(cmd, db, err, "query failed")
			}
			return printRows(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().StringVar(&params, "params", "", "bind map as a JSON object")
	return cmd
}

func (a *app) newExecCommand() *cobra.Command {
	var params string

	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run a named-parameter statement and print the write result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams("params", params)
			if err != nil {
				return err
			}
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := db.Exec(cmd.Context(), args[0], p)
			if err != nil {
				return a.dbError(cmd, db, err, "exec failed")
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&params, "params", "", "bind map as a JSON object")
	return cmd
}
