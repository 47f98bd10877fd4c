package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pgcrud/data/crud"
	sqlb "pgcrud/data/db/sql"
	"pgcrud/data/named"
)

// whereFlags 表操作命令共用的条件 flag
type whereFlags struct {
	where       string
	orderBy     []string
	staticWhere string
}

func (f *whereFlags) register(cmd *cobra.Command, withOrder bool) {
	cmd.Flags().StringVar(&f.where, "where", "", "equality criteria as a JSON object")
	cmd.Flags().StringVar(&f.staticWhere, "unsafe-where", "", "raw SQL fragment appended to WHERE (not escaped)")
	if withOrder {
		cmd.Flags().StringSliceVar(&f.orderBy, "order-by", nil, "ORDER BY columns, e.g. \"age DESC\"")
	}
}

func (f *whereFlags) criteria() (*named.Params, error) {
	p, err := parseParams("where", f.where)
	if err != nil {
		return nil, err
	}
	if len(f.orderBy) > 0 {
		p.Set(sqlb.KeyOrderBy, f.orderBy)
	}
	if f.staticWhere != "" {
		p = sqlb.UnsafeStaticWhere(p, f.staticWhere)
	}
	return p, nil
}

func (a *app) newSelectOneCommand() *cobra.Command {
	var wf whereFlags

	cmd := &cobra.Command{
		Use:   "select-one <table>",
		Short: "Print the first row matching the criteria",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := wf.criteria()
			if err != nil {
				return err
			}
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			row, found, err := db.SelectOne(cmd.Context(), args[0], criteria)
			if err != nil {
				return a.dbError(cmd, db, err, "select-one "+args[0]+" failed")
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "(no row)")
				return nil
			}
			return printRows(cmd.OutOrStdout(), []crud.Row{row})
		},
	}

	wf.register(cmd, false)
	return cmd
}

func (a *app) newSelectCommand() *cobra.Command {
	var wf whereFlags

	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "Print all rows matching the criteria",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := wf.criteria()
			if err != nil {
				return err
			}
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := db.SelectList(cmd.Context(), args[0], criteria)
			if err != nil {
				return a.dbError(cmd, db, err, "select "+args[0]+" failed")
			}
			return printRows(cmd.OutOrStdout(), rows)
		},
	}

	wf.register(cmd, true)
	return cmd
}

func (a *app) newPageCommand() *cobra.Command {
	var (
		wf     whereFlags
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "page <table>",
		Short: "Print one page of matching rows and the total count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := wf.criteria()
			if err != nil {
				return err
			}
			criteria.Set(sqlb.KeyLimit, limit).Set(sqlb.KeyOffset, offset)

			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			page, err := db.SelectPage(cmd.Context(), args[0], criteria)
			if err != nil {
				return a.dbError(cmd, db, err, "page "+args[0]+" failed")
			}
			if err := printRows(cmd.OutOrStdout(), page.Rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", labelColor.Sprint("total:"), page.Total)
			return nil
		},
	}

	wf.register(cmd, true)
	cmd.Flags().IntVar(&limit, "limit", sqlb.DefaultLimit, "page size")
	cmd.Flags().IntVar(&offset, "offset", sqlb.DefaultOffset, "rows to skip")
	return cmd
}

func (a *app) newSaveCommand() *cobra.Command {
	var (
		record    string
		returning []string
	)

	cmd := &cobra.Command{
		Use:   "save <table>",
		Short: "Insert one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseParams("record", record)
			if err != nil {
				return err
			}
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			var res crud.Result
			if len(returning) > 0 {
				res, err = db.SaveReturning(cmd.Context(), args[0], rec, returning...)
			} else {
				res, err = db.Save(cmd.Context(), args[0], rec)
			}
			if err != nil {
				return a.dbError(cmd, db, err, "save "+args[0]+" failed")
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&record, "record", "", "column values as a JSON object (column order is kept)")
	cmd.Flags().StringSliceVar(&returning, "returning", nil, "columns to return (postgres, sqlite)")
	return cmd
}

func (a *app) newUpdateCommand() *cobra.Command {
	var (
		wf  whereFlags
		set string
	)

	cmd := &cobra.Command{
		Use:   "update <table>",
		Short: "Update columns of the rows matching the criteria",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := parseParams("set", set)
			if err != nil {
				return err
			}
			criteria, err := wf.criteria()
			if err != nil {
				return err
			}
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := db.Update(cmd.Context(), args[0], record, criteria)
			if err != nil {
				return a.dbError(cmd, db, err, "update "+args[0]+" failed")
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}

	wf.register(cmd, false)
	cmd.Flags().StringVar(&set, "set", "", "new column values as a JSON object")
	return cmd
}

func (a *app) newDeleteCommand() *cobra.Command {
	var wf whereFlags

	cmd := &cobra.Command{
		Use:   "delete <table>",
		Short: "Delete the rows matching the criteria (all rows without criteria)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := wf.criteria()
			if err != nil {
				return err
			}
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := db.Delete(cmd.Context(), args[0], criteria)
			if err != nil {
				return a.dbError(cmd, db, err, "delete "+args[0]+" failed")
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}

	wf.register(cmd, false)
	return cmd
}
