package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"application-intake-go/internal/application"
	"application-intake-go/internal/config"
	"application-intake-go/internal/store"

	"github.com/urfave/cli/v2"
)

var rowsCommand = &cli.Command{
	Name:      "rows",
	Usage:     "Print the rows of a workbook table",
	ArgsUsage: "[job|internship|TABLE]",
	Action:    printRows,
}

func printRows(cCtx *cli.Context) error {
	book := store.NewXlsxStore(config.WorkbookPath())

	if cCtx.NArg() == 0 {
		tables, err := book.Tables()
		if err != nil {
			return err
		}
		for _, t := range tables {
			fmt.Println(t)
		}
		return nil
	}

	table := tableArg(cCtx.Args().First())
	rows, err := book.Rows(table)
	if err != nil {
		return fmt.Errorf("%s: %w", table, err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func tableArg(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "job", "jobs":
		return application.JobTable
	case "intern", "internship":
		return application.InternshipTable
	}
	return v
}
