package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgrenew/internal/logging"
	"github.com/vvka-141/pgrenew/internal/pgxdriver"
	"github.com/vvka-141/pgrenew/internal/renew"
	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

var execFlags connectionFlags

var execCmd = &cobra.Command{
	Use:   "exec [flags] SQL [SQL...]",
	Short: "Execute SQL statements over a self-healing connection",
	Long: `Executes each statement in order on a single logical connection.
If the server connection drops between statements, the next statement
reconnects and replays transparently.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExec(cmd.Context(), getVerboseFlag(cmd), args)
	},
}

func init() {
	registerConnectionFlags(execCmd, &execFlags)
	rootCmd.AddCommand(execCmd)
}

func runExec(ctx context.Context, verbose bool, statements []string) error {
	spec, reconnect, err := resolveConnSpec(execFlags)
	if err != nil {
		return err
	}

	log := logging.NewConsoleLogger(verbose)
	conn, err := renew.Connect(ctx, pgxdriver.New(log), spec,
		renew.WithLogger(log), renew.WithReconnect(reconnect))
	if err != nil {
		return err
	}
	defer conn.Close(ctx) //nolint:errcheck

	cur, err := conn.Cursor(ctx, pgrenew.CursorSpec{})
	if err != nil {
		return err
	}
	defer cur.Close() //nolint:errcheck

	for _, sql := range statements {
		if err := cur.Execute(ctx, sql); err != nil {
			return fmt.Errorf("%w: %q: %w", pgrenew.ErrExecutionFailed, sql, err)
		}
		if err := printRows(cur); err != nil {
			return fmt.Errorf("%w: %q: %w", pgrenew.ErrExecutionFailed, sql, err)
		}
	}

	return nil
}

// printRows writes the buffered result set as tab-separated lines, with a
// header when the driver reports column names.
func printRows(cur *renew.Cursor) error {
	if pgxCur, ok := cur.Active().(*pgxdriver.Cursor); ok {
		if fields := pgxCur.Fields(); len(fields) > 0 {
			fmt.Println(strings.Join(fields, "\t"))
		}
	}

	rows, err := cur.FetchAll()
	if err != nil {
		return err
	}
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = fmt.Sprint(v)
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
	return nil
}
