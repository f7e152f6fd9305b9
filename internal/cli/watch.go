package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgrenew/internal/logging"
	"github.com/vvka-141/pgrenew/internal/pgxdriver"
	"github.com/vvka-141/pgrenew/internal/renew"
	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

var (
	watchFlags    connectionFlags
	watchInterval time.Duration
	watchCount    int
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] SQL",
	Short: "Re-execute a statement on an interval, surviving disconnects",
	Long: `Runs the statement repeatedly on one logical connection. Server
restarts, idle timeouts and killed backends are healed between iterations;
the loop keeps a single handle alive the whole time. Useful as a liveness
probe and for watching the healing behavior with --verbose.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd.Context(), getVerboseFlag(cmd), args[0])
	},
}

func init() {
	registerConnectionFlags(watchCmd, &watchFlags)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "Delay between executions")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Number of executions (0 = until interrupted)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(ctx context.Context, verbose bool, sql string) error {
	spec, reconnect, err := resolveConnSpec(watchFlags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for iteration := 1; ; iteration++ {
		if err := cur.Execute(ctx, sql); err != nil {
			// Closed-handle failures were already healed; anything that
			// reaches us is a real error, but the watch keeps going.
			log.Error("iteration %d: %v", iteration, err)
		} else if err := printRows(cur); err != nil {
			return fmt.Errorf("%w: %q: %w", pgrenew.ErrExecutionFailed, sql, err)
		}

		if watchCount > 0 && iteration >= watchCount {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
