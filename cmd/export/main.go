// Command export writes one user's following list to CSV or JSON straight
// from the database file, without going through the HTTP server.
//
//	export --db data/socialsync.db --user alice --format csv -o alice.csv
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sakif/social-sync/internal/logging"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/repository/sqlite"
	"github.com/sakif/social-sync/internal/service"
)

var ErrUnknownFormat = errors.New("unknown format")

func main() {
	os.Exit(execute(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// execute runs the command and returns the exit code. A failure is logged to
// stderr.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	logger := logging.New(stderr, "info", "text")

	if err := newApp(stdout).Run(ctx, args); err != nil {
		logger.Error("export failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

func newApp(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a user's followed accounts to CSV or JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Value: "data/socialsync.db",
				Usage: "Path to the SQLite database",
			},
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Username whose following list is exported",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "csv",
				Usage:   "Output format (csv or json)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "-",
				Usage:   "Output file, - for stdout",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			format := c.String("format")
			if format != "csv" && format != "json" {
				return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
			}

			rows, err := exportRows(ctx, c.String("db"), c.String("user"))
			if err != nil {
				return err
			}

			out := stdout
			if path := c.String("output"); path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			return write(out, format, rows)
		},
	}
}

func exportRows(ctx context.Context, dbPath, username string) ([]model.ExportRow, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	user, err := db.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %q: %w", username, err)
	}

	svc := service.NewExportService(db.Platforms(), db.Following(), logging.Discard())
	return svc.Rows(ctx, user.ID)
}

func write(w io.Writer, format string, rows []model.ExportRow) error {
	if format == "csv" {
		return service.WriteCSV(w, rows)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
