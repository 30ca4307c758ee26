package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"gopvt/adapters/ingest"
	"gopvt/adapters/postgres"
	"gopvt/app"
	"gopvt/domain/frame"
	"gopvt/domain/pvt"
	"gopvt/internal/config"
	"gopvt/internal/report"
	"gopvt/internal/testkit"
	"gopvt/ports"
	"gopvt/ui"
)

func main() {
	// Best effort: a missing .env just means plain environment variables
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "pvt",
		Short: "Score Psychomotor Vigilance Test data into relative response times",
	}

	rootCmd.AddCommand(
		newProcessCmd(),
		newServeCmd(),
		newReportCmd(),
		newGenerateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// pipelineFlags holds the per-command pipeline overrides.
type pipelineFlags struct {
	factor       float64
	noFilter     bool
	sessionStat  string
	baselineStat string
	userCol      string
	sessionCol   string
	responseCol  string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.factor, "factor", 0, "SD-window width for outlier filtering (default from config)")
	cmd.Flags().BoolVar(&f.noFilter, "no-filter", false, "disable outlier filtering")
	cmd.Flags().StringVar(&f.sessionStat, "session-stat", "", "session aggregation statistic: mean or median")
	cmd.Flags().StringVar(&f.baselineStat, "baseline-stat", "", "baseline statistic: mean or median")
	cmd.Flags().StringVar(&f.userCol, "user-col", "", "user id column name")
	cmd.Flags().StringVar(&f.sessionCol, "session-col", "", "session id column name")
	cmd.Flags().StringVar(&f.responseCol, "response-col", "", "response time column name")
}

// apply merges the flags into the environment-derived pipeline config.
func (f *pipelineFlags) apply(cmd *cobra.Command, cfg *config.PipelineConfig) error {
	if f.sessionStat != "" {
		s, err := pvt.ParseStatistic(f.sessionStat)
		if err != nil {
			return err
		}
		cfg.SessionStatistic = s
	}
	if f.baselineStat != "" {
		s, err := pvt.ParseStatistic(f.baselineStat)
		if err != nil {
			return err
		}
		cfg.BaselineStatistic = s
	}
	if f.noFilter {
		cfg.FilteringFactor = nil
	} else if cmd.Flags().Changed("factor") {
		if f.factor <= 0 {
			return fmt.Errorf("--factor must be positive, got %v", f.factor)
		}
		factor := f.factor
		cfg.FilteringFactor = &factor
	}
	if f.userCol != "" {
		cfg.UserColumn = f.userCol
	}
	if f.sessionCol != "" {
		cfg.SessionColumn = f.sessionCol
	}
	if f.responseCol != "" {
		cfg.ResponseColumn = f.responseCol
	}
	return nil
}

func newProcessCmd() *cobra.Command {
	var flags pipelineFlags
	var output string
	var persist bool

	cmd := &cobra.Command{
		Use:   "process [file]",
		Short: "Score a CSV or Excel measurement file",
		Long: `Score a measurement file into relative response times.

Example: pvt process trials.csv --factor 2.5 --session-stat median -o scores.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &cfg.Pipeline); err != nil {
				return err
			}

			var repo ports.ResultRepository
			if persist {
				db, err := connectDB(cmd.Context(), cfg.Database.URL)
				if err != nil {
					return err
				}
				defer db.Close()
				repo = postgres.NewResultRepository(db)
			}

			result, err := runPipeline(cmd.Context(), args[0], cfg.Pipeline, repo)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return writeScoresCSV(out, result.Scores, cfg.Pipeline.Columns())
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output CSV path (default stdout)")
	cmd.Flags().BoolVar(&persist, "persist", false, "store the run in the database (DATABASE_URL)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port == "" {
				port = cfg.Server.Port
			}

			var repo ports.ResultRepository
			if cfg.Database.URL != "" {
				db, err := connectDB(cmd.Context(), cfg.Database.URL)
				if err != nil {
					return err
				}
				defer db.Close()
				repo = postgres.NewResultRepository(db)
			}

			return ui.NewApp(cfg.Pipeline, repo).Serve(port)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default from PORT)")
	return cmd
}

func newReportCmd() *cobra.Command {
	var flags pipelineFlags
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Score a measurement file and print a cohort summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &cfg.Pipeline); err != nil {
				return err
			}

			result, err := runPipeline(cmd.Context(), args[0], cfg.Pipeline, nil)
			if err != nil {
				return err
			}

			summary, err := report.Summarize(result.Run, result.Scores, cfg.Pipeline.Columns())
			if err != nil {
				return err
			}
			if asHTML {
				_, err = cmd.OutOrStdout().Write(summary.HTML())
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), summary.Markdown())
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asHTML, "html", false, "render the summary as HTML")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	cfg := testkit.DefaultPVTConfig()
	var output string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic PVT measurement CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := testkit.NewPVTGenerator(cfg)
			if err := gen.WriteCSV(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d users x %d sessions x %d trials)\n",
				output, cfg.Users, cfg.SessionsPerUser, cfg.TrialsPerSession)
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.Users, "users", cfg.Users, "number of users")
	cmd.Flags().IntVar(&cfg.SessionsPerUser, "sessions", cfg.SessionsPerUser, "sessions per user")
	cmd.Flags().IntVar(&cfg.TrialsPerSession, "trials", cfg.TrialsPerSession, "trials per session")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	cmd.Flags().StringVarP(&output, "output", "o", "trials.csv", "output CSV path")
	return cmd
}

func runPipeline(ctx context.Context, path string, cfg config.PipelineConfig, repo ports.ResultRepository) (*app.Result, error) {
	pipeline := pvt.NewPipeline(cfg.Options()...)
	service := app.NewAlertnessService(pipeline, repo)
	reader := ingest.NewDataReader(path, cfg.Columns())
	return service.ProcessSource(ctx, path, reader)
}

func connectDB(ctx context.Context, url string) (*sqlx.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func writeScoresCSV(out io.Writer, scored *frame.Table, cols pvt.Columns) error {
	users, err := scored.Column(cols.User)
	if err != nil {
		return err
	}
	sessions, err := scored.Column(cols.Session)
	if err != nil {
		return err
	}
	responses, err := scored.Floats(cols.Response)
	if err != nil {
		return err
	}
	rrts, err := scored.Floats(pvt.ColRRT)
	if err != nil {
		return err
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{cols.User, cols.Session, cols.Response, pvt.ColRRT}); err != nil {
		return err
	}
	for i := 0; i < scored.Len(); i++ {
		record := []string{
			fmt.Sprint(users[i]),
			fmt.Sprint(sessions[i]),
			strconv.FormatFloat(responses[i], 'f', 3, 64),
			strconv.FormatFloat(rrts[i], 'f', 4, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
