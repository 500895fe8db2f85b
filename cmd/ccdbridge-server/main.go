package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ccdbridge/ccdbridge/internal/config"
	"github.com/ccdbridge/ccdbridge/internal/domain/allergy"
	"github.com/ccdbridge/ccdbridge/internal/domain/careplan"
	"github.com/ccdbridge/ccdbridge/internal/domain/chart"
	"github.com/ccdbridge/ccdbridge/internal/domain/directory"
	"github.com/ccdbridge/ccdbridge/internal/domain/documents"
	"github.com/ccdbridge/ccdbridge/internal/domain/encounter"
	"github.com/ccdbridge/ccdbridge/internal/domain/history"
	"github.com/ccdbridge/ccdbridge/internal/domain/immunization"
	"github.com/ccdbridge/ccdbridge/internal/domain/imports"
	"github.com/ccdbridge/ccdbridge/internal/domain/labs"
	"github.com/ccdbridge/ccdbridge/internal/domain/medication"
	"github.com/ccdbridge/ccdbridge/internal/domain/patient"
	"github.com/ccdbridge/ccdbridge/internal/domain/problem"
	"github.com/ccdbridge/ccdbridge/internal/domain/procedure"
	"github.com/ccdbridge/ccdbridge/internal/domain/referral"
	"github.com/ccdbridge/ccdbridge/internal/domain/vitals"
	"github.com/ccdbridge/ccdbridge/internal/domain/vocab"
	"github.com/ccdbridge/ccdbridge/internal/platform/auth"
	"github.com/ccdbridge/ccdbridge/internal/platform/db"
	"github.com/ccdbridge/ccdbridge/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ccdbridge-server",
		Short: "Clinical document import API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the import API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if dir == "" {
				dir = cfg.MigrationsDir
			}
			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if dir == "" {
				dir = cfg.MigrationsDir
			}
			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			return nil
		},
	})

	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a clinical document from disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			direct, _ := cmd.Flags().GetBool("direct")

			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svcs := buildServices(pool, logger)
			res, err := svcs.imports.ImportDocument(ctx, content, imports.ImportOptions{
				Name:   args[0],
				Direct: direct,
			})
			if err != nil {
				return err
			}

			fmt.Printf("audit %s: %s document, status %d\n", res.AuditID, res.DocType, res.Status)
			if direct {
				fmt.Printf("patient %s (new=%v), applied %v\n", res.PatientID, res.NewPatient, res.Counts)
			} else {
				fmt.Println("staged for review; approve via POST /api/v1/imports/" + res.AuditID + "/approve")
			}
			return nil
		},
	}
	cmd.Flags().Bool("direct", false, "Apply immediately instead of staging for review")
	return cmd
}

// services holds the wired domain layer shared by the HTTP server and the
// import CLI command.
type services struct {
	imports   *imports.Service
	documents *documents.Service
	patients  *patient.Service

	encounters    *encounter.Service
	problems      *problem.Service
	allergies     *allergy.Service
	medications   *medication.Service
	immunizations *immunization.Service
	vitals        *vitals.Service
	procedures    *procedure.Service
	labs          *labs.Service
	careplans     *careplan.Service
	referrals     *referral.Service
	history       *history.Service
}

func buildServices(pool *pgxpool.Pool, logger zerolog.Logger) *services {
	vocabSvc := vocab.NewService(vocab.NewRepo(pool))
	dirSvc := directory.NewService(directory.NewRepo(pool))

	encSvc := encounter.NewService(encounter.NewRepo(pool))
	charting := encounter.NewCharting(encSvc)

	s := &services{
		patients:      patient.NewService(patient.NewRepo(pool), vocabSvc),
		encounters:    encSvc,
		problems:      problem.NewService(problem.NewRepo(pool), vocabSvc, charting),
		allergies:     allergy.NewService(allergy.NewRepo(pool), vocabSvc, charting),
		medications:   medication.NewService(medication.NewRepo(pool), vocabSvc, dirSvc),
		immunizations: immunization.NewService(immunization.NewRepo(pool), vocabSvc, dirSvc),
		vitals:        vitals.NewService(vitals.NewRepo(pool), charting),
		procedures:    procedure.NewService(procedure.NewRepo(pool), dirSvc, charting),
		labs:          labs.NewService(labs.NewRepo(pool), vocabSvc, dirSvc, charting),
		careplans:     careplan.NewService(careplan.NewRepo(pool), charting),
		referrals:     referral.NewService(referral.NewRepo(pool)),
		history:       history.NewService(history.NewRepo(pool)),
		documents:     documents.NewService(documents.NewRepo(pool)),
	}

	s.imports = imports.NewService(imports.Deps{
		Pool:   pool,
		Logger: logger,

		Audits: imports.NewRepo(pool),
		Docs:   s.documents,

		Patients:      s.patients,
		Encounters:    s.encounters,
		Problems:      s.problems,
		Allergies:     s.allergies,
		Medications:   s.medications,
		Immunizations: s.immunizations,
		Vitals:        s.vitals,
		Procedures:    s.procedures,
		Labs:          s.labs,
		CarePlans:     s.careplans,
		Referrals:     s.referrals,
		History:       s.history,
		Directory:     dirSvc,
	})
	return s
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", cfg.ImportMaxBodyMB)))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/ready", db.HealthHandler(pool))

	svcs := buildServices(pool, logger)

	apiV1 := e.Group("/api/v1", auth.Middleware(auth.Config{Secret: cfg.AuthSecret}))
	imports.NewHandler(svcs.imports).RegisterRoutes(apiV1)
	documents.NewHandler(svcs.documents).RegisterRoutes(apiV1)
	chart.NewHandler(svcs.patients, svcs.encounters, chart.SectionReaders{
		Problems:      svcs.problems,
		Allergies:     svcs.allergies,
		Medications:   svcs.medications,
		Immunizations: svcs.immunizations,
		Vitals:        svcs.vitals,
		Procedures:    svcs.procedures,
		LabOrders:     svcs.labs,
		CarePlans:     svcs.careplans,
		Referrals:     svcs.referrals,
		History:       svcs.history,
	}).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
