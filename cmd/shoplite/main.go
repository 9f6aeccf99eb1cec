package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shoplite/shoplite/internal/auth"
	"github.com/shoplite/shoplite/internal/config"
	"github.com/shoplite/shoplite/internal/database"
	"github.com/shoplite/shoplite/internal/logging"
	"github.com/shoplite/shoplite/internal/maintenance"
	"github.com/shoplite/shoplite/internal/uploads"
	"github.com/shoplite/shoplite/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	port        int
	bind        string
	allowSubnet string
	dbPath      string
	picsDir     string
	verbosity   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shoplite",
		Short: "Shoplite - Storefront API server",
		Long:  `Shoplite is a storefront API server managing sessions, customer accounts, banners and the product catalog over a single SQLite database.`,
		RunE:  run,
	}

	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (required, or set PORT env var)")
	rootCmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	rootCmd.Flags().StringVarP(&allowSubnet, "allow-subnet", "a", "", "CIDR subnet allowed to connect (e.g., 192.168.1.0/24)")
	rootCmd.Flags().StringVarP(&dbPath, "db", "d", "./shop.db", "SQLite database path (or set DB_PATH env var)")
	rootCmd.Flags().StringVar(&picsDir, "pics-dir", "./pics", "Directory holding item pics (or set PICS_DIR env var)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shoplite %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// adminCmd provisions admin accounts. There is no registration surface
// for admins over HTTP.
func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <login> <password>",
		Short: "Create an admin account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolveEnvDefaults()

			db, err := database.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(); err != nil {
				return fmt.Errorf("failed to run database migrations: %w", err)
			}

			hash, err := auth.HashPassword(args[1])
			if err != nil {
				return err
			}

			id, err := db.AddAdmin(args[0], hash)
			if err != nil {
				return fmt.Errorf("failed to create admin %q: %w", args[0], err)
			}

			fmt.Printf("admin %q created (id %d)\n", args[0], id)
			return nil
		},
	})

	return cmd
}

// resolveEnvDefaults fills flag defaults from the environment
func resolveEnvDefaults() {
	if port == 0 {
		if envPort := os.Getenv("PORT"); envPort != "" {
			fmt.Sscanf(envPort, "%d", &port)
		}
	}
	if dbPath == "./shop.db" {
		if envDB := os.Getenv("DB_PATH"); envDB != "" {
			dbPath = envDB
		}
	}
	if picsDir == "./pics" {
		if envPics := os.Getenv("PICS_DIR"); envPics != "" {
			picsDir = envPics
		}
	}
}

func run(cmd *cobra.Command, args []string) error {
	resolveEnvDefaults()

	if port == 0 {
		return fmt.Errorf("--port flag or PORT environment variable is required")
	}

	if bind != "" {
		if ip := net.ParseIP(bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", bind)
		}
	}

	var allowedNet *net.IPNet
	if allowSubnet != "" {
		_, parsedNet, err := net.ParseCIDR(allowSubnet)
		if err != nil {
			return fmt.Errorf("invalid allow-subnet CIDR: %s", allowSubnet)
		}
		allowedNet = parsedNet
	}

	// Console-only logging until the database is open; re-applied below
	// with the settings-backed rotation config.
	logging.Apply(verbosity, nil, logging.FilePathForDB(dbPath))

	// Warn if binding to all interfaces without an allow list
	if (bind == "" || bind == "0.0.0.0" || bind == "::") && allowSubnet == "" {
		log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet for security.")
	}

	log.Info().
		Str("version", version).
		Int("port", port).
		Str("bind", bind).
		Str("allow_subnet", allowSubnet).
		Str("database", dbPath).
		Str("pics_dir", picsDir).
		Msg("Starting Shoplite")

	db, err := database.New(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Re-apply logging with settings from the database
	logging.Apply(verbosity, config.NewLoader(db), logging.FilePathForDB(dbPath))

	hasAdmins, err := db.HasAdmins()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check for admin accounts")
	} else if !hasAdmins {
		log.Warn().Msg("No admin accounts exist. Create one with: shoplite admin create <login> <password>")
	}

	pics, err := uploads.NewStore(picsDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", picsDir).Msg("Failed to prepare pics directory")
	}

	server := web.NewServer(db, port, bind, allowedNet, pics, picsDir)

	// Pics index is advisory; the server runs without it
	picIndex, err := uploads.NewWatcher(picsDir)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize pics watcher")
	} else if err := picIndex.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start pics watcher")
	} else {
		defer picIndex.Stop()
		server.SetPicIndex(picIndex)
	}

	upkeep := maintenance.New(db)
	if err := upkeep.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start maintenance scheduler")
	} else {
		defer upkeep.Stop()
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("Shoplite stopped")
	return nil
}
