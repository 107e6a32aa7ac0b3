package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/karimzakaria/guideflow/internal/server"
	"github.com/karimzakaria/guideflow/internal/session"
)

var serveAllowAll bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the HTTP server exposing the turn, progress, exchange search and websocket chat endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		store, err := openStore(cfg)
		if err != nil {
			return err
		}

		manager, err := buildManager(cfg, database, store)
		if err != nil {
			return err
		}

		// Expired sessions are swept in the background; Get already
		// treats expired rows as absent, this just reclaims space.
		go func() {
			sessions := session.NewSQLStore(database)
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				if n, err := sessions.PurgeExpired(cmd.Context()); err != nil {
					log.Printf("purging expired sessions: %v", err)
				} else if n > 0 {
					log.Printf("purged %d expired sessions", n)
				}
			}
		}()

		srv := server.New(server.Config{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowAll:       serveAllowAll,
		}, manager, store)
		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}
