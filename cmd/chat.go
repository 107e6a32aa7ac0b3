package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var chatSessionKey string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run a guided session interactively in the terminal",
	Long: `Starts an interactive guided reflection session in the terminal. Each
line you type is one turn; the session advances through the protocol
phases until it closes. Use --session to resume an earlier session.`,
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

		key := chatSessionKey
		if key == "" {
			key = uuid.NewString()
		}
		fmt.Printf("Session %s. Type your message; Ctrl+C or /quit to leave.\n\n", key)

		for {
			prompt := promptui.Prompt{Label: "you"}
			text, err := prompt.Run()
			if err != nil {
				// Ctrl+C / Ctrl+D end the session cleanly.
				if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
					fmt.Println("Session paused. Resume with --session", key)
					return nil
				}
				return err
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			if strings.TrimSpace(text) == "/quit" {
				fmt.Println("Session paused. Resume with --session", key)
				return nil
			}

			res, err := manager.SubmitTurn(cmd.Context(), key, text)
			if err != nil {
				return fmt.Errorf("turn failed: %w", err)
			}
			fmt.Printf("\nguide: %s\n\n", res.Response)
		}
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionKey, "session", "", "session key to resume")
	rootCmd.AddCommand(chatCmd)
}
