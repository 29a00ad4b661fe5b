package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"chatrelay/internal/client"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "chat",
		Short: "Talk to a running chat relay from the terminal",
		Long: `A line-oriented chat client for the relay server.

Each line read from stdin is sent as one message. The bot reply (or an
error description) is printed once the relay answers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, url, timeout)
		},
	}

	rootCmd.Flags().StringP("url", "u", "http://localhost:5050", "Base URL of the chat relay")
	rootCmd.Flags().DurationP("timeout", "t", 45*time.Second, "HTTP timeout for a single message")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, url string, timeout time.Duration) error {
	view := client.NewTerminalView(os.Stdout)
	controller := client.NewController(client.NewHTTPRelay(url, timeout), view)
	defer controller.Close()

	color.Gray.Printf("Connected to %s. Type a message and press Enter, Ctrl+D to quit.\n", url)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				return nil
			}
			if err := controller.Submit(ctx, line); errors.Is(err, client.ErrBusy) {
				color.Yellow.Println("Still waiting for the previous reply.")
				continue
			}
			controller.Wait()
		}
	}
}
