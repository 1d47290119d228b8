package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/presentation/tui"
)

// RunSession drives one interactive page session.
func RunSession(opts RunOptions, cfg *Config) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	style := tui.NewStyler()
	client, uploader, err := buildClient(opts, cfg, func(err error) {
		fmt.Fprintln(os.Stderr, style.Err("page error: "+err.Error()))
	})
	if err != nil {
		return fmt.Errorf("error initializing lattice: %w", err)
	}
	defer client.Close()

	if !opts.Once {
		tui.PrintBanner(lattice.Version)
	}
	printSystemMessage("Opening %s ...", opts.URL)
	if err := client.Open(); err != nil {
		return err
	}
	if err := waitSettled(sigCtx, client); err != nil {
		return handleExecutionError(err)
	}

	if opts.SessionID != "" {
		sessions := buildSessionManager(opts, cfg)
		if !opts.Fresh {
			loaded, err := sessions.Resume(sigCtx, client, opts.SessionID)
			if err != nil {
				return fmt.Errorf("error resuming session %q: %w", opts.SessionID, err)
			}
			if loaded {
				printSystemMessage("Resumed session %q.", opts.SessionID)
				if err := waitSettled(sigCtx, client); err != nil {
					return handleExecutionError(err)
				}
			}
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := sessions.Snapshot(ctx, client, opts.SessionID); err != nil {
				fmt.Fprintln(os.Stderr, style.Err("failed to save session: "+err.Error()))
			}
		}()
	}

	var termOpts []TerminalOption
	if uploader != nil {
		termOpts = append(termOpts, WithUploader(uploader))
	}
	term := NewTerminal(client, os.Stdout, termOpts...)
	term.Draw()
	if opts.Once {
		return nil
	}

	lines := readLines(sigCtx, os.Stdin)
	for {
		fmt.Print("> ")
		select {
		case <-sigCtx.Done():
			fmt.Println()
			printSystemMessage("Interrupted.")
			return handleExecutionError(sigCtx.Err())
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			trimmed := strings.TrimSpace(line)
			switch trimmed {
			case "":
				continue
			case "q", "quit", "exit":
				printSystemMessage("Bye.")
				return nil
			}
			changed, err := term.Handle(trimmed)
			if err != nil {
				fmt.Println(style.Err(err.Error()))
				continue
			}
			if changed {
				if err := waitSettled(sigCtx, client); err != nil {
					return handleExecutionError(err)
				}
				term.Draw()
			}
		}
	}
}

// waitSettled blocks until the client has no pending edit and no in-flight
// submission, bounded at 30 seconds.
func waitSettled(ctx context.Context, client *lattice.Client) error {
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.WaitIdle(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("page did not settle")
	}
	return nil
}

// readLines pumps stdin lines into a channel so the prompt stays
// interruptible.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
