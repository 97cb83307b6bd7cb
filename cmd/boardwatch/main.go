// boardwatch is a terminal companion for the archive API: it can take a
// one-shot status snapshot, follow a scrape pass live, or pull a full local
// copy of the message dataset.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/telibelly/telibelly/internal/client"
	"github.com/telibelly/telibelly/internal/scraper"
)

func usage() {
	fmt.Println("usage: boardwatch <command> [flags]")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  status   print health, scrape status and archive stats")
	fmt.Println("  watch    follow scrape progress and connectivity live")
	fmt.Println("  sync     mirror the full message dataset locally")
	fmt.Println("  start    start a scrape pass (-days N, -limit N)")
	fmt.Println()
	fmt.Println("the API address is taken from API_URL (default http://localhost:8000)")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	c := client.New(baseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	var err error
	switch os.Args[1] {
	case "status":
		err = runStatus(ctx, c)
	case "watch":
		err = runWatch(ctx, c)
	case "sync":
		err = runSync(ctx, c)
	case "start":
		err = runStart(ctx, c, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil && err != context.Canceled {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

func runStatus(ctx context.Context, c *client.Client) error {
	hs, err := c.Health(ctx)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	fmt.Printf("server:   %s (database %s)\n", hs.Status, hs.Database)

	st, err := c.ScrapeStatus(ctx)
	if err != nil {
		return err
	}
	if st.IsRunning {
		fmt.Printf("scrape:   %s\n", st.Progress)
	} else if st.Progress != "" {
		fmt.Printf("scrape:   idle (last: %s)\n", st.Progress)
	} else {
		fmt.Println("scrape:   idle")
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("archive:  %d messages across %d channels\n", stats.TotalMessages, stats.TotalChannels)
	return nil
}

func runWatch(ctx context.Context, c *client.Client) error {
	fmt.Println("watching, press ctrl-c to stop")

	monitor := client.NewMonitor(c, func(s client.ConnState) {
		if !s.Connected {
			fmt.Println("[conn] server unreachable, retrying...")
		}
	})
	go monitor.Run(ctx)

	return followScrape(ctx, c)
}

// followScrape polls the running pass to completion and prints a stats
// summary once the refresh fires.
func followScrape(ctx context.Context, c *client.Client) error {
	var last string
	poller := client.NewPoller(c,
		func(st scraper.Status) {
			line := formatStatus(st)
			if line != last {
				fmt.Println(line)
				last = line
			}
		},
		func(err error) {
			fmt.Printf("[poll] %v, retrying...\n", err)
		},
		func() {
			stats, err := c.Stats(ctx)
			if err != nil {
				return
			}
			fmt.Printf("archive now holds %d messages across %d channels\n",
				stats.TotalMessages, stats.TotalChannels)
		})
	return poller.Run(ctx)
}

func runSync(ctx context.Context, c *client.Client) error {
	mirror := client.NewMirror(c)
	fmt.Println("syncing...")

	n, err := mirror.Sync(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("synced %d messages\n", n)

	messages := mirror.Messages()
	if len(messages) > 10 {
		messages = messages[:10]
	}
	for _, msg := range messages {
		text := msg.Text
		if len(text) > 60 {
			text = text[:60] + "..."
		}
		fmt.Printf("  %s  %-20s  %s\n", msg.DatetimeLocal, msg.ChannelName, strings.ReplaceAll(text, "\n", " "))
	}
	return nil
}

func runStart(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	days := fs.Int("days", scraper.DefaultDaysBack, "how many days of history to fetch")
	limit := fs.Int("limit", scraper.DefaultLimit, "max messages per channel")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := c.StartScrape(ctx, scraper.StartRequest{DaysBack: *days, Limit: *limit})
	if err == client.ErrScrapeBusy {
		fmt.Println("a scrape pass is already running, following it instead")
	} else if err != nil {
		return err
	} else {
		fmt.Println("scrape started")
	}

	return followScrape(ctx, c)
}

func formatStatus(st scraper.Status) string {
	if !st.IsRunning {
		if st.Progress == "" {
			return "[scrape] idle"
		}
		return fmt.Sprintf("[scrape] %s (%d messages added)", st.Progress, st.MessagesAdded)
	}
	return fmt.Sprintf("[scrape] %s (%d/%d channels, %d messages)",
		st.Progress, st.ChannelsProcessed, st.TotalChannels, st.MessagesAdded)
}
