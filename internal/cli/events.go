package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/snookercounter/internal/model"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events <match>",
		Short: "Stream live events from a match",
		Long: `Connect to the match's Server-Sent Events feed and print events as they
happen. The first event is a snapshot of the current scoreboard.

Events include:
  - points_scored, foul, turn_ended
  - player_added, player_removed, player_renamed
  - frame_reset, frame_advanced, match_reset
  - match_deleted: the feed closes afterwards

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return streamEvents(ctx, cmd.OutOrStdout(), args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamEvents(ctx context.Context, w io.Writer, ref string, jsonOutput bool) error {
	path, err := matchPath(ctx, ref)
	if err != nil {
		return err
	}

	resp, err := client.Stream(ctx, path+"/events")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if !jsonOutput {
		_, _ = fmt.Fprintf(w, "Connected to match %s\n", ref)
	}

	err = readSSE(resp.Body, func(event, data string) bool {
		printEvent(w, event, data, jsonOutput)
		return event != string(model.EventMatchDeleted)
	})
	if err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

// readSSE calls handle for every complete event in r until handle returns
// false or the stream ends. Comment lines (keepalives) are skipped.
func readSSE(r io.Reader, handle func(event, data string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if currentEvent != "" && !handle(currentEvent, strings.Join(dataLines, "\n")) {
				return nil
			}
			currentEvent = ""
			dataLines = nil
		}
	}
	return scanner.Err()
}

func printEvent(w io.Writer, event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		jsonData, _ := json.Marshal(SSEEvent{Time: now, Event: event, Data: data})
		_, _ = fmt.Fprintln(w, string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, event, describeEvent(data))
}

// describeEvent summarises an event's scoreboard in one line
func describeEvent(data string) string {
	var ev model.Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil || ev.Match == nil {
		if len(data) > 100 {
			return data[:100] + "..."
		}
		return data
	}

	parts := make([]string, 0, len(ev.Match.Players))
	for i, p := range ev.Match.Players {
		marker := ""
		if i == ev.Match.CurrentPlayerIndex {
			marker = "*"
		}
		parts = append(parts, fmt.Sprintf("%s%s %d", marker, p.Name, p.Score))
	}
	return fmt.Sprintf("frame %d | %s", ev.Match.FrameNumber, strings.Join(parts, " | "))
}
