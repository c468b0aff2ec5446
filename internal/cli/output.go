package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/mcoot/snookercounter/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.User:
		o.printUser(v)
	case response.AuthResponse:
		o.printUser(v.User)
		_, _ = fmt.Fprintf(o.w, "Token: %s\n", v.SessionToken)
		_, _ = fmt.Fprintf(o.w, "Expires: %s\n", v.ExpiresAt.Format(time.RFC3339))
	case response.Match:
		o.printMatch(v)
	case response.MatchList:
		o.printMatchList(v)
	case response.FrameHistory:
		o.printHistory(v)
	case response.Health:
		_, _ = fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		if v.Storage != "" {
			_, _ = fmt.Fprintf(o.w, "Storage: %s\n", v.Storage)
		}
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printUser(u response.User) {
	guest := "no"
	if u.IsGuest {
		guest = "yes"
	}
	_, _ = fmt.Fprintf(o.w, "Player: %s (%s)\n", u.DisplayName, u.ID)
	_, _ = fmt.Fprintf(o.w, "Guest: %s\n", guest)
}

func (o *Output) printMatch(m response.Match) {
	_, _ = fmt.Fprintf(o.w, "Match %d (%s)\n", m.Number, m.ID)
	_, _ = fmt.Fprintf(o.w, "Frame: %d  Fouls: %s  Version: %d\n\n", m.FrameNumber, m.FoulPolicy, m.Version)

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "\tID\tPLAYER\tSCORE\tBREAK\tHIGH")
	for _, p := range m.Players {
		marker := ""
		if p.AtTable {
			marker = ">"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n", marker, p.ID, p.Name, p.Score, p.CurrentBreak, p.HighestBreak)
	}
	_ = tw.Flush()
}

func (o *Output) printMatchList(l response.MatchList) {
	if len(l.Matches) == 0 {
		_, _ = fmt.Fprintln(o.w, "No matches")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NUMBER\tID\tFRAME\tPLAYERS\tUPDATED")
	for _, m := range l.Matches {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", m.Number, m.ID, m.FrameNumber, len(m.Players), m.UpdatedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func (o *Output) printHistory(h response.FrameHistory) {
	if len(h.Frames) == 0 {
		_, _ = fmt.Fprintln(o.w, "No completed frames")
		return
	}

	for _, f := range h.Frames {
		winner := "tied"
		if f.Winner != nil {
			winner = *f.Winner
		}
		_, _ = fmt.Fprintf(o.w, "Frame %d (winner: %s)\n", f.FrameNumber, winner)
		for _, r := range f.Results {
			_, _ = fmt.Fprintf(o.w, "  %-4s %-20s %4d  high %d\n", r.PlayerID, r.Name, r.Score, r.HighestBreak)
		}
	}
}
