package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"line-chat/internal"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

type Config struct {
	DebugAddress string        `env:"INSPECT_ADDR,default=127.0.0.1:6060"`
	Timeout      time.Duration `env:"INSPECT_TIMEOUT,default=5s"`
}

// inspect prints the sessions currently registered on a running chat server,
// read from its debug endpoint.
func main() {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	addr := flag.String("addr", config.DebugAddress, "debug server address of the chat server")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	sessions, err := fetchSessions(ctx, http.DefaultClient, fmt.Sprintf("http://%s/sessions", *addr))
	if err != nil {
		log.Fatalf("Unable to read sessions: %v", err)
	}
	renderSessions(os.Stdout, sessions)
}

func fetchSessions(ctx context.Context, httpClient *http.Client, url string) ([]internal.SessionView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var sessions []internal.SessionView
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("invalid sessions payload: %w", err)
	}
	return sessions, nil
}

func renderSessions(w io.Writer, sessions []internal.SessionView) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Session", "Remote", "Joined", "Online"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	now := time.Now().UTC()
	table.AppendBulk(lo.Map(sessions, func(s internal.SessionView, _ int) []string {
		return []string{
			s.Name,
			s.ID,
			s.RemoteAddr,
			s.JoinedAt.Format(time.TimeOnly),
			now.Sub(s.JoinedAt).Round(time.Second).String(),
		}
	}))
	table.Render()
	fmt.Fprintf(w, "\n%d session(s)\n", len(sessions))
}
