package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hamed0406/pong/internal/domain"
)

// Prints the exporter's current status table.
func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://127.0.0.1:9090"
	}

	req, _ := http.NewRequest(http.MethodGet, api+"/api/status", nil)
	if tok := os.Getenv("API_TOKEN"); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Println("API returned status:", resp.Status)
		os.Exit(1)
	}

	var statuses []domain.TargetStatus
	if err := json.NewDecoder(resp.Body).Decode(&statuses); err != nil {
		fmt.Println("Invalid response:", err)
		os.Exit(1)
	}
	if len(statuses) == 0 {
		fmt.Println("No targets checked yet.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tTARGET\tSTATE\tELAPSED\tCHANGED")
	for _, st := range statuses {
		state, elapsed := "UP", fmt.Sprintf("%d ms", st.Elapsed)
		if !st.Up() {
			state, elapsed = "DOWN", "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", st.Type, st.Target, state, elapsed, st.UpdatedAt.Local().Format(time.RFC3339))
	}
	w.Flush()
}
