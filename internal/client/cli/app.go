// Package cli implements the one-shot submit client: it builds a submission
// document from flags, posts it to the service and prints the job id.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// App is the submit client. Out receives user-facing output; the HTTP
// client is replaceable in tests.
type App struct {
	out  io.Writer
	http *http.Client
}

// NewApp builds the client writing output to out.
func NewApp(out io.Writer) *App {
	return &App{out: out, http: &http.Client{Timeout: 30 * time.Second}}
}

type options struct {
	endpoint    string
	source      string
	destination string
	checksum    string
	filesize    int64
	activity    string
	paramsFile  string
}

func parseArgs(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("ftsubmit", flag.ContinueOnError)
	fs.StringVar(&opts.endpoint, "e", "http://localhost:8446", "service endpoint")
	fs.StringVar(&opts.source, "src", "", "source URI")
	fs.StringVar(&opts.destination, "dst", "", "destination URI")
	fs.StringVar(&opts.checksum, "checksum", "", "expected checksum (e.g. ADLER32:1234abcd)")
	fs.Int64Var(&opts.filesize, "size", 0, "declared file size in bytes")
	fs.StringVar(&opts.activity, "activity", "", "activity share label")
	fs.StringVar(&opts.paramsFile, "params", "", "JSON file with transfer parameters")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.source == "" || opts.destination == "" {
		return nil, fmt.Errorf("both -src and -dst are required")
	}
	return opts, nil
}

// buildPayload assembles the submission document, merging the optional
// params file.
func buildPayload(opts *options) (map[string]any, error) {
	entry := map[string]any{
		"sources":      []string{opts.source},
		"destinations": []string{opts.destination},
	}
	if opts.checksum != "" {
		entry["checksum"] = opts.checksum
	}
	if opts.filesize > 0 {
		entry["filesize"] = opts.filesize
	}
	if opts.activity != "" {
		entry["activity"] = opts.activity
	}

	payload := map[string]any{"files": []any{entry}}

	if opts.paramsFile != "" {
		data, err := os.ReadFile(opts.paramsFile)
		if err != nil {
			return nil, fmt.Errorf("cannot read params file: %w", err)
		}
		var params map[string]any
		if err := json.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("invalid params file: %w", err)
		}
		payload["params"] = params
	}

	return payload, nil
}

// Run submits one transfer and prints the assigned job id.
func (a *App) Run(ctx context.Context, args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	payload, err := buildPayload(opts)
	if err != nil {
		return err
	}

	token, err := bearerToken(a.out)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.endpoint+"/api/v1/jobs", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		JobID   string `json:"job_id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("unreadable response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submission rejected (status %d): %s", resp.StatusCode, result.Message)
	}

	fmt.Fprintln(a.out, result.JobID)
	return nil
}
