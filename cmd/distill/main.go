// Command distill posts a document file and a field schema to a running
// distill server and prints the merged record.
//
// Usage: distill -schema fields.json document.txt
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "distill server base URL")
	schemaPath := flag.String("schema", "", "path to a JSON array of field specs")
	flag.Parse()

	if *schemaPath == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: distill -schema fields.json [-server URL] document.txt")
		os.Exit(2)
	}

	schemaData, err := os.ReadFile(*schemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read schema: %v\n", err)
		os.Exit(1)
	}
	var fields []map[string]interface{}
	if err := json.Unmarshal(schemaData, &fields); err != nil {
		fmt.Fprintf(os.Stderr, "parse schema: %v\n", err)
		os.Exit(1)
	}

	docPath := flag.Arg(0)
	document, err := os.ReadFile(docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read document: %v\n", err)
		os.Exit(1)
	}

	payload := map[string]interface{}{
		"name":     filepath.Base(docPath),
		"document": string(document),
		"fields":   fields,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode request: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Post(*serverURL+"/extract", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read response: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "server returned %s: %s\n", resp.Status, respBody)
		os.Exit(1)
	}

	// Pretty-print for the terminal.
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
		fmt.Println(string(respBody))
		return
	}
	fmt.Println(pretty.String())
}
