// Command smoke exercises the wardrobe flow against a running server: it
// uploads items under a fresh anonymous session, verifies the per-category
// cap kicks in, requests a match and cleans up after itself.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"
)

type step struct {
	Name     string
	Status   int
	Expected int
	Body     string
	Err      error
	Duration time.Duration
}

func (s step) ok() bool {
	return s.Err == nil && s.Status == s.Expected
}

func main() {
	var (
		base    string
		timeout time.Duration
	)
	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	jar, err := cookiejar.New(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cookie jar: %v\n", err)
		os.Exit(1)
	}
	client := &http.Client{Timeout: timeout, Jar: jar}
	base = strings.TrimRight(base, "/")

	var steps []step
	var itemIDs []string

	for i, upload := range []struct {
		category string
		colors   string
		styles   string
	}{
		{"tops", "white", "casual"},
		{"bottoms", "navy", "casual"},
	} {
		s := uploadItem(client, base, fmt.Sprintf("upload %d (%s)", i+1, upload.category), upload.category, upload.colors, upload.styles, http.StatusCreated)
		if s.ok() {
			if id := extractID(s.Body); id != "" {
				itemIDs = append(itemIDs, id)
			}
		}
		steps = append(steps, s)
	}

	// Third tops upload must hit the free-tier cap... unless the first one
	// failed, in which case the report will show it anyway.
	steps = append(steps, uploadItem(client, base, "upload over cap", "tops", "black", "formal", http.StatusCreated))
	steps = append(steps, uploadItem(client, base, "upload rejected by cap", "tops", "red", "formal", http.StatusForbidden))

	steps = append(steps, request(client, http.MethodGet, base+"/wardrobe/match", "match", http.StatusOK))
	steps = append(steps, request(client, http.MethodGet, base+"/wardrobe/limits/tops", "limits tops", http.StatusOK))
	steps = append(steps, request(client, http.MethodGet, base+"/wardrobe/items", "list items", http.StatusOK))

	for _, id := range itemIDs {
		steps = append(steps, request(client, http.MethodDelete, base+"/wardrobe/items/"+id, "delete "+id, http.StatusNoContent))
	}

	failed := printReport(steps)
	if failed > 0 {
		os.Exit(1)
	}
}

func uploadItem(client *http.Client, base, name, category, colors, styles string, expected int) step {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("category", category)
	_ = writer.WriteField("colors", colors)
	_ = writer.WriteField("styles", styles)
	part, err := writer.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="image"; filename="smoke.jpg"`},
		"Content-Type":        {"image/jpeg"},
	})
	if err == nil {
		_, err = part.Write(jpegStub)
	}
	if err == nil {
		err = writer.Close()
	}
	if err != nil {
		return step{Name: name, Expected: expected, Err: err}
	}

	req, err := http.NewRequest(http.MethodPost, base+"/wardrobe/items", body)
	if err != nil {
		return step{Name: name, Expected: expected, Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return perform(client, req, name, expected)
}

func request(client *http.Client, method, url, name string, expected int) step {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return step{Name: name, Expected: expected, Err: err}
	}
	return perform(client, req, name, expected)
}

func perform(client *http.Client, req *http.Request, name string, expected int) step {
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return step{Name: name, Expected: expected, Err: err, Duration: time.Since(start)}
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return step{
		Name:     name,
		Status:   resp.StatusCode,
		Expected: expected,
		Body:     string(data),
		Duration: time.Since(start),
	}
}

func extractID(body string) string {
	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return ""
	}
	return envelope.Data.ID
}

func printReport(steps []step) int {
	fmt.Println("Wardrobe Smoke Report")
	fmt.Println("=====================")
	failed := 0
	for _, s := range steps {
		status := "OK"
		if !s.ok() {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s\n", status, s.Name)
		if s.Err != nil {
			fmt.Printf("  Error: %v\n", s.Err)
			continue
		}
		fmt.Printf("  Status: %d (want %d) in %s\n", s.Status, s.Expected, s.Duration)
		if status == "FAIL" && s.Body != "" {
			fmt.Printf("  Body: %s\n", s.Body)
		}
	}
	fmt.Printf("Failed steps: %d/%d\n", failed, len(steps))
	return failed
}

// Minimal JFIF header plus padding; the server checks the declared type and
// size, not the pixel data.
var jpegStub = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x00}, 64)...)
