package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Upload a recording in fixed-size chunks to simulate the browser recorder,
// which emits one segment every few seconds.
const defaultChunkSize = 160 * 1024

func main() {
	audioFile := flag.String("audio", "../../testdata/sample.webm", "Path to an audio recording")
	serverAddr := flag.String("server", "http://localhost:8080", "Voice notes service base URL")
	chunkSize := flag.Int("chunk", defaultChunkSize, "Segment size in bytes")
	interval := flag.Duration("interval", 0, "Delay between segment uploads")
	templateID := flag.String("template", "", "Publish the transcript with this template when set")
	download := flag.String("download", "", "Save the recorded audio to this path before transcribing")
	flag.Parse()

	data, err := os.ReadFile(*audioFile)
	if err != nil {
		log.Fatalf("Failed to read audio file: %v", err)
	}
	mediaType := mime.TypeByExtension(filepath.Ext(*audioFile))
	if mediaType == "" {
		mediaType = "audio/webm"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	c := &client{base: *serverAddr, http: &http.Client{}}

	var started struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", "", nil, &started); err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	log.Printf("Session started: sessionId=%s mediaType=%s", started.SessionID, mediaType)

	segmentsPath := "/v1/sessions/" + started.SessionID + "/segments"
	var chunkNum int
	for offset := 0; offset < len(data); offset += *chunkSize {
		end := min(offset+*chunkSize, len(data))

		var appended struct {
			Ordinal int `json:"ordinal"`
		}
		if err := c.do(ctx, http.MethodPost, segmentsPath, mediaType, data[offset:end], &appended); err != nil {
			log.Fatalf("Failed to send segment %d: %v", chunkNum, err)
		}
		chunkNum++
		log.Printf("Sent segment ordinal=%d bytes=%d", appended.Ordinal, end-offset)

		if *interval > 0 {
			time.Sleep(*interval)
		}
	}

	if *download != "" {
		if err := c.download(ctx, "/v1/sessions/"+started.SessionID+"/audio", *download); err != nil {
			log.Fatalf("Failed to download audio: %v", err)
		}
		log.Printf("Saved recording to %s", *download)
	}

	var transcript struct {
		Transcript string `json:"transcript"`
		Warnings   []struct {
			Ordinal int    `json:"ordinal"`
			Reason  string `json:"reason"`
		} `json:"warnings"`
	}
	start := time.Now()
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+started.SessionID+"/transcribe", "", nil, &transcript); err != nil {
		log.Fatalf("Failed to transcribe: %v", err)
	}
	log.Printf("Transcribed %d segments in %v", chunkNum, time.Since(start))
	for _, w := range transcript.Warnings {
		log.Printf("Segment %d skipped: %s", w.Ordinal, w.Reason)
	}
	fmt.Println(transcript.Transcript)

	if *templateID == "" {
		return
	}

	body, _ := json.Marshal(map[string]string{
		"transcription": transcript.Transcript,
		"template":      *templateID,
	})
	var published struct {
		Title     string `json:"title"`
		RequestID string `json:"requestId"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/documents", "application/json", body, &published); err != nil {
		log.Fatalf("Failed to publish: %v", err)
	}
	log.Printf("Published %q requestId=%s", published.Title, published.RequestID)
}

type client struct {
	base string
	http *http.Client
}

func (c *client) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(raw))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *client) download(ctx context.Context, path, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
