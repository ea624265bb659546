package console

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wolfman30/orch-console/internal/normalize"
	"github.com/wolfman30/orch-console/internal/session"
)

// URLResolver turns a storage reference into a URL the orchestrator can fetch.
type URLResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// UploadResult summarizes an upload call.
type UploadResult struct {
	ProcessedFiles  []normalize.ProcessedFile `json:"processed_files"`
	TotalProcessed  int                       `json:"total_processed"`
	TotalSuccessful int                       `json:"total_successful"`
	SuccessRate     float64                   `json:"success_rate"`
	Structured      bool                      `json:"structured"`
	RawText         string                    `json:"raw_text,omitempty"`
}

// ParseURLs splits text into lines and keeps the non-blank ones, trimmed.
func ParseURLs(text string) []string {
	var urls []string
	for _, line := range strings.Split(text, "\n") {
		if u := strings.TrimSpace(line); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// SuccessRate returns successful/total as a percentage, 0 when total is 0.
func SuccessRate(successful, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(successful) / float64(total) * 100
}

// Upload sends file URLs for processing and records the run in the upload log.
func (c *Controller) Upload(ctx context.Context, st *session.State, urls []string) (UploadResult, error) {
	var cleaned []string
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	if len(cleaned) == 0 {
		return UploadResult{}, ErrNoURLs
	}

	resolved, err := c.resolveAll(ctx, cleaned)
	if err != nil {
		return UploadResult{}, err
	}

	log := st.Log(session.ModeUpload)
	log.Append(session.RoleUser, strings.Join(cleaned, "\n"), false, c.now())
	c.metrics.ObserveTurn(string(session.ModeUpload), string(session.RoleUser))
	st.Touch()

	req := c.baseRequest(st)
	req.FileURLs = resolved
	raw, err := c.sender.Send(ctx, req)
	if err == nil {
		var result UploadResult
		if result, err = buildUploadResult(raw); err == nil {
			data, _ := json.Marshal(result)
			log.Append(session.RoleAssistant, string(data), false, c.now())
			c.metrics.ObserveTurn(string(session.ModeUpload), string(session.RoleAssistant))
			c.metrics.ObserveUpload(result.TotalProcessed, result.TotalSuccessful)
			c.logger.Info("upload processed",
				"session_id", st.SessionID,
				"files", len(resolved),
				"total_processed", result.TotalProcessed,
				"total_successful", result.TotalSuccessful,
			)
			return result, nil
		}
	}

	log.Append(session.RoleAssistant, "Error: "+err.Error(), true, c.now())
	c.metrics.ObserveTurn(string(session.ModeUpload), "error")
	return UploadResult{}, err
}

func (c *Controller) resolveAll(ctx context.Context, refs []string) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if !strings.HasPrefix(strings.ToLower(ref), "s3://") {
			out = append(out, ref)
			continue
		}
		if c.resolver == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedReference, ref)
		}
		u, err := c.resolver.Resolve(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("console: resolve %s: %w", ref, err)
		}
		out = append(out, u)
	}
	return out, nil
}

func buildUploadResult(raw []byte) (UploadResult, error) {
	v, err := normalize.Decode(raw)
	if err != nil {
		return UploadResult{}, fmt.Errorf("console: %w", err)
	}
	payload := normalize.ParseUpload(v)
	if !payload.HasFiles() {
		return UploadResult{ProcessedFiles: []normalize.ProcessedFile{}, RawText: payload.RawText}, nil
	}

	total := len(payload.Files)
	successful := 0
	for _, f := range payload.Files {
		if f.Success {
			successful++
		}
	}
	if payload.TotalProcessed != nil {
		total = *payload.TotalProcessed
	}
	if payload.TotalSuccessful != nil {
		successful = *payload.TotalSuccessful
	}
	return UploadResult{
		ProcessedFiles:  payload.Files,
		TotalProcessed:  total,
		TotalSuccessful: successful,
		SuccessRate:     SuccessRate(successful, total),
		Structured:      true,
	}, nil
}
