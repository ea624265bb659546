package normalize

import (
	"encoding/json"
	"strings"
)

// ProcessedFile is one entry of an upload reply's processed_files.
type ProcessedFile struct {
	FileURL             string `json:"file_url,omitempty"`
	Success             bool   `json:"success"`
	FileType            string `json:"file_type,omitempty"`
	IsHealthcareRelated bool   `json:"is_healthcare_related"`
	Summary             string `json:"summary,omitempty"`
	Description         string `json:"description,omitempty"`
	Error               string `json:"error,omitempty"`
	DocType             string `json:"doc_type,omitempty"`
}

// Name returns the last path segment of the file URL, or "Unknown".
func (f ProcessedFile) Name() string {
	if f.FileURL == "" {
		return "Unknown"
	}
	parts := strings.Split(f.FileURL, "/")
	return parts[len(parts)-1]
}

// UploadPayload is what an upload reply carried. Files is empty when the
// reply had no processed_files; RawText is then the text to show instead.
type UploadPayload struct {
	Files           []ProcessedFile
	TotalProcessed  *int
	TotalSuccessful *int
	RawText         string
}

// HasFiles reports whether processed_files was found.
func (p UploadPayload) HasFiles() bool { return len(p.Files) > 0 }

// ParseUpload looks for processed_files in the unwrapped "response", then
// the unwrapped "answer", then the whole reply.
func ParseUpload(v any) UploadPayload {
	top, _ := v.(map[string]any)

	var candidates []any
	if top != nil {
		if r, ok := top["response"]; ok {
			candidates = append(candidates, r)
		}
		if a, ok := top["answer"]; ok {
			candidates = append(candidates, a)
		}
	}
	candidates = append(candidates, v)

	for _, c := range candidates {
		unwrapped, _ := Unwrap(c)
		m, ok := unwrapped.(map[string]any)
		if !ok {
			continue
		}
		list, ok := m["processed_files"].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		payload := UploadPayload{Files: make([]ProcessedFile, 0, len(list))}
		for _, raw := range list {
			fm, _ := raw.(map[string]any)
			payload.Files = append(payload.Files, processedFile(fm))
		}
		payload.TotalProcessed = intField(m, "total_processed")
		payload.TotalSuccessful = intField(m, "total_successful")
		return payload
	}

	return UploadPayload{RawText: rawUploadText(top)}
}

func processedFile(m map[string]any) ProcessedFile {
	if m == nil {
		return ProcessedFile{}
	}
	return ProcessedFile{
		FileURL:             mapString(m, "file_url"),
		Success:             truthy(m["success"]),
		FileType:            mapString(m, "file_type"),
		IsHealthcareRelated: truthy(m["is_healthcare_related"]),
		Summary:             mapString(m, "summary"),
		Description:         mapString(m, "description"),
		Error:               mapString(m, "error"),
		DocType:             mapString(m, "doc_type"),
	}
}

func rawUploadText(top map[string]any) string {
	for _, key := range []string{"response", "answer"} {
		if v, ok := top[key]; ok && truthy(v) {
			return itemString(v)
		}
	}
	return "{}"
}

func intField(m map[string]any, key string) *int {
	var n int
	switch t := m[key].(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			n = int(i)
		} else if f, err := t.Float64(); err == nil {
			n = int(f)
		} else {
			return nil
		}
	case float64:
		n = int(t)
	default:
		return nil
	}
	return &n
}
