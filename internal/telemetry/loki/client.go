package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:]`)

// Client pushes log lines to a Loki instance over its HTTP push API.
type Client struct {
	baseURL string
	httpc   *http.Client
	job     string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
		job:     "strategypilot",
	}
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// eventFields are the subset of the audit event payload promoted into
// Loki stream labels. Keys must match the emitter's JSON contract.
type eventFields struct {
	OrgID     string    `json:"orgId"`
	EventType string    `json:"eventType"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// PushEventJSON forwards a raw audit event payload, deriving stream
// labels from the event's own fields. Unparseable payloads are still
// shipped, under catch-all labels.
func (c *Client) PushEventJSON(ctx context.Context, payload []byte) error {
	var fields eventFields
	labels := map[string]string{
		"job":        c.job,
		"event_type": "unknown",
	}
	ts := time.Now()
	if err := json.Unmarshal(payload, &fields); err == nil {
		if fields.EventType != "" {
			labels["event_type"] = sanitizeLabel(fields.EventType)
		}
		if fields.OrgID != "" {
			labels["org_id"] = sanitizeLabel(fields.OrgID)
		}
		if fields.Source != "" {
			labels["source"] = sanitizeLabel(fields.Source)
		}
		if !fields.CreatedAt.IsZero() {
			ts = fields.CreatedAt
		}
	}
	return c.push(ctx, labels, ts, string(payload))
}

func (c *Client) push(ctx context.Context, labels map[string]string, ts time.Time, line string) error {
	body, err := json.Marshal(pushRequest{
		Streams: []stream{{
			Stream: labels,
			Values: [][2]string{{strconv.FormatInt(ts.UnixNano(), 10), line}},
		}},
	})
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/loki/api/v1/push", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("push to loki: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("loki push: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func sanitizeLabel(v string) string {
	return labelSanitize.ReplaceAllString(v, "_")
}
