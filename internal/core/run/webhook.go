package run

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"internhunt/internal/logger"
)

// Notifier delivers completion webhooks. Delivery is best-effort: failures are
// logged and never fed back into run status.
type Notifier struct {
	secret string
	client *http.Client
	log    *logger.Logger
}

func NewNotifier(signingSecret string) *Notifier {
	return &Notifier{
		secret: signingSecret,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger.New("Webhook"),
	}
}

// Notify posts {run_id, kind, status, data} to webhookURL. A configured
// signing secret adds timestamp + HMAC headers over timestamp+body.
func (n *Notifier) Notify(ctx context.Context, webhookURL, runID string, kind Kind, status Status, data interface{}) {
	if webhookURL == "" {
		return
	}
	n.log.LogInfof("Sending webhook for run %s to %s", runID, webhookURL)

	payload := map[string]interface{}{
		"run_id": runID,
		"kind":   kind,
		"status": status,
		"data":   data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.log.LogErrorf("Failed to marshal webhook payload for run %s: %v", runID, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewBuffer(body))
	if err != nil {
		n.log.LogErrorf("Failed to create webhook request for run %s: %v", runID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Internhunt-Engine/1.0")
	req.Header.Set("X-Internhunt-Event", string(kind)+"."+string(status))
	req.Header.Set("X-Internhunt-Run-ID", runID)

	if n.secret != "" {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		req.Header.Set("X-Internhunt-Timestamp", timestamp)
		req.Header.Set("X-Internhunt-Signature", "sha256="+n.sign(timestamp, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.LogWarnf("Failed to send webhook for run %s to %s: %v", runID, webhookURL, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		n.log.LogSuccessf("Webhook delivered for run %s (status: %d)", runID, resp.StatusCode)
	} else {
		n.log.LogWarnf("Webhook returned status %d for run %s to %s", resp.StatusCode, runID, webhookURL)
	}
}

// sign computes the hex HMAC-SHA256 of timestamp+body.
func (n *Notifier) sign(timestamp string, body []byte) string {
	h := hmac.New(sha256.New, []byte(n.secret))
	h.Write([]byte(timestamp))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
