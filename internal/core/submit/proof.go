package submit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"internhunt/internal/config"
	"internhunt/internal/logger"

	"github.com/antoineross/supabase-go"
	storage_go "github.com/supabase-community/storage-go"
)

// Artifacts stores proof screenshots of submission outcomes: Supabase bucket
// upload with a signed URL when configured, local data-dir fallback served
// under /files otherwise.
type Artifacts struct {
	log *logger.Logger
	cfg config.Config

	supabaseClient *supabase.Client
}

func NewArtifacts(cfg config.Config) *Artifacts {
	a := &Artifacts{log: logger.New("ProofStore"), cfg: cfg}
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
		if err != nil {
			a.log.LogWarnf("failed to initialize Supabase client: %v", err)
		} else {
			a.supabaseClient = client
		}
	}
	if a.supabaseClient == nil && cfg.Env == "production" {
		a.log.LogWarnf("Supabase not configured; proofs fall back to local storage")
	}
	return a
}

// SavePNG persists one screenshot and returns a URL for it. Upload failures
// degrade to the local copy rather than erroring; the proof is best effort
// all the way down.
func (a *Artifacts) SavePNG(name string, data []byte) (string, error) {
	if a.supabaseClient != nil && a.cfg.SupabaseBucket != "" {
		bucketPath := filepath.ToSlash(filepath.Join("proofs", name))
		mimeType := "image/png"
		reader := bytes.NewReader(data)
		if _, err := a.supabaseClient.Storage.UploadFile(a.cfg.SupabaseBucket, bucketPath, reader, storage_go.FileOptions{ContentType: &mimeType}); err != nil {
			a.log.LogWarnf("Supabase upload failed: %v", err)
		} else if signed, err := a.createSignedURL(a.cfg.SupabaseBucket, bucketPath, 15*60); err != nil {
			a.log.LogWarnf("Supabase signed URL creation failed: %v", err)
		} else {
			a.log.LogDebugf("Proof uploaded: %s", bucketPath)
			return signed, nil
		}
	}

	dir := filepath.Join(a.cfg.DataDir, "proofs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", err
	}
	return "/files/proofs/" + name, nil
}

// createSignedURL performs a direct REST call to sign objects with fresh headers.
func (a *Artifacts) createSignedURL(bucket, objectPath string, expiresIn int) (string, error) {
	if a.cfg.SupabaseURL == "" {
		return "", fmt.Errorf("supabase URL not configured")
	}
	serviceKey := a.cfg.SupabaseServiceKey
	if serviceKey == "" {
		return "", fmt.Errorf("supabase service key not configured")
	}

	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", strings.TrimRight(a.cfg.SupabaseURL, "/"), bucket, objectPath)
	body := map[string]int{"expiresIn": expiresIn}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return "", fmt.Errorf("failed to encode sign body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, signURL, buf)
	if err != nil {
		return "", fmt.Errorf("failed to build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+serviceKey)
	req.Header.Set("apikey", serviceKey)

	httpClient := &http.Client{Timeout: 15 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request signed URL: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to create signed URL: status %d", resp.StatusCode)
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("failed to decode signed URL response: %w", err)
	}

	base := strings.TrimRight(a.cfg.SupabaseURL, "/")
	path := signed.SignedURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasPrefix(path, "/storage/v1/") {
		path = "/storage/v1" + path
	}
	finalURL := base + path
	if a.cfg.Env == "local" || a.cfg.Env == "development" {
		finalURL = strings.Replace(finalURL, "host.docker.internal", "127.0.0.1", 1)
	}
	return finalURL, nil
}

// proofName builds a collision-resistant artifact filename from the capture
// time and the target URL.
func proofName(targetURL string) string {
	replacer := strings.NewReplacer(":", "-", "/", "-", "?", "-", "&", "-", "=", "-", "#", "-", "%", "")
	out := replacer.Replace(targetURL)
	if len(out) > 64 {
		out = out[:64]
	}
	return time.Now().Format("20060102_150405") + "_" + out + ".png"
}
