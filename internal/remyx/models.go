package remyx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/remyxai/remyxai-cli/internal/deploy"
)

// Summary is the subset of a model summary the CLI needs.
type Summary struct {
	Name      string `json:"name"`
	ModelType string `json:"model_type"`
	Type      string `json:"type"`
	Task      string `json:"task"`
}

// Kind maps the summary's task description onto a ModelKind.
func (s Summary) Kind() deploy.ModelKind {
	raw := s.ModelType
	if raw == "" {
		raw = s.Type
	}
	if raw == "" {
		raw = s.Task
	}
	return normalizeKind(raw)
}

func normalizeKind(raw string) deploy.ModelKind {
	k := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case k == "":
		return ""
	case strings.Contains(k, "classif"):
		return deploy.KindClassify
	case strings.Contains(k, "detect"):
		return deploy.KindDetect
	case strings.Contains(k, "generat"), strings.Contains(k, "llm"), strings.Contains(k, "text"):
		return deploy.KindGenerate
	}
	return deploy.ModelKind(k)
}

// ModelSummary fetches GET model/summary/{model}.
func (c *Client) ModelSummary(ctx context.Context, model string) (Summary, error) {
	resp, err := c.get(ctx, "model", "summary", model)
	if err != nil {
		return Summary{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Summary{}, fmt.Errorf("%w: %s", deploy.ErrModelNotFound, model)
	}
	if err := checkResponse(resp); err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&s); err != nil {
		return Summary{}, fmt.Errorf("decode model summary: %w", err)
	}
	if s.Name == "" {
		s.Name = model
	}
	return s, nil
}

// ModelKind implements deploy.KindResolver.
func (c *Client) ModelKind(ctx context.Context, model string) (deploy.ModelKind, error) {
	s, err := c.ModelSummary(ctx, model)
	if err != nil {
		return "", err
	}
	kind := s.Kind()
	if kind == "" {
		return "", fmt.Errorf("model summary of %q names no task", model)
	}
	return kind, nil
}

// FetchPackage streams GET deployment/download/{model} into w.
// It implements deploy.PackageSource.
func (c *Client) FetchPackage(ctx context.Context, model string, w io.Writer) error {
	resp, err := c.get(ctx, "deployment", "download", model)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: no deployment package for %s", deploy.ErrModelNotFound, model)
	}
	if err := checkResponse(resp); err != nil {
		return err
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("download deployment package: %w", err)
	}
	c.log.Debug().Str("event", "package_downloaded").Str("model", model).Int64("bytes", n).Msg("remyx")
	return nil
}
