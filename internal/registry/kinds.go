package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/remyxai/remyxai-cli/internal/deploy"
)

// Static resolves kinds from a fixed table, typically config model_kinds.
type Static map[string]deploy.ModelKind

// NewStatic builds a Static from string values.
func NewStatic(kinds map[string]string) Static {
	s := make(Static, len(kinds))
	for m, k := range kinds {
		s[m] = deploy.ModelKind(strings.ToLower(strings.TrimSpace(k)))
	}
	return s
}

func (s Static) ModelKind(_ context.Context, model string) (deploy.ModelKind, error) {
	if k, ok := s[model]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %s", deploy.ErrModelNotFound, model)
}

// Chain asks each resolver in order and returns the first answer. Only
// ErrModelNotFound moves on to the next resolver.
type Chain []deploy.KindResolver

func (c Chain) ModelKind(ctx context.Context, model string) (deploy.ModelKind, error) {
	var last error = fmt.Errorf("%w: %s", deploy.ErrModelNotFound, model)
	for _, r := range c {
		if r == nil {
			continue
		}
		k, err := r.ModelKind(ctx, model)
		if err == nil {
			return k, nil
		}
		if !errors.Is(err, deploy.ErrModelNotFound) {
			return "", err
		}
		last = err
	}
	return "", last
}
