package compose

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/remyxai/remyxai-cli/internal/deploy"
)

// psEntry is one container from `docker compose ps --format json`.
type psEntry struct {
	Name       string      `json:"Name"`
	Service    string      `json:"Service"`
	State      string      `json:"State"`
	Health     string      `json:"Health"`
	ExitCode   int         `json:"ExitCode"`
	Publishers []publisher `json:"Publishers"`
}

type publisher struct {
	URL           string `json:"URL"`
	TargetPort    int    `json:"TargetPort"`
	PublishedPort int    `json:"PublishedPort"`
	Protocol      string `json:"Protocol"`
}

// parsePS accepts both output shapes: a JSON array (compose < 2.21) and
// one object per line.
func parsePS(out []byte) ([]psEntry, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, nil
	}
	if out[0] == '[' {
		var list []psEntry
		if err := json.Unmarshal(out, &list); err != nil {
			return nil, fmt.Errorf("parse compose ps: %w", err)
		}
		return list, nil
	}
	var list []psEntry
	dec := json.NewDecoder(bytes.NewReader(out))
	for {
		var e psEntry
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse compose ps: %w", err)
		}
		list = append(list, e)
	}
	return list, nil
}

func servingPort(entries []psEntry, target int) int {
	for _, e := range entries {
		for _, p := range e.Publishers {
			if p.TargetPort == target && p.PublishedPort > 0 {
				return p.PublishedPort
			}
		}
	}
	return 0
}

// classify folds container states into a stack-level health.
// Restarting containers count as crashed: the restart policy hides exits.
func classify(entries []psEntry) deploy.StackHealth {
	if len(entries) == 0 {
		return deploy.StackHealth{State: deploy.StackExited, Detail: "no containers"}
	}
	var crashed, pending []string
	for _, e := range entries {
		switch strings.ToLower(e.State) {
		case "running":
		case "exited", "dead", "restarting":
			crashed = append(crashed, fmt.Sprintf("%s %s (exit code %d)", e.Name, e.State, e.ExitCode))
		default:
			pending = append(pending, fmt.Sprintf("%s %s", e.Name, e.State))
		}
	}
	switch {
	case len(crashed) > 0:
		return deploy.StackHealth{State: deploy.StackExited, Detail: strings.Join(crashed, ", ")}
	case len(pending) > 0:
		return deploy.StackHealth{State: deploy.StackCreated, Detail: strings.Join(pending, ", ")}
	default:
		return deploy.StackHealth{State: deploy.StackRunning}
	}
}

// lsEntry is one project from `docker compose ls --format json`.
type lsEntry struct {
	Name   string `json:"Name"`
	Status string `json:"Status"`
}
