// Package registry knows which models exist locally: kinds pinned in
// configuration and stacks prepared under the deploy directory.
package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/remyxai/remyxai-cli/internal/common/fsutil"
)

// Stack is a prepared deployment directory.
type Stack struct {
	Model string
	Dir   string
	// ComposeFile is empty when the package ships no compose file.
	ComposeFile string
}

var stackMarkers = []string{"compose.yaml", "compose.yml", "docker-compose.yml", "docker-compose.yaml", "Dockerfile"}

// LoadDir scans dir for prepared stacks: sub-directories holding a compose
// file or a Dockerfile. A missing dir yields no stacks.
func LoadDir(dir string) ([]Stack, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var stacks []Stack
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(abs, e.Name())
		st := Stack{Model: e.Name(), Dir: p}
		found := false
		for _, m := range stackMarkers {
			if !fsutil.PathExists(filepath.Join(p, m)) {
				continue
			}
			found = true
			if m != "Dockerfile" && st.ComposeFile == "" {
				st.ComposeFile = filepath.Join(p, m)
			}
		}
		if found {
			stacks = append(stacks, st)
		}
	}
	return stacks, nil
}
