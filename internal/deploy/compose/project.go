package compose

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
)

const (
	tritonService = "tritonserver"
	defaultFile   = "docker-compose.yml"
	shmSize       = 24 << 30 // 24G
)

// Files a deployment package may ship, in lookup order.
var composeFileNames = []string{"compose.yaml", "compose.yml", "docker-compose.yml", "docker-compose.yaml"}

// tritonPorts are the KServe HTTP, gRPC and metrics ports.
var tritonPorts = []uint32{8000, 8001, 8002}

func findComposeFile(dir string) string {
	for _, name := range composeFileNames {
		p := filepath.Join(dir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// defaultProject is the Triton serving project used when a deployment
// package ships no compose file of its own. The image is built from the
// package's Dockerfile.
func defaultProject(project, name, dir string, gpu bool) *types.Project {
	ports := make([]types.ServicePortConfig, 0, len(tritonPorts))
	for _, p := range tritonPorts {
		ports = append(ports, types.ServicePortConfig{
			Target:    p,
			Published: strconv.Itoa(int(p)),
			Protocol:  "tcp",
		})
	}
	svc := types.ServiceConfig{
		Build: &types.BuildConfig{
			Context:    "./",
			Dockerfile: "Dockerfile",
		},
		Image:         name + ":latest",
		ContainerName: name + "_triton_server",
		Ports:         ports,
		ShmSize:       types.UnitBytes(shmSize),
		Restart:       "unless-stopped",
	}
	if gpu {
		svc.Runtime = "nvidia"
	}
	return &types.Project{
		Name:       project,
		WorkingDir: dir,
		Services:   types.Services{tritonService: svc},
	}
}

func writeProject(p *types.Project, path string) error {
	data, err := p.MarshalYAML()
	if err != nil {
		return fmt.Errorf("failed to marshal compose project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// loadProject parses and normalizes a compose file the way docker compose does.
func loadProject(ctx context.Context, dir, file, name string) (*types.Project, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	details := types.ConfigDetails{
		WorkingDir:  dir,
		ConfigFiles: []types.ConfigFile{{Filename: file, Content: content}},
		Environment: types.NewMapping(os.Environ()),
	}
	return loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		o.SetProjectName(name, true)
	})
}

// publishedPort returns the host port bound to container port target.
func publishedPort(p *types.Project, target int) (int, error) {
	for _, name := range p.ServiceNames() {
		svc := p.Services[name]
		for _, port := range svc.Ports {
			if int(port.Target) != target || port.Published == "" {
				continue
			}
			pub := port.Published
			if i := strings.IndexByte(pub, '-'); i > 0 {
				pub = pub[:i]
			}
			if n, err := strconv.Atoi(pub); err == nil && n > 0 {
				return n, nil
			}
		}
	}
	return 0, fmt.Errorf("project %s publishes no host port for container port %d", p.Name, target)
}

// stackName is the project, directory and image name of model's stack. Names
// that sanitize changes get a short hash suffix, so "My.Model" and "my-model"
// never share a project.
func stackName(model string) string {
	name := sanitize(model)
	if name == "" || name == model {
		return name
	}
	sum := sha256.Sum256([]byte(model))
	return name + "-" + hex.EncodeToString(sum[:4])
}

// sanitize maps a model name onto the compose project/image name alphabet.
func sanitize(model string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(model)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.TrimLeft(b.String(), "-_")
}
