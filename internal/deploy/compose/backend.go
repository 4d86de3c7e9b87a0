package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/remyxai/remyxai-cli/internal/common/fsutil"
	"github.com/remyxai/remyxai-cli/internal/deploy"
	"github.com/remyxai/remyxai-cli/internal/registry"
)

const (
	// logTailLines is how many log lines a crash diagnostic carries.
	logTailLines = 20
	// cleanupGrace is added to StopTimeout for the down after a failed up.
	cleanupGrace = 10 * time.Second
)

// Backend runs one compose project per model.
type Backend struct {
	cfg Config
	log zerolog.Logger
}

var _ deploy.Backend = (*Backend)(nil)

// New returns a Backend with defaults applied to cfg.
func New(cfg Config) *Backend {
	cfg = cfg.withDefaults()
	return &Backend{cfg: cfg, log: cfg.Logger}
}

// ProjectName returns the compose project that holds model's stack.
func (b *Backend) ProjectName(model string) string {
	return b.cfg.ProjectPrefix + "-" + stackName(model)
}

func (b *Backend) workDir(model string) string {
	return filepath.Join(b.cfg.DeployDir, stackName(model))
}

func (b *Backend) endpoint(port int) string {
	return net.JoinHostPort(b.cfg.Host, strconv.Itoa(port))
}

// compose runs `<bin> compose args...` in dir.
func (b *Backend) compose(ctx context.Context, dir string, args ...string) ([]byte, error) {
	if _, err := b.cfg.LookPath(b.cfg.Bin); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", deploy.ErrPrerequisite, b.cfg.Bin, err)
	}
	return b.cfg.Runner.Run(ctx, dir, b.cfg.Bin, append([]string{"compose"}, args...)...)
}

// Start prepares the working directory and runs `compose up --build -d`.
// A failed up is followed by a best-effort `compose down` so no half-created
// containers outlive the call.
func (b *Backend) Start(ctx context.Context, target deploy.DeploymentTarget) (deploy.Handle, error) {
	if _, err := b.cfg.LookPath(b.cfg.Bin); err != nil {
		return deploy.Handle{}, fmt.Errorf("%w: %s not found: %v", deploy.ErrPrerequisite, b.cfg.Bin, err)
	}
	model := target.ModelName
	name := stackName(model)
	if name == "" {
		return deploy.Handle{}, fmt.Errorf("%w: %q", deploy.ErrInvalidModelName, model)
	}
	project := b.ProjectName(model)
	dir := b.workDir(model)
	if err := b.prepare(ctx, model, dir); err != nil {
		return deploy.Handle{}, err
	}

	file := findComposeFile(dir)
	if file == "" {
		file = filepath.Join(dir, defaultFile)
		if err := writeProject(defaultProject(project, name, dir, b.cfg.GPU), file); err != nil {
			return deploy.Handle{}, err
		}
		b.log.Debug().Str("event", "compose_default_rendered").Str("model", model).Str("file", file).Msg("compose")
	}
	proj, err := loadProject(ctx, dir, file, project)
	if err != nil {
		return deploy.Handle{}, fmt.Errorf("load %s: %w", file, err)
	}
	port, err := publishedPort(proj, b.cfg.ServingPort)
	if err != nil {
		return deploy.Handle{}, err
	}
	if busy, why := b.cfg.PortBusy(b.cfg.Host, port); busy {
		return deploy.Handle{}, fmt.Errorf("%w: %s already in use (%s)", deploy.ErrPortConflict, b.endpoint(port), why)
	}

	h := deploy.Handle{Model: model, Project: project, Endpoint: b.endpoint(port), WorkDir: dir}
	b.log.Info().Str("event", "compose_up").Str("model", model).Str("project", project).Str("endpoint", h.Endpoint).Msg("compose")
	if _, err := b.compose(ctx, dir, "-p", project, "-f", file, "up", "--build", "-d"); err != nil {
		err = fmt.Errorf("compose up %s: %w", project, err)
		// The caller's ctx may be what failed the up.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cfg.StopTimeout+cleanupGrace)
		defer cancel()
		if derr := b.down(cctx, dir, project); derr != nil {
			b.log.Warn().Str("event", "compose_up_cleanup_failed").Str("model", model).Str("project", project).Err(derr).Msg("compose")
			return deploy.Handle{}, fmt.Errorf("%w (cleanup: %v)", err, derr)
		}
		return deploy.Handle{}, err
	}
	return h, nil
}

// down removes the project's containers, networks and volumes.
func (b *Backend) down(ctx context.Context, dir, project string) error {
	secs := int(b.cfg.StopTimeout.Seconds())
	if _, err := b.compose(ctx, dir, "-p", project, "down", "--volumes", "--remove-orphans", "--timeout", strconv.Itoa(secs)); err != nil {
		return fmt.Errorf("compose down %s: %w", project, err)
	}
	return nil
}

// prepare fetches and extracts the deployment package into dir. Without a
// package source dir must already hold a prepared stack.
func (b *Backend) prepare(ctx context.Context, model, dir string) error {
	if b.cfg.Source == nil {
		if !fsutil.PathExists(dir) {
			return fmt.Errorf("no package source configured and %s does not exist", dir)
		}
		return nil
	}
	if err := os.MkdirAll(b.cfg.DeployDir, 0o755); err != nil {
		return fmt.Errorf("create deploy dir: %w", err)
	}
	archive := filepath.Join(b.cfg.DeployDir, stackName(model)+"_deployment_package.zip")
	f, err := os.Create(archive)
	if err != nil {
		return err
	}
	defer os.Remove(archive)
	if err := b.cfg.Source.FetchPackage(ctx, model, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("fetch deployment package for %q: %w", model, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := fsutil.ExtractZip(archive, dir); err != nil {
		return fmt.Errorf("extract deployment package: %w", err)
	}
	b.log.Debug().Str("event", "package_extracted").Str("model", model).Str("dir", dir).Msg("compose")
	return nil
}

func (b *Backend) ps(ctx context.Context, project string) ([]psEntry, error) {
	out, err := b.compose(ctx, "", "-p", project, "ps", "--all", "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("compose ps %s: %w", project, err)
	}
	return parsePS(out)
}

// Lookup returns the handle of model's project, or nil without containers.
func (b *Backend) Lookup(ctx context.Context, model string) (*deploy.Handle, error) {
	project := b.ProjectName(model)
	entries, err := b.ps(ctx, project)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	h := &deploy.Handle{Model: model, Project: project, WorkDir: b.workDir(model)}
	if port := servingPort(entries, b.cfg.ServingPort); port > 0 {
		h.Endpoint = b.endpoint(port)
	}
	return h, nil
}

// Health reports container states. Crashed stacks carry a log tail.
func (b *Backend) Health(ctx context.Context, h deploy.Handle) (deploy.StackHealth, error) {
	entries, err := b.ps(ctx, h.Project)
	if err != nil {
		return deploy.StackHealth{}, err
	}
	health := classify(entries)
	if health.State == deploy.StackExited && len(entries) > 0 {
		logs, err := b.compose(ctx, "", "-p", h.Project, "logs", "--no-color", "--tail", strconv.Itoa(logTailLines))
		if s := strings.TrimSpace(string(logs)); err == nil && s != "" {
			if len(s) > stderrTail {
				s = s[len(s)-stderrTail:]
			}
			health.Detail += "; logs: " + s
		}
	}
	return health, nil
}

// Stop runs `compose down`, removing containers, networks and volumes.
func (b *Backend) Stop(ctx context.Context, h deploy.Handle) error {
	dir := ""
	if h.WorkDir != "" && fsutil.PathExists(h.WorkDir) {
		dir = h.WorkDir
	}
	b.log.Info().Str("event", "compose_down").Str("model", h.Model).Str("project", h.Project).Msg("compose")
	return b.down(ctx, dir, h.Project)
}

// Models lists models with a compose project or a prepared working directory.
func (b *Backend) Models(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	out, err := b.compose(ctx, "", "ls", "--all", "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("compose ls: %w", err)
	}
	var projects []lsEntry
	if s := strings.TrimSpace(string(out)); s != "" {
		if err := json.Unmarshal([]byte(s), &projects); err != nil {
			return nil, fmt.Errorf("parse compose ls: %w", err)
		}
	}
	prefix := b.cfg.ProjectPrefix + "-"
	for _, p := range projects {
		if m, ok := strings.CutPrefix(p.Name, prefix); ok && m != "" {
			seen[m] = struct{}{}
		}
	}
	stacks, err := registry.LoadDir(b.cfg.DeployDir)
	if err != nil {
		return nil, err
	}
	for _, st := range stacks {
		seen[st.Model] = struct{}{}
	}
	models := make([]string, 0, len(seen))
	for m := range seen {
		models = append(models, m)
	}
	sort.Strings(models)
	return models, nil
}
