package compose

import (
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/remyxai/remyxai-cli/internal/common/netutil"
	"github.com/remyxai/remyxai-cli/internal/deploy"
)

const (
	defaultBin           = "docker"
	defaultProjectPrefix = "remyx"
	defaultServingPort   = 8000
	defaultHost          = "localhost"
	defaultStopTimeout   = 30 * time.Second
)

// Config encapsulates Backend construction.
type Config struct {
	// Bin is the docker CLI; compose is invoked as `<Bin> compose`.
	Bin string
	// DeployDir holds one working directory per model.
	DeployDir string
	// ProjectPrefix is prepended to the stack name.
	ProjectPrefix string
	// Source fetches deployment packages. When nil Start uses whatever is
	// already prepared under DeployDir/<model>.
	Source deploy.PackageSource
	Runner Runner
	Logger zerolog.Logger

	StopTimeout time.Duration
	// ServingPort is the container port of the KServe HTTP endpoint.
	ServingPort int
	// Host is used to build endpoints from published ports.
	Host string
	// GPU selects the nvidia runtime in the default project.
	GPU bool

	// Test seams.
	LookPath func(string) (string, error)
	PortBusy func(host string, port int) (bool, string)
}

func (c Config) withDefaults() Config {
	if c.Bin == "" {
		c.Bin = defaultBin
	}
	if c.ProjectPrefix == "" {
		c.ProjectPrefix = defaultProjectPrefix
	}
	if c.Runner == nil {
		c.Runner = ExecRunner{}
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = defaultStopTimeout
	}
	if c.ServingPort <= 0 {
		c.ServingPort = defaultServingPort
	}
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.LookPath == nil {
		c.LookPath = exec.LookPath
	}
	if c.PortBusy == nil {
		c.PortBusy = netutil.IsPortBusy
	}
	return c
}
