package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/remyxai/remyxai-cli/internal/httpapi"
)

// shutdownGrace bounds how long in-flight requests may finish on shutdown.
const shutdownGrace = 5 * time.Second

// fnListen opens the control API listener; tests replace it.
var fnListen = func(addr string) (net.Listener, error) { return net.Listen("tcp", addr) }

func newServeCmd(st *rootState) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = st.cfg.Addr
			}
			svc, err := st.service()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, st, svc, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (defaults REMYXAI_ADDR or 127.0.0.1:8080)")
	return cmd
}

func serve(ctx context.Context, st *rootState, svc Service, addr string) error {
	httpapi.SetLogger(st.log.With().Str("component", "http").Logger())
	httpapi.SetBaseContext(ctx)
	httpapi.SetCORSOptions(len(st.cfg.CORSOrigins) > 0, st.cfg.CORSOrigins, nil, nil)

	ln, err := fnListen(addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: httpapi.NewMux(svc), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	st.log.Info().Str("event", "serve_start").Str("addr", ln.Addr().String()).Str("deploy_dir", st.cfg.DeployDir).Msg("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		st.log.Warn().Err(err).Str("event", "serve_shutdown").Msg("graceful shutdown error")
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	st.log.Info().Str("event", "serve_stop").Msg("stopped")
	return nil
}
