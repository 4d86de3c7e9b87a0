package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/remyxai/remyxai-cli/internal/inference"
)

type inferFlags struct {
	model       string
	prompt      string
	serverURL   string
	version     string
	timeout     time.Duration
	repeat      int
	concurrency int
}

func newInferCmd(st *rootState) *cobra.Command {
	var f inferFlags
	cmd := &cobra.Command{
		Use:     "infer",
		Short:   "Send a prompt to a served model",
		Example: "  remyxai infer --model_name=my-llm --prompt=\"Write a haiku\"\n  remyxai infer --model_name=my-llm --prompt=hi --repeat=20 --concurrency=4",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireModel(f.model); err != nil {
				return err
			}
			if f.repeat < 1 || f.concurrency < 1 {
				return fmt.Errorf("--repeat and --concurrency must be at least 1")
			}
			svc, err := st.service()
			if err != nil {
				return err
			}
			req := inference.Request{
				ModelName:     f.model,
				ModelVersion:  f.version,
				ServerAddress: f.serverURL,
				Prompt:        f.prompt,
				Timeout:       f.timeout,
			}
			if f.repeat == 1 {
				return inferOnce(cmd.Context(), st, svc, req)
			}
			return inferRepeat(cmd.Context(), st, svc, req, f.repeat, f.concurrency)
		},
	}
	cmd.Flags().StringVar(&f.model, "model_name", "", "Name of the served model")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "Prompt text")
	cmd.Flags().StringVar(&f.serverURL, "server_url", "", "KServe HTTP address; defaults to the model's ready deployment")
	cmd.Flags().StringVar(&f.version, "model_version", "", "Model version (defaults REMYXAI_MODEL_VERSION or 1)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Per-call timeout (defaults REMYXAI_INFER_TIMEOUT or 60s)")
	cmd.Flags().IntVar(&f.repeat, "repeat", 1, "Number of calls")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 1, "Calls in flight at once when repeating")
	return cmd
}

func inferOnce(ctx context.Context, st *rootState, svc Service, req inference.Request) error {
	res, err := svc.Infer(ctx, req)
	if err != nil {
		return err
	}
	if !res.OK() {
		printFailure(st.stderr, res)
		return exitError{code: 1}
	}
	fmt.Fprintln(st.stdout, res.Output)
	fmt.Fprintf(st.stdout, "elapsed: %s\n", res.Elapsed.Round(time.Millisecond))
	return nil
}

func printFailure(w io.Writer, res inference.Result) {
	fmt.Fprintf(w, "status: %s\nerror: %s\nelapsed: %s\n", res.Status, res.Diagnostic(), res.Elapsed.Round(time.Millisecond))
}

// inferRepeat issues n independent calls, at most c at a time, and prints
// one line per call followed by a latency summary of the successful ones.
func inferRepeat(ctx context.Context, st *rootState, svc Service, req inference.Request, n, c int) error {
	results := make([]inference.Result, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c)
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			res, err := svc.Infer(gctx, req)
			if err != nil {
				return err
			}
			results[i] = res
			mu.Lock()
			defer mu.Unlock()
			if res.OK() {
				fmt.Fprintf(st.stdout, "[%d] ok %s: %s\n", i+1, res.Elapsed.Round(time.Millisecond), res.Output)
			} else {
				fmt.Fprintf(st.stderr, "[%d] %s %s: %s\n", i+1, res.Status, res.Elapsed.Round(time.Millisecond), res.Diagnostic())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	sum := summarize(results)
	fmt.Fprintln(st.stdout, sum)
	if sum.failed > 0 {
		return exitError{code: 1}
	}
	return nil
}

type latencySummary struct {
	ok, failed    int
	min, avg, max time.Duration
}

func summarize(results []inference.Result) latencySummary {
	var s latencySummary
	var total time.Duration
	for _, r := range results {
		if !r.OK() {
			s.failed++
			continue
		}
		if s.ok == 0 || r.Elapsed < s.min {
			s.min = r.Elapsed
		}
		if r.Elapsed > s.max {
			s.max = r.Elapsed
		}
		total += r.Elapsed
		s.ok++
	}
	if s.ok > 0 {
		s.avg = total / time.Duration(s.ok)
	}
	return s
}

func (s latencySummary) String() string {
	r := func(d time.Duration) time.Duration { return d.Round(time.Millisecond) }
	return fmt.Sprintf("calls=%d ok=%d failed=%d min=%s avg=%s max=%s", s.ok+s.failed, s.ok, s.failed, r(s.min), r(s.avg), r(s.max))
}
