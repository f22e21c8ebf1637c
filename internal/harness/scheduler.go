package harness

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"toolweave/internal/config"
	"toolweave/internal/i18n"
)

// Harness schedules parsed invocations over the handler table. A batch walks
// the invocations in document order: contiguous runs of order-independent
// calls execute on a bounded worker pool, order-sensitive calls execute
// alone. Spliced output always reflects invocation order, never completion
// order.
type Harness struct {
	registry *Registry
	lang     i18n.Language
	parallel int
}

func NewHarness(cfg config.HarnessConfig, handlers []Handler) *Harness {
	return &Harness{
		registry: NewRegistry(handlers...),
		lang:     i18n.Normalize(cfg.Language),
		parallel: cfg.Parallelism(),
	}
}

// Registry exposes the dispatch table, mainly for the guide builder.
func (h *Harness) Registry() *Registry {
	return h.registry
}

// ExecuteBatch parses text, executes every tool block, and returns the text
// with each raw block replaced by its output. Ordinary tool failures become
// inline warning lines and the batch still succeeds; cancellation aborts the
// whole batch with a CancellationError and no partial result.
func (h *Harness) ExecuteBatch(ctx context.Context, text string, env ExecutionContext, hooks Hooks) (BatchResult, error) {
	invs := ParseInvocations(text)
	calls := make([]Call, len(invs))
	for i, inv := range invs {
		calls[i] = Call{ID: uuid.NewString(), Inv: inv, Env: env}
	}

	results := make([]ToolResult, len(calls))

	i := 0
	for i < len(calls) {
		if h.parallelEligible(calls[i]) {
			j := i + 1
			for j < len(calls) && h.parallelEligible(calls[j]) {
				j++
			}
			if err := h.runParallel(ctx, calls[i:j], results[i:j], hooks); err != nil {
				return BatchResult{}, err
			}
			i = j
			continue
		}
		h.announce(calls[i], hooks)
		res, err := h.runOne(ctx, calls[i])
		if err != nil {
			return BatchResult{}, err
		}
		results[i] = res
		h.report(calls[i], res, hooks)
		i++
	}

	rewritten := text
	summaries := make([]ToolCallSummary, len(results))
	for i, res := range results {
		replacement := res.Output
		if !res.OK {
			replacement = h.warnLine(res)
		}
		rewritten = strings.Replace(rewritten, calls[i].Inv.RawBlock, replacement, 1)
		summaries[i] = summarize(calls[i], res)
	}

	return BatchResult{
		RewrittenText: rewritten,
		StrippedText:  StripToolBlocks(text),
		Results:       results,
		Summaries:     summaries,
	}, nil
}

// ExecuteOne runs a single tool outside any batch, with the same failure
// semantics: ordinary failures land in the result, cancellation is an error.
func (h *Harness) ExecuteOne(ctx context.Context, tool, payload string, env ExecutionContext) (ToolResult, error) {
	call := Call{
		ID:  uuid.NewString(),
		Inv: Invocation{Name: strings.ToLower(strings.TrimSpace(tool)), Payload: payload},
		Env: env,
	}
	return h.runOne(ctx, call)
}

// parallelEligible reports whether the call belongs to the order-independent
// class. Unknown tools run as sequential singletons so their failure cannot
// reorder around anything.
func (h *Harness) parallelEligible(call Call) bool {
	handler, ok := h.registry.Handler(call.Inv.Name)
	return ok && handler.SupportsParallel()
}

// runParallel executes one contiguous order-independent run on a
// claim-next-index pool. OnInvoke fires for the whole run up front, in
// invocation order; results land at their original index.
func (h *Harness) runParallel(ctx context.Context, calls []Call, results []ToolResult, hooks Hooks) error {
	for _, call := range calls {
		h.announce(call, hooks)
	}

	workers := h.parallel
	if workers <= 0 {
		workers = config.DefaultMaxParallel
	}
	if workers > len(calls) {
		workers = len(calls)
	}

	errs := make([]error, len(calls))
	var next int32
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := int(atomic.AddInt32(&next, 1)) - 1
				if idx >= len(calls) {
					return
				}
				res, err := h.runOne(ctx, calls[idx])
				if err != nil {
					errs[idx] = err
					continue
				}
				results[idx] = res
				h.report(calls[idx], res, hooks)
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// runOne dispatches one call. Only cancellation comes back as an error;
// every other failure is folded into the ToolResult.
func (h *Harness) runOne(ctx context.Context, call Call) (ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return ToolResult{}, cancelled(err)
	}

	res := ToolResult{Tool: call.Inv.Name, Payload: call.Inv.Payload}

	handler, ok := h.registry.Handler(call.Inv.Name)
	if !ok {
		res.Err = fmt.Sprintf("unknown tool: %s", call.Inv.Name)
		logToolResult(call, res)
		return res, nil
	}

	output, err := handler.Handle(ctx, call)
	if err != nil {
		if IsCancellation(err) {
			return ToolResult{}, err
		}
		res.Err = err.Error()
		logToolResult(call, res)
		return res, nil
	}

	res.OK = true
	res.Output = output
	logToolResult(call, res)
	return res, nil
}

func (h *Harness) announce(call Call, hooks Hooks) {
	logToolCall(call)
	if hooks.OnInvoke != nil {
		hooks.OnInvoke(call.ID, call.Inv)
	}
}

func (h *Harness) report(call Call, res ToolResult, hooks Hooks) {
	if hooks.OnResult != nil {
		hooks.OnResult(summarize(call, res))
	}
}

func (h *Harness) warnLine(res ToolResult) string {
	return fmt.Sprintf("⚠ tool %s %s: %s", res.Tool, i18n.T(h.lang, i18n.MsgToolFailed), res.Err)
}
