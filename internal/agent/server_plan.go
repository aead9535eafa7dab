// File: internal/agent/server_plan.go
package agent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

// serverPlanRoute identifies the planning task type on the plan server.
const serverPlanRoute = "/planner/ReplyMessage/Facebook"

// fetchServerPlan asks the remote plan server for the first-step decision.
// A missing endpoint is a local failure resolved without a network round
// trip. Non-success statuses surface the status code and text. The body is
// run through the output validator; a schema-invalid body is the same
// class of failure as any other here. No retry happens inside this path -
// any failure returns immediately and the caller owns the fallback.
func (p *Planner) fetchServerPlan(ctx context.Context) (*schemas.PlannerOutput, error) {
	base := p.cfg.ServerPlanEndpoint
	if base == "" {
		return nil, fmt.Errorf("no plan server endpoint configured")
	}

	url := strings.TrimSuffix(base, "/") + serverPlanRoute
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build plan server request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plan server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &schemas.StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan server response: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode plan server response: %w", err)
	}

	out, err := ValidatePlannerOutput(raw)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Plan server produced a decision", zap.String("url", url), zap.Bool("done", out.Done))
	return out, nil
}
