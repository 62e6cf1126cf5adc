package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shelfscan/shelfscan/internal/api"
	"github.com/shelfscan/shelfscan/internal/llmcall"
	"github.com/shelfscan/shelfscan/internal/svcctx"
)

// LLMCallsResponse contains a list of recorded inference calls.
type LLMCallsResponse struct {
	Calls []*llmcall.Call `json:"calls"`
	Total int             `json:"total"`
}

// ListLLMCallsEndpoint handles GET /llmcalls.
type ListLLMCallsEndpoint struct{}

func (e *ListLLMCallsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/llmcalls", e.handler
}

func (e *ListLLMCallsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.LLMCallStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "LLM call store not available")
		return
	}

	q := r.URL.Query()

	if jobID := q.Get("job_id"); jobID != "" {
		calls := store.ByJob(jobID)
		writeJSON(w, http.StatusOK, LLMCallsResponse{Calls: calls, Total: len(calls)})
		return
	}

	limit := 100
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q must be an integer", v))
			return
		}
		limit = n
	}

	calls := store.Recent(limit)
	writeJSON(w, http.StatusOK, LLMCallsResponse{Calls: calls, Total: len(calls)})
}

func (e *ListLLMCallsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var jobID string
	var limit int

	cmd := &cobra.Command{
		Use:   "llmcalls",
		Short: "List recorded inference calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			params := url.Values{}
			if jobID != "" {
				params.Set("job_id", jobID)
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}

			path := "/llmcalls"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			var resp LLMCallsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&jobID, "job-id", "", "Filter by scan job ID")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")
	return cmd
}
