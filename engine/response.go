package engine

import (
	"time"

	"github.com/sul-dlss/workflow/step"
)

// ProcessResponse is the read model for one step, shaped for API payloads.
type ProcessResponse struct {
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Version     int        `json:"version"`
	Lifecycle   string     `json:"lifecycle,omitempty"`
	Lane        string     `json:"laneId"`
	Attempts    int        `json:"attempts"`
	Elapsed     float64    `json:"elapsed,omitempty"`
	Note        string     `json:"note,omitempty"`
	ErrorMsg    string     `json:"errorMessage,omitempty"`
	CreatedAt   time.Time  `json:"datetime"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// WorkflowResponse is the read model for one workflow of one object.
type WorkflowResponse struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"workflowName"`

	// Complete is true when every active-version step has reached a
	// completed or skipped status.
	Complete bool `json:"complete"`

	Steps []ProcessResponse `json:"processes"`
}

func newWorkflowResponse(objectID, wf string, steps []*step.Step) WorkflowResponse {
	resp := WorkflowResponse{
		ObjectID: objectID,
		Name:     wf,
		Complete: len(steps) > 0,
		Steps:    make([]ProcessResponse, 0, len(steps)),
	}
	for _, st := range steps {
		if st.Active && !st.Status.Terminal() {
			resp.Complete = false
		}
		resp.Steps = append(resp.Steps, ProcessResponse{
			Name:        st.Process,
			Status:      string(st.Status),
			Version:     st.Version,
			Lifecycle:   st.Lifecycle,
			Lane:        st.Lane,
			Attempts:    st.Attempts,
			Elapsed:     st.Elapsed,
			Note:        st.Note,
			ErrorMsg:    st.ErrorMsg,
			CreatedAt:   st.CreatedAt,
			CompletedAt: st.CompletedAt,
		})
	}
	return resp
}
