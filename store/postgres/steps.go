package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/id"
	"github.com/sul-dlss/workflow/step"
)

const stepColumns = `
	id, object_id, workflow, version, process, status, lifecycle, lane,
	active_version, elapsed, attempts, note, error_msg, error_text,
	completed_at, lock_version, created_at, updated_at`

// CreateWorkflow transactionally replaces the steps for one
// (objectID, wf, version): prior rows for the triple are deleted, rows of
// every other version of the workflow are deactivated, and the new rows
// are inserted active. The version context is upserted when setContext is
// true (an empty map deletes it).
func (s *Store) CreateWorkflow(ctx context.Context, objectID, wf string, version int, steps []*step.Step, vctx map[string]string, setContext bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("workflow/postgres: create workflow begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `
		DELETE FROM workflow_steps
		WHERE object_id = $1 AND workflow = $2 AND version = $3`,
		objectID, wf, version,
	)
	if err != nil {
		return fmt.Errorf("workflow/postgres: create workflow delete prior: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE workflow_steps SET active_version = FALSE, updated_at = NOW()
		WHERE object_id = $1 AND workflow = $2 AND active_version = TRUE`,
		objectID, wf,
	)
	if err != nil {
		return fmt.Errorf("workflow/postgres: create workflow deactivate: %w", err)
	}

	for _, st := range steps {
		rowID := st.ID
		if rowID.IsNil() {
			rowID = id.NewStepID()
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO workflow_steps (
				id, object_id, workflow, version, process, status, lifecycle,
				lane, active_version, elapsed, attempts, note, error_msg,
				error_text, completed_at, lock_version
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7,
				$8, TRUE, $9, $10, $11, $12,
				$13, $14, 0
			)`,
			rowID.String(), objectID, wf, version, st.Process, string(st.Status),
			st.Lifecycle, st.Lane, st.Elapsed, st.Attempts, st.Note,
			st.ErrorMsg, st.ErrorText, st.CompletedAt,
		)
		if err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("workflow/postgres: create workflow %s/%s: %w",
					wf, st.Process, workflow.ErrDuplicateProcess)
			}
			return fmt.Errorf("workflow/postgres: create workflow insert %s: %w", st.Process, err)
		}
	}

	if setContext {
		if len(vctx) == 0 {
			_, err = tx.Exec(ctx, `
				DELETE FROM workflow_version_contexts
				WHERE object_id = $1 AND version = $2`,
				objectID, version,
			)
			if err != nil {
				return fmt.Errorf("workflow/postgres: create workflow delete context: %w", err)
			}
		} else {
			data, marshalErr := json.Marshal(vctx)
			if marshalErr != nil {
				return fmt.Errorf("workflow/postgres: create workflow marshal context: %w", marshalErr)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO workflow_version_contexts (id, object_id, version, data)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (object_id, version) DO UPDATE
				SET data = EXCLUDED.data, updated_at = NOW()`,
				id.NewContextID().String(), objectID, version, data,
			)
			if err != nil {
				return fmt.Errorf("workflow/postgres: create workflow upsert context: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("workflow/postgres: create workflow commit: %w", err)
	}
	return nil
}

// GetStep retrieves the step for the process at the object's most recent
// version of the workflow. More than one row at that version is a
// data-integrity violation and raises rather than picking one.
func (s *Store) GetStep(ctx context.Context, objectID, wf, process string) (*step.Step, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+stepColumns+`
		FROM workflow_steps
		WHERE object_id = $1 AND workflow = $2 AND process = $3
		  AND version = (
			SELECT MAX(version) FROM workflow_steps
			WHERE object_id = $1 AND workflow = $2 AND process = $3
		  )`,
		objectID, wf, process,
	)
	if err != nil {
		return nil, fmt.Errorf("workflow/postgres: get step: %w", err)
	}
	defer rows.Close()

	steps, err := collectSteps(rows)
	if err != nil {
		return nil, err
	}
	switch len(steps) {
	case 0:
		return nil, workflow.ErrStepNotFound
	case 1:
		return steps[0], nil
	default:
		return nil, workflow.ErrDuplicateStep
	}
}

// UpdateStep persists changes to an existing step, compare-and-swapping
// on lock_version.
func (s *Store) UpdateStep(ctx context.Context, st *step.Step) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE workflow_steps SET
			status = $2, lifecycle = $3, lane = $4, active_version = $5,
			elapsed = $6, attempts = $7, note = $8, error_msg = $9,
			error_text = $10, completed_at = $11,
			lock_version = lock_version + 1, updated_at = NOW()
		WHERE id = $1 AND lock_version = $12`,
		st.ID.String(), string(st.Status), st.Lifecycle, st.Lane, st.Active,
		st.Elapsed, st.Attempts, st.Note, st.ErrorMsg,
		st.ErrorText, st.CompletedAt, st.LockVersion,
	)
	if err != nil {
		return fmt.Errorf("workflow/postgres: update step: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a stale lock from a missing row.
		var exists bool
		if checkErr := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM workflow_steps WHERE id = $1)`,
			st.ID.String(),
		).Scan(&exists); checkErr != nil {
			return fmt.Errorf("workflow/postgres: update step check: %w", checkErr)
		}
		if exists {
			return workflow.ErrStale
		}
		return workflow.ErrStepNotFound
	}
	st.LockVersion++
	return nil
}

// ListSteps returns all steps for (objectID, version) restricted to the
// named workflow, in creation order.
func (s *Store) ListSteps(ctx context.Context, objectID string, version int, wf string) ([]*step.Step, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+stepColumns+`
		FROM workflow_steps
		WHERE object_id = $1 AND version = $2 AND workflow = $3
		ORDER BY created_at ASC, id ASC`,
		objectID, version, wf,
	)
	if err != nil {
		return nil, fmt.Errorf("workflow/postgres: list steps: %w", err)
	}
	defer rows.Close()

	return collectSteps(rows)
}

// ListWorkflowSteps returns every step of the named workflow for the
// object, across versions, ordered by version then creation.
func (s *Store) ListWorkflowSteps(ctx context.Context, objectID, wf string) ([]*step.Step, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+stepColumns+`
		FROM workflow_steps
		WHERE object_id = $1 AND workflow = $2
		ORDER BY version ASC, created_at ASC, id ASC`,
		objectID, wf,
	)
	if err != nil {
		return nil, fmt.Errorf("workflow/postgres: list workflow steps: %w", err)
	}
	defer rows.Close()

	return collectSteps(rows)
}

// ListObjectSteps returns every step for the object across all workflows
// and versions, in creation order.
func (s *Store) ListObjectSteps(ctx context.Context, objectID string) ([]*step.Step, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+stepColumns+`
		FROM workflow_steps
		WHERE object_id = $1
		ORDER BY created_at ASC, id ASC`,
		objectID,
	)
	if err != nil {
		return nil, fmt.Errorf("workflow/postgres: list object steps: %w", err)
	}
	defer rows.Close()

	return collectSteps(rows)
}

// QueueReadySteps atomically flips waiting steps named in ready to queued
// and returns their pre-update snapshots. SELECT ... FOR UPDATE is the
// serialization point: a step already locked and flipped by a racing
// trigger is not selected again, so each caller dispatches a disjoint set.
func (s *Store) QueueReadySteps(ctx context.Context, objectID, wf string, version int, ready []string) ([]*step.Step, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("workflow/postgres: queue ready begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	rows, err := tx.Query(ctx, `
		SELECT `+stepColumns+`
		FROM workflow_steps
		WHERE object_id = $1 AND workflow = $2 AND version = $3
		  AND status = 'waiting' AND process = ANY($4)
		ORDER BY created_at ASC, id ASC
		FOR UPDATE`,
		objectID, wf, version, ready,
	)
	if err != nil {
		return nil, fmt.Errorf("workflow/postgres: queue ready select: %w", err)
	}

	snapshots, err := collectSteps(rows)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("workflow/postgres: queue ready commit: %w", err)
		}
		return nil, nil
	}

	ids := make([]string, len(snapshots))
	for i, st := range snapshots {
		ids[i] = st.ID.String()
	}

	_, err = tx.Exec(ctx, `
		UPDATE workflow_steps
		SET status = 'queued', lock_version = lock_version + 1, updated_at = NOW()
		WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("workflow/postgres: queue ready update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("workflow/postgres: queue ready commit: %w", err)
	}
	return snapshots, nil
}

// SkipAll marks every active-version step of the workflow skipped,
// stamping completed_at where unset.
func (s *Store) SkipAll(ctx context.Context, objectID, wf, note string) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE workflow_steps SET
			status = 'skipped', note = $3,
			completed_at = COALESCE(completed_at, NOW()),
			lock_version = lock_version + 1, updated_at = NOW()
		WHERE object_id = $1 AND workflow = $2 AND active_version = TRUE`,
		objectID, wf, note,
	)
	if err != nil {
		return 0, fmt.Errorf("workflow/postgres: skip all: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, workflow.ErrWorkflowNotFound
	}
	return int(tag.RowsAffected()), nil
}

// DeleteWorkflow removes all steps for (objectID, wf, version).
func (s *Store) DeleteWorkflow(ctx context.Context, objectID, wf string, version int) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM workflow_steps
		WHERE object_id = $1 AND workflow = $2 AND version = $3`,
		objectID, wf, version,
	)
	if err != nil {
		return fmt.Errorf("workflow/postgres: delete workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrWorkflowNotFound
	}
	return nil
}

// DeleteObject removes every step and version context for the object.
func (s *Store) DeleteObject(ctx context.Context, objectID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("workflow/postgres: delete object begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx,
		`DELETE FROM workflow_steps WHERE object_id = $1`, objectID,
	); err != nil {
		return fmt.Errorf("workflow/postgres: delete object steps: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM workflow_version_contexts WHERE object_id = $1`, objectID,
	); err != nil {
		return fmt.Errorf("workflow/postgres: delete object contexts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("workflow/postgres: delete object commit: %w", err)
	}
	return nil
}

// GetContext returns the version context values for (objectID, version).
func (s *Store) GetContext(ctx context.Context, objectID string, version int) (map[string]string, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data FROM workflow_version_contexts
		WHERE object_id = $1 AND version = $2`,
		objectID, version,
	).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return nil, workflow.ErrContextNotFound
		}
		return nil, fmt.Errorf("workflow/postgres: get context: %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("workflow/postgres: decode context: %w", err)
	}
	return values, nil
}

// CountIncomplete returns per-object counts of active-version steps of
// the workflow that are not completed or skipped, ignoring ignoreProcess.
// One grouped query serves an arbitrary batch of object ids.
func (s *Store) CountIncomplete(ctx context.Context, objectIDs []string, wf, ignoreProcess string) (map[string]int, error) {
	counts := make(map[string]int, len(objectIDs))
	for _, oid := range objectIDs {
		counts[oid] = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT object_id, COUNT(*)
		FROM workflow_steps
		WHERE object_id = ANY($1) AND workflow = $2 AND active_version = TRUE
		  AND process <> $3 AND status NOT IN ('completed', 'skipped')
		GROUP BY object_id`,
		objectIDs, wf, ignoreProcess,
	)
	if err != nil {
		return nil, fmt.Errorf("workflow/postgres: count incomplete: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oid string
		var n int
		if err := rows.Scan(&oid, &n); err != nil {
			return nil, fmt.Errorf("workflow/postgres: count incomplete scan: %w", err)
		}
		counts[oid] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workflow/postgres: count incomplete rows: %w", err)
	}
	return counts, nil
}

// scanStep scans a single step row.
func scanStep(row pgx.Row) (*step.Step, error) {
	var (
		st        step.Step
		idStr     string
		statusStr string
	)
	err := row.Scan(
		&idStr, &st.ObjectID, &st.Workflow, &st.Version, &st.Process,
		&statusStr, &st.Lifecycle, &st.Lane, &st.Active, &st.Elapsed,
		&st.Attempts, &st.Note, &st.ErrorMsg, &st.ErrorText,
		&st.CompletedAt, &st.LockVersion, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.Status = step.Status(statusStr)

	parsedID, parseErr := id.ParseStepID(idStr)
	if parseErr != nil {
		return nil, fmt.Errorf("workflow/postgres: parse step id %q: %w", idStr, parseErr)
	}
	st.ID = parsedID

	return &st, nil
}

// collectSteps collects all steps from query rows.
func collectSteps(rows pgx.Rows) ([]*step.Step, error) {
	defer rows.Close()

	var steps []*step.Step
	for rows.Next() {
		st, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("workflow/postgres: scan step row: %w", err)
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workflow/postgres: iterate step rows: %w", err)
	}
	return steps, nil
}
