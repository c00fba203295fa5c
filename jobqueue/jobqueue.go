// Package jobqueue is a small parameter-sweep work queue built on top of
// protectedfile's scope package: a shared JSON file listing jobs, claimed
// one at a time by racing worker processes. It generalizes the job
// loading the original automation tooling did for a single use case into
// a reusable "claim-next-pending" primitive.
package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nikolasavic/protectedfile/scope"
)

// Job status values.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Job is one unit of work in a Queue.
type Job struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
	Status string         `json:"status"`
}

// Queue is the on-disk shape of the shared work-list file.
type Queue struct {
	Jobs []Job `json:"jobs"`
}

// ErrEmpty is returned by ClaimNext when no job in the queue has
// StatusPending.
var ErrEmpty = fmt.Errorf("jobqueue: no pending job")

// ClaimNext opens target (a JSON file holding a Queue) under a
// read-write Protected Scope, marks the first pending job running, and
// writes the queue back before the scope publishes. Two workers racing
// on the same target can't both claim the same job: the Protected Scope
// serializes the whole read-modify-write, not just the claim decision.
func ClaimNext(ctx context.Context, target string, opts ...scope.Option) (*Job, error) {
	opts = append(opts, scope.WithContext(ctx))

	var claimed *Job
	err := scope.Do(target, scope.ModeReadWrite, func(s *scope.Scope) error {
		q, err := readQueue(s)
		if err != nil {
			return err
		}

		idx := -1
		for i := range q.Jobs {
			if q.Jobs[i].Status == StatusPending {
				idx = i
				break
			}
		}
		if idx == -1 {
			return ErrEmpty
		}
		q.Jobs[idx].Status = StatusRunning
		claimed = &q.Jobs[idx]

		return writeQueue(s, q)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkDone writes back status for the named job as either done or
// failed, under its own Protected Scope — the complement to ClaimNext
// once a worker finishes.
func MarkDone(ctx context.Context, target, name string, failed bool, opts ...scope.Option) error {
	opts = append(opts, scope.WithContext(ctx))
	return scope.Do(target, scope.ModeReadWrite, func(s *scope.Scope) error {
		q, err := readQueue(s)
		if err != nil {
			return err
		}
		found := false
		for i := range q.Jobs {
			if q.Jobs[i].Name == name {
				if failed {
					q.Jobs[i].Status = StatusFailed
				} else {
					q.Jobs[i].Status = StatusDone
				}
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("jobqueue: job %q not found", name)
		}
		return writeQueue(s, q)
	}, opts...)
}

func readQueue(s *scope.Scope) (Queue, error) {
	var q Queue
	dec := json.NewDecoder(s.Stream())
	if err := dec.Decode(&q); err != nil {
		return Queue{}, fmt.Errorf("jobqueue: decode queue: %w", err)
	}
	return q, nil
}

func writeQueue(s *scope.Scope, q Queue) error {
	stream := s.Stream()
	if _, err := stream.Seek(0, 0); err != nil {
		return fmt.Errorf("jobqueue: seek queue: %w", err)
	}
	if err := stream.Truncate(0); err != nil {
		return fmt.Errorf("jobqueue: truncate queue: %w", err)
	}
	enc := json.NewEncoder(stream)
	enc.SetIndent("", "  ")
	if err := enc.Encode(q); err != nil {
		return fmt.Errorf("jobqueue: encode queue: %w", err)
	}
	return stream.Sync()
}
