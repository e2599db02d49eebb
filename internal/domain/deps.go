package domain

// CanStart reports whether a task may transition to in_progress given
// the other tasks in its session. A task is startable when every id in
// its blockedBy set refers to a completed task. Ids that refer to
// missing or deleted tasks are treated as already satisfied.
//
// Only blockedBy is consulted; the blocks field on other tasks is a
// directional declaration that is not trusted for the start gate.
func CanStart(task *Task, all []*Task) bool {
	if len(task.BlockedBy) == 0 {
		return true
	}

	byID := make(map[string]*Task, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}

	for _, dep := range task.BlockedBy {
		if blocker, ok := byID[dep]; ok && blocker.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// CanDelete returns the ids of every task whose blockedBy set references
// taskID. An empty result means the task may be deleted. All blockers are
// collected, not just the first, so callers can report the full list.
//
// No cycle detection is performed; a cyclic blockedBy configuration
// yields tasks that can never start, which is a known limitation of the
// externally-written graph, not an error here.
func CanDelete(taskID string, all []*Task) []string {
	var blockers []string
	for _, t := range all {
		if t.ID == taskID {
			continue
		}
		for _, dep := range t.BlockedBy {
			if dep == taskID {
				blockers = append(blockers, t.ID)
				break
			}
		}
	}
	return blockers
}
