package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func task(id string, status TaskStatus, blockedBy ...string) *Task {
	return &Task{
		ID:        id,
		Subject:   "task " + id,
		Status:    status,
		BlockedBy: blockedBy,
	}
}

func TestCanStart(t *testing.T) {
	tests := []struct {
		name string
		task *Task
		all  []*Task
		want bool
	}{
		{
			name: "no dependencies",
			task: task("1", StatusPending),
			all:  []*Task{task("1", StatusPending)},
			want: true,
		},
		{
			name: "blocker completed",
			task: task("2", StatusPending, "1"),
			all:  []*Task{task("1", StatusCompleted), task("2", StatusPending, "1")},
			want: true,
		},
		{
			name: "blocker pending",
			task: task("2", StatusPending, "1"),
			all:  []*Task{task("1", StatusPending), task("2", StatusPending, "1")},
			want: false,
		},
		{
			name: "blocker in progress",
			task: task("2", StatusPending, "1"),
			all:  []*Task{task("1", StatusInProgress), task("2", StatusPending, "1")},
			want: false,
		},
		{
			name: "missing blocker is satisfied",
			task: task("2", StatusPending, "99"),
			all:  []*Task{task("2", StatusPending, "99")},
			want: true,
		},
		{
			name: "one of several blockers incomplete",
			task: task("3", StatusPending, "1", "2"),
			all: []*Task{
				task("1", StatusCompleted),
				task("2", StatusPending),
				task("3", StatusPending, "1", "2"),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanStart(tt.task, tt.all))
		})
	}
}

func TestCanDelete(t *testing.T) {
	t.Run("unreferenced task is deletable", func(t *testing.T) {
		all := []*Task{task("1", StatusCompleted), task("2", StatusPending)}
		assert.Empty(t, CanDelete("1", all))
	})

	t.Run("collects every blocker", func(t *testing.T) {
		all := []*Task{
			task("1", StatusCompleted),
			task("2", StatusPending, "1"),
			task("3", StatusPending, "1", "2"),
			task("4", StatusPending, "2"),
		}
		assert.Equal(t, []string{"2", "3"}, CanDelete("1", all))
	})

	t.Run("blocks field is not trusted", func(t *testing.T) {
		blocker := task("1", StatusPending)
		blocker.Blocks = []string{"2"}
		all := []*Task{blocker, task("2", StatusPending)}
		// Only blockedBy references gate deletion.
		assert.Empty(t, CanDelete("2", all))
	})

	t.Run("own blockedBy does not block self-delete", func(t *testing.T) {
		all := []*Task{task("1", StatusCompleted), task("2", StatusPending, "1", "2")}
		assert.Equal(t, []string{"2"}, CanDelete("1", all))
		// Task 2 lists itself; that self-reference is ignored.
		assert.Empty(t, CanDelete("2", all))
	})
}
