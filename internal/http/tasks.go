package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/krishi/internal/tasks"
)

// TaskQueue is the subset of the task client used by the API.
type TaskQueue interface {
	Enqueue(jobs ...backlite.Task) ([]string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TaskTypeInfo describes a job the API can trigger.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`

	build func() backlite.Task
}

// runnableTasks lists the jobs that can be triggered by hand, in display order.
var runnableTasks = []TaskTypeInfo{
	{
		Type:        "sweep_cache",
		Description: "Delete cached prices and weather past their retention",
		Queue:       tasks.SweepCacheTask{}.Config().Name,
		build:       func() backlite.Task { return tasks.SweepCacheTask{Trigger: "api"} },
	},
}

// TasksController handles background job endpoints.
type TasksController struct {
	client TaskQueue
}

func NewTasksController(client TaskQueue) *TasksController {
	return &TasksController{client: client}
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"task_types": runnableTasks})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	code := http.StatusOK
	if status == backlite.TaskStatusNotFound {
		code = http.StatusNotFound
	}
	c.JSON(code, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	for _, info := range runnableTasks {
		if info.Type != taskType {
			continue
		}
		ids, err := tc.client.Enqueue(info.build())
		if err != nil {
			respondInternalError(c, err, "enqueue "+taskType)
			return
		}
		respondAccepted(c, "task enqueued", gin.H{
			"task_id": ids[0],
			"type":    taskType,
		})
		return
	}

	respondNotFound(c, "task type "+taskType)
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
