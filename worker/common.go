package worker

import (
	"fmt"
	"path"
	"time"
)

// getResultsFileKey keys results by cascade fingerprint: re-running a task with other
// models never overwrites earlier results.
func getResultsFileKey(task *Task) string {
	return path.Join(
		"processed",
		"documents",
		task.annotationTask.DocID,
		"ner",
		task.fingerprint,
		fmt.Sprintf("%s.ner.json", task.taskKey),
	)
}

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func getFormattedNow() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}
