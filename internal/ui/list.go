package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/seethroughlab/familliar-sub003/internal/downloads"
)

var (
	_ list.Item = jobItem{}
)

// jobItem wraps [downloads.Job] to implement [list.Item].
type jobItem struct {
	job *downloads.Job
}

func (i jobItem) FilterValue() string { return i.job.Name }

func (i jobItem) Title() string {
	if i.job.Name != "" {
		return i.job.Name
	}
	return i.job.ID
}

func (i jobItem) Description() string {
	status := statusStyle(i.job.Status).Render(i.job.Status.String())
	desc := fmt.Sprintf("%s • %s • %d/%d", i.job.Kind, status, len(i.job.CompletedIDs), len(i.job.ResourceIDs))
	if len(i.job.FailedIDs) > 0 {
		desc = fmt.Sprintf("%s (%d failed)", desc, len(i.job.FailedIDs))
	}
	if i.job.Status == downloads.StatusDownloading && i.job.CurrentResourceID != "" {
		desc = fmt.Sprintf("%s • %s %d%%", desc, i.job.CurrentResourceID, i.job.CurrentProgress)
	}
	return desc
}
