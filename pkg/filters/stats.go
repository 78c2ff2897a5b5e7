package filters

import (
	"math"

	"github.com/harrisonrobin/advtodo/pkg/model"
)

type Stats struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Progress  int `json:"progress"` // percent of all tasks in the completed collection
}

func Summarize(active, completed []model.Task) Stats {
	st := Stats{
		Active:    len(active),
		Completed: len(completed),
		Total:     len(active) + len(completed),
	}
	if st.Total > 0 {
		st.Progress = int(math.Round(float64(st.Completed) / float64(st.Total) * 100))
	}
	return st
}
