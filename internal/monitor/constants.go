package monitor

import "time"

const (
	clockInterval   = time.Second
	jobNameMinWidth = 12
	statusColWidth  = 12
	ignoredColWidth = 8
	messageMaxLines = 6
)
