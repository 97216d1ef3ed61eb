package domain

// ProgressFunc reports listing progress while pages are appended.
// Called once per page: (20, 57), (40, 57), (57, 57)
type ProgressFunc func(loaded, total int)
