package tasks

// TaskSchedulerInterface is what the main application and the API layer
// need from the scheduler: lifecycle control, ad-hoc task submission,
// and on-demand full syncs.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	RunSync(force bool) (int, error)
}
