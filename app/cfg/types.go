package cfg

type Cfg struct {
	// Storage configuration
	DBPath    string
	BackupDir string

	// Application configuration
	Port              string
	MaxConcurrency    int
	FetchTimeout      int // milliseconds
	SchedulerInterval int // seconds
	ReaderCacheTTL    int // hours
	APIAccessKey      string
	SubscriptionsFile string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
