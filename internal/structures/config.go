package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath             string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval         time.Duration `yaml:"saveInterval" validate:"required|min:1"`
	MaxReportsPerProject int           `yaml:"maxReportsPerProject"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type OAuthConfig struct {
	TokenURL     string        `yaml:"tokenUrl" validate:"required"`
	ClientID     string        `yaml:"clientId" validate:"required"`
	ClientSecret string        `yaml:"clientSecret"`
	Timeout      time.Duration `yaml:"timeout"`
}

// TableConfig remaps a logical table onto a sheet. Columns maps a logical
// field name to a zero-based column index and overrides the built-in layout.
type TableConfig struct {
	Sheet   string         `yaml:"sheet"`
	Columns map[string]int `yaml:"columns"`
}

type SheetsConfig struct {
	BaseURL       string                 `yaml:"baseUrl"`
	SpreadsheetID string                 `yaml:"spreadsheetId" validate:"required"`
	Timeout       time.Duration          `yaml:"timeout"`
	MaxRetries    int                    `yaml:"maxRetries"`
	Tables        map[string]TableConfig `yaml:"tables"`
}

type ValidationConfig struct {
	BaseURL         string        `yaml:"baseUrl" validate:"required"`
	APIKey          string        `yaml:"apiKey"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxAttempts     int           `yaml:"maxAttempts"`
	RetryDelay      time.Duration `yaml:"retryDelay"`
	Pacing          time.Duration `yaml:"pacing"`
	BatchThreshold  int           `yaml:"batchThreshold"`
	PollInterval    time.Duration `yaml:"pollInterval"`
	// PollTimeout bounds a single batch wait. A postgres lock.leaseTTL
	// shorter than this lets another instance reclaim the project mid-run.
	PollTimeout     time.Duration `yaml:"pollTimeout"`
	MaxPollAttempts int           `yaml:"maxPollAttempts"`
	ErrorSampleSize int           `yaml:"errorSampleSize"`
}

type WorkflowConfig struct {
	StatsRefreshURL string        `yaml:"statsRefreshUrl"`
	Timeout         time.Duration `yaml:"timeout"`
	InitialWait     time.Duration `yaml:"initialWait"`
	RetryWait       time.Duration `yaml:"retryWait"`
}

type LockConfig struct {
	Backend  string        `yaml:"backend" validate:"in:memory,postgres"`
	DSN      string        `yaml:"dsn"`
	LeaseTTL time.Duration `yaml:"leaseTTL"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server           `yaml:"webServer"`
	Persistence Persistence      `yaml:"persistence"`
	Logger      LoggerConfig     `yaml:"logger"`
	Cache       CacheConfig      `yaml:"cache"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	OAuth       OAuthConfig      `yaml:"oauth"`
	Sheets      SheetsConfig     `yaml:"sheets"`
	Validation  ValidationConfig `yaml:"validation"`
	Workflow    WorkflowConfig   `yaml:"workflow"`
	Lock        LockConfig       `yaml:"lock"`
}

// ApplyDefaults fills every optional knob left at its zero value.
func (c *Config) ApplyDefaults() {
	if c.Persistence.MaxReportsPerProject <= 0 {
		c.Persistence.MaxReportsPerProject = 20
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 24 * time.Hour
	}
	if c.OAuth.Timeout <= 0 {
		c.OAuth.Timeout = 30 * time.Second
	}
	if c.Sheets.BaseURL == "" {
		c.Sheets.BaseURL = "https://sheets.googleapis.com"
	}
	if c.Sheets.Timeout <= 0 {
		c.Sheets.Timeout = 30 * time.Second
	}
	if c.Sheets.MaxRetries < 0 {
		c.Sheets.MaxRetries = 0
	}
	v := &c.Validation
	if v.Timeout <= 0 {
		v.Timeout = 30 * time.Second
	}
	if v.MaxAttempts <= 0 {
		v.MaxAttempts = 3
	}
	if v.RetryDelay <= 0 {
		v.RetryDelay = 2 * time.Second
	}
	if v.Pacing <= 0 {
		v.Pacing = 50 * time.Millisecond
	}
	if v.BatchThreshold <= 0 {
		v.BatchThreshold = 10
	}
	if v.PollInterval <= 0 {
		v.PollInterval = 5 * time.Second
	}
	if v.PollTimeout <= 0 {
		v.PollTimeout = 10 * time.Minute
	}
	if v.MaxPollAttempts <= 0 {
		v.MaxPollAttempts = int(v.PollTimeout/v.PollInterval) + 1
	}
	if v.ErrorSampleSize <= 0 {
		v.ErrorSampleSize = 10
	}
	w := &c.Workflow
	if w.Timeout <= 0 {
		w.Timeout = 30 * time.Second
	}
	if w.InitialWait <= 0 {
		w.InitialWait = 2 * time.Second
	}
	if w.RetryWait <= 0 {
		w.RetryWait = 3 * time.Second
	}
	if c.Lock.Backend == "" {
		c.Lock.Backend = "memory"
	}
	if c.Lock.LeaseTTL <= 0 {
		c.Lock.LeaseTTL = 15 * time.Minute
	}
}
