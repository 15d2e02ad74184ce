package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON tags and
// string-friendly durations.
type StructuredJSONConfig struct {
	App struct {
		DeviceName      string `json:"device_name"`
		AllowDisposable bool   `json:"allow_disposable"`
		DataDir         string `json:"data_dir"`
	} `json:"app,omitempty"`

	Auth struct {
		Token     string `json:"token"`
		TokenFile string `json:"token_file"`
	} `json:"auth,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
		IdentityPath string `json:"identity_path"`
	} `json:"storage,omitempty"`

	Adapter struct {
		Backend        string   `json:"backend"`
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
		RootFolder     string   `json:"root_folder"`
		S3             struct {
			Endpoint  string `json:"endpoint"`
			Bucket    string `json:"bucket"`
			AccessKey string `json:"access_key"`
			SecretKey string `json:"secret_key"`
			Region    string `json:"region"`
			UseSSL    bool   `json:"use_ssl"`
		} `json:"s3,omitempty"`
	} `json:"adapter,omitempty"`

	Workers struct {
		SyncInterval         Duration `json:"sync_interval"`
		ForegroundThrottle   Duration `json:"foreground_throttle"`
		SuccessHold          Duration `json:"success_hold"`
		HistoryLimit         int      `json:"history_limit"`
		RecentActivityWindow Duration `json:"recent_activity_window"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			DeviceName:      jsonCfg.App.DeviceName,
			AllowDisposable: jsonCfg.App.AllowDisposable,
			DataDir:         jsonCfg.App.DataDir,
		},
		Auth: Auth{
			Token:     jsonCfg.Auth.Token,
			TokenFile: jsonCfg.Auth.TokenFile,
		},
		Storage: Storage{
			DB:           DB{DSN: jsonCfg.Storage.DB.DSN},
			IdentityPath: jsonCfg.Storage.IdentityPath,
		},
		Adapter: Adapter{
			Backend:        jsonCfg.Adapter.Backend,
			HTTPAddress:    jsonCfg.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
			RootFolder:     jsonCfg.Adapter.RootFolder,
			S3: S3{
				Endpoint:  jsonCfg.Adapter.S3.Endpoint,
				Bucket:    jsonCfg.Adapter.S3.Bucket,
				AccessKey: jsonCfg.Adapter.S3.AccessKey,
				SecretKey: jsonCfg.Adapter.S3.SecretKey,
				Region:    jsonCfg.Adapter.S3.Region,
				UseSSL:    jsonCfg.Adapter.S3.UseSSL,
			},
		},
		Workers: Workers{
			SyncInterval:         time.Duration(jsonCfg.Workers.SyncInterval),
			ForegroundThrottle:   time.Duration(jsonCfg.Workers.ForegroundThrottle),
			SuccessHold:          time.Duration(jsonCfg.Workers.SuccessHold),
			HistoryLimit:         jsonCfg.Workers.HistoryLimit,
			RecentActivityWindow: time.Duration(jsonCfg.Workers.RecentActivityWindow),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s" as well as plain nanosecond numbers.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
