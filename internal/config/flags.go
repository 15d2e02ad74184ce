package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// parseFlags parses the command line of the sync daemon.
//
// Flags:
//
//	-c/-config json file path with configs
//	-data-dir directory for the database, keystore and log
//	-device-name name reported in the device registry
//	-allow-disposable allow syncing from containers and VMs
//	-control local control API address in format [host]:[port]
//	-token OAuth access token
//	-token-file file holding the OAuth access token
//	-d database DSN
//	-backend remote backend: drive or s3
//	-a Drive API base URL
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-root-folder remote root folder name
//	-s3-endpoint S3 endpoint in format [host]:[port]
//	-s3-bucket S3 bucket name
//	-sync-interval background sync period
//	-foreground-throttle minimum gap between foreground syncs
func parseFlags(args []string) (*StructuredConfig, error) {
	var (
		jsonConfigPath     string
		dataDir            string
		deviceName         string
		allowDisposable    bool
		controlAddress     NetAddress
		token              string
		tokenFile          string
		databaseDSN        string
		backend            string
		driveAddress       string
		requestTimeout     time.Duration
		rootFolder         string
		s3Endpoint         NetAddress
		s3Bucket           string
		syncInterval       time.Duration
		foregroundThrottle time.Duration
	)

	fs := flag.NewFlagSet("syncd", flag.ContinueOnError)
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&dataDir, "data-dir", "", "Data directory")
	fs.StringVar(&deviceName, "device-name", "", "Device name")
	fs.BoolVar(&allowDisposable, "allow-disposable", false, "Allow sync from disposable environments")
	fs.Var(&controlAddress, "control", "Control API address host:port")
	fs.StringVar(&token, "token", "", "OAuth access token")
	fs.StringVar(&tokenFile, "token-file", "", "OAuth access token file")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&backend, "backend", "", "Remote backend: drive or s3")
	fs.StringVar(&driveAddress, "a", "", "Drive API base URL")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.StringVar(&rootFolder, "root-folder", "", "Remote root folder name")
	fs.Var(&s3Endpoint, "s3-endpoint", "S3 endpoint host:port")
	fs.StringVar(&s3Bucket, "s3-bucket", "", "S3 bucket")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval")
	fs.DurationVar(&foregroundThrottle, "foreground-throttle", 0, "Foreground sync throttle")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		App: App{
			DeviceName:      deviceName,
			AllowDisposable: allowDisposable,
			DataDir:         dataDir,
			ControlAddress:  controlAddress.String(),
		},
		Auth: Auth{
			Token:     token,
			TokenFile: tokenFile,
		},
		Storage: Storage{
			DB: DB{DSN: databaseDSN},
		},
		Adapter: Adapter{
			Backend:        backend,
			HTTPAddress:    driveAddress,
			RequestTimeout: requestTimeout,
			RootFolder:     rootFolder,
			S3: S3{
				Endpoint: s3Endpoint.String(),
				Bucket:   s3Bucket,
			},
		},
		Workers: Workers{
			SyncInterval:       syncInterval,
			ForegroundThrottle: foregroundThrottle,
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns a canonical host:port string for a NetAddress, or an empty
// string when nothing was set.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set parses the input string of form host:port and populates the NetAddress.
// The host must be non-empty and the port positive.
func (a *NetAddress) Set(s string) error {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return errors.New("need address in a form `host:port`")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1-65535")
	}

	if host == "" {
		return errors.New("host must not be empty")
	}

	a.Host = host
	a.Port = port
	return nil
}
