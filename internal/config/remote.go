package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables consulted by LoadRemote.
const (
	EnvEndpoint  = "S3_ENDPOINT"
	EnvBucket    = "S3_BUCKET"
	EnvAccessKey = "S3_ACCESS_KEY"
	EnvSecretKey = "S3_SECRET_KEY"
	EnvRegion    = "S3_REGION"
	EnvPublicURL = "S3_PUBLIC_URL"
	EnvUseSSL    = "S3_USE_SSL"
)

// Remote is the object store configuration captured once per process. It is
// passed by value to the publisher constructor; nothing downstream reads the
// environment.
type Remote struct {
	Enabled   bool
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	PublicURL string
	UseSSL    bool
	KeyPrefix string
}

// LoadRemote merges the optional dotenv file with the process environment
// (process values win) and applies the config file's remote options.
func LoadRemote(opts RemoteOptions, envFile string) (Remote, error) {
	fileValues := map[string]string{}
	if strings.TrimSpace(envFile) != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileValues = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Remote{}, fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}
	lookup := func(key string) string {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(fileValues[key])
	}

	remote := Remote{
		Enabled:   opts.Enabled,
		Bucket:    lookup(EnvBucket),
		AccessKey: lookup(EnvAccessKey),
		SecretKey: lookup(EnvSecretKey),
		Region:    lookup(EnvRegion),
		PublicURL: strings.TrimRight(lookup(EnvPublicURL), "/"),
		UseSSL:    opts.UseSSL,
		KeyPrefix: opts.KeyPrefix,
	}
	remote.Endpoint, remote.UseSSL = splitEndpoint(lookup(EnvEndpoint), remote.UseSSL)
	if raw := lookup(EnvUseSSL); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			remote.UseSSL = v
		}
	}
	return remote, nil
}

// Missing lists the required settings that are absent.
func (r Remote) Missing() []string {
	var missing []string
	if r.Endpoint == "" {
		missing = append(missing, EnvEndpoint)
	}
	if r.Bucket == "" {
		missing = append(missing, EnvBucket)
	}
	if r.AccessKey == "" {
		missing = append(missing, EnvAccessKey)
	}
	if r.SecretKey == "" {
		missing = append(missing, EnvSecretKey)
	}
	return missing
}

// Complete reports whether all four required settings are present.
func (r Remote) Complete() bool {
	return len(r.Missing()) == 0
}

// Active reports whether remote publishing should be used for this run.
func (r Remote) Active() bool {
	return r.Enabled && r.Complete()
}

func splitEndpoint(raw string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(raw, "https://"):
		raw, useSSL = strings.TrimPrefix(raw, "https://"), true
	case strings.HasPrefix(raw, "http://"):
		raw, useSSL = strings.TrimPrefix(raw, "http://"), false
	}
	return strings.TrimRight(raw, "/"), useSSL
}
