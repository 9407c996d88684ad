// Package config reads the endpoint settings each demo needs from the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvProjectEndpoint = "PROJECT_ENDPOINT"
	EnvModelDeployment = "MODEL_DEPLOYMENT"
	EnvChatAPIVersion  = "CHAT_API_VERSION"
	EnvImageEndpoint   = "IMAGE_GENERATION_ENDPOINT"
	EnvImageDeployment = "IMAGE_GENERATION_MODEL_DEPLOYMENT"
	EnvImageAPIVersion = "API_VERSION"
	EnvImageBlobURL    = "IMAGE_BLOB_CONTAINER_URL"
)

// DefaultChatAPIVersion is used when CHAT_API_VERSION is unset.
const DefaultChatAPIVersion = "2024-10-21"

// ErrMissingConfig is wrapped by every error reporting absent settings.
var ErrMissingConfig = errors.New("missing required configuration")

// MissingError lists the required variables that were not set.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s (set them in the environment or in .env)", ErrMissingConfig, strings.Join(e.Names, ", "))
}

func (e *MissingError) Unwrap() error {
	return ErrMissingConfig
}

// ChatSettings configures the chat and vision demos.
type ChatSettings struct {
	Endpoint   string
	Deployment string
	APIVersion string
}

// ImageSettings configures the image generation demo.
type ImageSettings struct {
	Endpoint         string
	Deployment       string
	APIVersion       string
	BlobContainerURL string
}

// Lookup resolves one variable. os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// LoadDotEnv loads .env from the working directory if present. Variables that
// are already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("no dotenv file", "path", p)
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
		slog.Debug("loaded dotenv file", "path", p)
	}
	return nil
}

// LoadChat reads ChatSettings. Both the endpoint and the deployment are
// required.
func LoadChat(lookup Lookup) (*ChatSettings, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	r := reader{lookup: lookup}
	s := &ChatSettings{
		Endpoint:   r.required(EnvProjectEndpoint),
		Deployment: r.required(EnvModelDeployment),
		APIVersion: r.optional(EnvChatAPIVersion, DefaultChatAPIVersion),
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadImage reads ImageSettings. Endpoint, deployment and API version are
// required; the blob container is optional.
func LoadImage(lookup Lookup) (*ImageSettings, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	r := reader{lookup: lookup}
	s := &ImageSettings{
		Endpoint:         r.required(EnvImageEndpoint),
		Deployment:       r.required(EnvImageDeployment),
		APIVersion:       r.required(EnvImageAPIVersion),
		BlobContainerURL: r.optional(EnvImageBlobURL, ""),
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return s, nil
}

type reader struct {
	lookup  Lookup
	missing []string
}

func (r *reader) required(key string) string {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

func (r *reader) optional(key, fallback string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (r *reader) err() error {
	if len(r.missing) == 0 {
		return nil
	}
	return &MissingError{Names: r.missing}
}
