package azopenai

import (
	"fmt"
	"net/url"
	"strings"
)

// ResourceEndpoint reduces an endpoint to the scheme and host the
// OpenAI-compatible routes hang off. A Foundry project endpoint such as
// https://res.services.ai.azure.com/api/projects/demo becomes
// https://res.services.ai.azure.com; a resource endpoint is returned
// without its trailing slash.
func ResourceEndpoint(endpoint string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("parsing endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("endpoint %q must be an absolute URL", endpoint)
	}

	path := strings.TrimRight(u.Path, "/")
	if i := strings.Index(path, "/api/projects/"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSuffix(path, "/openai")

	return u.Scheme + "://" + u.Host + path, nil
}
