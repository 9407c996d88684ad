// Package azopenai is a small client for the chat-completions and
// image-generation routes of an Azure OpenAI or Azure AI Foundry endpoint,
// built on the azcore request pipeline.
package azopenai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/levelup-project/levelup/internal/models"
)

const (
	moduleName    = "github.com/levelup-project/levelup/internal/azopenai"
	moduleVersion = "v0.1.0"
)

// ErrMalformedResponse is returned when a 2xx response carries no usable
// choice or image.
var ErrMalformedResponse = errors.New("malformed response")

// ClientOptions contains optional settings for the clients in this package.
type ClientOptions struct {
	azcore.ClientOptions
}

// client is the shared core: one authenticated pipeline bound to one
// deployment.
type client struct {
	endpoint   string
	deployment string
	apiVersion string
	pl         runtime.Pipeline
}

func newClient(endpoint, deployment, apiVersion string, cred azcore.TokenCredential, options *ClientOptions) (*client, error) {
	if cred == nil {
		return nil, errors.New("credential is required")
	}
	if deployment == "" {
		return nil, errors.New("deployment is required")
	}
	root, err := ResourceEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = &ClientOptions{}
	}
	clientOpts := options.ClientOptions
	// A failed call is reported once; the user re-initiates.
	clientOpts.Retry.MaxRetries = -1

	authPolicy := runtime.NewBearerTokenPolicy(cred, []string{CognitiveServicesScope}, nil)
	pl := runtime.NewPipeline(moduleName, moduleVersion, runtime.PipelineOptions{
		PerRetry: []policy.Policy{authPolicy},
	}, &clientOpts)

	return &client{
		endpoint:   root,
		deployment: deployment,
		apiVersion: apiVersion,
		pl:         pl,
	}, nil
}

// post sends body as JSON to the deployment route and decodes a 200 reply
// into out.
func (c *client) post(ctx context.Context, route []string, body, out any) error {
	paths := append([]string{"openai", "deployments", url.PathEscape(c.deployment)}, route...)
	req, err := runtime.NewRequest(ctx, http.MethodPost, runtime.JoinPaths(c.endpoint, paths...))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	qp := req.Raw().URL.Query()
	qp.Set("api-version", c.apiVersion)
	req.Raw().URL.RawQuery = qp.Encode()
	req.Raw().Header["Accept"] = []string{"application/json"}
	if err := runtime.MarshalAsJSON(req, body); err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	slog.Debug("model request", "url", req.Raw().URL.String(), "deployment", c.deployment)

	resp, err := c.pl.Do(req)
	if err != nil {
		return err
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return runtime.NewResponseError(resp)
	}
	if err := runtime.UnmarshalAsJSON(resp, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// ChatClient sends transcripts to one chat deployment.
type ChatClient struct {
	c *client
}

// NewChatClient creates a ChatClient for the deployment behind endpoint.
func NewChatClient(endpoint, deployment, apiVersion string, cred azcore.TokenCredential, options *ClientOptions) (*ChatClient, error) {
	c, err := newClient(endpoint, deployment, apiVersion, cred, options)
	if err != nil {
		return nil, err
	}
	return &ChatClient{c: c}, nil
}

// Deployment returns the deployment name requests are routed to.
func (cc *ChatClient) Deployment() string {
	return cc.c.deployment
}

type chatCompletionsRequest struct {
	Messages []models.Message `json:"messages"`
}

type chatCompletionsResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
			Refusal *string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete submits the full transcript and returns the text of the first
// choice.
func (cc *ChatClient) Complete(ctx context.Context, messages []models.Message) (string, error) {
	var out chatCompletionsResponse
	if err := cc.c.post(ctx, []string{"chat", "completions"}, chatCompletionsRequest{Messages: messages}, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}
	msg := out.Choices[0].Message
	slog.Debug("model response", "id", out.ID, "model", out.Model, "finishReason", out.Choices[0].FinishReason)
	if msg.Content == nil {
		if msg.Refusal != nil {
			return *msg.Refusal, nil
		}
		return "", fmt.Errorf("%w: first choice has no content", ErrMalformedResponse)
	}
	return *msg.Content, nil
}

// ImageClient requests images from one image-generation deployment.
type ImageClient struct {
	c *client
}

// NewImageClient creates an ImageClient for the deployment behind endpoint.
func NewImageClient(endpoint, deployment, apiVersion string, cred azcore.TokenCredential, options *ClientOptions) (*ImageClient, error) {
	c, err := newClient(endpoint, deployment, apiVersion, cred, options)
	if err != nil {
		return nil, err
	}
	return &ImageClient{c: c}, nil
}

// GeneratedImage is the first datum of an image-generation reply. Exactly
// one of URL and B64JSON is normally set.
type GeneratedImage struct {
	URL           string
	B64JSON       string
	RevisedPrompt string
}

type imageGenerationsRequest struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
}

type imageGenerationsResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// Generate asks for exactly one image for prompt.
func (ic *ImageClient) Generate(ctx context.Context, prompt string) (*GeneratedImage, error) {
	var out imageGenerationsResponse
	if err := ic.c.post(ctx, []string{"images", "generations"}, imageGenerationsRequest{Prompt: prompt, N: 1}, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || (out.Data[0].URL == "" && out.Data[0].B64JSON == "") {
		return nil, fmt.Errorf("%w: no image returned", ErrMalformedResponse)
	}
	d := out.Data[0]
	return &GeneratedImage{URL: d.URL, B64JSON: d.B64JSON, RevisedPrompt: d.RevisedPrompt}, nil
}
