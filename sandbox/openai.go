// ABOUTME: OpenAI Assistants implementation of the execution Backend interface.
// ABOUTME: Wraps threads, runs, code-interpreter agents, and file content with an HTTP GET fallback.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultAPIBase = "https://api.openai.com"

// OpenAIBackend implements Backend against the OpenAI Assistants API.
type OpenAIBackend struct {
	client     openai.Client
	apiKey     string
	apiBase    string
	httpClient *http.Client
}

// OpenAIBackendOption is a functional option for configuring an OpenAIBackend.
type OpenAIBackendOption func(*OpenAIBackend)

// WithAPIBase overrides the API base URL for both the SDK client and the
// direct file-content fallback transport. Used for testing.
func WithAPIBase(base string) OpenAIBackendOption {
	return func(b *OpenAIBackend) {
		b.apiBase = base
	}
}

// WithHTTPClient overrides the HTTP client used for the fallback transport.
func WithHTTPClient(hc *http.Client) OpenAIBackendOption {
	return func(b *OpenAIBackend) {
		b.httpClient = hc
	}
}

// NewOpenAIBackend creates an Assistants-backed execution Backend. The SDK's
// internal retries are disabled; run polling and the file-content fallback
// are the resilience layers here.
func NewOpenAIBackend(apiKey string, opts ...OpenAIBackendOption) *OpenAIBackend {
	b := &OpenAIBackend{
		apiKey:     apiKey,
		apiBase:    defaultAPIBase,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(b)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if b.apiBase != defaultAPIBase {
		reqOpts = append(reqOpts, option.WithBaseURL(b.apiBase+"/v1/"))
	}
	b.client = openai.NewClient(reqOpts...)

	return b
}

// UploadFile stores raw bytes as an assistants-purpose file.
func (b *OpenAIBackend) UploadFile(ctx context.Context, name string, data []byte) (string, error) {
	resp, err := b.client.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(bytes.NewReader(data), name, "text/csv"),
		Purpose: openai.FilePurposeAssistants,
	})
	if err != nil {
		return "", fmt.Errorf("uploading file %q: %w", name, err)
	}
	return resp.ID, nil
}

// CreateAgent configures a code-interpreter assistant bound to the dataset file.
func (b *OpenAIBackend) CreateAgent(ctx context.Context, cfg AgentConfig) (string, error) {
	asst, err := b.client.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Model:        openai.ChatModel(cfg.Model),
		Name:         openai.String(cfg.Name),
		Instructions: openai.String(cfg.Instructions),
		Tools: []openai.AssistantToolUnionParam{
			{OfCodeInterpreter: &openai.CodeInterpreterToolParam{}},
		},
		ToolResources: openai.BetaAssistantNewParamsToolResources{
			CodeInterpreter: openai.BetaAssistantNewParamsToolResourcesCodeInterpreter{
				FileIDs: []string{cfg.FileID},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("creating execution agent: %w", err)
	}
	return asst.ID, nil
}

// CreateThread opens a new persistent conversation thread.
func (b *OpenAIBackend) CreateThread(ctx context.Context) (string, error) {
	thread, err := b.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}
	return thread.ID, nil
}

// PostMessage appends a message to the thread.
func (b *OpenAIBackend) PostMessage(ctx context.Context, threadID, role, text string) error {
	_, err := b.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRole(role),
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return fmt.Errorf("posting message to thread %s: %w", threadID, err)
	}
	return nil
}

// StartRun triggers the agent against the thread.
func (b *OpenAIBackend) StartRun(ctx context.Context, threadID, agentID, instructions string) (string, error) {
	params := openai.BetaThreadRunNewParams{AssistantID: agentID}
	if instructions != "" {
		params.Instructions = openai.String(instructions)
	}
	run, err := b.client.Beta.Threads.Runs.New(ctx, threadID, params)
	if err != nil {
		return "", fmt.Errorf("starting run on thread %s: %w", threadID, err)
	}
	return run.ID, nil
}

// RunStatus reports the current state of a run.
func (b *OpenAIBackend) RunStatus(ctx context.Context, threadID, runID string) (RunState, error) {
	run, err := b.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
	if err != nil {
		return "", fmt.Errorf("fetching run %s: %w", runID, err)
	}
	return convertRunStatus(run.Status), nil
}

func convertRunStatus(status openai.RunStatus) RunState {
	switch status {
	case openai.RunStatusQueued:
		return RunQueued
	case openai.RunStatusInProgress, openai.RunStatusRequiresAction, openai.RunStatusCancelling:
		return RunInProgress
	case openai.RunStatusCompleted:
		return RunCompleted
	case openai.RunStatusFailed:
		return RunFailed
	case openai.RunStatusCancelled:
		return RunCancelled
	case openai.RunStatusExpired:
		return RunExpired
	case openai.RunStatusIncomplete:
		return RunIncomplete
	default:
		return RunInProgress
	}
}

// Messages lists all thread messages oldest-first, converting SDK content
// unions into structured ContentBlocks. All knowledge of the SDK's block
// shapes lives here.
func (b *OpenAIBackend) Messages(ctx context.Context, threadID string) ([]Message, error) {
	page, err := b.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("listing messages for thread %s: %w", threadID, err)
	}

	messages := make([]Message, 0, len(page.Data))
	for _, m := range page.Data {
		msg := Message{Role: string(m.Role)}
		for _, block := range m.Content {
			msg.Blocks = append(msg.Blocks, convertBlock(block))
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func convertBlock(block openai.MessageContentUnion) ContentBlock {
	switch v := block.AsAny().(type) {
	case openai.TextContentBlock:
		return TextBlock(v.Text.Value)
	case openai.ImageFileContentBlock:
		return ImageBlock(v.ImageFile.FileID)
	case openai.ImageURLContentBlock:
		return ContentBlock{Kind: BlockImage, FileID: v.ImageURL.URL}
	default:
		return ContentBlock{Kind: BlockUnknown, Raw: block.RawJSON()}
	}
}

// FileBytes fetches file content through the SDK, falling back to a direct
// authenticated HTTP GET when the SDK path fails or yields nothing.
func (b *OpenAIBackend) FileBytes(ctx context.Context, fileID string) ([]byte, error) {
	data, err := b.fileBytesSDK(ctx, fileID)
	if err == nil && len(data) > 0 {
		return data, nil
	}

	data, fallbackErr := b.fileBytesHTTP(ctx, fileID)
	if fallbackErr != nil {
		if err != nil {
			return nil, fmt.Errorf("fetching file %s: %w (fallback: %v)", fileID, err, fallbackErr)
		}
		return nil, fmt.Errorf("fetching file %s: %w", fileID, fallbackErr)
	}
	return data, nil
}

func (b *OpenAIBackend) fileBytesSDK(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := b.client.Files.Content(ctx, fileID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *OpenAIBackend) fileBytesHTTP(ctx context.Context, fileID string) ([]byte, error) {
	url := fmt.Sprintf("%s/v1/files/%s/content", b.apiBase, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file content endpoint returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
