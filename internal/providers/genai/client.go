// Package genai integrates the generative-media backend: image generation
// via a Gemini image model and long-running video generation via a Veo
// model, polled by operation name.
package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shortgen/internal/infra"
)

const syntheticHandlePrefix = "synthetic/operations/"

// Options controls how the client is configured.
type Options struct {
	APIKey           string
	BaseURL          string
	ImageModel       string
	VideoModel       string
	OutputStorageURI string
	HTTPClient       *http.Client
	Logger           *infra.Logger
}

// Client provides a facade over the generative backend. When no API key is
// configured it produces deterministic synthetic assets and operations so
// the full pipeline stays exercisable in local and CI environments.
type Client struct {
	apiKey     string
	baseURL    string
	imageModel string
	videoModel string
	outputURI  string
	httpClient *http.Client
	logger     *infra.Logger
}

// ImageRequest describes one image-generation call.
type ImageRequest struct {
	Prompt    string
	Reference []byte
}

// VideoRequest describes one video-generation start call.
type VideoRequest struct {
	Prompt          string
	StartFrame      []byte
	EndFrame        []byte
	DurationSeconds int
}

// Operation is the observable state of a long-running video generation.
// Exactly one of VideoURI and Failure is set when Done.
type Operation struct {
	Done     bool
	VideoURI string
	Failure  string
}

// NewClient constructs a client with sane defaults. Callers may provide a
// nil HTTP client; a reusable one with a generous timeout is created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-3.1-fast-generate-001"
	}
	outputURI := opts.OutputStorageURI
	if outputURI == "" {
		outputURI = "videos/"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		imageModel: imageModel,
		videoModel: videoModel,
		outputURI:  outputURI,
		httpClient: client,
		logger:     logger,
	}, nil
}

type backendContent struct {
	Role  string        `json:"role,omitempty"`
	Parts []backendPart `json:"parts,omitempty"`
}

type backendPart struct {
	Text       string             `json:"text,omitempty"`
	InlineData *backendInlineData `json:"inlineData,omitempty"`
}

type backendInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type backendGenerationConfig struct {
	ResponseModalities []string            `json:"responseModalities,omitempty"`
	CandidateCount     int                 `json:"candidateCount,omitempty"`
	ImageConfig        *backendImageConfig `json:"imageConfig,omitempty"`
}

type backendImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generateContentRequest struct {
	Contents         []backendContent         `json:"contents"`
	GenerationConfig *backendGenerationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content backendContent `json:"content"`
	} `json:"candidates"`
}

type videoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
}

type videoInstance struct {
	Prompt    string      `json:"prompt"`
	Image     *videoImage `json:"image,omitempty"`
	LastFrame *videoImage `json:"lastFrame,omitempty"`
}

type videoParameters struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	StorageURI      string `json:"storageUri,omitempty"`
	NegativePrompt  string `json:"negativePrompt,omitempty"`
}

type startVideoRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type startVideoResponse struct {
	Name string `json:"name"`
}

type operationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse *struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse,omitempty"`
	} `json:"response,omitempty"`
}

type backendErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// GenerateImage produces image bytes from a prompt and an optional reference
// image.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return c.syntheticImage(req), nil
	}

	payload := generateContentRequest{
		Contents: []backendContent{{Role: "user", Parts: imageParts(req)}},
		GenerationConfig: &backendGenerationConfig{
			ResponseModalities: []string{"IMAGE"},
			CandidateCount:     1,
			ImageConfig:        &backendImageConfig{AspectRatio: "16:9"},
		},
	}

	var response generateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.imageModel))
	if err := c.invoke(ctx, path, payload, &response); err != nil {
		return nil, err
	}

	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("genai: decode inline data: %w", err)
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("genai: no image content returned")
}

// StartVideo begins a long-running video generation and returns the opaque
// operation name. The name is a plain string so it can be polled from a
// different process lifetime.
func (c *Client) StartVideo(ctx context.Context, req VideoRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.apiKey == "" {
		handle := syntheticHandlePrefix + deterministicSeed(req.Prompt, req.DurationSeconds, len(req.StartFrame), len(req.EndFrame))
		c.logger.Debug().Str("handle", handle).Msg("genai: started synthetic video operation")
		return handle, nil
	}

	instance := videoInstance{Prompt: req.Prompt}
	if len(req.StartFrame) > 0 {
		instance.Image = &videoImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.StartFrame),
			MimeType:           "image/png",
		}
	}
	if len(req.EndFrame) > 0 {
		instance.LastFrame = &videoImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.EndFrame),
			MimeType:           "image/png",
		}
	}
	payload := startVideoRequest{
		Instances: []videoInstance{instance},
		Parameters: videoParameters{
			AspectRatio:     "16:9",
			DurationSeconds: req.DurationSeconds,
			StorageURI:      c.outputURI,
			NegativePrompt:  "text, captions, subtitles, annotations, low quality, static, ugly, weird physics",
		},
	}

	var response startVideoResponse
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel))
	if err := c.invoke(ctx, path, payload, &response); err != nil {
		return "", err
	}
	if response.Name == "" {
		return "", fmt.Errorf("genai: operation name missing from response")
	}
	return response.Name, nil
}

// PollOperation reports the state of a video operation by name.
func (c *Client) PollOperation(ctx context.Context, handle string) (Operation, error) {
	if err := ctx.Err(); err != nil {
		return Operation{}, err
	}
	if strings.HasPrefix(handle, syntheticHandlePrefix) {
		seed := strings.TrimPrefix(handle, syntheticHandlePrefix)
		uri := strings.TrimRight(c.outputURI, "/") + "/" + seed + ".mp4"
		return Operation{Done: true, VideoURI: uri}, nil
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(handle, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Operation{}, fmt.Errorf("genai: create poll request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Operation{}, fmt.Errorf("genai: poll operation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return Operation{}, decodeError(resp)
	}

	var op operationResponse
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return Operation{}, fmt.Errorf("genai: decode operation: %w", err)
	}
	if !op.Done {
		return Operation{}, nil
	}
	if op.Error != nil && op.Error.Message != "" {
		return Operation{Done: true, Failure: op.Error.Message}, nil
	}
	if op.Response != nil && op.Response.GenerateVideoResponse != nil {
		samples := op.Response.GenerateVideoResponse.GeneratedSamples
		if len(samples) > 0 && samples[0].Video.URI != "" {
			return Operation{Done: true, VideoURI: samples[0].Video.URI}, nil
		}
	}
	return Operation{Done: true, Failure: "operation finished without video output"}, nil
}

func imageParts(req ImageRequest) []backendPart {
	var parts []backendPart
	if len(req.Reference) > 0 {
		parts = append(parts, backendPart{InlineData: &backendInlineData{
			MimeType: "image/png",
			Data:     base64.StdEncoding.EncodeToString(req.Reference),
		}})
	}
	return append(parts, backendPart{Text: req.Prompt})
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("genai: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("genai: create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: invoke backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var apiErr backendErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("genai: backend status %d: %s", resp.StatusCode, apiErr.Error.Message)
	}
	return fmt.Errorf("genai: backend status %d", resp.StatusCode)
}

// syntheticImage renders a deterministic PNG so the pipeline has real bytes
// to thread between stages without a configured backend.
func (c *Client) syntheticImage(req ImageRequest) []byte {
	seed := deterministicSeed(req.Prompt, len(req.Reference))
	const width, height = 640, 360
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)
	for y := 0; y < height; y += 48 {
		stripe := image.Rect(0, y, width, min(height, y+24))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	c.logger.Debug().Str("seed", seed).Msg("genai: generated synthetic image")
	return buf.Bytes()
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 12 {
		seed = seed + strings.Repeat("0", 12)
	}
	off := shift * 6
	return color.RGBA{
		R: hexByte(seed[off : off+2]),
		G: hexByte(seed[off+2 : off+4]),
		B: hexByte(seed[off+4 : off+6]),
		A: 255,
	}
}

func hexByte(s string) uint8 {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) == 0 {
		return 0
	}
	return b[0]
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(hasher, "%v|", part)
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}
