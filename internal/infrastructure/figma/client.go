// Package figma 实现设计稿节点渲染图的获取
package figma

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/pkg/metrics"
	"screen-dev-assistant/pkg/tracer"
)

var otelTracer = otel.Tracer("figma")

const (
	stepResolve  = "resolve"
	stepDownload = "download"

	defaultMaxImageBytes = 20 << 20
)

// Client 设计稿渲染客户端
// 每次调用都会重新解析渲染地址，不做缓存与重试
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	format        string
	scale         float64
	maxImageBytes int64
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 替换底层 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient 创建设计稿渲染客户端
func NewClient(cfg config.FigmaConfig, opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		token:         cfg.Token,
		format:        cfg.Format,
		scale:         cfg.Scale,
		maxImageBytes: cfg.MaxImageBytes,
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.figma.com"
	}
	if c.format == "" {
		c.format = "png"
	}
	if c.scale <= 0 {
		c.scale = 2
	}
	if c.maxImageBytes <= 0 {
		c.maxImageBytes = defaultMaxImageBytes
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRenderedImage 解析节点渲染地址并下载图片，返回 base64 编码结果
func (c *Client) FetchRenderedImage(ctx context.Context, ref codegen.DesignReference) (*codegen.RenderedImage, error) {
	ctx, span := otelTracer.Start(ctx, "figma.Client.FetchRenderedImage")
	defer span.End()
	span.SetAttributes(
		attribute.String("figma.file_id", ref.FileID),
		attribute.String("figma.node_id", ref.NodeID),
	)

	imageURL, err := c.ResolveImageURL(ctx, ref)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	img, err := c.download(ctx, imageURL)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("figma.media_type", img.MediaType))
	return img, nil
}

// ResolveImageURL 调用渲染接口，返回节点渲染图的临时地址
func (c *Client) ResolveImageURL(ctx context.Context, ref codegen.DesignReference) (string, error) {
	if ref.IsZero() {
		return "", codegen.MissingReferenceError(ref)
	}

	q := url.Values{}
	q.Set("ids", ref.NodeID)
	q.Set("format", c.format)
	q.Set("scale", strconv.FormatFloat(c.scale, 'f', -1, 64))
	endpoint := fmt.Sprintf("%s/v1/images/%s?%s", c.baseURL, url.PathEscape(ref.FileID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", codegen.TransportError(codegen.StageFetch, 0, "build resolve request", err)
	}
	req.Header.Set("X-Figma-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.DesignFetchTotal.WithLabelValues(stepResolve, "error").Inc()
		return "", codegen.TransportError(codegen.StageFetch, 0, "resolve render url", err)
	}
	defer resp.Body.Close()
	metrics.DesignFetchTotal.WithLabelValues(stepResolve, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", codegen.TransportError(codegen.StageFetch, resp.StatusCode, "read resolve response", err)
	}

	parsed := gjson.ParseBytes(body)
	if msg := parsed.Get("err"); msg.Exists() && msg.Type != gjson.Null && msg.String() != "" {
		return "", codegen.ResolutionError(msg.String())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", codegen.ResolutionError(fmt.Sprintf("status %d", resp.StatusCode))
	}

	// 节点 ID 含冒号，不能直接拼进 gjson 路径
	imageURL, ok := parsed.Get("images").Map()[ref.NodeID]
	if !ok || imageURL.Type != gjson.String || imageURL.String() == "" {
		return "", codegen.NotFoundError(ref.NodeID)
	}
	return imageURL.String(), nil
}

func (c *Client) download(ctx context.Context, imageURL string) (*codegen.RenderedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, codegen.TransportError(codegen.StageFetch, 0, "build image request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.DesignFetchTotal.WithLabelValues(stepDownload, "error").Inc()
		return nil, codegen.TransportError(codegen.StageFetch, 0, "download render", err)
	}
	defer resp.Body.Close()
	metrics.DesignFetchTotal.WithLabelValues(stepDownload, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, codegen.TransportError(codegen.StageFetch, resp.StatusCode, "download render", nil)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, codegen.UnexpectedContentTypeError(contentType)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxImageBytes+1))
	if err != nil {
		return nil, codegen.TransportError(codegen.StageFetch, resp.StatusCode, "read render body", err)
	}
	if int64(len(raw)) > c.maxImageBytes {
		return nil, codegen.TransportError(codegen.StageFetch, resp.StatusCode,
			fmt.Sprintf("render exceeds %d bytes", c.maxImageBytes), errors.New("image too large"))
	}
	metrics.DesignImageBytes.Observe(float64(len(raw)))

	return &codegen.RenderedImage{
		MediaType: mediaType,
		Data:      base64.StdEncoding.EncodeToString(raw),
	}, nil
}

var _ codegen.ImageFetcher = (*Client)(nil)
