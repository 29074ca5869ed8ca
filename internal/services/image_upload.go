package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"inkpost/internal/config"
	apperrors "inkpost/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Image is an uploaded file ready to be handed to a host.
type Image struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ImageHost stores an image somewhere public and returns its URL.
type ImageHost interface {
	Upload(ctx context.Context, img Image) (string, error)
}

// NewImageHost builds the host selected by cfg.Host. With IMAGE_HOST=none
// every upload fails.
func NewImageHost(ctx context.Context, cfg config.ImageConfig) (ImageHost, error) {
	switch cfg.Host {
	case config.ImageHostImgur:
		return NewImgurHost(cfg.ImgurClientID, cfg.ImgurUploadURL), nil
	case config.ImageHostS3:
		return NewS3Host(ctx, cfg)
	default:
		return disabledHost{}, nil
	}
}

type disabledHost struct{}

func (disabledHost) Upload(context.Context, Image) (string, error) {
	return "", apperrors.Upstream("image upload is not configured", nil)
}

// ImgurResponse Imgur API 响应结构
type ImgurResponse struct {
	Data struct {
		ID   string `json:"id"`
		Link string `json:"link"`
		Type string `json:"type"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// ImgurHost 上传到 Imgur 兼容接口（base64 表单字段 + Client-ID）
type ImgurHost struct {
	clientID string
	endpoint string
	client   *http.Client
}

func NewImgurHost(clientID, endpoint string) *ImgurHost {
	return &ImgurHost{
		clientID: clientID,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (h *ImgurHost) Upload(ctx context.Context, img Image) (string, error) {
	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	if err := writer.WriteField("image", base64.StdEncoding.EncodeToString(img.Data)); err != nil {
		return "", fmt.Errorf("write upload body: %w", err)
	}
	if err := writer.WriteField("type", "base64"); err != nil {
		return "", fmt.Errorf("write upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("write upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, &requestBody)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+h.clientID)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return "", apperrors.Upstream("Failed to upload image", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.Upstream("Failed to upload image", err)
	}

	var imgurResp ImgurResponse
	if err := json.Unmarshal(body, &imgurResp); err != nil {
		return "", apperrors.Upstream("Failed to upload image", fmt.Errorf("decode response: %w", err))
	}
	if !imgurResp.Success || imgurResp.Data.Link == "" {
		return "", apperrors.Upstream("Failed to upload image", fmt.Errorf("imgur status %d", imgurResp.Status))
	}
	return imgurResp.Data.Link, nil
}

// objectPutter is the part of *s3.Client the S3 host needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Host writes images to an S3-compatible bucket served from a public base URL.
type S3Host struct {
	client    objectPutter
	bucket    string
	publicURL string
	now       func() time.Time
}

func NewS3Host(ctx context.Context, cfg config.ImageConfig) (*S3Host, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Host(client, cfg.S3Bucket, cfg.S3PublicURL), nil
}

func newS3Host(client objectPutter, bucket, publicURL string) *S3Host {
	return &S3Host{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

func (h *S3Host) Upload(ctx context.Context, img Image) (string, error) {
	key := h.objectKey(img.Filename)

	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(h.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.ContentType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		return "", apperrors.Upstream("Failed to upload image", err)
	}
	return h.publicURL + "/" + key, nil
}

func (h *S3Host) objectKey(filename string) string {
	d := h.now().UTC()
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("posts/%04d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
