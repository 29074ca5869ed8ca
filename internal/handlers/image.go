package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	apperrors "inkpost/internal/errors"
	"inkpost/internal/middleware"
	"inkpost/internal/services"

	"github.com/gin-gonic/gin"
)

const maxImageSize = 10 << 20

// ImageHandler 图片上传
type ImageHandler struct {
	host services.ImageHost
}

func NewImageHandler(host services.ImageHost) *ImageHandler {
	return &ImageHandler{host: host}
}

// Upload 处理图片上传请求 (POST /uploads/image)
// 需要用户已登录
func (h *ImageHandler) Upload(c *gin.Context) {
	// multipart 头部留出余量
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize+1<<20)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		fail(c, apperrors.Validation("Missing image"))
		return
	}
	defer file.Close()

	// 验证文件类型
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		fail(c, apperrors.Validation("Only image files are allowed"))
		return
	}

	// 验证文件大小（限制 10MB）
	if header.Size > maxImageSize {
		fail(c, apperrors.Validation("Image must not exceed 10MB"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		fail(c, apperrors.Validation("Failed to read image"))
		return
	}
	if len(data) > maxImageSize {
		fail(c, apperrors.Validation("Image must not exceed 10MB"))
		return
	}

	url, err := h.host.Upload(c.Request.Context(), services.Image{
		Data:        data,
		Filename:    header.Filename,
		ContentType: contentType,
	})
	if err != nil {
		slog.Warn("Image upload failed", "error", err, "user_id", middleware.CurrentUserID(c))
		fail(c, apperrors.Upstream("Failed to upload image", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
