package blob

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vyleayush/Talksy/internal/metrics"
)

type endpoint struct {
	field      string
	rejectMsg  string
	successMsg string
}

var endpoints = map[Kind]endpoint{
	KindProfile: {field: "profilePic", rejectMsg: "Only image files allowed for profile pictures!", successMsg: "Profile picture uploaded!"},
	KindImage:   {field: "image", rejectMsg: "Only image files allowed!", successMsg: "Image uploaded successfully!"},
	KindVideo:   {field: "video", rejectMsg: "Only video files allowed!", successMsg: "Video uploaded successfully!"},
	KindVoice:   {field: "voice", rejectMsg: "Only audio files allowed!", successMsg: "Voice message uploaded successfully!"},
}

// UploadHandler 返回处理某一类别上传的 gin handler。
// 拒绝只影响上传方,不产生任何半成品状态。
func UploadHandler(s *Store, kind Kind) gin.HandlerFunc {
	ep := endpoints[kind]
	return func(c *gin.Context) {
		fh, err := c.FormFile(ep.field)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues(string(kind), "missing").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			log.Error().Err(err).Str("kind", string(kind)).Msg("open upload")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
			return
		}
		defer func() { _ = f.Close() }()

		stored, err := s.Save(kind, fh.Filename, fh.Size, fh.Header.Get("Content-Type"), f)
		if err != nil {
			switch {
			case errors.Is(err, ErrWrongType):
				metrics.UploadsTotal.WithLabelValues(string(kind), "wrong_type").Inc()
				c.JSON(http.StatusBadRequest, gin.H{"error": ep.rejectMsg})
			case errors.Is(err, ErrFileTooLarge):
				metrics.UploadsTotal.WithLabelValues(string(kind), "too_large").Inc()
				c.JSON(http.StatusBadRequest, gin.H{"error": "File too large. Check size limits."})
			default:
				log.Error().Err(err).Str("kind", string(kind)).Msg("save upload")
				metrics.UploadsTotal.WithLabelValues(string(kind), "error").Inc()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
			}
			return
		}
		metrics.UploadsTotal.WithLabelValues(string(kind), "ok").Inc()
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"fileUrl":  stored.URL,
			"fileName": stored.OriginalName,
			"fileSize": stored.SizeBytes,
			"message":  ep.successMsg,
		})
	}
}
