package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/vyleayush/Talksy/internal/blob"
	"github.com/vyleayush/Talksy/internal/chat"
	"github.com/vyleayush/Talksy/internal/config"
	"github.com/vyleayush/Talksy/internal/metrics"
	"github.com/vyleayush/Talksy/internal/mw"
	"github.com/vyleayush/Talksy/internal/ws"
)

// SetupRouter 统一初始化 Gin 中间件、上传接口、WebSocket 端点与静态资源。
func SetupRouter(cfg config.Config, hub *ws.Hub, room *chat.Room, store *blob.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	// 控制单个 IP+路由的速率,上传接口尤其需要
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/upload-profile", blob.UploadHandler(store, blob.KindProfile))
	r.POST("/upload-image", blob.UploadHandler(store, blob.KindImage))
	r.POST("/upload-video", blob.UploadHandler(store, blob.KindVideo))
	r.POST("/upload-voice", blob.UploadHandler(store, blob.KindVoice))

	r.GET("/ws", ws.Serve(hub, room))

	r.Static("/uploads", cfg.UploadDir)

	// SPA 资源:未匹配的 GET 回落到 public 下的文件,无扩展名的路径回 index.html
	staticDir := "public"
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Status(http.StatusNotFound)
			return
		}
		rel := strings.TrimPrefix(filepath.Clean(c.Request.URL.Path), "/")
		if rel == "" {
			c.File(filepath.Join(staticDir, "index.html"))
			return
		}
		target := filepath.Join(staticDir, rel)
		if fi, err := os.Stat(target); err == nil && !fi.IsDir() {
			c.File(target)
			return
		}
		if strings.Contains(rel, ".") {
			c.Status(http.StatusNotFound)
			return
		}
		c.File(filepath.Join(staticDir, "index.html"))
	})
	return r
}
