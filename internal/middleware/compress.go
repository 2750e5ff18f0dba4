package middleware

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// 压缩模式，对应 server.compression
const (
	CompressNone = "none"
	CompressGzip = "gzip"
	CompressZstd = "zstd" // 优先zstd，客户端不支持时回退gzip
)

var (
	gzipPool sync.Pool
	zstdPool sync.Pool
)

func getGzipWriter(w io.Writer) *gzip.Writer {
	if v := gzipPool.Get(); v != nil {
		gw := v.(*gzip.Writer)
		gw.Reset(w)
		return gw
	}
	gw, _ := gzip.NewWriterLevel(w, gzip.DefaultCompression)
	return gw
}

func releaseGzipWriter(gw *gzip.Writer) {
	_ = gw.Close()
	gzipPool.Put(gw)
}

func getZstdWriter(w io.Writer) (*zstd.Encoder, error) {
	if v := zstdPool.Get(); v != nil {
		zw := v.(*zstd.Encoder)
		zw.Reset(w)
		return zw, nil
	}
	return zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1),
	)
}

func releaseZstdWriter(zw *zstd.Encoder) {
	_ = zw.Close()
	zstdPool.Put(zw)
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") ||
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

// 204/304/1xx 不带响应体
func isNoBodyStatus(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

// compressWriter 把响应体写入压缩器
type compressWriter struct {
	gin.ResponseWriter
	w        io.Writer
	disabled bool
}

func (cw *compressWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	cw.Header().Del("Content-Length")
	if cw.Header().Get("Content-Type") == "" {
		cw.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return cw.w.Write(b)
}

func (cw *compressWriter) WriteString(s string) (int, error) {
	return cw.Write([]byte(s))
}

func (cw *compressWriter) Flush() {
	if !cw.disabled {
		if f, ok := cw.w.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	cw.ResponseWriter.Flush()
}

// Compression 响应压缩，跳过 HEAD 和 WebSocket 升级
func Compression(mode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if mode == "" || mode == CompressNone || c.Request.Method == http.MethodHead || isWebSocketUpgrade(c.Request) {
			c.Next()
			return
		}
		if c.Writer.Header().Get("Content-Encoding") != "" {
			c.Next()
			return
		}

		accept := c.GetHeader("Accept-Encoding")
		switch {
		case mode == CompressZstd && strings.Contains(accept, "zstd"):
			zw, err := getZstdWriter(c.Writer)
			if err != nil {
				c.Next()
				return
			}
			cw := &compressWriter{ResponseWriter: c.Writer, w: zw}
			c.Header("Content-Encoding", "zstd")
			c.Writer.Header().Add("Vary", "Accept-Encoding")
			c.Writer = cw
			defer func() {
				c.Writer = cw.ResponseWriter
				if cw.disabled {
					zw.Reset(io.Discard)
				}
				releaseZstdWriter(zw)
			}()
			c.Next()

		case strings.Contains(accept, "gzip"):
			gw := getGzipWriter(c.Writer)
			cw := &compressWriter{ResponseWriter: c.Writer, w: gw}
			c.Header("Content-Encoding", "gzip")
			c.Writer.Header().Add("Vary", "Accept-Encoding")
			c.Writer = cw
			defer func() {
				c.Writer = cw.ResponseWriter
				if cw.disabled {
					gw.Reset(io.Discard)
				}
				releaseGzipWriter(gw)
			}()
			c.Next()

		default:
			c.Next()
		}
	}
}
