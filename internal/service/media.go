package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MentoraPower/beauty-growth-form-sub002/internal/event"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/gateway/wagateway"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/storage/blob"
	"github.com/google/uuid"
)

// MediaGateway is the slice of the provider client the pipeline uses.
type MediaGateway interface {
	DecryptMedia(ctx context.Context, envelope json.RawMessage, mediaKey string) (*wagateway.DecryptResult, error)
	Download(ctx context.Context, mediaURL string) ([]byte, string, error)
}

// MediaPipeline turns a gateway attachment into a URL in this system's
// own blob store. The gateway's URLs cannot be handed to the browser
// directly (cross-origin, limited lifetime), so everything that can be
// fetched is re-hosted. A failure at any step degrades to "no media";
// the provider's own webhook retry is the retry mechanism.
type MediaPipeline struct {
	gateway MediaGateway
	store   blob.Store
	logger  *slog.Logger
}

func NewMediaPipeline(gateway MediaGateway, store blob.Store, logger *slog.Logger) *MediaPipeline {
	return &MediaPipeline{gateway: gateway, store: store, logger: logger}
}

// Process resolves one attachment to a public URL. An empty return means
// the media reference must be dropped: a message with text but no media
// beats a broken media link.
func (p *MediaPipeline) Process(ctx context.Context, media *event.MediaPayload) string {
	if media == nil || media.URL == "" {
		return ""
	}

	encrypted := wagateway.LooksEncrypted(media.URL)
	mediaLogger := p.logger.With(slog.String("mediaType", media.Type))

	// Plain URL, no key: the provider already re-hosted it.
	if !encrypted && media.MediaKey == "" {
		return media.URL
	}

	if media.MediaKey != "" {
		if url := p.decryptAndStore(ctx, media, mediaLogger); url != "" {
			return url
		}
		if encrypted {
			// The raw CDN blob is useless without decryption.
			return ""
		}
	}

	// Decryption unavailable or failed but the URL is fetchable as-is.
	if !encrypted {
		if url := p.fetchAndStore(ctx, media.URL, media.Mimetype, mediaLogger); url != "" {
			return url
		}
	}
	return ""
}

func (p *MediaPipeline) decryptAndStore(ctx context.Context, media *event.MediaPayload, logger *slog.Logger) string {
	result, err := p.gateway.DecryptMedia(ctx, media.Raw, media.MediaKey)
	if err != nil {
		logger.Error("media decrypt failed", "error", err.Error())
		return ""
	}

	if result.Base64 != "" {
		data, err := base64.StdEncoding.DecodeString(result.Base64)
		if err != nil {
			logger.Error("media decrypt returned invalid base64", "error", err.Error())
			return ""
		}
		return p.upload(ctx, data, media.Mimetype, logger)
	}

	return p.fetchAndStore(ctx, result.URL, media.Mimetype, logger)
}

func (p *MediaPipeline) fetchAndStore(ctx context.Context, mediaURL, mimetype string, logger *slog.Logger) string {
	data, contentType, err := p.gateway.Download(ctx, mediaURL)
	if err != nil {
		logger.Error("media download failed", "error", err.Error())
		return ""
	}
	if mimetype == "" {
		mimetype = contentType
	}
	return p.upload(ctx, data, mimetype, logger)
}

func (p *MediaPipeline) upload(ctx context.Context, data []byte, mimetype string, logger *slog.Logger) string {
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), extensionFor(mimetype))
	url, err := p.store.Upload(ctx, name, data, mimetype)
	if err != nil {
		logger.Error("media upload failed", "error", err.Error())
		return ""
	}
	return url
}

func extensionFor(mimetype string) string {
	mt := strings.ToLower(strings.SplitN(mimetype, ";", 2)[0])
	switch mt {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "video/mp4":
		return ".mp4"
	case "application/pdf":
		return ".pdf"
	}
	if _, sub, ok := strings.Cut(mt, "/"); ok && sub != "" && !strings.Contains(sub, ".") {
		return "." + sub
	}
	return ".bin"
}
