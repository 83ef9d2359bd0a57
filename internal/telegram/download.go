package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/how-als/how-als/internal/analysis"
	"github.com/rs/zerolog/log"
)

const downloadTimeout = 30 * time.Second

func newDownloadClient() *resty.Client {
	return resty.New().SetDebug(false).SetTimeout(downloadTimeout)
}

func (b *Bot) downloadFileID(ctx context.Context, fileID string) ([]byte, error) {
	log.Debug().Str("fileID", fileID).Msg("downloading file id")
	url, err := b.tg.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file url: %w", err)
	}
	res, err := b.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("download failed: status %d", res.StatusCode())
	}
	// Size rules are applied by analysis.NewPayload; this only guards memory.
	if len(res.Body()) > 2*analysis.MaxImageSize {
		return nil, fmt.Errorf("file too large: %d bytes", len(res.Body()))
	}
	return res.Body(), nil
}
