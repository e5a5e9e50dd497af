package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	photoDownloadTimeout = 30 * time.Second
	maxPhotoBytes        = 10 * 1024 * 1024
)

// NewAnalyzeHandler returns a handler for the /analyze command, which runs
// AI analysis on the photo in the replied-to message. Any text in the
// command itself is passed to the model as analysis instructions.
func NewAnalyzeHandler(deps HandlerDeps) bot.HandlerFunc {
	return analyzeHandler{deps}.Handle
}

type analyzeHandler struct {
	deps HandlerDeps
}

func (h analyzeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "analyze")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Analyze handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID

	if msg.ReplyToMessage == nil {
		replyText(ctx, b, log, chatID, msg.ID, h.deps.Config.Messages.ReplyRequired)
		return
	}
	if len(msg.ReplyToMessage.Photo) == 0 {
		replyText(ctx, b, log, chatID, msg.ID, h.deps.Config.Messages.PhotoRequired)
		return
	}

	log.InfoContext(ctx, "Handling /analyze command",
		"chat_id", chatID, "target_message_id", msg.ReplyToMessage.ID)

	progressID := sendProgress(ctx, b, log, chatID, msg.ID, h.deps.Config.Messages.AnalyzeProgress)

	// Telegram lists photo sizes smallest first; take the largest rendition.
	photo := msg.ReplyToMessage.Photo[len(msg.ReplyToMessage.Photo)-1]

	data, mimeType, err := downloadPhoto(ctx, b, h.deps.Config.Telegram.Token, photo.FileID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to download photo", "error", err, "chat_id", chatID)
		deliverNotice(ctx, b, log, chatID, progressID, h.deps.Config.Messages.GeneralError)
		return
	}

	instructions := commandArgument(msg.Text)
	if instructions == "" {
		instructions = msg.ReplyToMessage.Caption
	}

	aiCtx, cancel := context.WithTimeout(ctx, h.deps.Config.AI.Timeout)
	defer cancel()

	analysis, err := h.deps.AI.AnalyzeImage(aiCtx, mimeType, data, instructions)
	if err != nil {
		log.ErrorContext(ctx, "Image analysis failed", "error", err, "chat_id", chatID)
		deliverNotice(ctx, b, log, chatID, progressID, h.deps.Config.Messages.GeneralError)
		return
	}

	deliverResult(ctx, b, log, chatID, progressID, h.deps.Config.Messages.AnalyzeHeader, analysis)
	log.InfoContext(ctx, "Image analysis delivered", "chat_id", chatID, "image_size", len(data))
}

// downloadPhoto retrieves the file data from Telegram and detects its MIME type.
func downloadPhoto(ctx context.Context, b *bot.Bot, token, fileID string) ([]byte, string, error) {
	if token == "" || fileID == "" {
		return nil, "", fmt.Errorf("token and file ID are required")
	}

	downloadCtx, cancel := context.WithTimeout(ctx, photoDownloadTimeout)
	defer cancel()

	fileObj, err := b.GetFile(downloadCtx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get file: %w", err)
	}
	if fileObj.FilePath == "" {
		return nil, "", fmt.Errorf("empty file path returned from Telegram")
	}

	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", token, fileObj.FilePath)
	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code %d downloading file", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file data: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("received empty file data")
	}

	return data, http.DetectContentType(data), nil
}
