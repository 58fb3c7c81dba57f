package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultTTSURL     = "https://translate.google.com/translate_tts"
	ttsRequestTimeout = 10 * time.Second
	// maxChunkLength is the longest text the endpoint accepts per request
	maxChunkLength = 200
)

// TTSService synthesises speech through Google Translate TTS and caches
// the MP3 files on disk
type TTSService struct {
	audioDir string
	baseURL  string
	timeout  time.Duration
	client   *http.Client
	group    singleflight.Group
}

// NewTTSService creates a new TTS service writing into audioDir
func NewTTSService(audioDir string, timeout time.Duration) *TTSService {
	if timeout <= 0 {
		timeout = ttsRequestTimeout
	}
	return &TTSService{
		audioDir: audioDir,
		baseURL:  defaultTTSURL,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

// AudioFilename returns the cache file name for text spoken in lang
func AudioFilename(text, lang string) string {
	sum := sha256.Sum256([]byte(lang + "\x00" + strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:12]) + ".mp3"
}

// AudioPath returns where the audio for text in lang is cached
func (s *TTSService) AudioPath(text, lang string) string {
	return filepath.Join(s.audioDir, AudioFilename(text, lang))
}

// GenerateAudioFile converts text to speech in lang and saves it as MP3.
// Returns the full path; an existing cache file is reused. Concurrent calls
// for the same text share one download, which outlives the cancellation of
// any single caller; each caller stops waiting when its own ctx ends.
func (s *TTSService) GenerateAudioFile(ctx context.Context, text, lang string) (string, error) {
	path := s.AudioPath(text, lang)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(path, func() (any, error) {
		if _, err := os.Stat(path); err == nil {
			return nil, nil
		}
		return nil, s.generateUsingGoogleTTS(shared, strings.TrimSpace(text), lang, path)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("failed to generate audio: %w", res.Err)
		}
		return path, nil
	case <-ctx.Done():
		return "", fmt.Errorf("failed to generate audio: %w", ctx.Err())
	}
}

// generateUsingGoogleTTS fetches every chunk of text and concatenates the
// MP3 streams into outputPath
func (s *TTSService) generateUsingGoogleTTS(ctx context.Context, text, lang, outputPath string) error {
	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return fmt.Errorf("failed to create audio directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.audioDir, "tts-*.part")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	chunks := splitText(text, maxChunkLength)
	ctx, cancel := context.WithTimeout(ctx, time.Duration(len(chunks))*s.timeout)
	defer cancel()

	for i, chunk := range chunks {
		if err := s.fetchChunk(ctx, chunk, lang, i, len(chunks), tmp); err != nil {
			tmp.Close()
			return err
		}
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return os.Rename(tmp.Name(), outputPath)
}

func (s *TTSService) fetchChunk(ctx context.Context, chunk, lang string, idx, total int, w io.Writer) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", chunk)
	params.Set("tl", lang)
	params.Set("client", "tw-ob")
	params.Set("idx", strconv.Itoa(idx))
	params.Set("total", strconv.Itoa(total))
	params.Set("textlen", strconv.Itoa(len([]rune(chunk))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set user agent (required by Google)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return nil
}

// splitText cuts text at word boundaries into pieces of at most limit runes.
// A single word longer than limit is cut mid-word.
func splitText(text string, limit int) []string {
	var (
		chunks  []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, string(current))
			current = current[:0:0]
		}
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > limit {
			flush()
			chunks = append(chunks, string(w[:limit]))
			w = w[limit:]
		}
		switch {
		case len(current) == 0:
			current = append(current, w...)
		case len(current)+1+len(w) <= limit:
			current = append(current, ' ')
			current = append(current, w...)
		default:
			flush()
			current = append(current, w...)
		}
	}
	flush()
	return chunks
}

// DeleteAudioFile removes the cached audio for text in lang
func (s *TTSService) DeleteAudioFile(text, lang string) error {
	err := os.Remove(s.AudioPath(text, lang))
	if os.IsNotExist(err) {
		return nil // Already deleted
	}
	return err
}

// GetAllAudioFiles returns the names of all cached MP3 files
func (s *TTSService) GetAllAudioFiles() ([]string, error) {
	files, err := os.ReadDir(s.audioDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read audio directory: %w", err)
	}

	var audioFiles []string
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == ".mp3" {
			audioFiles = append(audioFiles, file.Name())
		}
	}
	return audioFiles, nil
}
