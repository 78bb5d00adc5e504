// Package vision fans many images out to the vision API in fixed-size
// concurrent batches and streams per-item results back to the caller.
package vision

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/blueprinthub/gateway/internal/model"
)

// DefaultBatchSize bounds how many vision calls are in flight at once.
// Deliberate backpressure against provider rate limits.
const DefaultBatchSize = 5

const ocrPrompt = "Extract all text visible in this image. Preserve reading order and structure. Return only the extracted text."

const augmentSeparator = "\n\n---\n\n"

// Extractor performs one vision call for one image.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

// ObjectFetcher resolves an artifact's object key to image bytes.
type ObjectFetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, string, error)
}

// TextPersister writes extracted text back to the store. Best-effort:
// failures never change the already-emitted stream result.
type TextPersister interface {
	UpdateArtifactText(ctx context.Context, artifactID, text string) error
}

// Item is one image to process. Exactly one source is set: Inline bytes
// (inline mode) or ObjectKey (persisted mode). Err carries a resolution
// failure determined before processing (bad base64, unknown artifact).
type Item struct {
	ID           string
	ExistingText string
	Inline       []byte
	MimeType     string
	ObjectKey    string
	Persist      bool
	Err          error
}

// Emit delivers one vision stream event to the caller.
type Emit func(model.VisionEvent) error

// Processor runs batch image jobs. State machine per item:
// pending → fetching-image → calling-vision-api → succeeded | failed.
// No retries; a failed item is terminal for that item only.
type Processor struct {
	extractor Extractor
	objects   ObjectFetcher
	persister TextPersister
	batchSize int
}

func NewProcessor(extractor Extractor, objects ObjectFetcher, persister TextPersister, batchSize int) *Processor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Processor{
		extractor: extractor,
		objects:   objects,
		persister: persister,
		batchSize: batchSize,
	}
}

type itemResult struct {
	id      string
	content string
	err     error
}

// Process partitions items into ceil(N/W) sequential batches. Within a
// batch all items run concurrently and results are emitted in completion
// order; the next batch never starts before the current one has fully
// settled. Returns only when the caller stopped consuming events.
func (p *Processor) Process(ctx context.Context, mode string, items []Item, emit Emit) error {
	jobID := uuid.NewString()
	if err := emit(model.VisionEvent{Type: "start", JobID: jobID, Total: len(items)}); err != nil {
		return err
	}

	var processed, successful, failed int

	for start := 0; start < len(items); start += p.batchSize {
		end := start + p.batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		results := make(chan itemResult, len(batch))
		for _, it := range batch {
			go func(it Item) {
				content, err := p.processItem(ctx, mode, it)
				results <- itemResult{id: it.ID, content: content, err: err}
			}(it)
		}

		// Await the whole batch; emit each result as it completes.
		for range batch {
			res := <-results
			processed++

			ev := model.VisionEvent{Type: "result", ID: res.id}
			if res.err != nil {
				failed++
				ev.Success = boolPtr(false)
				ev.Error = res.err.Error()
			} else {
				successful++
				ev.Success = boolPtr(true)
				ev.Content = res.content
			}
			if err := emit(ev); err != nil {
				return err
			}
			if err := emit(model.VisionEvent{Type: "progress", Processed: processed, Total: len(items)}); err != nil {
				return err
			}
		}
	}

	return emit(model.VisionEvent{
		Type:       "complete",
		JobID:      jobID,
		Processed:  processed,
		Successful: successful,
		Failed:     failed,
	})
}

func (p *Processor) processItem(ctx context.Context, mode string, it Item) (string, error) {
	if it.Err != nil {
		return "", it.Err
	}

	image, mimeType := it.Inline, it.MimeType
	if len(image) == 0 && it.ObjectKey != "" {
		var err error
		image, mimeType, err = p.objects.Fetch(ctx, it.ObjectKey)
		if err != nil {
			return "", err
		}
		if it.MimeType != "" {
			mimeType = it.MimeType
		}
	}

	text, err := p.extractor.Extract(ctx, image, mimeType, ocrPrompt)
	if err != nil {
		return "", err
	}

	content := text
	if mode == "augment" && it.ExistingText != "" {
		content = it.ExistingText + augmentSeparator + text
	}

	if it.Persist && p.persister != nil {
		if err := p.persister.UpdateArtifactText(ctx, it.ID, content); err != nil {
			// Storage is a secondary concern: the stream result reflects
			// extraction success either way.
			log.Printf("persist artifact %s text: %v", it.ID, err)
		}
	}
	return content, nil
}

func boolPtr(b bool) *bool { return &b }
