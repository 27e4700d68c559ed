package videogen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
	"server/internal/providers/video"
	"server/internal/storage"
)

// maxArtifactDownload bounds a single output download.
const maxArtifactDownload = 512 << 20 // 512 MiB

// Persister moves finished artifacts into platform storage. A job is not
// completed until its output is durably ours; provider-hosted URLs expire.
type Persister struct {
	store  *storage.FileStore
	client *http.Client
}

func NewPersister(store *storage.FileStore, client *http.Client) *Persister {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Persister{store: store, client: client}
}

// Persist stores the artifact under {user}/{job}/output.<ext> and returns the
// storage key. All failures wrap ErrArtifactTransfer.
func (p *Persister) Persist(ctx context.Context, job *domain.Job, out *video.Output) (string, error) {
	if out == nil {
		return "", fmt.Errorf("%w: provider returned no output", domain.ErrArtifactTransfer)
	}

	data := out.Data
	if len(data) == 0 {
		if out.URL == "" {
			return "", fmt.Errorf("%w: output has neither bytes nor url", domain.ErrArtifactTransfer)
		}
		var err error
		data, err = p.download(ctx, out.URL)
		if err != nil {
			return "", err
		}
	}

	key := fmt.Sprintf("%s/%s/output.%s", job.UserID, job.ID, extension(out.Format))
	stored, err := p.store.Write(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("%w: store artifact: %v", domain.ErrArtifactTransfer, err)
	}
	return stored, nil
}

func (p *Persister) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArtifactTransfer, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download artifact: %v", domain.ErrArtifactTransfer, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: download artifact: status %d", domain.ErrArtifactTransfer, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactDownload))
	if err != nil {
		return nil, fmt.Errorf("%w: read artifact: %v", domain.ErrArtifactTransfer, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty artifact body", domain.ErrArtifactTransfer)
	}
	return data, nil
}

func extension(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	switch mime {
	case "video/webm":
		return "webm"
	case "video/quicktime":
		return "mov"
	default:
		return "mp4"
	}
}
