package pdfsvc

import (
	"context"
	"sync"

	"github.com/escolado/escolado/core"
)

// DummyService records rendered documents instead of producing real PDFs;
// tests assert on RenderedDocuments.
type DummyService struct {
	mu                sync.Mutex
	RenderedDocuments []core.Document
	Err               error // when set, RenderDocument fails with it
}

var _ core.DocumentService = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{}
}

func (svc *DummyService) RenderDocument(_ context.Context, doc core.Document) ([]byte, error) {
	if svc.Err != nil {
		return nil, svc.Err
	}
	svc.mu.Lock()
	svc.RenderedDocuments = append(svc.RenderedDocuments, doc)
	svc.mu.Unlock()
	return []byte("%PDF-1.4 " + doc.Title), nil
}
