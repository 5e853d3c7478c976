package service

import (
	"context"
	"sync"
	"time"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/donalab/dona-backend/internal/websocket"
	"github.com/rs/zerolog"
)

const (
	archiveQueueSize   = 256
	archiveSaveTimeout = 5 * time.Second
)

// ArchiveService is the ledger's event sink: it broadcasts every state
// change over WebSocket and persists receipts and notes to the archive in
// the background. Both paths are fire-and-forget; a full queue or a
// failed save is logged and never surfaces into the settlement call.
type ArchiveService struct {
	receipts  domain.ReceiptArchive
	notes     domain.NoteArchive
	publisher websocket.EventPublisher
	logger    zerolog.Logger

	jobs   chan archiveJob
	stopCh chan struct{}
	doneCh chan struct{}

	mu      sync.Mutex
	running bool
}

type archiveJob func(ctx context.Context)

// NewArchiveService creates a new ArchiveService. Either archive may be
// nil when no database is configured; the WebSocket feed still works.
func NewArchiveService(
	receipts domain.ReceiptArchive,
	notes domain.NoteArchive,
	publisher websocket.EventPublisher,
	logger zerolog.Logger,
) *ArchiveService {
	return &ArchiveService{
		receipts:  receipts,
		notes:     notes,
		publisher: publisher,
		logger:    logger.With().Str("component", "archive_service").Logger(),
		jobs:      make(chan archiveJob, archiveQueueSize),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background persistence worker
func (s *ArchiveService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info().Msg("Starting archive worker")
	go s.run(ctx)
}

// Stop drains queued jobs and stops the worker
func (s *ArchiveService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
	s.logger.Info().Msg("Archive worker stopped")
}

// IsRunning returns whether the worker is currently running
func (s *ArchiveService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *ArchiveService) run(ctx context.Context) {
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			s.setStopped()
			return
		case <-s.stopCh:
			s.drain(ctx)
			s.setStopped()
			return
		case job := <-s.jobs:
			s.exec(ctx, job)
		}
	}
}

// drain runs the jobs still queued at shutdown so accepted settlements
// reach the archive.
func (s *ArchiveService) drain(ctx context.Context) {
	for {
		select {
		case job := <-s.jobs:
			s.exec(ctx, job)
		default:
			return
		}
	}
}

func (s *ArchiveService) exec(ctx context.Context, job archiveJob) {
	jobCtx, cancel := context.WithTimeout(ctx, archiveSaveTimeout)
	defer cancel()
	job(jobCtx)
}

func (s *ArchiveService) enqueue(job archiveJob) {
	select {
	case s.jobs <- job:
	default:
		s.logger.Warn().Msg("Archive queue full, dropping job")
	}
}

func (s *ArchiveService) publish(event websocket.Event) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

// --- ledger.EventSink ---

// SettlementSettled broadcasts the receipt and queues it for archival
func (s *ArchiveService) SettlementSettled(r *domain.Receipt) {
	payload := newReceiptPayload(r)
	s.publish(websocket.SettlementSettled(payload))

	if s.receipts == nil {
		return
	}
	stored := r.Clone()
	s.enqueue(func(ctx context.Context) {
		if err := s.receipts.SaveReceipt(ctx, stored); err != nil {
			s.logger.Error().
				Err(err).
				Str("order_id", stored.OrderID.String()).
				Msg("Failed to archive receipt")
		}
	})
}

// NoteRecorded broadcasts the note and queues it for archival
func (s *ArchiveService) NoteRecorded(n *domain.Note) {
	payload := newNotePayload(n)
	s.publish(websocket.NoteRecorded(payload))

	if s.notes == nil {
		return
	}
	stored := n.Clone()
	s.enqueue(func(ctx context.Context) {
		if err := s.notes.SaveNote(ctx, stored); err != nil {
			s.logger.Error().
				Err(err).
				Uint64("note_id", stored.ID).
				Msg("Failed to archive note")
		}
	})
}

// FeeUpdated broadcasts the new fee policy
func (s *ArchiveService) FeeUpdated(cfg domain.FeeConfig) {
	s.publish(websocket.FeeUpdated(cfg))
}

// WriterProposed broadcasts a staged writer handover
func (s *ArchiveService) WriterProposed(current, proposed domain.Address) {
	s.publish(websocket.WriterProposed(writerPayload{Current: current, Proposed: proposed}))
}

// WriterUpdated broadcasts a completed writer change
func (s *ArchiveService) WriterUpdated(old, updated domain.Address) {
	s.publish(websocket.WriterUpdated(handoverPayload{Previous: old, Current: updated}))
}

// OwnershipTransferred broadcasts an administrator change
func (s *ArchiveService) OwnershipTransferred(old, updated domain.Address) {
	s.publish(websocket.OwnershipTransferred(handoverPayload{Previous: old, Current: updated}))
}

// PauseChanged broadcasts a pause flag flip
func (s *ArchiveService) PauseChanged(paused bool) {
	if paused {
		s.publish(websocket.LedgerPaused(pausePayload{Paused: true}))
		return
	}
	s.publish(websocket.LedgerUnpaused(pausePayload{Paused: false}))
}

// --- wire payloads ---
// Amounts go out as decimal strings: base-unit values overflow the safe
// integer range of JSON consumers.

type receiptPayload struct {
	OrderID     string    `json:"orderId"`
	Donor       string    `json:"donor"`
	Beneficiary string    `json:"beneficiary"`
	Asset       string    `json:"asset,omitempty"`
	GrossAmount string    `json:"grossAmount"`
	Fee         string    `json:"fee"`
	NetAmount   string    `json:"netAmount"`
	Memo        string    `json:"memo,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func newReceiptPayload(r *domain.Receipt) receiptPayload {
	return receiptPayload{
		OrderID:     r.OrderID.String(),
		Donor:       r.Donor.String(),
		Beneficiary: r.Beneficiary.String(),
		Asset:       r.Asset.String(),
		GrossAmount: r.GrossAmount.String(),
		Fee:         r.Fee.String(),
		NetAmount:   r.Net().String(),
		Memo:        r.Memo,
		Timestamp:   r.Timestamp,
	}
}

type notePayload struct {
	ID         uint64    `json:"id"`
	Amount     string    `json:"amount"`
	Memo       string    `json:"memo,omitempty"`
	RecordedBy string    `json:"recordedBy"`
	Timestamp  time.Time `json:"timestamp"`
}

func newNotePayload(n *domain.Note) notePayload {
	return notePayload{
		ID:         n.ID,
		Amount:     n.Amount.String(),
		Memo:       n.Memo,
		RecordedBy: n.RecordedBy.String(),
		Timestamp:  n.Timestamp,
	}
}

type writerPayload struct {
	Current  domain.Address `json:"current"`
	Proposed domain.Address `json:"proposed"`
}

type handoverPayload struct {
	Previous domain.Address `json:"previous"`
	Current  domain.Address `json:"current"`
}

type pausePayload struct {
	Paused bool `json:"paused"`
}

func (s *ArchiveService) setStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
