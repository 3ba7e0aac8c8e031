package audit

import (
	"log"
	"strconv"
	"time"
)

// Service provides high-level audit logging for library mutations.
type Service struct {
	auditor *Auditor
}

// NewService creates a new audit service.
func NewService(auditor *Auditor) *Service {
	return &Service{auditor: auditor}
}

// Log records an event synchronously.
func (s *Service) Log(event Event) error {
	if event.Status == "" {
		event.Status = StatusSuccess
	}
	event.CreatedAt = time.Now()
	_, err := s.auditor.SaveJSON(event)
	return err
}

// LogAsync records an event in the background (non-blocking).
func (s *Service) LogAsync(event Event) {
	go func() {
		if err := s.Log(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogBookCreated records a new book arriving on the shelf.
func (s *Service) LogBookCreated(guestID, bookID, title string) {
	s.LogAsync(Event{
		GuestID:     guestID,
		EventType:   EventTypeLibrary,
		Action:      "book_create",
		BookID:      bookID,
		Description: "Added book: " + title,
	})
}

// LogBookEdited records a metadata or file edit.
func (s *Service) LogBookEdited(guestID, bookID, title string) {
	s.LogAsync(Event{
		GuestID:     guestID,
		EventType:   EventTypeLibrary,
		Action:      "book_edit",
		BookID:      bookID,
		Description: "Edited book: " + title,
	})
}

// LogBookDeleted records a deletion.
func (s *Service) LogBookDeleted(guestID, bookID string) {
	s.LogAsync(Event{
		GuestID:   guestID,
		EventType: EventTypeLibrary,
		Action:    "book_delete",
		BookID:    bookID,
	})
}

// LogHighlight records a saved highlight.
func (s *Service) LogHighlight(guestID, bookID string, pageNumber int) {
	s.LogAsync(Event{
		GuestID:     guestID,
		EventType:   EventTypeLibrary,
		Action:      "highlight_add",
		BookID:      bookID,
		Description: "Saved highlight on page " + strconv.Itoa(pageNumber),
	})
}

// LogChat records a recommendation assistant exchange.
func (s *Service) LogChat(guestID string, err error) {
	event := Event{
		GuestID:   guestID,
		EventType: EventTypeAssistant,
		Action:    "chat",
	}
	if err != nil {
		event.Status = StatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// Cleanup removes events older than retention.
func (s *Service) Cleanup(retention time.Duration) (int, error) {
	return s.auditor.Cleanup(retention)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
