package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/akobyansamvel/curs/internal/models"
)

func msgID(id int64) *int64 { return &id }

// TestChatPrinterPrintsEachMessageOnce verifies that the printer tracks
// entries by identity: a history entry inserted before already shown messages
// is printed without repeating them.
func TestChatPrinterPrintsEachMessageOnce(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	printer := newChatPrinter(&buf, 1)
	sender := &models.UserRef{ID: 2, Username: "boris"}
	base := time.Now()
	first := []models.ChatMessage{
		{ID: msgID(5), Sender: sender, Content: "второе", CreatedAt: base},
	}
	printer.flush(first)

	// Act - the poll surfaces an older message ahead of the shown one
	healed := []models.ChatMessage{
		{ID: msgID(4), Sender: sender, Content: "первое", CreatedAt: base.Add(-time.Minute)},
		first[0],
	}
	printer.flush(healed)

	// Assert
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "второе"))
	assert.Equal(t, 1, strings.Count(out, "первое"))
	assert.Less(t, strings.Index(out, "второе"), strings.Index(out, "первое"))
}

// TestChatPrinterNoReprintOnConfirmation verifies that an optimistic entry
// shown as pending is not printed again once its confirmed counterpart,
// carrying the same attempt token, replaces it.
func TestChatPrinterNoReprintOnConfirmation(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	printer := newChatPrinter(&buf, 1)
	self := &models.UserRef{ID: 1, Username: "alice"}
	pending := models.ChatMessage{
		Sender:     self,
		Content:    "идёт",
		CreatedAt:  time.Now(),
		LocalToken: "attempt-1",
		Pending:    true,
	}
	printer.flush([]models.ChatMessage{pending})

	// Act
	confirmedMsg := pending
	confirmedMsg.ID = msgID(9)
	confirmedMsg.Pending = false
	printer.flush([]models.ChatMessage{confirmedMsg})

	// Assert
	assert.Equal(t, 1, strings.Count(buf.String(), "идёт"))
}
