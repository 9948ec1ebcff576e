package messenger

import (
	"reflect"
	"testing"
	"time"

	"lumenhaus-backend/internal/model"
)

func stamped(correspondent, name, body string, fromOperator bool, at time.Time, id string) model.MessageItem {
	return model.MessageItem{
		Channel:           model.DefaultChannel,
		MessageID:         id,
		CorrespondentID:   correspondent,
		CorrespondentName: name,
		AuthorName:        name,
		FromOperator:      fromOperator,
		Body:              body,
		CreatedAt:         at.Format(time.RFC3339Nano),
	}
}

func TestAggregatePartitionsEveryMessage(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	messages := []model.MessageItem{
		stamped("a@example.com", "Anna", "hello", false, base, "m1"),
		stamped("b@example.com", "Ben", "hi there", false, base.Add(time.Minute), "m2"),
		stamped("a@example.com", "Anna", "anyone?", false, base.Add(2*time.Minute), "m3"),
		stamped("c@example.com", "Cara", "pricing question", false, base.Add(3*time.Minute), "m4"),
		stamped("b@example.com", "Ben", "thanks", true, base.Add(4*time.Minute), "m5"),
	}

	conversations := Aggregate(messages)

	if len(conversations) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(conversations))
	}

	total := 0
	for id, conv := range conversations {
		total += len(conv.Messages)
		for _, msg := range conv.Messages {
			if msg.CorrespondentID != id {
				t.Fatalf("message %s filed under %s", msg.MessageID, id)
			}
		}
	}
	if total != len(messages) {
		t.Fatalf("expected every message grouped, got %d of %d", total, len(messages))
	}

	anna := conversations["a@example.com"]
	if anna.Messages[0].MessageID != "m1" || anna.Messages[1].MessageID != "m3" {
		t.Fatalf("per-conversation order not preserved: %+v", anna.Messages)
	}
}

func TestAggregateUnreadFollowsNewestMessage(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	messages := []model.MessageItem{
		stamped("a@example.com", "Anna", "first", false, base, "m1"),
		stamped("a@example.com", "Anna", "second", false, base.Add(time.Minute), "m2"),
		stamped("a@example.com", "Anna", "third", false, base.Add(2*time.Minute), "m3"),
	}
	if conv := Aggregate(messages)["a@example.com"]; !conv.HasUnread {
		t.Fatal("conversation with inbound tail must be unread")
	}

	// one reply clears the flag no matter how many inbound messages preceded
	messages = append(messages, stamped("a@example.com", "Operator", "on it", true, base.Add(3*time.Minute), "m4"))
	if conv := Aggregate(messages)["a@example.com"]; conv.HasUnread {
		t.Fatal("operator reply must clear unread")
	}

	messages = append(messages, stamped("a@example.com", "Anna", "one more thing", false, base.Add(4*time.Minute), "m5"))
	if conv := Aggregate(messages)["a@example.com"]; !conv.HasUnread {
		t.Fatal("new inbound message must flip unread back on")
	}
}

func TestAggregateIsPure(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	messages := []model.MessageItem{
		stamped("a@example.com", "Anna", "hello", false, base, "m1"),
		stamped("b@example.com", "Ben", "hi", true, base.Add(time.Minute), "m2"),
	}

	first := Aggregate(messages)
	second := Aggregate(messages)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same input must produce identical conversations")
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	conversations := Aggregate(nil)
	if len(conversations) != 0 {
		t.Fatalf("expected no conversations, got %d", len(conversations))
	}
	if badges := Project(conversations); badges.TotalUnreadThreads != 0 {
		t.Fatalf("expected zero badges, got %d", badges.TotalUnreadThreads)
	}
}

func TestAggregatePreviewForAttachmentOnlyMessage(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	photo := stamped("a@example.com", "Anna", "", true, base.Add(time.Minute), "m2")
	photo.AttachmentURL = "https://cdn.example.com/fixture.png"

	messages := []model.MessageItem{
		stamped("a@example.com", "Anna", "can you show the fixture?", false, base, "m1"),
		photo,
	}

	conv := Aggregate(messages)["a@example.com"]
	if conv.LastMessagePreview != AttachmentPreview {
		t.Fatalf("expected %q preview, got %q", AttachmentPreview, conv.LastMessagePreview)
	}
}

func TestAggregateDisplayNameFromNewestMessage(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	messages := []model.MessageItem{
		stamped("a@example.com", "anna", "hello", false, base, "m1"),
		stamped("a@example.com", "Anna Larsen", "with my full name now", false, base.Add(time.Minute), "m2"),
	}

	conv := Aggregate(messages)["a@example.com"]
	if conv.DisplayName != "Anna Larsen" {
		t.Fatalf("expected newest display name, got %q", conv.DisplayName)
	}
}

func TestOrderConversationsMostRecentFirst(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	messages := []model.MessageItem{
		stamped("a@example.com", "Anna", "oldest thread", false, base, "m1"),
		stamped("b@example.com", "Ben", "middle thread", false, base.Add(time.Minute), "m2"),
		stamped("c@example.com", "Cara", "newest thread", false, base.Add(2*time.Minute), "m3"),
		stamped("a@example.com", "Anna", "bump", false, base.Add(3*time.Minute), "m4"),
	}

	ordered := OrderConversations(Aggregate(messages))

	want := []string{"a@example.com", "c@example.com", "b@example.com"}
	if len(ordered) != len(want) {
		t.Fatalf("expected %d conversations, got %d", len(want), len(ordered))
	}
	for i, id := range want {
		if ordered[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, ordered[i].ID)
		}
	}
}

func TestSortMessagesParsesTimestamps(t *testing.T) {
	// RFC3339Nano trims trailing zeros, so plain string comparison would put
	// "10:00:00.5Z" after "10:00:00.25Z" variants incorrectly padded. Sorting
	// must parse.
	messages := []model.MessageItem{
		{MessageID: "m2", CreatedAt: "2024-03-01T10:00:00.5Z"},
		{MessageID: "m1", CreatedAt: "2024-03-01T10:00:00.25Z"},
		{MessageID: "m3", CreatedAt: "2024-03-01T10:00:00.5Z"},
	}

	sortMessages(messages)

	want := []string{"m1", "m2", "m3"}
	for i, id := range want {
		if messages[i].MessageID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, messages[i].MessageID)
		}
	}
}
