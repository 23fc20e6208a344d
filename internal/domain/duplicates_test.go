package domain

import (
	"testing"
	"time"
)

func TestFindDuplicatesText(t *testing.T) {
	c := &Chat{}
	for i, body := range []string{"hello there how are you", "ok", "hello there how are you"} {
		c.Messages = append(c.Messages, textMsg(base.Add(time.Duration(i)*time.Minute), "x", body))
	}

	texts, captions := FindDuplicates(c)
	if len(texts) != 1 {
		t.Fatalf("FindDuplicates() tracked %d texts, want 1", len(texts))
	}
	if got := texts["hello there how are you"]; got != 2 {
		t.Fatalf("occurrences = %d, want total count 2", got)
	}
	if _, ok := texts["ok"]; ok {
		t.Fatal("short reply should never be tracked")
	}
	if len(captions) != 0 {
		t.Fatalf("FindDuplicates() tracked %d captions, want 0", len(captions))
	}
}

func TestFindDuplicatesCaptions(t *testing.T) {
	caption := "the same caption sent twice"
	c := &Chat{Messages: []Message{
		mediaMsg(base, "x", Media{Kind: MediaPhoto, Caption: caption}),
		mediaMsg(base.Add(time.Minute), "y", Media{Kind: MediaVideo, Caption: caption}),
		mediaMsg(base.Add(2*time.Minute), "x", Media{Kind: MediaPhoto}),
	}}

	texts, captions := FindDuplicates(c)
	if len(texts) != 0 {
		t.Fatalf("FindDuplicates() tracked %d texts, want 0", len(texts))
	}
	// captions count regardless of media kind
	if got := captions[caption]; got != 2 {
		t.Fatalf("occurrences = %d, want 2", got)
	}
}

func TestFindDuplicatesLengthThreshold(t *testing.T) {
	atLimit := "123456789012345"    // 15 runes, never tracked
	overLimit := "1234567890123456" // 16 runes
	c := &Chat{Messages: []Message{
		textMsg(base, "x", atLimit),
		textMsg(base.Add(time.Minute), "x", atLimit),
		textMsg(base.Add(2*time.Minute), "x", overLimit),
		textMsg(base.Add(3*time.Minute), "x", overLimit),
	}}

	texts, _ := FindDuplicates(c)
	if _, ok := texts[atLimit]; ok {
		t.Fatal("content at the threshold should not be tracked")
	}
	if got := texts[overLimit]; got != 2 {
		t.Fatalf("occurrences = %d, want 2", got)
	}
}

func TestFindDuplicatesThreeOccurrences(t *testing.T) {
	body := "repeated three separate times"
	c := &Chat{}
	for i := 0; i < 3; i++ {
		c.Messages = append(c.Messages, textMsg(base.Add(time.Duration(i)*time.Hour), "x", body))
	}

	texts, _ := FindDuplicates(c)
	if got := texts[body]; got != 3 {
		t.Fatalf("occurrences = %d, want 3", got)
	}
}
