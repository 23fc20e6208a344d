package domain

import (
	"testing"
	"time"
)

var base = time.Date(2021, 5, 1, 10, 30, 0, 0, time.UTC)

func textMsg(ts time.Time, sender, body string) Message {
	return Message{Timestamp: ts, Sender: sender, Kind: TextMessage, Body: body}
}

func systemMsg(ts time.Time, sender, body string) Message {
	return Message{Timestamp: ts, Sender: sender, Kind: SystemMessage, Body: body}
}

func mediaMsg(ts time.Time, sender string, media Media) Message {
	return Message{Timestamp: ts, Sender: sender, Kind: MediaMessage, Media: media}
}

func TestEquivalentText(t *testing.T) {
	tests := []struct {
		name string
		a, b Message
		want bool
	}{
		{
			name: "identical",
			a:    textMsg(base, "x", "hi"),
			b:    textMsg(base, "x", "hi"),
			want: true,
		},
		{
			name: "within tolerance",
			a:    textMsg(base, "x", "hi"),
			b:    textMsg(base.Add(23*time.Hour), "x", "hi"),
			want: true,
		},
		{
			name: "exactly one day apart",
			a:    textMsg(base, "x", "hi"),
			b:    textMsg(base.Add(24*time.Hour), "x", "hi"),
			want: true,
		},
		{
			name: "beyond tolerance",
			a:    textMsg(base, "x", "hi"),
			b:    textMsg(base.Add(25*time.Hour), "x", "hi"),
			want: false,
		},
		{
			name: "different sender",
			a:    textMsg(base, "x", "hi"),
			b:    textMsg(base, "y", "hi"),
			want: false,
		},
		{
			name: "different body",
			a:    textMsg(base, "x", "hi"),
			b:    textMsg(base, "x", "bye"),
			want: false,
		},
		{
			name: "different kinds",
			a:    textMsg(base, "x", "hi"),
			b:    systemMsg(base, "x", "hi"),
			want: false,
		},
		{
			name: "system matches system",
			a:    systemMsg(base, "", "x changed the group name"),
			b:    systemMsg(base.Add(time.Hour), "", "x changed the group name"),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equivalent(tt.a, tt.b); got != tt.want {
				t.Fatalf("Equivalent() = %v, want %v", got, tt.want)
			}
			// equivalence is symmetric
			if got := Equivalent(tt.b, tt.a); got != tt.want {
				t.Fatalf("Equivalent() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEquivalentMedia(t *testing.T) {
	tests := []struct {
		name string
		a, b Media
		want bool
	}{
		{
			name: "other wildcard kind",
			a:    Media{Kind: MediaPhoto, Path: "a/img.png"},
			b:    Media{Kind: MediaOther, Path: "b/img.png"},
			want: true,
		},
		{
			name: "differing captions",
			a:    Media{Kind: MediaPhoto, Path: "a/p1.png", Caption: "capA"},
			b:    Media{Kind: MediaPhoto, Path: "b/p2.png", Caption: "capB"},
			want: false,
		},
		{
			name: "one caption absent",
			a:    Media{Kind: MediaPhoto, Caption: "capA"},
			b:    Media{Kind: MediaPhoto},
			want: true,
		},
		{
			name: "kind mismatch",
			a:    Media{Kind: MediaPhoto},
			b:    Media{Kind: MediaVideo},
			want: false,
		},
		{
			name: "paths never compared",
			a:    Media{Kind: MediaAudio, Path: "old/a.opus", Name: "a.opus"},
			b:    Media{Kind: MediaAudio, Path: "", Name: "b.opus"},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mediaMsg(base, "x", tt.a)
			b := mediaMsg(base, "x", tt.b)
			if got := Equivalent(a, b); got != tt.want {
				t.Fatalf("Equivalent() = %v, want %v", got, tt.want)
			}
		})
	}
}
