package ingestion

import (
	"encoding/base64"
	"testing"

	"google.golang.org/api/gmail/v1"
)

func TestExtractSenderName(t *testing.T) {
	tests := []struct {
		name string
		from string
		want string
	}{
		{name: "display name", from: "Jane Doe <jane@example.com>", want: "JaneDoe"},
		{name: "quoted display name", from: `"Rahul Sharma" <rahul@example.com>`, want: "RahulSharma"},
		{name: "bare address", from: "jane@example.com", want: "jane"},
		{name: "garbage", from: "nobody", want: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &gmail.Message{Payload: &gmail.MessagePart{
				Headers: []*gmail.MessagePartHeader{{Name: "From", Value: tt.from}},
			}}
			if got := extractSenderName(msg); got != tt.want {
				t.Errorf("extractSenderName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAttachmentFilename(t *testing.T) {
	tests := []struct {
		sender   string
		filename string
		want     string
		wantOK   bool
	}{
		{sender: "JaneDoe", filename: "resume.pdf", want: "JaneDoe_resume.pdf", wantOK: true},
		{sender: "JaneDoe", filename: "My CV (final).docx", want: "JaneDoe_My_CV_final_.docx", wantOK: true},
		{sender: "", filename: "cv.txt", want: "Unknown_cv.txt", wantOK: true},
		{sender: "JaneDoe", filename: "../../cv.rtf", want: "JaneDoe_cv.rtf", wantOK: true},
		{sender: "JaneDoe", filename: "photo.png", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, ok := attachmentFilename(tt.sender, tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("attachmentFilename() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("attachmentFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAttachmentParts(t *testing.T) {
	payload := &gmail.MessagePart{
		Parts: []*gmail.MessagePart{
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: "aGk"}},
			{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{Filename: "cv.pdf", Body: &gmail.MessagePartBody{AttachmentId: "a1"}},
				},
			},
			{Filename: "inline.png", Body: &gmail.MessagePartBody{}},
			{Filename: "letter.docx", Body: &gmail.MessagePartBody{AttachmentId: "a2"}},
		},
	}

	parts := attachmentParts(payload)
	if len(parts) != 2 {
		t.Fatalf("Expected 2 attachment parts, got %d", len(parts))
	}
	if parts[0].Filename != "cv.pdf" || parts[1].Filename != "letter.docx" {
		t.Errorf("Unexpected parts: %s, %s", parts[0].Filename, parts[1].Filename)
	}
	if attachmentParts(nil) != nil {
		t.Error("Expected nil for nil payload")
	}
}

func TestDecodeAttachment(t *testing.T) {
	raw := []byte("resume bytes?")
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding} {
		got, err := decodeAttachment(enc.EncodeToString(raw))
		if err != nil {
			t.Fatalf("decodeAttachment() error: %v", err)
		}
		if string(got) != string(raw) {
			t.Errorf("decodeAttachment() = %q", got)
		}
	}
	if _, err := decodeAttachment("!!!"); err == nil {
		t.Error("Expected error for invalid base64")
	}
}
