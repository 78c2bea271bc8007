package protocol

import (
	"errors"
	"testing"
)

func TestParseReply_Success(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		wantToken string
	}{
		{
			name:      "room created",
			input:     CreatedReply("host_10.0.0.1"),
			wantToken: "host_10.0.0.1",
		},
		{
			name:      "joined room",
			input:     JoinedReply("guest_10.0.0.2_1"),
			wantToken: "guest_10.0.0.2_1",
		},
		{
			name:      "trailing newline stripped",
			input:     []byte("Room created host_10.0.0.1\n"),
			wantToken: "host_10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ParseReply(tt.input)
			if err != nil {
				t.Fatalf("ParseReply() error: %v", err)
			}
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestParseReply_Failure(t *testing.T) {
	t.Run("room already exists", func(t *testing.T) {
		_, err := ParseReply([]byte(ReplyRoomExists))
		if !errors.Is(err, ErrRejectedReply) {
			t.Fatalf("ParseReply() = %v, want ErrRejectedReply", err)
		}
		var replyErr *ReplyError
		if !errors.As(err, &replyErr) {
			t.Fatal("error is not a *ReplyError")
		}
		if replyErr.Text != ReplyRoomExists {
			t.Errorf("Text = %q, want %q", replyErr.Text, ReplyRoomExists)
		}
	})

	t.Run("room not found", func(t *testing.T) {
		_, err := ParseReply([]byte(ReplyRoomNotFound))
		if !errors.Is(err, ErrRejectedReply) {
			t.Errorf("ParseReply() = %v, want ErrRejectedReply", err)
		}
	})

	t.Run("empty reply", func(t *testing.T) {
		_, err := ParseReply(nil)
		if !errors.Is(err, ErrEmptyReply) {
			t.Errorf("ParseReply() = %v, want ErrEmptyReply", err)
		}
	})

	t.Run("success prefix without token", func(t *testing.T) {
		_, err := ParseReply([]byte("Room created"))
		if !errors.Is(err, ErrEmptyReply) {
			t.Errorf("ParseReply() = %v, want ErrEmptyReply", err)
		}
	})
}
