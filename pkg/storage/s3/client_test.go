package s3

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/shokujin-wiki/shokujin-api/pkg/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), config.StorageConfig{
		Endpoint:        "localhost:9000",
		Region:          "ap-northeast-1",
		AccessKeyID:     "access",
		SecretAccessKey: "secret",
		Bucket:          "shokujin-images",
		CDNBaseURL:      "https://cdn.shokujin.example/",
	}, false, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestPublicURL(t *testing.T) {
	c := newTestClient(t)
	if got := c.PublicURL("uploads/abc/ramen.jpg"); got != "https://cdn.shokujin.example/uploads/abc/ramen.jpg" {
		t.Fatalf("unexpected url %s", got)
	}
	if got := c.PublicURL("/user_uploads/1/x.png"); got != "https://cdn.shokujin.example/user_uploads/1/x.png" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestPresignPostEmbedsConditions(t *testing.T) {
	c := newTestClient(t)
	post, err := c.PresignPost(context.Background(), "uploads/abc/ramen.jpg", PostOptions{
		ContentTypePrefix: "image/",
		MaxBytes:          20 * 1024 * 1024,
		Expiry:            time.Hour,
	})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(post.URL, "shokujin-images") {
		t.Fatalf("expected bucket in url %s", post.URL)
	}
	if post.Fields["key"] != "uploads/abc/ramen.jpg" {
		t.Fatalf("unexpected key field %q", post.Fields["key"])
	}
	if post.Fields["x-amz-signature"] == "" {
		t.Fatalf("expected signature in fields %v", post.Fields)
	}

	raw, err := base64.StdEncoding.DecodeString(post.Fields["policy"])
	if err != nil {
		t.Fatalf("decode policy: %v", err)
	}
	policy := string(raw)
	for _, want := range []string{`"starts-with","$Content-Type","image/"`, `"content-length-range", 0, 20971520`} {
		if !strings.Contains(policy, want) {
			t.Fatalf("policy %s missing %s", policy, want)
		}
	}
}

func TestNewClientRequiresBucket(t *testing.T) {
	if _, err := NewClient(context.Background(), config.StorageConfig{Endpoint: "localhost:9000"}, false, nil); err == nil {
		t.Fatal("expected missing bucket error")
	}
}
