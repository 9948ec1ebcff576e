package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadPostsMultipartAndReturnsURL(t *testing.T) {
	var gotAuth, gotFilename, gotContentType, gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile error: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()

		gotFilename = header.Filename
		gotContentType = header.Header.Get("Content-Type")
		data, _ := io.ReadAll(file)
		gotBody = string(data)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"https://cdn.example.com/abc123.png"}`))
	}))
	defer server.Close()

	uploader := NewHTTPUploaderWith(server.URL, "test-key", server.Client())

	url, err := uploader.Upload(context.Background(), "lamp.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	if url != "https://cdn.example.com/abc123.png" {
		t.Fatalf("unexpected url: %q", url)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if gotFilename != "lamp.png" || gotContentType != "image/png" {
		t.Fatalf("part metadata lost: filename=%q contentType=%q", gotFilename, gotContentType)
	}
	if gotBody != "png-bytes" {
		t.Fatalf("payload corrupted: %q", gotBody)
	}
}

func TestUploadRejectedByMediaHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
	}))
	defer server.Close()

	uploader := NewHTTPUploaderWith(server.URL, "", server.Client())

	_, err := uploader.Upload(context.Background(), "notes.exe", "application/octet-stream", strings.NewReader("x"))
	if !errors.Is(err, ErrUploadRejected) {
		t.Fatalf("expected ErrUploadRejected, got %v", err)
	}
}

func TestUploadServerErrorIsNotARejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	uploader := NewHTTPUploaderWith(server.URL, "", server.Client())

	_, err := uploader.Upload(context.Background(), "lamp.png", "image/png", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrUploadRejected) {
		t.Fatal("5xx must not be classified as a rejection")
	}
}

func TestUploadResponseMissingURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	uploader := NewHTTPUploaderWith(server.URL, "", server.Client())

	if _, err := uploader.Upload(context.Background(), "lamp.png", "image/png", strings.NewReader("x")); err == nil {
		t.Fatal("expected an error for a response without a url")
	}
}
