package ingestion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	// DefaultGmailCredentialsPath is the OAuth client file used when none is configured
	DefaultGmailCredentialsPath = "credentials.json"
	// DefaultGmailTokenPath caches the user token between runs
	DefaultGmailTokenPath = "token.json"
)

// ProgressCallback receives human readable progress messages
type ProgressCallback func(message string)

// GmailHandler downloads resume attachments from Gmail into the uploads directory
type GmailHandler struct {
	service    *gmail.Service
	uploadsDir string
	progress   ProgressCallback
	logger     *slog.Logger
}

// NewGmailHandlerWithCallback creates a Gmail handler reading OAuth client
// credentials from credPath and caching the user token at tokenPath
func NewGmailHandlerWithCallback(ctx context.Context, credPath, tokenPath, uploadsDir string, cb ProgressCallback) (*GmailHandler, error) {
	if credPath == "" {
		credPath = DefaultGmailCredentialsPath
	}
	if tokenPath == "" {
		tokenPath = DefaultGmailTokenPath
	}

	b, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client, err := getClient(ctx, config, tokenPath)
	if err != nil {
		return nil, err
	}
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}

	return &GmailHandler{
		service:    srv,
		uploadsDir: uploadsDir,
		progress:   cb,
		logger:     slog.Default(),
	}, nil
}

// getClient loads the cached token or runs the interactive consent flow
func getClient(ctx context.Context, config *oauth2.Config, tokFile string) (*http.Client, error) {
	tok, err := tokenFromFile(tokFile)
	if err != nil {
		tok, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokFile, tok); err != nil {
			return nil, err
		}
	}
	return config.Client(ctx, tok), nil
}

// getTokenFromWeb requests a token from the web
func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// tokenFromFile retrieves a token from a local file
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// saveToken saves a token to a file path
func saveToken(path string, token *oauth2.Token) error {
	slog.Info("saving oauth token", "path", path)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func (gh *GmailHandler) report(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	gh.logger.Info(msg)
	if gh.progress != nil {
		gh.progress(msg)
	}
}

// FetchAttachmentsWithContext downloads every supported attachment of the
// messages matching subject and returns the saved file paths
func (gh *GmailHandler) FetchAttachmentsWithContext(ctx context.Context, subject string) ([]string, error) {
	if err := os.MkdirAll(gh.uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	user := "me"
	query := fmt.Sprintf("subject:%s has:attachment", subject)

	r, err := gh.service.Users.Messages.List(user).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	if len(r.Messages) == 0 {
		return nil, fmt.Errorf("no messages found with subject: %s", subject)
	}
	gh.report("Found %d messages", len(r.Messages))

	var saved []string
	for _, msg := range r.Messages {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		message, err := gh.service.Users.Messages.Get(user, msg.Id).Context(ctx).Do()
		if err != nil {
			gh.logger.Warn("unable to retrieve message", "id", msg.Id, "error", err)
			continue
		}

		senderName := extractSenderName(message)

		for _, part := range attachmentParts(message.Payload) {
			filename, ok := attachmentFilename(senderName, part.Filename)
			if !ok {
				gh.logger.Debug("skipping attachment", "file", part.Filename)
				continue
			}

			attachment, err := gh.service.Users.Messages.Attachments.Get(user, msg.Id, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				gh.logger.Warn("unable to retrieve attachment", "file", part.Filename, "error", err)
				continue
			}

			data, err := decodeAttachment(attachment.Data)
			if err != nil {
				gh.logger.Warn("unable to decode attachment", "file", part.Filename, "error", err)
				continue
			}

			filePath := filepath.Join(gh.uploadsDir, filename)
			if err := os.WriteFile(filePath, data, 0644); err != nil {
				gh.logger.Warn("unable to write file", "path", filePath, "error", err)
				continue
			}

			saved = append(saved, filePath)
			gh.report("Downloaded: %s", filename)
		}
	}

	return saved, nil
}

// attachmentParts walks a message payload depth first, collecting parts
// that carry a named attachment
func attachmentParts(part *gmail.MessagePart) []*gmail.MessagePart {
	if part == nil {
		return nil
	}
	var out []*gmail.MessagePart
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		out = append(out, part)
	}
	for _, p := range part.Parts {
		out = append(out, attachmentParts(p)...)
	}
	return out
}

// decodeAttachment accepts padded and unpadded URL-safe base64
func decodeAttachment(data string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.New("attachment is not valid base64")
	}
	return b, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// attachmentFilename prefixes the original filename with the sender so
// attachments from different applicants do not collide. Unsupported
// formats report false.
func attachmentFilename(sender, filename string) (string, bool) {
	base := filepath.Base(filename)
	if _, err := DetectFormat(base); err != nil {
		return "", false
	}
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	sender = unsafeFilenameChars.ReplaceAllString(sender, "")
	if sender == "" {
		sender = "Unknown"
	}
	return sender + "_" + base, true
}

// extractSenderName extracts the sender's name from email headers
func extractSenderName(message *gmail.Message) string {
	if message.Payload == nil {
		return "Unknown"
	}
	for _, header := range message.Payload.Headers {
		if header.Name == "From" {
			// Parse "Name <email@example.com>" format
			from := header.Value
			if idx := strings.Index(from, "<"); idx > 0 {
				name := strings.Trim(strings.TrimSpace(from[:idx]), `"`)
				name = strings.ReplaceAll(name, " ", "")
				return name
			}
			// If no name, use email prefix
			if idx := strings.Index(from, "@"); idx > 0 {
				return from[:idx]
			}
			return "Unknown"
		}
	}
	return "Unknown"
}
