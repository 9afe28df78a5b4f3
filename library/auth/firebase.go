package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
)

const defaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// firebaseCodes maps Identity Toolkit error messages to sign-in codes.
var firebaseCodes = map[string]string{
	"INVALID_EMAIL":    CodeInvalidEmail,
	"MISSING_EMAIL":    CodeInvalidEmail,
	"USER_DISABLED":    CodeUserDisabled,
	"EMAIL_NOT_FOUND":  CodeUserNotFound,
	"INVALID_PASSWORD": CodeWrongPassword,
	"MISSING_PASSWORD": CodeWrongPassword,
}

// FirebaseProvider signs in through the Firebase Identity Toolkit REST API.
type FirebaseProvider struct {
	apiKey   string
	endpoint string
	httpcli  *http.Client
}

// FirebaseOption customizes a FirebaseProvider.
type FirebaseOption func(*FirebaseProvider)

// WithFirebaseEndpoint points the provider at another sign-in URL, e.g. the auth emulator.
func WithFirebaseEndpoint(endpoint string) FirebaseOption {
	return func(p *FirebaseProvider) {
		p.endpoint = endpoint
	}
}

// WithFirebaseHTTPClient replaces the http client.
func WithFirebaseHTTPClient(cli *http.Client) FirebaseOption {
	return func(p *FirebaseProvider) {
		p.httpcli = cli
	}
}

// NewFirebaseProvider creates a provider for the web api key of a firebase project.
func NewFirebaseProvider(apiKey string, opts ...FirebaseOption) (*FirebaseProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("firebase api key is empty")
	}

	p := &FirebaseProvider{
		apiKey:   apiKey,
		endpoint: defaultIdentityToolkitURL,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.httpcli == nil {
		cli, err := gutils.NewHTTPClient(
			gutils.WithHTTPClientTimeout(15 * time.Second),
		)
		if err != nil {
			return nil, errors.Wrap(err, "new http client")
		}
		p.httpcli = cli
	}

	return p, nil
}

type firebaseSignInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type firebaseSignInResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// SignIn verifies the credentials with firebase.
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	body, err := json.Marshal(firebaseSignInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal sign-in request")
	}

	endpoint := p.endpoint + "?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "new sign-in request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpcli.Do(req)
	if err != nil {
		return nil, NewError(CodeUnknown, errors.Wrap(err, "call identity toolkit"))
	}
	defer resp.Body.Close() // nolint: errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, NewError(CodeUnknown, errors.Wrap(err, "read sign-in response"))
	}

	var out firebaseSignInResponse
	if err = json.Unmarshal(raw, &out); err != nil {
		return nil, NewError(CodeUnknown, errors.Wrapf(err, "decode sign-in response, status %d", resp.StatusCode))
	}

	if resp.StatusCode != http.StatusOK || out.Error != nil {
		msg := ""
		if out.Error != nil {
			msg = out.Error.Message
		}
		return nil, NewError(firebaseCode(msg), errors.Errorf("identity toolkit: %d %s", resp.StatusCode, msg))
	}

	if out.LocalID == "" {
		return nil, NewError(CodeUnknown, errors.New("identity toolkit returned no user id"))
	}

	return &Identity{UID: out.LocalID, Email: out.Email}, nil
}

// firebaseCode maps a message like "TOO_MANY_ATTEMPTS_TRY_LATER : Access ..." to a code.
func firebaseCode(message string) string {
	key := strings.TrimSpace(message)
	if i := strings.Index(key, ":"); i >= 0 {
		key = strings.TrimSpace(key[:i])
	}

	if code, ok := firebaseCodes[key]; ok {
		return code
	}
	return CodeUnknown
}
