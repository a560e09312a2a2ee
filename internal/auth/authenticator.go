package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ficscrape/ao3fetch/internal/fetcher"
	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/internal/transport"
	"github.com/ficscrape/ao3fetch/pkg/failure"
	"github.com/ficscrape/ao3fetch/pkg/timeutil"
)

/*
Responsibilities
- Read account credentials from the login file
- Obtain an authenticity token from the token dispenser endpoint
- Submit the login form so the session cookie lands in the shared jar

Login Flow

token dispenser -> settle delay -> read credentials -> POST login form
-> settle delay. The settle delays are self-imposed politeness, the
site does not mandate them.

The authenticator never inspects the session afterwards. Its contract
is only that the login request was sent through the shared transport;
the cookie jar carries the session from there.
*/

const (
	tokenDispenserPath = "/token_dispenser.json"
	loginPath          = "/users/login"
	loginCommitValue   = "Log In"
)

type Authenticator struct {
	metadataSink metadata.MetadataSink
	pageFetcher  fetcher.Fetcher
	client       *transport.Client
	loginFile    string
	settleDelay  time.Duration
}

func NewAuthenticator(
	metadataSink metadata.MetadataSink,
	pageFetcher fetcher.Fetcher,
	client *transport.Client,
	loginFile string,
	settleDelay time.Duration,
) Authenticator {
	return Authenticator{
		metadataSink: metadataSink,
		pageFetcher:  pageFetcher,
		client:       client,
		loginFile:    loginFile,
		settleDelay:  settleDelay,
	}
}

// Login performs the full credential flow against the configured
// origin. On success the session cookie is attached to the shared
// transport and all later fetches ride on it.
func (a *Authenticator) Login(ctx context.Context) failure.ClassifiedError {
	callerMethod := "Authenticator.Login"

	token, err := a.FetchToken(ctx)
	if err != nil {
		return err
	}

	if sleepErr := timeutil.SleepContext(ctx, a.settleDelay); sleepErr != nil {
		return a.interrupted(callerMethod, sleepErr)
	}

	creds, err := a.ReadCredentials()
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("authenticity_token", token)
	form.Set("user[login]", creds.Username())
	form.Set("user[password]", creds.Password())
	form.Set("commit", loginCommitValue)

	loginUrl := a.client.BaseOrigin()
	loginUrl.Path = loginPath

	resp, postErr := a.client.PostForm(ctx, loginUrl, form.Encode())
	if postErr != nil {
		return a.fail(callerMethod, &AuthError{
			Message:   fmt.Sprintf("failed to send login form: %v", postErr),
			Retryable: true,
			Cause:     ErrCauseLoginRequestFailed,
			Inner:     postErr,
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return a.fail(callerMethod, &AuthError{
			Message:   fmt.Sprintf("login form rejected with status %d", resp.StatusCode),
			Retryable: false,
			Cause:     ErrCauseLoginRejected,
		})
	}

	if sleepErr := timeutil.SleepContext(ctx, a.settleDelay); sleepErr != nil {
		return a.interrupted(callerMethod, sleepErr)
	}

	return nil
}

// FetchToken retrieves an authenticity token from the token dispenser.
// The request rides the regular fetch state machine, so transient
// dispenser hiccups are retried like any other page.
func (a *Authenticator) FetchToken(ctx context.Context) (string, failure.ClassifiedError) {
	callerMethod := "Authenticator.FetchToken"

	tokenUrl := a.client.BaseOrigin()
	tokenUrl.Path = tokenDispenserPath

	result, fetchErr := a.pageFetcher.Fetch(ctx, tokenUrl, 0)
	if fetchErr != nil {
		return "", a.fail(callerMethod, &AuthError{
			Message:   fmt.Sprintf("failed to fetch token: %v", fetchErr),
			Retryable: false,
			Cause:     ErrCauseTokenFetchFailed,
			Inner:     fetchErr,
		})
	}

	var dto tokenDTO
	if err := json.Unmarshal(result.Body(), &dto); err != nil {
		return "", a.fail(callerMethod, &AuthError{
			Message:   fmt.Sprintf("failed to decode token payload: %v", err),
			Retryable: false,
			Cause:     ErrCauseTokenMalformed,
			Inner:     err,
		})
	}
	if dto.Token == "" {
		return "", a.fail(callerMethod, &AuthError{
			Message:   "token payload holds no token",
			Retryable: false,
			Cause:     ErrCauseTokenMalformed,
		})
	}

	return dto.Token, nil
}

// ReadCredentials loads the login file. Line one is the username,
// line two the password; anything beyond is ignored.
func (a *Authenticator) ReadCredentials() (Credentials, failure.ClassifiedError) {
	callerMethod := "Authenticator.ReadCredentials"

	raw, err := os.ReadFile(a.loginFile)
	if err != nil {
		return Credentials{}, a.fail(callerMethod, &AuthError{
			Message:   fmt.Sprintf("failed to read %s: %v", a.loginFile, err),
			Retryable: false,
			Cause:     ErrCauseCredentialFileUnreadable,
			Inner:     err,
		})
	}

	lines := strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) == "" || strings.TrimSpace(lines[1]) == "" {
		return Credentials{}, a.fail(callerMethod, &AuthError{
			Message:   fmt.Sprintf("%s must hold username on line one and password on line two", a.loginFile),
			Retryable: false,
			Cause:     ErrCauseCredentialFileMalformed,
		})
	}

	return NewCredentials(strings.TrimSpace(lines[0]), strings.TrimSpace(lines[1])), nil
}

func (a *Authenticator) fail(action string, authErr *AuthError) *AuthError {
	a.metadataSink.RecordError(
		time.Now(),
		"auth",
		action,
		mapAuthErrorToMetadataCause(authErr),
		authErr.Message,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrHost, a.client.BaseOrigin().Host),
		},
	)
	return authErr
}

func (a *Authenticator) interrupted(action string, cause error) *AuthError {
	return a.fail(action, &AuthError{
		Message:   "login flow interrupted",
		Retryable: false,
		Cause:     ErrCauseInterrupted,
		Inner:     cause,
	})
}
